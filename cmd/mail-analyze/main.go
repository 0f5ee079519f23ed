// mail-analyze reads one raw email from a file or stdin, runs it through the
// analysis pipeline and prints the resulting record as JSON. With -no-llm it
// runs only the heuristic extractors, which needs no credentials.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/config"
	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/extract"
	"github.com/mikey/llm-mail-analyzer/internal/factory"
	"github.com/mikey/llm-mail-analyzer/internal/logging"
	"github.com/mikey/llm-mail-analyzer/internal/mailparse"
	"github.com/mikey/llm-mail-analyzer/internal/router"
	"github.com/mikey/llm-mail-analyzer/internal/utils"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, bedrock, gemini)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	llmTimeout  = flag.Duration("llm-timeout", 30*time.Second, "Timeout for one model invocation")

	// Model profile flags
	fastModel         = flag.String("fast-model", "gpt-4o-mini", "Model for the fast routing profile")
	balancedModel     = flag.String("balanced-model", "gpt-4o", "Model for the balanced routing profile")
	accurateModel     = flag.String("accurate-model", "", "Model for the accurate routing profile")
	multilingualModel = flag.String("multilingual-model", "", "Model for the multilingual routing profile")

	// Provider credential flags
	openaiAPIKey  = flag.String("openai-api-key", "", "API key for OpenAI")
	bedrockRegion = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	geminiAPIKey  = flag.String("gemini-api-key", "", "API key for Google Gemini")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	noLLM      = flag.Bool("no-llm", false, "Run only the heuristic extractors, skip the model call")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	raw, err := io.ReadAll(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to read email", zap.Error(err))
	}

	parser := mailparse.NewParser(logger, utils.NewTextProcessor(logger))
	msg, err := parser.Parse(raw)
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	engine := extract.NewEngine()

	var rec *core.AnalysisRecord
	if *noLLM {
		rec = heuristicRecord(engine, msg)
	} else {
		llmClient, err := factory.NewLLMFactory(cfg, logger).CreateLLMClient()
		if err != nil {
			logger.Fatal("Failed to create LLM client", zap.Error(err))
		}

		profilesCfg := cfg.GetModelProfiles()
		service := core.NewAnalysisService(
			llmClient,
			engine,
			parser,
			nil, // no persistence in one-shot mode
			nil,
			nil,
			nil,
			router.Profiles{
				Fast:         profilesCfg.Fast,
				Balanced:     profilesCfg.Balanced,
				Accurate:     profilesCfg.Accurate,
				Multilingual: profilesCfg.Multilingual,
			},
			logger,
			extract.DefaultLanguage,
			*llmTimeout,
			0,
			"",
		)
		rec = service.Analyze(context.Background(), msg)

		if closer, ok := llmClient.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close LLM client", zap.Error(err))
			}
		}
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(out))
}

// heuristicRecord builds a record from the extractors alone, with neutral
// defaults for every model-derived field
func heuristicRecord(engine *extract.Engine, msg *core.EmailMessage) *core.AnalysisRecord {
	start := time.Now()
	sig := engine.Extract(msg, start)

	const neutralPriority = 5
	for i := range sig.Tasks {
		sig.Tasks[i].Priority = neutralPriority
	}

	return &core.AnalysisRecord{
		Categories:          []string{},
		PriorityScore:       neutralPriority,
		ProcessingTime:      time.Since(start).Seconds(),
		AnalyzedAt:          time.Now(),
		ConversationID:      sig.ConversationID,
		Tasks:               sig.Tasks,
		Meeting:             sig.Meeting,
		Tone:                sig.Tone,
		SentimentScore:      sig.SentimentScore,
		Language:            sig.Language,
		Entities:            sig.Entities,
		SmartReplies:        engine.Replies(neutralPriority, sig),
		ResponseTimeMinutes: engine.PredictResponseMinutes(neutralPriority, sig),
		ModelUsed:           "heuristics-only",
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)
	v.Set("llm.timeout", llmTimeout.String())

	v.Set("models.fast", *fastModel)
	v.Set("models.balanced", *balancedModel)
	v.Set("models.accurate", *accurateModel)
	v.Set("models.multilingual", *multilingualModel)

	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	}

	return config.NewFromViper(v)
}
