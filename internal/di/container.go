package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/adapters/maildir"
	"github.com/mikey/llm-mail-analyzer/internal/adapters/smtpingest"
	"github.com/mikey/llm-mail-analyzer/internal/api"
	"github.com/mikey/llm-mail-analyzer/internal/config"
	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/extract"
	"github.com/mikey/llm-mail-analyzer/internal/factory"
	"github.com/mikey/llm-mail-analyzer/internal/logging"
	"github.com/mikey/llm-mail-analyzer/internal/mailparse"
	"github.com/mikey/llm-mail-analyzer/internal/router"
	"github.com/mikey/llm-mail-analyzer/internal/scheduler"
	"github.com/mikey/llm-mail-analyzer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		// Configuration and logging
		config.New,
		logging.InitLogger,

		// Factories
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewStoreFactory,
		factory.NewDirectoryFactory,

		// Shared utilities
		utils.NewTextProcessor,

		// LLM client
		func(f *factory.LLMFactory) (core.LLMClient, error) {
			return f.CreateLLMClient()
		},

		// Dedup cache
		func(f *factory.CacheFactory) (core.DedupCache, error) {
			return f.CreateDedupCache()
		},

		// Analysis store
		func(f *factory.StoreFactory) (core.AnalysisStore, error) {
			return f.CreateAnalysisStore()
		},

		// Mailbox directory
		func(f *factory.DirectoryFactory) (core.MailboxDirectory, error) {
			return f.CreateMailboxDirectory()
		},

		// Maildir-backed mail store
		func(cfg *config.Config, logger *zap.Logger) core.MailStore {
			return maildir.NewStore(cfg.GetString("mail.vmail_path"), logger)
		},

		// Message normalizer
		func(logger *zap.Logger, tp *utils.TextProcessor) core.Normalizer {
			return mailparse.NewParser(logger, tp)
		},

		// Heuristic signal extractors
		func() core.SignalExtractor {
			return extract.NewEngine()
		},

		// Model routing profiles
		func(cfg *config.Config) router.Profiles {
			profiles := cfg.GetModelProfiles()
			return router.Profiles{
				Fast:         profiles.Fast,
				Balanced:     profiles.Balanced,
				Accurate:     profiles.Accurate,
				Multilingual: profiles.Multilingual,
			}
		},

		// Analysis service
		func(
			cfg *config.Config,
			llm core.LLMClient,
			extractor core.SignalExtractor,
			normalizer core.Normalizer,
			store core.AnalysisStore,
			cache core.DedupCache,
			mail core.MailStore,
			directory core.MailboxDirectory,
			profiles router.Profiles,
			cacheFactory *factory.CacheFactory,
			logger *zap.Logger,
		) (*core.AnalysisService, error) {
			llmTimeout, err := cfg.GetDuration("llm.timeout")
			if err != nil {
				return nil, err
			}
			cacheTTL, err := cacheFactory.GetCacheTTL()
			if err != nil {
				return nil, err
			}
			return core.NewAnalysisService(
				llm,
				extractor,
				normalizer,
				store,
				cache,
				mail,
				directory,
				profiles,
				logger,
				extract.DefaultLanguage,
				llmTimeout,
				cacheTTL,
				cacheFactory.GetCacheNamespace(),
			), nil
		},

		// Batch scheduler
		func(
			cfg *config.Config,
			service *core.AnalysisService,
			directory core.MailboxDirectory,
			mail core.MailStore,
			logger *zap.Logger,
		) (*scheduler.Scheduler, error) {
			interval, err := cfg.GetDuration("scheduler.interval")
			if err != nil {
				return nil, err
			}
			return scheduler.New(
				service,
				directory,
				mail,
				logger,
				interval,
				cfg.GetInt("scheduler.batch_size"),
				cfg.GetStringSlice("scheduler.skip_mailboxes"),
			), nil
		},

		// HTTP server
		func(
			cfg *config.Config,
			service *core.AnalysisService,
			store core.AnalysisStore,
			cache core.DedupCache,
			llm core.LLMClient,
			profiles router.Profiles,
			logger *zap.Logger,
		) *api.Server {
			return api.NewServer(
				service,
				store,
				cache,
				llm,
				profiles,
				cfg.GetString("mail.vmail_path"),
				cfg.GetString("server.listen_address"),
				logger,
			)
		},

		// SMTP ingest listener
		func(
			cfg *config.Config,
			service *core.AnalysisService,
			normalizer core.Normalizer,
			logger *zap.Logger,
		) *smtpingest.Ingest {
			return smtpingest.NewIngest(
				service,
				normalizer,
				logger,
				cfg.GetString("smtp.listen_address"),
			)
		},
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
