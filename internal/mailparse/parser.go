// Package mailparse normalizes raw RFC-822 message bytes into the subject,
// participant and plain-text body fields the pipeline works over.
package mailparse

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/utils"
)

// maxBodySize bounds downstream prompt and extractor cost
const maxBodySize = 5000

var whitespaceRun = regexp.MustCompile(`\s+`)

// Parser normalizes raw messages into core.EmailMessage values
type Parser struct {
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewParser creates a new message parser
func NewParser(logger *zap.Logger, textProcessor *utils.TextProcessor) *Parser {
	return &Parser{
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Parse decodes one raw message. Multipart bodies concatenate every
// text/plain part verbatim and append the stripped text of every HTML part.
// The body is capped at 5000 characters. Undecodable input yields a
// *core.ParseError; callers treat that as skip-and-log.
func (p *Parser) Parse(raw []byte) (*core.EmailMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, &core.ParseError{Err: err}
	}

	decoder := new(mime.WordDecoder)
	decodeHeader := func(v string) string {
		if decoded, err := decoder.DecodeHeader(v); err == nil {
			return decoded
		}
		return v
	}

	body, err := p.extractBody(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, &core.ParseError{Err: err}
	}

	return &core.EmailMessage{
		Subject: decodeHeader(msg.Header.Get("Subject")),
		From:    decodeHeader(msg.Header.Get("From")),
		To:      decodeHeader(msg.Header.Get("To")),
		Date:    msg.Header.Get("Date"),
		Body:    p.textProcessor.ProcessText(body, maxBodySize),
	}, nil
}

// extractBody walks one entity: a multipart container recurses into its
// parts, everything else decodes as a leaf.
func (p *Parser) extractBody(contentType, transferEncoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// No or malformed Content-Type: treat the body as plain text
		return readAll(r, transferEncoding)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok {
			return readAll(r, transferEncoding)
		}
		return p.walkMultipart(r, boundary)
	}

	text, err := readAll(r, transferEncoding)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(mediaType, "text/html") {
		return p.stripHTML(text), nil
	}
	return text, nil
}

// walkMultipart concatenates the text content of every part, recursing into
// nested multipart containers.
func (p *Parser) walkMultipart(r io.Reader, boundary string) (string, error) {
	mr := multipart.NewReader(r, boundary)
	var content strings.Builder

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A damaged part should not discard text already collected
			if content.Len() > 0 {
				p.logger.Debug("Stopped at damaged multipart boundary", zap.Error(err))
				break
			}
			return "", err
		}

		partType := part.Header.Get("Content-Type")
		partEncoding := part.Header.Get("Content-Transfer-Encoding")
		mediaType, params, mtErr := mime.ParseMediaType(partType)
		if mtErr != nil {
			mediaType = "text/plain"
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested, ok := params["boundary"]; ok {
				if text, err := p.walkMultipart(part, nested); err == nil {
					content.WriteString(text)
				}
			}
		case strings.HasPrefix(mediaType, "text/html"):
			if text, err := readAll(part, partEncoding); err == nil {
				content.WriteString(p.stripHTML(text))
				content.WriteString("\n")
			}
		case strings.HasPrefix(mediaType, "text/plain"):
			if text, err := readAll(part, partEncoding); err == nil {
				content.WriteString(text)
				content.WriteString("\n")
			}
			// attachments and other parts are skipped
		}
	}
	return content.String(), nil
}

// stripHTML converts HTML to plain text, dropping scripts and styles, and
// collapses whitespace runs.
func (p *Parser) stripHTML(html string) string {
	text, err := html2text.FromString(html, html2text.Options{TextOnly: true})
	if err != nil {
		p.logger.Debug("HTML conversion failed, keeping raw markup", zap.Error(err))
		text = html
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// readAll reads a (possibly transfer-encoded) body
func readAll(r io.Reader, transferEncoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
