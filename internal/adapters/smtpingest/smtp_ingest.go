// Package smtpingest accepts messages over SMTP and feeds them into the
// analysis pipeline. It is ingest-only: the message is analyzed and stored,
// never relayed onward. Deploy it behind a trusted mail server, not on a
// public port.
package smtpingest

import (
	"bytes"
	"context"
	"io"
	"net/mail"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

const sessionTimeout = 60 * time.Second

// Ingest is an SMTP listener that analyzes every delivered message
type Ingest struct {
	service    *core.AnalysisService
	normalizer core.Normalizer
	logger     *zap.Logger
	listenAddr string
	server     *smtp.Server
}

// NewIngest creates a new SMTP ingest listener
func NewIngest(
	service *core.AnalysisService,
	normalizer core.Normalizer,
	logger *zap.Logger,
	listenAddr string,
) *Ingest {
	return &Ingest{
		service:    service,
		normalizer: normalizer,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// Start starts the SMTP listener in a background goroutine
func (i *Ingest) Start() error {
	i.server = smtp.NewServer(&smtpBackend{ingest: i})

	i.server.Addr = i.listenAddr
	i.server.Domain = "localhost"
	i.server.ReadTimeout = 30 * time.Second
	i.server.WriteTimeout = 30 * time.Second
	i.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	i.server.MaxRecipients = 50
	i.server.AllowInsecureAuth = true

	i.logger.Info("SMTP ingest starting", zap.String("address", i.listenAddr))

	go func() {
		if err := i.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				i.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP listener
func (i *Ingest) Stop() error {
	if i.server != nil {
		return i.server.Close()
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	ingest *Ingest
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		ingest:     b.ingest,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	ingest     *Ingest
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (ingest runs unauthenticated)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data accepts the message, runs analysis and persists the record. Analysis
// failures still return 250 so the upstream server never bounces mail over a
// processing problem; only an unreadable data stream is refused.
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.ingest.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	mailbox := s.sender
	if len(s.recipients) > 0 {
		mailbox = s.recipients[0]
	}

	emailID := messageID(raw)

	msg, err := s.ingest.normalizer.Parse(raw)
	if err != nil {
		s.ingest.logger.Error("Failed to parse ingested message",
			zap.String("mailbox", mailbox),
			zap.String("email_id", emailID),
			zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionTimeout)
	defer cancel()

	rec, err := s.ingest.service.AnalyzeMessage(ctx, mailbox, emailID, msg)
	if err != nil {
		s.ingest.logger.Error("Failed to analyze ingested message",
			zap.String("mailbox", mailbox),
			zap.String("email_id", emailID),
			zap.Error(err))
		return nil
	}

	s.ingest.logger.Info("Ingested message analyzed",
		zap.String("mailbox", mailbox),
		zap.String("email_id", emailID),
		zap.Int("priority", rec.PriorityScore),
		zap.Bool("degraded", rec.AnalysisError != ""))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

// messageID derives a stable record key from the Message-Id header, falling
// back to a random id when the header is absent or the headers are unreadable
func messageID(raw []byte) string {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err == nil {
		if id := msg.Header.Get("Message-Id"); id != "" {
			return id
		}
	}
	return uuid.New().String()
}
