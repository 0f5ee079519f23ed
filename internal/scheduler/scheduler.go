// Package scheduler drives the batch analysis loop: on a fixed interval it
// enumerates active mailboxes and feeds unprocessed messages through the
// analysis service. Failures are scoped as narrowly as possible: one bad
// message or mailbox never aborts the rest of the cycle.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

// Scheduler runs the periodic batch processing loop
type Scheduler struct {
	service       *core.AnalysisService
	directory     core.MailboxDirectory
	mail          core.MailStore
	logger        *zap.Logger
	interval      time.Duration
	batchSize     int
	skipMailboxes map[string]struct{}
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// New creates a new batch scheduler. skipMailboxes excludes addresses from
// batch analysis entirely; they remain reachable through the on-demand path.
func New(
	service *core.AnalysisService,
	directory core.MailboxDirectory,
	mail core.MailStore,
	logger *zap.Logger,
	interval time.Duration,
	batchSize int,
	skipMailboxes []string,
) *Scheduler {
	skip := make(map[string]struct{}, len(skipMailboxes))
	for _, m := range skipMailboxes {
		skip[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}

	return &Scheduler{
		service:       service,
		directory:     directory,
		mail:          mail,
		logger:        logger,
		interval:      interval,
		batchSize:     batchSize,
		skipMailboxes: skip,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start launches the background loop. The first cycle runs immediately;
// subsequent cycles start only after the previous one completes.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for the current cycle to finish
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunCycle(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunCycle processes one batch across all active mailboxes
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.logger.Info("Starting batch processing cycle")
	start := time.Now()

	boxes, err := s.directory.Active(ctx)
	if err != nil {
		s.logger.Error("Failed to enumerate active mailboxes", zap.Error(err))
		return
	}

	processed, skipped, failed := 0, 0, 0
	for _, box := range boxes {
		if _, ok := s.skipMailboxes[strings.ToLower(box.Address)]; ok {
			continue
		}

		refs, err := s.mail.List(box.Maildir, s.batchSize)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				s.logger.Warn("Mailbox storage location not found, skipping",
					zap.String("mailbox", box.Address),
					zap.String("maildir", box.Maildir))
			} else {
				s.logger.Error("Failed to list mailbox messages",
					zap.String("mailbox", box.Address), zap.Error(err))
			}
			continue
		}

		for _, ref := range refs {
			_, wasSkipped, err := s.service.Process(ctx, box.Address, ref.ID, box.Maildir, false)
			switch {
			case err != nil:
				failed++
				s.logger.Error("Failed to process message",
					zap.String("mailbox", box.Address),
					zap.String("email_id", ref.ID),
					zap.Error(err))
			case wasSkipped:
				skipped++
			default:
				processed++
			}
		}
	}

	s.logger.Info("Batch processing cycle complete",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))
}
