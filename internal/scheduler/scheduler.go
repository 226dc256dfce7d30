// Package scheduler drives the poll → batch → deliver loop. One
// dedicated goroutine runs cycles strictly sequentially; nothing else
// touches the mailbox session or the summary cache while it runs.
package scheduler

import (
	"context"
	"time"

	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

const defaultBatchSize = 10

// Scheduler is the top-level polling loop.
type Scheduler struct {
	mailbox   core.Mailbox
	service   *core.NotifyService
	notifier  core.Notifier
	logger    *zap.Logger
	interval  time.Duration
	window    time.Duration
	batchSize int
}

// NewScheduler creates a new polling scheduler.
func NewScheduler(
	mailbox core.Mailbox,
	service *core.NotifyService,
	notifier core.Notifier,
	logger *zap.Logger,
	interval time.Duration,
	window time.Duration,
	batchSize int,
) *Scheduler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Scheduler{
		mailbox:   mailbox,
		service:   service,
		notifier:  notifier,
		logger:    logger,
		interval:  interval,
		window:    window,
		batchSize: batchSize,
	}
}

// Run executes polling cycles until ctx is cancelled. Cycle errors are
// logged and never terminate the loop; cancellation is observed at the
// cycle boundary and during the inter-cycle wait.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Mail polling started",
		zap.Duration("interval", s.interval),
		zap.Duration("window", s.window),
		zap.Int("batch_size", s.batchSize))

	for {
		if ctx.Err() != nil {
			s.logger.Info("Mail polling stopped")
			return
		}

		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Polling cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Mail polling stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

// RunOnce executes a single polling cycle: connect, search the trailing
// window, and drive each batch through the pipeline. A connection or
// search failure abandons the cycle; it is not retried until the next
// scheduled cycle.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	since := time.Now().Add(-s.window)

	session, err := s.mailbox.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("Mailbox close failed", zap.Error(err))
		}
	}()

	refs, err := session.Search(ctx, since)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		s.logger.Debug("No unseen messages")
		return nil
	}

	s.logger.Info("Unseen messages found", zap.Int("count", len(refs)))

	// One batch's delivery failure must not block the batches after it.
	for _, batch := range chunkRefs(refs, s.batchSize) {
		s.processBatch(ctx, session, batch)
	}
	return nil
}

// processBatch runs one batch through the pipeline and, only after the
// notification is confirmed delivered, marks its messages read. Failed
// batches stay unread and are re-offered by a later search.
func (s *Scheduler) processBatch(ctx context.Context, session core.MailboxSession, refs []core.MessageRef) {
	result := s.service.ProcessBatch(ctx, session, refs)

	if len(result.Summaries) == 0 {
		if result.Failed > 0 {
			s.logger.Warn("Batch produced no deliverable messages",
				zap.Int("failed", result.Failed))
		}
		return
	}

	if err := s.notifier.Deliver(ctx, result); err != nil {
		s.logger.Error("Leaving batch unread after delivery failure",
			zap.Int("messages", len(result.Summaries)),
			zap.Error(err))
		return
	}

	for _, m := range result.Summaries {
		if err := session.MarkRead(ctx, m.Ref); err != nil {
			// Delivery already succeeded; the worst case is one extra
			// notification for this message next cycle.
			s.logger.Warn("Mark as read failed",
				zap.Uint32("uid", m.Ref.UID),
				zap.Error(err))
		}
	}
}

// chunkRefs splits refs into groups of at most size, preserving order.
func chunkRefs(refs []core.MessageRef, size int) [][]core.MessageRef {
	var batches [][]core.MessageRef
	for start := 0; start < len(refs); start += size {
		end := start + size
		if end > len(refs) {
			end = len(refs)
		}
		batches = append(batches, refs[start:end])
	}
	return batches
}
