package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NotifyService runs single batches of messages through the
// fetch → extract → cache/summarize pipeline.
type NotifyService struct {
	extractor      Extractor
	summarizer     Summarizer // nil when summarization is disabled
	cache          SummaryCache
	logger         *zap.Logger
	cacheEnabled   bool
	summarizeRetry RetryPolicy
}

// NewNotifyService creates a new batch pipeline service.
func NewNotifyService(
	extractor Extractor,
	summarizer Summarizer,
	cache SummaryCache,
	logger *zap.Logger,
	cacheEnabled bool,
	summarizeRetry RetryPolicy,
) *NotifyService {
	return &NotifyService{
		extractor:      extractor,
		summarizer:     summarizer,
		cache:          cache,
		logger:         logger,
		cacheEnabled:   cacheEnabled,
		summarizeRetry: summarizeRetry,
	}
}

// ProcessBatch fetches, extracts and summarizes every message in the
// batch. A fetch or parse failure drops that one message and is counted
// in the result; it never aborts the rest of the batch. Messages that
// survive keep their original order.
func (s *NotifyService) ProcessBatch(ctx context.Context, session MailboxSession, refs []MessageRef) BatchResult {
	if s.cacheEnabled {
		if evicted := s.cache.EvictExpired(time.Now()); evicted > 0 {
			s.logger.Debug("Evicted expired summaries", zap.Int("count", evicted))
		}
	}

	var result BatchResult
	for _, ref := range refs {
		raw, err := session.FetchRaw(ctx, ref)
		if err != nil {
			s.logger.Warn("Skipping message, fetch failed",
				zap.Uint32("uid", ref.UID),
				zap.Error(err))
			result.Failed++
			continue
		}

		content, err := s.extractor.Extract(raw)
		if err != nil {
			s.logger.Warn("Skipping message, extraction failed",
				zap.Uint32("uid", ref.UID),
				zap.Error(err))
			result.Failed++
			continue
		}

		result.Summaries = append(result.Summaries, MessageSummary{
			Ref:     ref,
			Content: content,
			Summary: s.summaryFor(ctx, content),
		})
	}
	return result
}

// summaryFor returns the text to deliver for a message: the cached
// summary when one exists, a freshly generated one otherwise, and the
// raw extracted body when summarization is disabled or exhausted its
// attempts. Fallback bodies are not cached so a later cycle can still
// get a real summary.
func (s *NotifyService) summaryFor(ctx context.Context, content *EmailContent) string {
	if s.summarizer == nil {
		return content.Body
	}

	key := CacheKey(content.Identity, content.Date)
	if s.cacheEnabled {
		if cached, ok := s.cache.Lookup(key); ok {
			s.logger.Debug("Summary cache hit", zap.String("identity", content.Identity))
			return cached
		}
	}

	var summary string
	err := s.summarizeRetry.Do(ctx, func(ctx context.Context) error {
		out, err := s.summarizer.Summarize(ctx, content)
		if err != nil {
			s.logger.Warn("Summarization attempt failed",
				zap.String("identity", content.Identity),
				zap.Error(err))
			return err
		}
		summary = out
		return nil
	})
	if err != nil {
		s.logger.Warn("Summarization exhausted, using raw body",
			zap.String("identity", content.Identity),
			zap.Error(err))
		return content.Body
	}

	if s.cacheEnabled {
		s.cache.Store(key, summary)
	}
	return summary
}
