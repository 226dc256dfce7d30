package core

import (
	"context"
	"time"
)

// Mailbox opens authenticated sessions against the configured mailbox.
type Mailbox interface {
	// Connect establishes an encrypted, authenticated session with the
	// target folder selected. Connection failures are never retried here;
	// the scheduler treats them as a whole-cycle failure.
	Connect(ctx context.Context) (MailboxSession, error)
}

// MailboxSession exposes the per-cycle mailbox primitives. Sessions are
// used by exactly one goroutine and discarded at the end of the cycle.
type MailboxSession interface {
	// Search returns unseen messages received on or after the date
	// component of since, in server-assigned ascending order.
	Search(ctx context.Context, since time.Time) ([]MessageRef, error)

	// FetchRaw returns the full raw message without marking it seen.
	FetchRaw(ctx context.Context, ref MessageRef) ([]byte, error)

	// MarkRead flags the message as seen.
	MarkRead(ctx context.Context, ref MessageRef) error

	// Close flushes pending flag changes and logs out.
	Close() error
}

// Extractor decodes a raw message into normalized content.
type Extractor interface {
	Extract(raw []byte) (*EmailContent, error)
}

// Summarizer condenses an email body via an external service.
type Summarizer interface {
	Summarize(ctx context.Context, email *EmailContent) (string, error)
}

// SummaryCache maps a message key to a previously computed summary.
// Entries expire after a fixed TTL; eviction is driven lazily by the
// caller, not by a background timer.
type SummaryCache interface {
	Lookup(key string) (string, bool)
	Store(key, summary string)
	// EvictExpired removes every entry older than the TTL as of now and
	// returns the number of entries removed.
	EvictExpired(now time.Time) int
}

// Notifier formats a batch into a single outbound message and delivers
// it. A nil return means the whole batch was confirmed delivered.
type Notifier interface {
	Deliver(ctx context.Context, batch BatchResult) error
}
