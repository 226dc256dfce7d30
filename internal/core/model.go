package core

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MessageRef identifies a message within one open mailbox session.
// It is only valid for the polling cycle that produced it.
type MessageRef struct {
	UID uint32
}

// EmailContent is the normalized form of one raw message.
type EmailContent struct {
	From     string // display form, "Name <addr>" or bare address
	Subject  string
	Identity string // Message-ID, or synthesized from sender and timestamp
	Date     time.Time
	Body     string // plain text, capped by the extractor
}

// MessageSummary pairs extracted content with the text that will be
// delivered for it (a generated summary or the raw body fallback).
type MessageSummary struct {
	Ref     MessageRef
	Content *EmailContent
	Summary string
}

// BatchResult is the outcome of running one batch through the pipeline.
// Summaries keeps the original message order; Failed counts messages
// dropped by fetch or parse errors.
type BatchResult struct {
	Summaries []MessageSummary
	Failed    int
}

// CacheKey derives the summary cache key for a message. The same
// physical message always maps to the same key, even across distinct
// search results.
func CacheKey(identity string, ts time.Time) string {
	sum := sha256.Sum256([]byte(identity + "|" + ts.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])
}
