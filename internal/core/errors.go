package core

import "errors"

// Error taxonomy for the pipeline. Adapters wrap these so callers can
// classify failures with errors.Is without depending on adapter types.
var (
	// ErrConnection indicates the mailbox session could not be opened.
	ErrConnection = errors.New("mailbox connection failed")
	// ErrSearch indicates the unseen-message search failed.
	ErrSearch = errors.New("mailbox search failed")
	// ErrFetch indicates one message could not be fetched.
	ErrFetch = errors.New("message fetch failed")
	// ErrParse indicates one message could not be decoded.
	ErrParse = errors.New("message parse failed")
	// ErrSummarize indicates a summarization attempt failed.
	ErrSummarize = errors.New("summarization failed")
	// ErrDelivery indicates the notification was not accepted after all attempts.
	ErrDelivery = errors.New("notification delivery failed")
	// ErrMark indicates a delivered message could not be flagged as read.
	ErrMark = errors.New("mark as read failed")
)
