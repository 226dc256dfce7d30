package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

// batchDelimiter separates messages inside one notification.
const batchDelimiter = "\n----------------\n"

type textContent struct {
	Content string `json:"content"`
}

type message struct {
	MsgType string      `json:"msgtype"`
	Text    textContent `json:"text"`
}

// Dispatcher delivers batch notifications to a chat webhook with a
// fixed-delay retry schedule. Only a 2xx response counts as delivered;
// a failed batch leaves every contained message unread.
type Dispatcher struct {
	url        string
	httpClient *http.Client
	policy     core.RetryPolicy
	logger     *zap.Logger
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(url string, timeout time.Duration, policy core.RetryPolicy, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		logger:     logger,
	}
}

// Deliver formats the batch into one outbound message and posts it.
func (d *Dispatcher) Deliver(ctx context.Context, batch core.BatchResult) error {
	body, err := json.Marshal(message{
		MsgType: "text",
		Text:    textContent{Content: FormatBatch(batch)},
	})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %v", core.ErrDelivery, err)
	}

	attempt := 0
	err = d.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		return d.post(ctx, body, attempt)
	})
	if err != nil {
		if attempt == 0 {
			// Cancelled before the first post was ever attempted.
			return fmt.Errorf("%w: %v", core.ErrDelivery, err)
		}
		return fmt.Errorf("%w: after %d attempts: %v", core.ErrDelivery, attempt, err)
	}

	d.logger.Info("Notification delivered",
		zap.Int("messages", len(batch.Summaries)),
		zap.Int("attempts", attempt))
	return nil
}

func (d *Dispatcher) post(ctx context.Context, body []byte, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logger.Warn("Webhook request failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("Webhook rejected notification",
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// FormatBatch aggregates the batch into a single text block, one
// section per message, with a trailing line when some batch members
// could not be processed upstream.
func FormatBatch(batch core.BatchResult) string {
	blocks := make([]string, 0, len(batch.Summaries))
	for _, m := range batch.Summaries {
		blocks = append(blocks, fmt.Sprintf("From: %s\nSubject: %s\nTime: %s\nContent: %s",
			m.Content.From,
			m.Content.Subject,
			m.Content.Date.Format("2006-01-02 15:04:05"),
			m.Summary))
	}

	text := strings.Join(blocks, batchDelimiter)
	if batch.Failed > 0 {
		text += fmt.Sprintf("\n(%d message(s) could not be processed)", batch.Failed)
	}
	return text
}
