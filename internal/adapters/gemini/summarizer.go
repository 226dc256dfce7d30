package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Summarizer condenses email bodies using Google Gemini.
type Summarizer struct {
	client       *genai.Client
	model        *genai.GenerativeModel
	modelName    string
	maxBodySize  int
	timeout      time.Duration
	logger       *zap.Logger
	promptFormat string
}

// NewSummarizer creates a new Gemini summarizer.
func NewSummarizer(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	timeout time.Duration,
	logger *zap.Logger,
) (*Summarizer, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Summarizer{
		client:      client,
		model:       model,
		modelName:   modelName,
		maxBodySize: maxBodySize,
		timeout:     timeout,
		logger:      logger,
		promptFormat: `Summarize the following email in two or three short sentences.
Keep the key facts, dates, amounts and any requested action. Respond with the summary text only, no preamble.

From: %s
Subject: %s
Body:
%s`,
	}, nil
}

// Close closes the Gemini client
func (s *Summarizer) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// truncateBody truncates the email body if it exceeds the maximum size
func (s *Summarizer) truncateBody(body string) string {
	if s.maxBodySize <= 0 || len(body) <= s.maxBodySize {
		return body
	}

	truncated := body[:s.maxBodySize]
	s.logger.Debug("Email body truncated for summarization",
		zap.Int("original_size", len(body)),
		zap.Int("max_size", s.maxBodySize))

	return truncated
}

// Summarize generates a condensed summary of the email body.
func (s *Summarizer) Summarize(ctx context.Context, email *core.EmailContent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(s.promptFormat, email.From, email.Subject, s.truncateBody(email.Body))

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini generation: %v", core.ErrSummarize, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from gemini", core.ErrSummarize)
	}

	summary := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	if summary == "" {
		return "", fmt.Errorf("%w: blank summary from gemini", core.ErrSummarize)
	}
	return summary, nil
}
