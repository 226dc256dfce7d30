package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/mail-notify/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Summarizer condenses email bodies using the OpenAI chat API.
type Summarizer struct {
	client       *openai.Client
	modelName    string
	maxTokens    int
	temperature  float32
	maxBodySize  int
	timeout      time.Duration
	logger       *zap.Logger
	promptFormat string
}

// NewSummarizer creates a new OpenAI summarizer.
func NewSummarizer(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	timeout time.Duration,
	logger *zap.Logger,
) *Summarizer {
	client := openai.NewClient(apiKey)

	return &Summarizer{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		maxBodySize: maxBodySize,
		timeout:     timeout,
		logger:      logger,
		promptFormat: `Summarize the following email in two or three short sentences.
Keep the key facts, dates, amounts and any requested action. Respond with the summary text only, no preamble.

From: %s
Subject: %s
Body:
%s`,
	}
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

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize emails for chat notifications. Respond with plain text only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai completion: %v", core.ErrSummarize, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from openai", core.ErrSummarize)
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("%w: blank summary from openai", core.ErrSummarize)
	}
	return summary, nil
}
