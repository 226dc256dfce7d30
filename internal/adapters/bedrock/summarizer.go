package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

// Summarizer condenses email bodies using Amazon Bedrock.
type Summarizer struct {
	client       *bedrockruntime.Client
	modelID      string
	maxTokens    int
	temperature  float32
	maxBodySize  int
	timeout      time.Duration
	logger       *zap.Logger
	promptFormat string
}

// NewSummarizer creates a new Bedrock summarizer. The bedrockruntime
// client is built by the factory from the ambient AWS configuration.
func NewSummarizer(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	timeout time.Duration,
	logger *zap.Logger,
) *Summarizer {
	return &Summarizer{
		client:      client,
		modelID:     modelID,
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

// isAnthropicModel checks if the model is an Anthropic Claude model
func (s *Summarizer) isAnthropicModel() bool {
	return strings.HasPrefix(s.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (s *Summarizer) isAmazonTitanModel() bool {
	return strings.HasPrefix(s.modelID, "amazon.titan")
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

	// Build the request payload for the model family
	var payload []byte
	var err error

	if s.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": s.maxTokens,
			"temperature":          s.temperature,
		})
	} else if s.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": s.maxTokens,
				"temperature":   s.temperature,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  s.maxTokens,
			"temperature": s.temperature,
		})
	}
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request payload: %v", core.ErrSummarize, err)
	}

	resp, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &s.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: invoking Bedrock model: %v", core.ErrSummarize, err)
	}

	summary, err := s.responseText(resp.Body)
	if err != nil {
		return "", err
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("%w: blank summary from bedrock", core.ErrSummarize)
	}
	return summary, nil
}

// responseText unwraps the model-family-specific response envelope.
func (s *Summarizer) responseText(body []byte) (string, error) {
	if s.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("%w: unmarshaling Claude response: %v", core.ErrSummarize, err)
		}
		return claudeResp.Completion, nil
	}

	if s.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("%w: unmarshaling Titan response: %v", core.ErrSummarize, err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("%w: empty response from Titan model", core.ErrSummarize)
		}
		return titanResp.Results[0].OutputText, nil
	}

	// Generic fallback: try common field names, else the raw body
	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("%w: unmarshaling response: %v", core.ErrSummarize, err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	}
	return string(body), nil
}
