package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mail-notify/internal/adapters/bedrock"
	"github.com/mikey/mail-notify/internal/adapters/gemini"
	"github.com/mikey/mail-notify/internal/adapters/openai"
	"github.com/mikey/mail-notify/internal/config"
	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

// SummarizerFactory creates summarizer clients
type SummarizerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSummarizerFactory creates a new summarizer factory
func NewSummarizerFactory(cfg *config.Config, logger *zap.Logger) *SummarizerFactory {
	return &SummarizerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSummarizer creates a summarizer based on the configured
// provider. An empty provider disables summarization entirely and the
// pipeline delivers raw extracted bodies instead.
func (f *SummarizerFactory) CreateSummarizer() (core.Summarizer, error) {
	llm := f.cfg.GetLLM()

	switch llm.Provider {
	case "":
		f.logger.Info("Summarization disabled, raw bodies will be delivered")
		return nil, nil
	case "openai":
		c := f.cfg.GetOpenAI()
		return openai.NewSummarizer(
			c.APIKey,
			c.ModelName,
			c.MaxTokens,
			c.Temperature,
			llm.MaxBodySize,
			c.Timeout,
			f.logger,
		), nil
	case "gemini":
		c := f.cfg.GetGemini()
		return gemini.NewSummarizer(
			c.APIKey,
			c.ModelName,
			c.MaxTokens,
			c.Temperature,
			llm.MaxBodySize,
			c.Timeout,
			f.logger,
		)
	case "bedrock":
		c := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(c.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewSummarizer(
			client,
			c.ModelID,
			c.MaxTokens,
			c.Temperature,
			llm.MaxBodySize,
			c.Timeout,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", llm.Provider)
	}
}

// GetRetryPolicy returns the retry schedule for summarization attempts.
// Attempts proceed immediately, unlike delivery retries.
func (f *SummarizerFactory) GetRetryPolicy() core.RetryPolicy {
	return core.RetryPolicy{
		MaxAttempts: f.cfg.GetLLM().MaxAttempts,
		Delay:       0,
	}
}
