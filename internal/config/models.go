package config

import "time"

// IMAPConfig represents the configuration for the mailbox connection
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
	Timeout  time.Duration
}

// WebhookConfig represents the configuration for the outbound chat webhook
type WebhookConfig struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// PollConfig represents the polling loop configuration
type PollConfig struct {
	Interval  time.Duration
	Window    time.Duration
	BatchSize int
}

// CacheConfig represents the summary cache configuration
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LLMConfig represents the configuration for the summarization provider
type LLMConfig struct {
	Provider    string
	MaxAttempts int
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// HealthConfig represents the health endpoint configuration
type HealthConfig struct {
	ListenAddress string
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	return IMAPConfig{
		Host:     c.GetString("imap.host"),
		Port:     c.GetInt("imap.port"),
		Username: c.GetString("imap.username"),
		Password: c.GetString("imap.password"),
		Folder:   c.GetString("imap.folder"),
		Timeout:  c.GetDuration("imap.timeout"),
	}
}

// GetWebhook returns the webhook configuration
func (c *Config) GetWebhook() WebhookConfig {
	return WebhookConfig{
		URL:         c.GetString("webhook.url"),
		Timeout:     c.GetDuration("webhook.timeout"),
		MaxAttempts: c.GetInt("webhook.max_attempts"),
		RetryDelay:  c.GetDuration("webhook.retry_delay"),
	}
}

// GetPoll returns the polling configuration
func (c *Config) GetPoll() PollConfig {
	return PollConfig{
		Interval:  c.GetDuration("poll.interval"),
		Window:    c.GetDuration("poll.window"),
		BatchSize: c.GetInt("poll.batch_size"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Enabled: c.GetBool("cache.enabled"),
		TTL:     c.GetDuration("cache.ttl"),
	}
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:    c.GetString("llm.provider"),
		MaxAttempts: c.GetInt("llm.max_attempts"),
		MaxBodySize: c.GetInt("llm.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		Timeout:     c.GetDuration("openai.timeout"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		Timeout:     c.GetDuration("gemini.timeout"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		Timeout:     c.GetDuration("bedrock.timeout"),
	}
}

// GetHealth returns the health endpoint configuration
func (c *Config) GetHealth() HealthConfig {
	return HealthConfig{
		ListenAddress: c.GetString("health.listen_address"),
	}
}
