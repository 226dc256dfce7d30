// mail-check runs a single polling cycle and exits. It is meant for
// cron-style use and for verifying a configuration before starting the
// daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mikey/mail-notify/internal/adapters/extract"
	"github.com/mikey/mail-notify/internal/adapters/imapmail"
	"github.com/mikey/mail-notify/internal/adapters/webhook"
	"github.com/mikey/mail-notify/internal/config"
	"github.com/mikey/mail-notify/internal/core"
	"github.com/mikey/mail-notify/internal/factory"
	"github.com/mikey/mail-notify/internal/logging"
	"github.com/mikey/mail-notify/internal/scheduler"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "Path to config file (default search paths apply if empty)")
	provider   = flag.String("provider", "", "LLM provider override (openai, gemini, bedrock; empty disables)")
	folder     = flag.String("folder", "", "Mailbox folder override")
	window     = flag.Duration("window", 0, "Trailing search window override")
	batchSize  = flag.Int("batch-size", 0, "Batch size override")
	timeout    = flag.Duration("timeout", 5*time.Minute, "Overall cycle timeout")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	applyOverrides(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := runCycle(ctx, cfg, logger); err != nil {
		logger.Error("Polling cycle failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configFile == "" {
		return config.New()
	}
	v := config.NewEmptyViper()
	v.SetConfigFile(*configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", *configFile, err)
	}
	return config.NewFromViper(v), nil
}

// applyOverrides copies explicitly-set flags over the loaded config.
func applyOverrides(cfg *config.Config) {
	v := cfg.GetViper()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			v.Set("llm.provider", *provider)
		case "folder":
			v.Set("imap.folder", *folder)
		case "window":
			v.Set("poll.window", window.String())
		case "batch-size":
			v.Set("poll.batch_size", *batchSize)
		}
	})
}

func runCycle(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	summarizerFactory := factory.NewSummarizerFactory(cfg, logger)
	summarizer, err := summarizerFactory.CreateSummarizer()
	if err != nil {
		return fmt.Errorf("creating summarizer: %w", err)
	}
	if closer, ok := summarizer.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	cacheFactory := factory.NewCacheFactory(cfg, logger)
	service := core.NewNotifyService(
		extract.NewExtractor(logger),
		summarizer,
		cacheFactory.CreateCache(),
		logger,
		cacheFactory.IsCacheEnabled(),
		summarizerFactory.GetRetryPolicy(),
	)

	imap := cfg.GetIMAP()
	mailbox := imapmail.NewConnector(
		imap.Host,
		imap.Port,
		imap.Username,
		imap.Password,
		imap.Folder,
		imap.Timeout,
		logger,
	)

	wh := cfg.GetWebhook()
	notifier := webhook.NewDispatcher(
		wh.URL,
		wh.Timeout,
		core.RetryPolicy{MaxAttempts: wh.MaxAttempts, Delay: wh.RetryDelay},
		logger,
	)

	poll := cfg.GetPoll()
	sched := scheduler.NewScheduler(
		mailbox,
		service,
		notifier,
		logger,
		poll.Interval,
		poll.Window,
		poll.BatchSize,
	)

	return sched.RunOnce(ctx)
}
