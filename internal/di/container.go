package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/mail-notify/internal/adapters/extract"
	"github.com/mikey/mail-notify/internal/adapters/health"
	"github.com/mikey/mail-notify/internal/adapters/imapmail"
	"github.com/mikey/mail-notify/internal/adapters/webhook"
	"github.com/mikey/mail-notify/internal/config"
	"github.com/mikey/mail-notify/internal/core"
	"github.com/mikey/mail-notify/internal/factory"
	"github.com/mikey/mail-notify/internal/logging"
	"github.com/mikey/mail-notify/internal/scheduler"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewSummarizerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register summarizer (nil when the provider is unset)
	if err := container.Provide(func(f *factory.SummarizerFactory) (core.Summarizer, error) {
		return f.CreateSummarizer()
	}); err != nil {
		return nil, err
	}

	// Register summary cache
	if err := container.Provide(func(f *factory.CacheFactory) core.SummaryCache {
		return f.CreateCache()
	}); err != nil {
		return nil, err
	}

	// Register mailbox connector
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Mailbox {
		imap := cfg.GetIMAP()
		return imapmail.NewConnector(
			imap.Host,
			imap.Port,
			imap.Username,
			imap.Password,
			imap.Folder,
			imap.Timeout,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register content extractor
	if err := container.Provide(func(logger *zap.Logger) core.Extractor {
		return extract.NewExtractor(logger)
	}); err != nil {
		return nil, err
	}

	// Register batch pipeline service
	if err := container.Provide(func(
		extractor core.Extractor,
		summarizer core.Summarizer,
		summaryCache core.SummaryCache,
		logger *zap.Logger,
		cacheFactory *factory.CacheFactory,
		summarizerFactory *factory.SummarizerFactory,
	) *core.NotifyService {
		return core.NewNotifyService(
			extractor,
			summarizer,
			summaryCache,
			logger,
			cacheFactory.IsCacheEnabled(),
			summarizerFactory.GetRetryPolicy(),
		)
	}); err != nil {
		return nil, err
	}

	// Register notification dispatcher
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Notifier {
		wh := cfg.GetWebhook()
		return webhook.NewDispatcher(
			wh.URL,
			wh.Timeout,
			core.RetryPolicy{MaxAttempts: wh.MaxAttempts, Delay: wh.RetryDelay},
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register polling scheduler
	if err := container.Provide(func(
		mailbox core.Mailbox,
		service *core.NotifyService,
		notifier core.Notifier,
		cfg *config.Config,
		logger *zap.Logger,
	) *scheduler.Scheduler {
		poll := cfg.GetPoll()
		return scheduler.NewScheduler(
			mailbox,
			service,
			notifier,
			logger,
			poll.Interval,
			poll.Window,
			poll.BatchSize,
		)
	}); err != nil {
		return nil, err
	}

	// Register health server
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *health.Server {
		return health.NewServer(cfg.GetHealth().ListenAddress, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
