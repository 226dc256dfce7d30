package factory

import (
	"github.com/mikey/mail-notify/internal/adapters/cache"
	"github.com/mikey/mail-notify/internal/config"
	"github.com/mikey/mail-notify/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates summary cache instances
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCache creates the in-memory summary cache. The cache is
// process-local on purpose: the mailbox's read flags are the only state
// that survives a restart.
func (f *CacheFactory) CreateCache() core.SummaryCache {
	return cache.NewMemoryCache(f.cfg.GetCache().TTL, f.logger)
}

// IsCacheEnabled returns whether summary caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetCache().Enabled
}
