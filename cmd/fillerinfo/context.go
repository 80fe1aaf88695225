package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"fillerinfo/internal/classifier"
	"fillerinfo/internal/config"
	"fillerinfo/internal/fillerdb"
	"fillerinfo/internal/identitycache"
	"fillerinfo/internal/logging"
	"fillerinfo/internal/matcher"
	"fillerinfo/internal/metadata"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	mu    sync.Mutex
	cache identitycache.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) identityCache() (identitycache.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		return c.cache, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store, err := identitycache.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.cache = store
	return store, nil
}

func (c *commandContext) database() (*fillerdb.Database, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return fillerdb.Load(cfg.Paths.FillerDB, logger), nil
}

// runtime is everything a classification needs.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	holder     *fillerdb.Holder
	cache      identitycache.Store
	provider   metadata.Provider
	classifier *classifier.Classifier
}

func (c *commandContext) buildRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	db, err := c.database()
	if err != nil {
		return nil, err
	}
	cache, err := c.identityCache()
	if err != nil {
		return nil, err
	}
	provider, err := newMetadataProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	holder := fillerdb.NewHolder(db)
	resolver := matcher.NewFromConfig(cfg, logger)
	return &runtime{
		cfg:        cfg,
		logger:     logger,
		holder:     holder,
		cache:      cache,
		provider:   provider,
		classifier: classifier.New(provider, cache, resolver, holder, logger),
	}, nil
}

func (c *commandContext) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close()
	c.cache = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

