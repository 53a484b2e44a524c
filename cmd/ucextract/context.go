package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ucextract/internal/blacklist"
	"ucextract/internal/config"
	"ucextract/internal/failures"
	"ucextract/internal/logging"
	"ucextract/internal/rules"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = failures.Wrap(failures.ErrConfiguration, "config", "load", "", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) registry() (*rules.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return rules.LoadFile(cfg.Rules.Path)
}

func (c *commandContext) blacklistSettings() blacklist.Settings {
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return blacklist.DefaultSettings()
	}
	return blacklist.Settings{
		ThresholdPercent: cfg.Blacklist.ThresholdPercent,
		WarmupMin:        cfg.Blacklist.WarmupMinDocs,
	}
}

// openBlacklist opens the configured store and loads its state. A corrupt
// artifact is logged and replaced by an empty state.
func (c *commandContext) openBlacklist(ctx context.Context, settings blacklist.Settings) (*blacklist.State, blacklist.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, failures.Wrap(failures.ErrConfiguration, "blacklist", "settings", "", err)
	}
	store, err := blacklist.OpenStore(cfg.Blacklist.StatePath)
	if err != nil {
		if store == nil {
			return nil, nil, err
		}
		logging.WarnWithContext(logger, "blacklist state database unusable, starting cold", "blacklist_open_failed",
			logging.String("path", store.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect "+blacklist.CorruptPath(store.Path())+" or run `ucextract blacklist reset`"),
			logging.String(logging.FieldImpact, "codes learned in earlier runs are ignored"))
	}
	state, err := blacklist.Open(ctx, store, settings, logger)
	if err != nil {
		logging.WarnWithContext(logger, "blacklist state unreadable, starting cold", "blacklist_load_failed",
			logging.String("path", store.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `ucextract blacklist reset` to rebuild the state file"),
			logging.String(logging.FieldImpact, "codes learned in earlier runs are ignored"))
	}
	return state, store, nil
}
