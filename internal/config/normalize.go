package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeBlacklist(); err != nil {
		return err
	}
	if err := c.normalizeRules(); err != nil {
		return err
	}
	c.normalizeBatch()
	return c.normalizeLogging()
}

func (c *Config) normalizeBlacklist() error {
	c.Blacklist.StatePath = strings.TrimSpace(c.Blacklist.StatePath)
	if value, ok := os.LookupEnv(EnvStatePath); ok && strings.TrimSpace(value) != "" {
		c.Blacklist.StatePath = strings.TrimSpace(value)
	}
	if c.Blacklist.StatePath == "" {
		c.Blacklist.StatePath = defaultStatePath
	}
	var err error
	if c.Blacklist.StatePath, err = expandPath(c.Blacklist.StatePath); err != nil {
		return fmt.Errorf("blacklist.state_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRules() error {
	c.Rules.Path = strings.TrimSpace(c.Rules.Path)
	if c.Rules.Path == "" {
		if value, ok := os.LookupEnv(EnvRulesPath); ok {
			c.Rules.Path = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Rules.Path, err = expandPath(c.Rules.Path); err != nil {
		return fmt.Errorf("rules.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers == 0 {
		c.Batch.Workers = defaultBatchWorkers
	}
	if c.Batch.BatchSize == 0 {
		c.Batch.BatchSize = defaultBatchSize
	}
}

func (c *Config) normalizeLogging() error {
	if value, ok := os.LookupEnv(EnvLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
