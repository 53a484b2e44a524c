package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBlacklist(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBlacklist() error {
	if c.Blacklist.ThresholdPercent <= 0 || c.Blacklist.ThresholdPercent > 100 {
		return fmt.Errorf("blacklist.threshold_percent must be in (0, 100], got %v", c.Blacklist.ThresholdPercent)
	}
	if c.Blacklist.WarmupMinDocs < 1 {
		return fmt.Errorf("blacklist.warmup_min_docs must be at least 1, got %d", c.Blacklist.WarmupMinDocs)
	}
	if c.Blacklist.Enabled && c.Blacklist.StatePath == "" {
		return errors.New("blacklist.state_path must be set when the blacklist is enabled")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.Window <= 0 {
		return fmt.Errorf("scanner.window must be positive, got %d", c.Scanner.Window)
	}
	if c.Scanner.FallbackConfidence <= 0 || c.Scanner.FallbackConfidence > 1 {
		return fmt.Errorf("scanner.fallback_confidence must be in (0, 1], got %v", c.Scanner.FallbackConfidence)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Batch.BatchSize < 1 {
		return fmt.Errorf("batch.batch_size must be at least 1, got %d", c.Batch.BatchSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
