package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minCompressionLevel = 1
	maxCompressionLevel = 22
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unsupported value %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}

	if c.OutputSuffix == "" {
		return errors.New("output_suffix must not be empty")
	}
	if strings.ContainsAny(c.OutputSuffix, `/\`) {
		return fmt.Errorf("output_suffix %q must not contain path separators", c.OutputSuffix)
	}

	if c.Backup {
		if c.BackupSuffix == "" {
			return errors.New("backup_suffix must not be empty when backup is enabled")
		}
		if strings.ContainsAny(c.BackupSuffix, `/\`) {
			return fmt.Errorf("backup_suffix %q must not contain path separators", c.BackupSuffix)
		}
	}

	if c.CompressionLevel < minCompressionLevel || c.CompressionLevel > maxCompressionLevel {
		return fmt.Errorf("compression_level must be between %d and %d, got %d", minCompressionLevel, maxCompressionLevel, c.CompressionLevel)
	}

	for _, id := range c.ExtraEffectIDs {
		if id <= 0 {
			return fmt.Errorf("extra_effect_ids: %d is not a positive id", id)
		}
	}
	return nil
}
