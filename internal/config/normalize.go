package config

import (
	"slices"
	"strings"
)

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = "auto"
	}
	c.OutputSuffix = strings.TrimSpace(c.OutputSuffix)
	c.BackupSuffix = strings.TrimSpace(c.BackupSuffix)

	if len(c.ExtraEffectIDs) > 0 {
		ids := slices.Clone(c.ExtraEffectIDs)
		slices.Sort(ids)
		c.ExtraEffectIDs = slices.Compact(ids)
	}
}
