package config

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:         "info",
		LogFormat:        "auto",
		OutputSuffix:     "-Unlocked",
		Overwrite:        false,
		Backup:           true,
		BackupSuffix:     ".bak.zst",
		CompressionLevel: 1,
	}
}
