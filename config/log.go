package config

import "github.com/spf13/viper"

type LogConfig struct {
	Level  string
	Format string
	// File overrides the log file next to the executable.
	File string
}

func LoadLogConfig(v *viper.Viper) LogConfig {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	return LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	}
}
