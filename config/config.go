package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/world-in-progress/hermes/core/logger"
)

const (
	// EnvPrefix is prepended to every environment override, e.g. HERMES_SERVER_PORT.
	EnvPrefix = "HERMES"
	// DefaultScheme is used when neither a provider nor the settings yield a scheme.
	DefaultScheme = "hunreal"
)

// Init points v at its config file. An explicit file wins; otherwise hermes.yaml is
// searched in the working directory and the state directory. A missing file is not an error.
func Init(v *viper.Viper, file string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv() // enable overwrite envs

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hermes")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultStateDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && file == "" {
			logger.Debug("no config file found, use default configuration: %v", err)
			return nil
		}
		return err
	}
	logger.Debug("using config file %s", v.ConfigFileUsed())
	return nil
}

// DefaultStateDir is where registrations, settings and discovery records live by default.
func DefaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "hermes")
	}
	return filepath.Join(os.TempDir(), "hermes")
}

func stateDir(v *viper.Viper) string {
	v.SetDefault("state_dir", DefaultStateDir())
	return v.GetString("state_dir")
}
