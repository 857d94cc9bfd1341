package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	// HandlerConfig configures the hermes-urls helper.
	HandlerConfig struct {
		StateDir string
		// Store selects the registration backend: "file" or "mongo".
		Store string
		Relay RelayConfig
		Mongo MongoConfig
	}

	RelayConfig struct {
		Timeout    time.Duration
		MaxElapsed time.Duration
	}
)

func LoadHandlerConfig(v *viper.Viper) HandlerConfig {
	v.SetDefault("store", "file")
	v.SetDefault("relay.timeout", 5*time.Second)
	v.SetDefault("relay.max_elapsed", 3*time.Second)

	return HandlerConfig{
		StateDir: stateDir(v),
		Store:    v.GetString("store"),
		Relay: RelayConfig{
			Timeout:    v.GetDuration("relay.timeout"),
			MaxElapsed: v.GetDuration("relay.max_elapsed"),
		},
		Mongo: LoadMongoConfig(v),
	}
}
