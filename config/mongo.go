package config

import (
	"github.com/spf13/viper"
)

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    int
}

func LoadMongoConfig(v *viper.Viper) MongoConfig {
	// default
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "hermes")
	v.SetDefault("mongo.collection", "protocols")
	v.SetDefault("mongo.timeout", 10)

	return MongoConfig{
		URI:        v.GetString("mongo.uri"),
		Database:   v.GetString("mongo.database"),
		Collection: v.GetString("mongo.collection"),
		Timeout:    v.GetInt("mongo.timeout"),
	}
}
