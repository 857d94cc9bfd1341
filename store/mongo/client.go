package mongo

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectMaxElapsed bounds how long Connect keeps retrying an unreachable server.
var connectMaxElapsed = 30 * time.Second

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   config.MongoConfig
}

// Connect dials cfg.URI, retrying with exponential backoff until the server answers a ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*MongoClient, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetMaxPoolSize(16)

	var client *mongo.Client

	// exponential backoff retry connection
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = connectMaxElapsed
	err := backoff.Retry(func() error {
		var err error
		if client == nil {
			client, err = mongo.Connect(ctx, clientOptions)
			if err != nil {
				logger.Warn("Failed to connect MongoDB: %v", err)
				return err
			}
		}
		return client.Ping(ctx, nil)
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return nil, err
	}

	logger.Debug("MongoDB connection successful: %s", cfg.URI)
	return &MongoClient{
		Client:   client,
		Database: client.Database(cfg.Database),
		Config:   cfg,
	}, nil
}

func (m *MongoClient) Close(ctx context.Context) error {
	if m.Client == nil {
		return nil
	}
	if err := m.Client.Disconnect(ctx); err != nil {
		logger.Error("Failed to close MongoDB connection: %v", err)
		return err
	}
	return nil
}
