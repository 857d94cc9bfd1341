package handler

import (
	"context"
	"fmt"

	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/store"
	"github.com/world-in-progress/hermes/store/file"
	mongostore "github.com/world-in-progress/hermes/store/mongo"
)

// OpenStore returns the registration store selected by cfg.Store.
func OpenStore(ctx context.Context, cfg config.HandlerConfig) (store.Store, error) {
	switch cfg.Store {
	case "", "file":
		return file.NewFileStore(cfg.StateDir), nil
	case "mongo":
		return mongostore.NewMongoStore(ctx, cfg.Mongo)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
