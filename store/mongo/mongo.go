// Package mongo keeps registrations in a MongoDB collection, one document per protocol
// keyed by its name.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client  *MongoClient
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mongo store: %w", err)
	}
	return &MongoStore{
		client:  client,
		coll:    client.Database.Collection(cfg.Collection),
		timeout: time.Duration(cfg.Timeout) * time.Second,
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*store.Protocol, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var p store.Protocol
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		logger.Error("Query failed: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) Put(ctx context.Context, p *store.Protocol) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record := *p
	record.UpdatedAt = time.Now().UTC()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.Name}, &record, options.Replace().SetUpsert(true))
	if err != nil {
		logger.Error("Upsert failed: %v", err)
		return err
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		logger.Error("Delete failed: %v", err)
		return err
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]store.Protocol, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		logger.Error("Query failed: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []store.Protocol{}
	if err := cursor.All(ctx, &results); err != nil {
		logger.Error("Failed to decode results: %v", err)
		return nil, err
	}
	return results, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
