package database

import (
	"context"
	"fmt"
	"time"

	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CreateMongoConnection connects to MongoDB and returns the configured database.
// Multi-document transactions need a replica set or sharded cluster.
func (f *ConnectionFactory) CreateMongoConnection(ctx context.Context, config *repositories.Config) (*mongo.Client, *mongo.Database, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !config.IsMongoDB() {
		return nil, nil, fmt.Errorf("driver %q is not mongodb", config.Database.Driver)
	}

	opts := options.Client().
		ApplyURI(config.Database.MongoURI).
		SetMaxPoolSize(uint64(config.Pool.MaxOpenConns)).
		SetTimeout(config.Query.Timeout)

	f.logger.WithFields(logrus.Fields{
		"driver":   "mongodb",
		"database": config.Database.MongoDatabase,
	}).Info("Creating MongoDB connection")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, repositories.ConnectionError(err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, repositories.ConnectionError(err)
	}

	f.logger.Info("MongoDB connection established")
	return client, client.Database(config.Database.MongoDatabase), nil
}
