package mongodb

import (
	"context"
	"fmt"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client owns the driver connection and the application database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB with pool settings and verifies the primary is reachable.
func Connect(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.SelectTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.SelectTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "mongo_database", cfg.Database), "mongo connection established")
	}

	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the application database.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping verifies the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
