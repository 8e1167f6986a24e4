package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var ErrNotConnected = errors.New("mongo client is not connected")

type Config struct {
	URI      string
	Host     string
	Database string
	Timeout  time.Duration
}

type Logger interface {
	Logf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Client struct {
	config Config
	client *mongo.Client
	db     *mongo.Database
	logger Logger
}

func New(c Config) *Client {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return &Client{config: c}
}

func (c *Client) UseLogger(logger Logger) {
	c.logger = logger
}

// uri falls back to a local connection string built from Host.
func (c *Client) uri() string {
	if c.config.URI != "" {
		return c.config.URI
	}
	host := c.config.Host
	if host == "" {
		host = "localhost:27017"
	}
	return "mongodb://" + host
}

// Connect dials the deployment and pings the primary.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(c.uri()).
		SetConnectTimeout(c.config.Timeout).
		SetServerSelectionTimeout(c.config.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		c.logf(true, "mongo connect failed: %v", err)
		return fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		c.logf(true, "mongo ping failed: %v", err)
		return fmt.Errorf("ping mongo: %w", err)
	}

	c.client = client
	c.db = client.Database(c.config.Database)
	c.logf(false, "connected to mongo database %s", c.config.Database)
	return nil
}

// Collection returns the named collection. Connect must have succeeded.
func (c *Client) Collection(name string) *mongo.Collection {
	if c.db == nil {
		return nil
	}
	return c.db.Collection(name)
}

func (c *Client) Disconnect(ctx context.Context) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	c.client, c.db = nil, nil
	return nil
}

func (c *Client) logf(isErr bool, format string, args ...any) {
	if c.logger == nil {
		return
	}
	if isErr {
		c.logger.Errorf(format, args...)
		return
	}
	c.logger.Logf(format, args...)
}
