package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Client wraps redis.Client
type Client struct {
	*redis.Client
	log *zap.Logger
}

// New creates a Redis client and checks the connection.
func New(ctx context.Context, config Config, log *zap.Logger) (*Client, error) {
	addr := net.JoinHostPort(config.Host, config.Port)
	log.Info("connecting to redis", zap.String("addr", addr))

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))
	return &Client{Client: client, log: log}, nil
}

// Wrap adopts an existing client.
func Wrap(client *redis.Client, log *zap.Logger) *Client {
	return &Client{Client: client, log: log}
}

func (c *Client) Close() error {
	c.log.Info("closing redis connection")
	return c.Client.Close()
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
