// Package milvus implements the vector store access layer.
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Config holds connection parameters for the vector store.
type Config struct {
	Address        string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Client wraps a Milvus connection shared by the collection stores.
type Client struct {
	milvus client.Client
}

// NewClient connects to Milvus. A connection that cannot be established
// within the configured timeout is reported as domain.ErrStoreUnavailable.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("milvus address is required")
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mc, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", domain.ErrStoreUnavailable, cfg.Address, err)
	}

	return &Client{milvus: mc}, nil
}

// Ping verifies the connection is still usable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.milvus.HasCollection(ctx, "ping"); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if err := c.milvus.Close(); err != nil {
		return fmt.Errorf("close milvus client: %w", err)
	}
	return nil
}
