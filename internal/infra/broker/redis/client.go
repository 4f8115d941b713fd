// Package redis publishes resolved pending transactions to a Redis pub/sub channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/poolhistory/internal/mempool"

	redis "github.com/redis/go-redis/v9"
)

// conn is the part of *redis.Client used by the publisher.
type conn interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Close() error
}

type client struct {
	conn    conn
	channel string
}

var _ mempool.TransactionNotifier = (*client)(nil)

// NotifyTransaction publishes tx as JSON on the configured channel.
func (c *client) NotifyTransaction(ctx context.Context, tx mempool.TimedTransaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	if err := c.conn.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish transaction %s to %s: %w", tx.Hash, c.channel, err)
	}

	return nil
}

func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects to Redis and checks the connection before returning a
// notifier publishing on channel.
func NewClient(ctx context.Context, addr, username, password string, db int, channel string) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		conn.Close()
		return nil, err
	}

	return &client{
		conn:    conn,
		channel: channel,
	}, nil
}
