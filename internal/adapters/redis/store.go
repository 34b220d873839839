// Package redis provides Redis-backed credential and item stores.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "itemvault:"

// maxTxRetries bounds optimistic WATCH/MULTI retries.
const maxTxRetries = 5

// watchUpdate runs fn under WATCH on key and retries when another client
// modified the key before EXEC.
func watchUpdate(ctx context.Context, client redis.UniversalClient, key string, fn func(*redis.Tx) error) error {
	for range maxTxRetries {
		err := client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("watch %s: %w", key, redis.TxFailedErr)
}
