package redis

import (
	"context"
	"errors"
	"time"
)

const pendingMarker = "pending"

// ErrKeyExists means the key is held by a request that has not completed yet.
var ErrKeyExists = errors.New("idempotency key already exists")

func (c *Client) idempotencyKey(key string) string {
	return c.prefixKey("idempotency:" + key)
}

// CheckAndSetIdempotency claims key for ttl. It returns (nil, nil) when the
// caller now owns the key, the cached response when a previous request
// completed, and ErrKeyExists while another request still holds it.
func (c *Client) CheckAndSetIdempotency(ctx context.Context, key string, ttl time.Duration) ([]byte, error) {
	prefixedKey := c.idempotencyKey(key)

	set, err := c.rdb.SetNX(ctx, prefixedKey, pendingMarker, ttl).Result()
	if err != nil {
		return nil, err
	}

	if set {
		return nil, nil
	}

	val, err := c.rdb.Get(ctx, prefixedKey).Bytes()
	if err != nil {
		return nil, err
	}

	if string(val) == pendingMarker {
		return nil, ErrKeyExists
	}

	return val, nil
}

// MarkIdempotencyComplete replaces the pending marker with the response.
func (c *Client) MarkIdempotencyComplete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.idempotencyKey(key), response, ttl).Err()
}

// MarkIdempotencyFailed releases the key so the caller may retry.
func (c *Client) MarkIdempotencyFailed(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.idempotencyKey(key)).Err()
}
