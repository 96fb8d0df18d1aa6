package redis

import (
	"context"
	"encoding/json"
	"time"
)

// SetJSON sets a key with JSON-encoded value
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

// GetJSON gets a key and decodes JSON value
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// ZAddJSON appends a JSON-encoded member to a sorted set scored by ts and
// trims the set to its newest maxLen members (maxLen <= 0 keeps everything)
func (c *Client) ZAddJSON(ctx context.Context, key string, ts time.Time, value interface{}, maxLen int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	pipe := c.TxPipeline()
	pipe.ZAdd(ctx, key, Z{Score: float64(ts.UnixMilli()), Member: string(data)})
	if maxLen > 0 {
		pipe.ZRemRangeByRank(ctx, key, 0, -maxLen-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ZRevRangeJSON decodes the newest limit members of a sorted set into a
// slice, calling decode for each raw member
func (c *Client) ZRevRangeJSON(ctx context.Context, key string, limit int, decode func(raw []byte) error) error {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	members, err := c.ZRevRange(ctx, key, 0, stop)
	if err != nil {
		return err
	}
	for _, m := range members {
		if err := decode([]byte(m)); err != nil {
			return err
		}
	}
	return nil
}

// SetJSONWithRetry sets a JSON-encoded key, retrying transient failures
func (c *Client) SetJSONWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	for i := 0; i < maxRetries; i++ {
		err = c.Set(ctx, key, data, expiration)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return err
}
