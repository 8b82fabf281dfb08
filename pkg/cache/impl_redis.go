package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implementation of the cache client.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis instantiates a new Redis Cache client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client}
}

// CheckStatus checks that the cache is ready, or returns an error.
func (c *Redis) CheckStatus(ctx context.Context) (time.Duration, error) {
	before := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(before), nil
}

// Get fetches the cached asset at the given key, and returns true only if
// the asset was found.
func (c *Redis) Get(key string) ([]byte, bool) {
	cmd := c.client.Get(context.TODO(), key)
	b, err := cmd.Bytes()
	if err != nil {
		return nil, false
	}

	return b, true
}

// Clear removes a key from the cache
func (c *Redis) Clear(key string) {
	c.client.Del(context.TODO(), key)
}

// Set stores an asset to the given key.
func (c *Redis) Set(key string, data []byte, expiration time.Duration) {
	c.client.Set(context.TODO(), key, data, expiration)
}

// SetNX stores the data in the cache only if the key doesn't exist yet.
func (c *Redis) SetNX(key string, data []byte, expiration time.Duration) {
	c.client.SetNX(context.TODO(), key, data, expiration)
}

// GetCompressed works like Get but expects a compressed asset that is
// uncompressed.
func (c *Redis) GetCompressed(key string) (io.Reader, bool) {
	r, ok := c.Get(key)
	if !ok {
		return nil, false
	}

	gr, err := gzip.NewReader(bytes.NewReader(r))
	if err != nil {
		return nil, false
	}

	return gr, true
}

// SetCompressed works like Set but compresses the asset data before storing
// it.
func (c *Redis) SetCompressed(key string, data []byte, expiration time.Duration) {
	dataCompressed := new(bytes.Buffer)

	gw := gzip.NewWriter(dataCompressed)
	if _, err := io.Copy(gw, bytes.NewReader(data)); err != nil {
		return
	}
	if err := gw.Close(); err != nil {
		return
	}

	c.Set(key, dataCompressed.Bytes(), expiration)
}
