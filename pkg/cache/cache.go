// Package cache is a rudimentary key/value caching store. It is used to
// avoid rendering the same message twice: the generated previews are kept
// for a while, keyed by the digest of the source message.
package cache

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a key/value caching store backed by redis or by memory. It offers
// a Get/Set interface as well as its gzip compressed alternative
// GetCompressed/SetCompressed.
type Cache interface {
	CheckStatus(ctx context.Context) (time.Duration, error)
	Get(key string) ([]byte, bool)
	Clear(key string)
	Set(key string, data []byte, expiration time.Duration)
	SetNX(key string, data []byte, expiration time.Duration)
	GetCompressed(key string) (io.Reader, bool)
	SetCompressed(key string, data []byte, expiration time.Duration)
}

type cacheEntry struct {
	payload   []byte
	expiredAt time.Time
}

// Init instantiates a Cache client.
//
// The backend selection is done based on the `client` argument. If a client
// is given, the redis backend is chosen, if nil is provided the in-memory
// backend would be chosen.
func Init(client redis.UniversalClient) Cache {
	if client == nil {
		return NewInMemory()
	}

	return NewRedis(client)
}
