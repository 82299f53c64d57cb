package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leiloes/adapters/session"
)

// Store implements session.IStore on a Redis hash per session.
type Store struct {
	client  *redis.Client
	options StoreOptions
}

// StoreOptions configures the Store.
type StoreOptions struct {
	Prefix string
	// TTL expires the whole session server-side. Zero keeps sessions until
	// they are overwritten, which leaves sign-out as the only exit.
	TTL time.Duration
}

type StoreOption func(*StoreOptions)

// WithStorePrefix sets the key prefix for session hashes.
func WithStorePrefix(prefix string) StoreOption {
	return func(o *StoreOptions) {
		o.Prefix = prefix
	}
}

// WithStoreTTL sets a server-side expiry on every saved session. An expired
// session loads as empty, so the next request resolves as anonymous without
// any client cooperation.
func WithStoreTTL(ttl time.Duration) StoreOption {
	return func(o *StoreOptions) {
		o.TTL = ttl
	}
}

// NewStore builds a session store on client.
func NewStore(client *redis.Client, opts ...StoreOption) session.IStore {
	options := &StoreOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &Store{
		client:  client,
		options: *options,
	}
}

// Load reads the session hash. A missing key loads as an empty map.
func (s *Store) Load(ctx context.Context, name string) (map[string]string, error) {
	const op = "redis.Store.Load"
	key := s.options.Prefix + name

	result, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get hash: %w", op, err)
	}

	// Redis returns empty map when key doesn't exist
	return result, nil
}

// saveScript atomically replaces the session hash and re-arms its expiry.
// ARGV[1] is the TTL in seconds (0 disables it), the rest are field/value
// pairs.
var saveScript = redis.NewScript(`
local key = KEYS[1]
local ttl = tonumber(ARGV[1])
redis.call('DEL', key)
if #ARGV > 1 then
    redis.call('HSET', key, unpack(ARGV, 2))
    if ttl > 0 then
        redis.call('EXPIRE', key, ttl)
    end
end
return 1
`)

// Save replaces the stored session data in one atomic step.
func (s *Store) Save(ctx context.Context, name string, data map[string]string) error {
	const op = "redis.Store.Save"
	key := s.options.Prefix + name
	args := make([]any, 0, len(data)*2+1)
	args = append(args, int64(s.options.TTL/time.Second))
	for k, v := range data {
		args = append(args, k, v)
	}
	err := saveScript.Run(ctx, s.client, []string{key}, args...).Err()
	if err != nil {
		return fmt.Errorf("%s: failed to execute save script: %w", op, err)
	}

	return nil
}
