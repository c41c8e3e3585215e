package storage

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/nailgrow/ledger"
)

// DefaultRedisHashKey is the hash holding the ledger keys.
const DefaultRedisHashKey = "nailgrow:ledger"

// RedisStore keeps the key layout as fields of a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ ledger.Store = (*RedisStore)(nil)

// NewRedisStore creates a store writing to hashKey (DefaultRedisHashKey when empty).
func NewRedisStore(client *redis.Client, hashKey string) *RedisStore {
	if hashKey == "" {
		hashKey = DefaultRedisHashKey
	}
	return &RedisStore{client: client, key: hashKey}
}

// Load reads the whole hash.
func (s *RedisStore) Load(ctx context.Context) (ledger.Record, bool, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return ledger.Record{}, false, err
	}
	return DecodeRecord(values)
}

// Save writes every field with one HSET inside MULTI/EXEC.
func (s *RedisStore) Save(ctx context.Context, rec ledger.Record) error {
	encoded := EncodeRecord(rec)
	fields := make(map[string]interface{}, len(encoded))
	for k, v := range encoded {
		fields[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, fields)
		return nil
	})
	return err
}
