package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrDataNotFound is returned when no data is stored under a data key
var ErrDataNotFound = errors.New("render data not found")

// RedisDataStore reads template data stored as JSON documents in Redis
type RedisDataStore struct {
	client *redis.Client
	keyFor func(id string) string
	logger *zap.Logger
}

// NewRedisDataStore creates a new Redis data store. keyFor maps a data key
// from a render request to the Redis key, usually config.Config.DataKey.
func NewRedisDataStore(client *redis.Client, keyFor func(id string) string, logger *zap.Logger) *RedisDataStore {
	return &RedisDataStore{
		client: client,
		keyFor: keyFor,
		logger: logger,
	}
}

// Load loads the data stored under id
func (s *RedisDataStore) Load(ctx context.Context, id string) (map[string]interface{}, error) {
	key := s.keyFor(id)

	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrDataNotFound, id)
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	s.logger.Debug("loaded render data", zap.String("key", key))
	return data, nil
}
