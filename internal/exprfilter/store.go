package exprfilter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store maps filter names to CEL expressions
type Store interface {
	// Lookup returns the expression for name and whether it exists
	Lookup(ctx context.Context, name string) (string, bool, error)
}

// MapStore is an in-memory Store
type MapStore struct {
	expressions map[string]string
	mu          sync.RWMutex
}

// NewMapStore creates a store holding the given expressions
func NewMapStore(expressions map[string]string) *MapStore {
	s := &MapStore{expressions: make(map[string]string, len(expressions))}
	for name, expr := range expressions {
		s.expressions[strings.ToLower(name)] = expr
	}
	return s
}

// Set defines or replaces an expression
func (s *MapStore) Set(name, expression string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expressions[strings.ToLower(name)] = expression
}

// Lookup returns the expression for name
func (s *MapStore) Lookup(ctx context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expr, ok := s.expressions[strings.ToLower(name)]
	return expr, ok, nil
}

// RedisStore reads expressions from a Redis hash, one field per filter name
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store backed by the hash at key
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
	}
}

// Lookup returns the expression stored in the hash field for name
func (s *RedisStore) Lookup(ctx context.Context, name string) (string, bool, error) {
	expr, err := s.client.HGet(ctx, s.key, strings.ToLower(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read expression filter %q: %w", name, err)
	}

	return expr, true, nil
}
