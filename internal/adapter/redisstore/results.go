// Package redisstore keeps simulation results in Redis as JSON documents.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/couchcryptid/climate-sim-service/internal/domain"
)

const keyPrefix = "simulation:result:"

// ResultStore implements domain.ResultStore. The returned reference is the
// Redis key holding the result.
type ResultStore struct {
	client *redis.Client
}

// NewClient creates a Redis client for addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewResultStore wraps an existing client.
func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

// ResultKey returns the Redis key for a simulation's result.
func ResultKey(simulationID string) string {
	return keyPrefix + simulationID
}

func (s *ResultStore) PutResult(ctx context.Context, simulationID string, r domain.SimulationResult) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	key := ResultKey(simulationID)
	ok, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return "", fmt.Errorf("%w: write result: %w", domain.ErrPersistence, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: simulation %s", domain.ErrResultExists, simulationID)
	}
	return key, nil
}

func (s *ResultStore) GetResult(ctx context.Context, simulationID string) (domain.SimulationResult, error) {
	data, err := s.client.Get(ctx, ResultKey(simulationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SimulationResult{}, fmt.Errorf("%w: result for simulation %s", domain.ErrNotFound, simulationID)
	}
	if err != nil {
		return domain.SimulationResult{}, fmt.Errorf("%w: read result: %w", domain.ErrPersistence, err)
	}

	var r domain.SimulationResult
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.SimulationResult{}, fmt.Errorf("%w: decode result: %w", domain.ErrPersistence, err)
	}
	return r, nil
}

// Ping reports whether Redis is reachable.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *ResultStore) Close() error {
	return s.client.Close()
}
