package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/redis/go-redis/v9"
)

// Redis provides a Redis key-value storage implementation of docsplit.ChunkStorage.
// Every collection is a hash keyed by chunk ID with JSON encoded sources as values.
type Redis struct {
	Client *redis.Client
	// KeyPrefix namespaces the collection hashes. Defaults to "docsplit".
	KeyPrefix string
}

// NewRedis creates a new Redis client connection with the provided configuration.
// It returns an initialized Redis struct and any error encountered during connection setup.
func NewRedis(addr, password string, db int) (Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return Redis{}, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return Redis{
		Client: client,
	}, nil
}

// Close closes the underlying client.
func (r Redis) Close() error {
	return r.Client.Close()
}

func (r Redis) collectionKey(collection string) string {
	prefix := r.KeyPrefix
	if prefix == "" {
		prefix = "docsplit"
	}
	return prefix + ":" + collection + ":sources"
}

// Source retrieves a single source by ID.
// It returns docsplit.ErrSourceNotFound if the source doesn't exist.
func (r Redis) Source(ctx context.Context, collection, id string) (docsplit.Source, error) {
	var result docsplit.Source

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	content, err := r.Client.HGet(ctx, r.collectionKey(collection), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return result, docsplit.ErrSourceNotFound
		}
		return result, fmt.Errorf("failed to get source: %w", err)
	}

	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal source: %w", err)
	}

	return result, nil
}

// StoredSources returns every source of the collection.
func (r Redis) StoredSources(ctx context.Context, collection string) ([]docsplit.Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	values, err := r.Client.HGetAll(ctx, r.collectionKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	result := make([]docsplit.Source, 0, len(values))
	for id, value := range values {
		var source docsplit.Source
		if err := json.Unmarshal([]byte(value), &source); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source %s: %w", id, err)
		}
		result = append(result, source)
	}

	return result, nil
}

// UpsertSources creates or updates multiple sources in a single pipeline.
// It returns an error if any database operation fails during the process.
func (r Redis) UpsertSources(ctx context.Context, collection string, sources []docsplit.Source) error {
	if len(sources) == 0 {
		return nil
	}

	key := r.collectionKey(collection)
	pipe := r.Client.Pipeline()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, source := range sources {
		value, err := json.Marshal(source)
		if err != nil {
			return fmt.Errorf("failed to marshal source %s: %w", source.ID, err)
		}
		pipe.HSet(ctx, key, source.ID, value)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to execute pipeline: %w", err)
	}

	return nil
}

// RemoveSources deletes sources by ID. Missing IDs are ignored.
func (r Redis) RemoveSources(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := r.Client.HDel(ctx, r.collectionKey(collection), ids...).Err(); err != nil {
		return fmt.Errorf("failed to delete sources: %w", err)
	}

	return nil
}
