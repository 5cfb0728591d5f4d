package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MegaGrindStone/go-docsplit"
	bolt "go.etcd.io/bbolt"
)

// Bolt provides a BoltDB key-value storage implementation of docsplit.ChunkStorage.
// Every collection is a nested bucket under the sources bucket, keyed by chunk ID with JSON
// encoded sources as values.
type Bolt struct {
	DB *bolt.DB
}

var sourcesBucket = []byte("sources")

// NewBolt creates a new BoltDB client connection with the provided file path.
// It returns an initialized Bolt struct and any error encountered during database setup.
// The function ensures that required buckets exist in the database.
func NewBolt(path string) (Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return Bolt{}, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sourcesBucket)
		return err
	}); err != nil {
		db.Close()
		return Bolt{}, fmt.Errorf("failed to create sources bucket: %w", err)
	}

	return Bolt{DB: db}, nil
}

// Close releases the database file.
func (b Bolt) Close() error {
	return b.DB.Close()
}

// Source retrieves a single source by ID.
// It returns docsplit.ErrSourceNotFound if the collection or the source doesn't exist.
func (b Bolt) Source(_ context.Context, collection, id string) (docsplit.Source, error) {
	var result docsplit.Source

	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := collectionBucket(tx, collection)
		if bucket == nil {
			return docsplit.ErrSourceNotFound
		}

		content := bucket.Get([]byte(id))
		if content == nil {
			return docsplit.ErrSourceNotFound
		}

		if err := json.Unmarshal(content, &result); err != nil {
			return fmt.Errorf("failed to unmarshal source: %w", err)
		}

		return nil
	})

	return result, err
}

// StoredSources returns every source of the collection in key order.
func (b Bolt) StoredSources(ctx context.Context, collection string) ([]docsplit.Source, error) {
	var result []docsplit.Source

	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := collectionBucket(tx, collection)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var source docsplit.Source
			if err := json.Unmarshal(v, &source); err != nil {
				return fmt.Errorf("failed to unmarshal source %s: %w", k, err)
			}
			result = append(result, source)
			return nil
		})
	})

	return result, err
}

// UpsertSources creates or updates multiple sources in a single transaction.
// It returns an error if any database operation fails during the process.
func (b Bolt) UpsertSources(_ context.Context, collection string, sources []docsplit.Source) error {
	return b.DB.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(sourcesBucket)
		if root == nil {
			return fmt.Errorf("bucket not found")
		}

		bucket, err := root.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return fmt.Errorf("failed to create collection bucket: %w", err)
		}

		for _, source := range sources {
			value, err := json.Marshal(source)
			if err != nil {
				return fmt.Errorf("failed to marshal source %s: %w", source.ID, err)
			}
			if err := bucket.Put([]byte(source.ID), value); err != nil {
				return fmt.Errorf("failed to put sources: %w", err)
			}
		}

		return nil
	})
}

// RemoveSources deletes sources by ID. Missing IDs and collections are ignored.
func (b Bolt) RemoveSources(_ context.Context, collection string, ids []string) error {
	return b.DB.Update(func(tx *bolt.Tx) error {
		bucket := collectionBucket(tx, collection)
		if bucket == nil {
			return nil
		}

		for _, id := range ids {
			if err := bucket.Delete([]byte(id)); err != nil {
				return fmt.Errorf("failed to delete source %s: %w", id, err)
			}
		}

		return nil
	})
}

func collectionBucket(tx *bolt.Tx, collection string) *bolt.Bucket {
	root := tx.Bucket(sourcesBucket)
	if root == nil {
		return nil
	}
	return root.Bucket([]byte(collection))
}
