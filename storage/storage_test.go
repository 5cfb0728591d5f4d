package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/MegaGrindStone/go-docsplit/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chunkStore interface {
	docsplit.ChunkStorage
	Source(ctx context.Context, collection, id string) (docsplit.Source, error)
}

var (
	source1 = docsplit.Source{
		ID:          "guide-install-0",
		DocumentID:  "guide",
		Content:     "# Install\n\nRun the installer.",
		Title:       "Install",
		HeaderPath:  []string{"Install"},
		EndChar:     31,
		SourceLink:  "https://docs.example.com/guide#install",
		TokenSize:   7,
		ContentHash: docsplit.HashContent("# Install\n\nRun the installer."),
	}
	source2 = docsplit.Source{
		ID:          "guide-usage-0",
		DocumentID:  "guide",
		Content:     "# Usage\n\nCall the binary.",
		Title:       "Usage",
		HeaderPath:  []string{"Usage"},
		StartChar:   31,
		EndChar:     57,
		TokenSize:   6,
		ContentHash: docsplit.HashContent("# Usage\n\nCall the binary."),
		OrderIndex:  1,
	}
)

func testChunkStorage(t *testing.T, store chunkStore, collection string) {
	ctx := context.Background()

	t.Run("Empty collection", func(t *testing.T) {
		sources, err := store.StoredSources(ctx, collection)
		require.NoError(t, err)
		assert.Empty(t, sources)

		_, err = store.Source(ctx, collection, source1.ID)
		assert.ErrorIs(t, err, docsplit.ErrSourceNotFound)

		assert.NoError(t, store.RemoveSources(ctx, collection, []string{"missing"}))
	})

	t.Run("Upsert and read back", func(t *testing.T) {
		require.NoError(t, store.UpsertSources(ctx, collection, []docsplit.Source{source1, source2}))

		got, err := store.Source(ctx, collection, source1.ID)
		require.NoError(t, err)
		assert.Equal(t, source1, got)

		sources, err := store.StoredSources(ctx, collection)
		require.NoError(t, err)
		sort.Slice(sources, func(i, j int) bool { return sources[i].OrderIndex < sources[j].OrderIndex })
		assert.Equal(t, []docsplit.Source{source1, source2}, sources)
	})

	t.Run("Upsert replaces", func(t *testing.T) {
		updated := source2
		updated.SourceLink = "https://docs.example.com/guide#usage"
		require.NoError(t, store.UpsertSources(ctx, collection, []docsplit.Source{updated}))

		got, err := store.Source(ctx, collection, source2.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("Collections are isolated", func(t *testing.T) {
		sources, err := store.StoredSources(ctx, collection+"-other")
		require.NoError(t, err)
		assert.Empty(t, sources)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, store.RemoveSources(ctx, collection, []string{source1.ID, "missing"}))

		_, err := store.Source(ctx, collection, source1.ID)
		assert.ErrorIs(t, err, docsplit.ErrSourceNotFound)

		sources, err := store.StoredSources(ctx, collection)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, source2.ID, sources[0].ID)
	})

	t.Run("Ingest round trip", func(t *testing.T) {
		name := collection + "-ingest"
		docs := []docsplit.Document{{ID: "guide", Name: "guide"}}
		handler := staticHandler{"guide": {source1, source2}}

		report, err := docsplit.Ingest(ctx, name, docs, handler, store, docsplit.IngestOptions{}, nil)
		require.NoError(t, err)
		assert.True(t, report.Applied)

		report, err = docsplit.Ingest(ctx, name, docs, handler, store, docsplit.IngestOptions{}, nil)
		require.NoError(t, err)
		assert.False(t, report.Applied)
		assert.True(t, report.Changes.Empty())
	})
}

type staticHandler map[string][]docsplit.Source

func (h staticHandler) ChunksDocument(doc docsplit.Document) ([]docsplit.Source, error) {
	return h[doc.ID], nil
}

func TestBolt(t *testing.T) {
	store, err := storage.NewBolt(filepath.Join(t.TempDir(), "docsplit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	testChunkStorage(t, store, "docs")
}

func TestBolt_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docsplit.db")
	ctx := context.Background()

	store, err := storage.NewBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertSources(ctx, "docs", []docsplit.Source{source1}))
	require.NoError(t, store.Close())

	store, err = storage.NewBolt(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	got, err := store.Source(ctx, "docs", source1.ID)
	require.NoError(t, err)
	assert.Equal(t, source1, got)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store, err := storage.NewRedis(addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	store.KeyPrefix = "docsplit-test-" + uuid.NewString()

	t.Cleanup(func() {
		ctx := context.Background()
		keys, err := store.Client.Keys(ctx, store.KeyPrefix+":*").Result()
		if err == nil && len(keys) > 0 {
			store.Client.Del(ctx, keys...)
		}
		store.Close()
	})

	testChunkStorage(t, store, "docs")
}
