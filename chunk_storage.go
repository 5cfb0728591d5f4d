package docsplit

import (
	"context"
	"slices"
)

// ChunkStorage defines the interface for storing the chunks of a collection.
type ChunkStorage interface {
	// StoredSources returns every source stored for the collection.
	StoredSources(ctx context.Context, collection string) ([]Source, error)

	// UpsertSources creates or replaces sources by ID.
	UpsertSources(ctx context.Context, collection string, sources []Source) error

	// RemoveSources deletes sources by ID. Unknown IDs are ignored.
	RemoveSources(ctx context.Context, collection string, ids []string) error
}

// ChangeSet describes how a fresh set of chunks differs from the stored one.
type ChangeSet struct {
	// ContentChanged holds new chunks and chunks whose content hash differs.
	ContentChanged []Source
	// MetadataOnlyChanged holds chunks with the same content but different metadata.
	MetadataOnlyChanged []Source
	// Removed holds the IDs of stored chunks that no longer exist.
	Removed []string
}

// Empty reports whether the change set requires no storage operation.
func (c ChangeSet) Empty() bool {
	return len(c.ContentChanged) == 0 && len(c.MetadataOnlyChanged) == 0 && len(c.Removed) == 0
}

// FindChanges compares fresh chunks with stored ones by ID.
func FindChanges(fresh, stored []Source) ChangeSet {
	storedByID := make(map[string]Source, len(stored))
	for _, s := range stored {
		storedByID[s.ID] = s
	}

	var changes ChangeSet
	freshIDs := make(map[string]struct{}, len(fresh))
	for _, f := range fresh {
		freshIDs[f.ID] = struct{}{}

		s, ok := storedByID[f.ID]
		switch {
		case !ok, s.ContentHash != f.ContentHash:
			changes.ContentChanged = append(changes.ContentChanged, f)
		case !sameMetadata(s, f):
			changes.MetadataOnlyChanged = append(changes.MetadataOnlyChanged, f)
		}
	}

	for _, s := range stored {
		if _, ok := freshIDs[s.ID]; !ok {
			changes.Removed = append(changes.Removed, s.ID)
		}
	}

	return changes
}

func sameMetadata(a, b Source) bool {
	return a.DocumentID == b.DocumentID &&
		a.Title == b.Title &&
		a.ChunkNumber == b.ChunkNumber &&
		slices.Equal(a.HeaderPath, b.HeaderPath) &&
		a.StartChar == b.StartChar &&
		a.EndChar == b.EndChar &&
		a.SourceLink == b.SourceLink &&
		a.TokenSize == b.TokenSize &&
		a.OrderIndex == b.OrderIndex
}
