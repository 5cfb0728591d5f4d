package docsplit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IngestOptions controls a single Ingest run.
type IngestOptions struct {
	// Concurrency is the number of documents chunked in parallel. Zero means one.
	Concurrency int
	// DryRun computes the change set without touching the storage.
	DryRun bool
	// Confirm is consulted before any write. A nil Confirm applies changes unconditionally.
	Confirm func(ChangeSet) bool
}

// IngestReport summarizes an Ingest run.
type IngestReport struct {
	RunID     string
	Documents int
	Chunks    int
	Changes   ChangeSet
	// Applied reports whether the change set was written to the storage.
	Applied bool
}

// Ingest chunks the documents of a collection and synchronizes the storage with the result.
// New and modified chunks are upserted, chunks whose content is unchanged but whose metadata
// moved are rewritten, and stored chunks that no longer exist are removed.
// It returns an error if chunking fails, if two chunks share an ID, or if any storage call fails.
func Ingest(
	ctx context.Context,
	collection string,
	docs []Document,
	handler DocumentHandler,
	storage ChunkStorage,
	opts IngestOptions,
	logger *slog.Logger,
) (IngestReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := IngestReport{
		RunID:     uuid.NewString(),
		Documents: len(docs),
	}

	logger = logger.With(
		slog.String("package", "docsplit"),
		slog.String("function", "Ingest"),
		slog.String("run_id", report.RunID),
		slog.String("collection", collection),
	)

	fresh, err := chunkDocuments(ctx, docs, handler, opts.Concurrency, logger)
	if err != nil {
		return report, err
	}
	report.Chunks = len(fresh)

	if err := checkDuplicateIDs(fresh); err != nil {
		return report, err
	}

	stored, err := storage.StoredSources(ctx, collection)
	if err != nil {
		return report, fmt.Errorf("failed to get stored sources: %w", err)
	}

	changes := FindChanges(fresh, stored)
	report.Changes = changes

	logger.Info("Computed changes",
		"contentChanged", len(changes.ContentChanged),
		"metadataOnlyChanged", len(changes.MetadataOnlyChanged),
		"removed", len(changes.Removed),
	)

	if changes.Empty() {
		logger.Info("No changes detected")
		return report, nil
	}
	if opts.DryRun {
		logger.Info("Dry run, skipping storage update")
		return report, nil
	}
	if opts.Confirm != nil && !opts.Confirm(changes) {
		logger.Info("Changes not confirmed, skipping storage update")
		return report, nil
	}

	if len(changes.Removed) > 0 {
		if err := storage.RemoveSources(ctx, collection, changes.Removed); err != nil {
			return report, fmt.Errorf("failed to remove sources: %w", err)
		}
		logger.Info("Removed sources", "count", len(changes.Removed))
	}
	if len(changes.ContentChanged) > 0 {
		if err := storage.UpsertSources(ctx, collection, changes.ContentChanged); err != nil {
			return report, fmt.Errorf("failed to upsert changed sources: %w", err)
		}
		logger.Info("Upserted changed sources", "count", len(changes.ContentChanged))
	}
	if len(changes.MetadataOnlyChanged) > 0 {
		if err := storage.UpsertSources(ctx, collection, changes.MetadataOnlyChanged); err != nil {
			return report, fmt.Errorf("failed to update source metadata: %w", err)
		}
		logger.Info("Updated source metadata", "count", len(changes.MetadataOnlyChanged))
	}

	report.Applied = true

	return report, nil
}

func chunkDocuments(
	ctx context.Context,
	docs []Document,
	handler DocumentHandler,
	concurrency int,
	logger *slog.Logger,
) ([]Source, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	logger.Info("Chunking documents", "count", len(docs), "concurrency", concurrency)

	// Results are kept per document so the output order does not depend on scheduling.
	results := make([][]Source, len(docs))

	eg, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)

	for i, doc := range docs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			doc.Content = CleanContent(doc.Content)
			chunks, err := handler.ChunksDocument(doc)
			if err != nil {
				return fmt.Errorf("failed to chunk document %s: %w", doc.ID, err)
			}

			for j := range chunks {
				c := &chunks[j]
				if c.DocumentID == "" {
					c.DocumentID = doc.ID
				}
				if c.ID == "" {
					c.ID = c.genID(doc.ID)
				}
				if c.ContentHash == "" {
					c.ContentHash = HashContent(c.Content)
				}
			}
			results[i] = chunks

			logger.Debug("Chunked document", "document", doc.ID, "chunks", len(chunks))

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var sources []Source
	for _, r := range results {
		sources = append(sources, r...)
	}

	return sources, nil
}

func checkDuplicateIDs(sources []Source) error {
	seen := make(map[string]string, len(sources))
	for _, s := range sources {
		if doc, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %s in documents %s and %s", ErrDuplicateSourceID, s.ID, doc, s.DocumentID)
		}
		seen[s.ID] = s.DocumentID
	}
	return nil
}
