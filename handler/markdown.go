package handler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/MegaGrindStone/go-docsplit/internal"
	"github.com/MegaGrindStone/go-docsplit/splitter"
)

// Markdown implements the DocumentHandler interface on top of the recursive Markdown splitter.
// Chunk IDs are prefixed with the document ID so they stay unique across a collection.
//
// The splitter is built from Options on the first call to ChunksDocument and reused afterwards,
// so Options must not change once chunking has started.
type Markdown struct {
	Options splitter.Options
	Links   LinkConfig
	Logger  *slog.Logger

	once     sync.Once
	splitter *splitter.Splitter
	err      error
}

// NewMarkdown creates a Markdown handler with the default splitter options.
func NewMarkdown(links LinkConfig, logger *slog.Logger) *Markdown {
	return &Markdown{
		Options: splitter.DefaultOptions(),
		Links:   links,
		Logger:  logger,
	}
}

// ChunksDocument implements DocumentHandler.ChunksDocument.
func (m *Markdown) ChunksDocument(doc docsplit.Document) ([]docsplit.Source, error) {
	m.once.Do(func() {
		m.splitter, m.err = splitter.New(m.Options, m.Logger)
	})
	if m.err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", m.err)
	}

	prefix := m.Options.IDPrefix
	if prefix == "" {
		prefix = doc.ID
	}

	page := doc.Name
	if page == "" {
		page = doc.ID
	}

	chunks := m.splitter.SplitWithPrefix(doc.Content, prefix)
	results := make([]docsplit.Source, 0, len(chunks))
	for i, chunk := range chunks {
		tokenCount, err := internal.CountTokens(chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to count tokens for chunk: %w", err)
		}

		link := chunk.SourceLink
		if link == "" {
			link = m.Links.pageLink(page, chunk.Title)
		}

		results = append(results, docsplit.Source{
			ID:          chunk.UniqueID,
			DocumentID:  doc.ID,
			Content:     chunk.Content,
			Title:       chunk.Title,
			ChunkNumber: chunk.ChunkNumber,
			HeaderPath:  chunk.HeaderPath,
			StartChar:   chunk.StartChar,
			EndChar:     chunk.EndChar,
			SourceLink:  link,
			TokenSize:   tokenCount,
			ContentHash: docsplit.HashContent(chunk.Content),
			OrderIndex:  i,
		})
	}

	return results, nil
}
