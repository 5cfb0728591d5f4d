// Package docsplit ingests Markdown documentation into retrieval-sized chunks and keeps a chunk
// store in sync with the source documents.
//
// Chunking itself lives in the splitter package; this package defines the collaborators around
// it (document loading, chunk handlers and chunk storage) and the Ingest pipeline that ties them
// together.
package docsplit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
)

// Loader provides the documents of a collection.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// DocumentHandler provides an interface for turning a document into chunks.
type DocumentHandler interface {
	// ChunksDocument splits a document's content into smaller, manageable chunks.
	// Sources without an ID are assigned one in the Ingest function.
	ChunksDocument(doc Document) ([]Source, error)
}

// Document represents a text document to be processed and stored.
// ID identifies the document within its collection, and Name is its page name used for links.
type Document struct {
	ID      string
	Name    string
	Content string
}

// Source represents a document chunk with metadata.
// It contains the text content, its position in the document, and the structural metadata
// derived by the splitter.
type Source struct {
	ID          string   `json:"id"`
	DocumentID  string   `json:"documentId"`
	Content     string   `json:"content"`
	Title       string   `json:"title"`
	ChunkNumber int      `json:"chunkNumber"`
	HeaderPath  []string `json:"headerPath"`
	StartChar   int      `json:"startChar"`
	EndChar     int      `json:"endChar"`
	SourceLink  string   `json:"sourceLink,omitempty"`
	TokenSize   int      `json:"tokenSize"`
	ContentHash string   `json:"contentHash"`
	OrderIndex  int      `json:"orderIndex"`
}

var (
	// ErrSourceNotFound is returned when a source is not found in the storage.
	ErrSourceNotFound = errors.New("source not found")
	// ErrDuplicateSourceID is returned when two chunks of a collection share an ID.
	ErrDuplicateSourceID = errors.New("duplicate source id")
)

// CleanContent removes null characters, which no storage backend accepts.
func CleanContent(content string) string {
	return strings.ReplaceAll(content, "\x00", "")
}

// HashContent returns the hex encoded xxhash of content.
func HashContent(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

func (s Source) genID(docID string) string {
	return fmt.Sprintf("%s-chunk-%d", docID, s.OrderIndex)
}
