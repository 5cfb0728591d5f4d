// Package splitter implements recursive, structure-aware chunking of Markdown documents.
//
// A document is tokenized once for ATX headers, fenced code blocks and "Sources" blocks. The
// full text is then partitioned by header, paragraph and line boundaries until every piece fits
// the size limit, small pieces are merged, backward overlap is applied, and each chunk receives
// its title, header path, per-title number, unique ID and source link.
//
// All offsets are Unicode code points into the document after CRLF normalization.
package splitter

import (
	"fmt"
	"log/slog"
	"slices"
	"unicode/utf8"
)

// Splitter chunks Markdown documents with a fixed, validated set of options. It is safe for
// concurrent use.
type Splitter struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns a Splitter. A nil logger uses slog.Default.
func New(opts Options, logger *slog.Logger) (*Splitter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.HeaderLevels = slices.Clone(opts.HeaderLevels)
	opts.CodeBlockMaxChars = cloneInt(opts.CodeBlockMaxChars)

	return &Splitter{
		opts:   opts,
		logger: loggerOrDefault(logger).With(slog.String("package", "splitter")),
	}, nil
}

// Options returns a copy of the options the splitter was built with.
func (s *Splitter) Options() Options {
	opts := s.opts
	opts.HeaderLevels = slices.Clone(s.opts.HeaderLevels)
	opts.CodeBlockMaxChars = cloneInt(s.opts.CodeBlockMaxChars)
	return opts
}

// Split chunks markdown using the configured IDPrefix. Empty or whitespace-only input yields
// no chunks. Invalid UTF-8 sequences are replaced with U+FFFD and a warning is logged.
func (s *Splitter) Split(markdown string) []Chunk {
	return s.SplitWithPrefix(markdown, s.opts.IDPrefix)
}

// SplitWithPrefix is like Split but namespaces chunk IDs with idPrefix instead of the
// configured IDPrefix.
func (s *Splitter) SplitWithPrefix(markdown, idPrefix string) []Chunk {
	logger := s.logger.With(slog.String("function", "Split"))

	if !utf8.ValidString(markdown) {
		logger.Warn("Input is not valid UTF-8, invalid bytes replaced with U+FFFD",
			slog.String("idPrefix", idPrefix))
	}

	text := NewText(markdown)
	if text.IsBlank() {
		return []Chunk{}
	}

	tokens := Tokenize(text, s.opts, logger)
	fences := protectedFences(tokens.Fences, s.opts)

	segments := Plan(text, Segment{Start: 0, End: text.Len()}, tokens, s.opts, logger)
	segments = Merge(segments, s.opts.MinChars, s.opts.MaxChars, fences)
	raw := Assemble(text, segments, s.opts.Overlap, s.opts.Trim, fences)
	chunks := Attach(raw, tokens.Headers, tokens.Sources, s.opts.HeaderLevels, idPrefix)

	logger.Debug("Split document",
		slog.Int("length", text.Len()),
		slog.Int("headers", len(tokens.Headers)),
		slog.Int("fences", len(tokens.Fences)),
		slog.Int("segments", len(segments)),
		slog.Int("chunks", len(chunks)),
	)

	return chunks
}

// Split is a convenience wrapper that builds a Splitter with opts and the default logger.
func Split(markdown string, opts Options) ([]Chunk, error) {
	s, err := New(opts, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create splitter: %w", err)
	}
	return s.Split(markdown), nil
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
