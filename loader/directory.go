// Package loader reads Markdown documentation from disk.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/MegaGrindStone/go-docsplit"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtensions are the file extensions loaded when none are configured.
var DefaultExtensions = []string{".md", ".mdx"}

// DefaultIgnoreFiles are the per directory pattern files honoured while walking.
var DefaultIgnoreFiles = []string{".gitignore", ".docsignore"}

// Directory implements docsplit.Loader for a documentation tree.
// Files are matched by extension, ignore files are applied per directory the way git applies
// .gitignore, and every document is named after its slash separated path relative to Root
// without the extension.
type Directory struct {
	Root        string
	Extensions  []string
	IgnoreFiles []string
	Logger      *slog.Logger
}

// NewDirectory creates a Directory loader with the default extensions and ignore files.
func NewDirectory(root string, logger *slog.Logger) *Directory {
	return &Directory{
		Root:        root,
		Extensions:  DefaultExtensions,
		IgnoreFiles: DefaultIgnoreFiles,
		Logger:      logger,
	}
}

// Load implements docsplit.Loader. Documents are returned in lexical path order. Invalid UTF-8
// sequences in a file are replaced with U+FFFD and logged as a warning.
func (d *Directory) Load(ctx context.Context) ([]docsplit.Document, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("package", "loader"),
		slog.String("function", "Load"),
	)

	root, err := filepath.Abs(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	root = filepath.Clean(root)

	matchers, err := d.compileIgnoreFiles(ctx, root, logger)
	if err != nil {
		return nil, err
	}

	var docs []docsplit.Document
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			if path != root && ignored(path, root, matchers) {
				logger.Debug("Ignoring directory", "path", relative(root, path))
				return filepath.SkipDir
			}
			return nil
		}

		if !d.matchesExtension(path) {
			return nil
		}
		if ignored(path, root, matchers) {
			logger.Debug("Ignoring file", "path", relative(root, path))
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			logger.Warn("Skipping empty file", "path", relative(root, path))
			return nil
		}

		text := string(content)
		if !utf8.Valid(content) {
			logger.Warn("File is not valid UTF-8, invalid bytes replaced with U+FFFD", "path", relative(root, path))
			text = strings.ToValidUTF8(text, "\uFFFD")
		}

		name := pageName(root, path)
		docs = append(docs, docsplit.Document{
			ID:      name,
			Name:    name,
			Content: text,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	logger.Info("Loaded documents", "root", root, "count", len(docs))

	return docs, nil
}

func (d *Directory) compileIgnoreFiles(
	ctx context.Context,
	root string,
	logger *slog.Logger,
) (map[string][]*ignore.GitIgnore, error) {
	matchers := make(map[string][]*ignore.GitIgnore)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		if !slices.Contains(d.IgnoreFiles, entry.Name()) {
			return nil
		}

		matcher, err := ignore.CompileIgnoreFile(path)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", path, err)
		}

		dir := filepath.Dir(path)
		matchers[dir] = append(matchers[dir], matcher)
		logger.Debug("Compiled ignore file", "path", relative(root, path))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory for ignore files: %w", err)
	}

	return matchers, nil
}

func (d *Directory) matchesExtension(path string) bool {
	extensions := d.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// ignored checks path against the matchers of every directory from its parent up to root.
func ignored(path, root string, matchers map[string][]*ignore.GitIgnore) bool {
	dir := path
	for {
		dir = filepath.Dir(dir)
		if !strings.HasPrefix(dir, root) {
			return false
		}

		rel, err := filepath.Rel(dir, path)
		if err == nil {
			for _, m := range matchers[dir] {
				if m.MatchesPath(filepath.ToSlash(rel)) {
					return true
				}
			}
		}

		if dir == root {
			return false
		}
	}
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func pageName(root, path string) string {
	rel := relative(root, path)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}
