package loader_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/MegaGrindStone/go-docsplit/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ docsplit.Loader = (*loader.Directory)(nil)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestDirectory_Load(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":        "drafts/\n",
		".git/notes.md":     "# Internal\n",
		"drafts/wip.md":     "# Work in progress\n",
		"guide/.docsignore": "secret.md\n",
		"guide/secret.md":   "# Secret\n",
		"guide/install.md":  "# Install\n\nRun the installer.\n",
		"guide/empty.md":    "  \n\n",
		"index.mdx":         "# Welcome\n",
		"notes.txt":         "plain text",
		"reference/api.MD":  "# API\n",
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	docs, err := loader.NewDirectory(root, logger).Load(context.Background())
	require.NoError(t, err)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
		assert.Equal(t, d.Name, d.ID)
	}
	assert.Equal(t, []string{"guide/install", "index", "reference/api"}, names)
	assert.Equal(t, "# Install\n\nRun the installer.\n", docs[0].Content)

	assert.Contains(t, logs.String(), "Skipping empty file")
	assert.Contains(t, logs.String(), "guide/empty.md")
}

func TestDirectory_InvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"latin1.md": "# Caf\xe9\n\ncaf\xe9 au lait\n",
		"utf8.md":   "# Café\n",
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	docs, err := loader.NewDirectory(root, logger).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "# Caf\uFFFD\n\ncaf\uFFFD au lait\n", docs[0].Content)
	assert.Equal(t, "# Café\n", docs[1].Content)
	assert.Contains(t, logs.String(), "File is not valid UTF-8")
	assert.Contains(t, logs.String(), "latin1.md")
	assert.NotContains(t, logs.String(), "utf8.md")
}

func TestDirectory_Extensions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.md":  "# A\n",
		"b.txt": "B\n",
	})

	d := loader.NewDirectory(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.Extensions = []string{".txt"}

	docs, err := d.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].ID)
}

func TestDirectory_MissingRoot(t *testing.T) {
	d := loader.NewDirectory(filepath.Join(t.TempDir(), "missing"), nil)

	_, err := d.Load(context.Background())
	assert.ErrorContains(t, err, "failed to walk directory")
}

func TestDirectory_CanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.md": "# A\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.NewDirectory(root, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
