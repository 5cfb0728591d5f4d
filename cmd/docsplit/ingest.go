package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/MegaGrindStone/go-docsplit/config"
	"github.com/MegaGrindStone/go-docsplit/handler"
	"github.com/MegaGrindStone/go-docsplit/loader"
	"github.com/MegaGrindStone/go-docsplit/storage"
	"github.com/spf13/cobra"
)

func ingestCmd(flags *globalFlags) *cobra.Command {
	var (
		collection string
		dryRun     bool
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Chunk a documentation tree and sync the chunk store",
		Long: `Chunk every Markdown file under dir (default: docs_dir from config) and sync the
configured chunk store: new and modified chunks are written, chunks whose metadata moved are
updated, and chunks that no longer exist are removed.

Changes are listed and confirmed interactively unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.DocsDir = args[0]
			}
			if cfg.DocsDir == "" {
				return errors.New("document directory not specified")
			}
			if collection != "" {
				cfg.Collection = collection
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runIngest(ctx, cmd, cfg, dryRun, yes)
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "", "Collection name (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show changes without writing them")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply changes without confirmation")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, cfg config.Config, dryRun, yes bool) error {
	logger := cfg.Logger(cmd.ErrOrStderr())

	store, closeStore, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	dir := loader.NewDirectory(cfg.DocsDir, logger)
	dir.Extensions = cfg.Extensions
	docs, err := dir.Load(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	h := handler.NewMarkdown(cfg.Links.LinkConfig(), logger)
	h.Options = cfg.Splitter.Options()

	opts := docsplit.IngestOptions{
		Concurrency: cfg.Concurrency,
		DryRun:      dryRun,
	}
	if !yes {
		opts.Confirm = func(changes docsplit.ChangeSet) bool {
			return confirm(cmd.InOrStdin(), cmd.OutOrStdout(), changes)
		}
	}

	report, err := docsplit.Ingest(ctx, cfg.Collection, docs, h, store, opts, logger)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d documents, %d chunks\n", report.RunID, report.Documents, report.Chunks)
	fmt.Fprintf(out, "  content changed:  %d\n", len(report.Changes.ContentChanged))
	fmt.Fprintf(out, "  metadata changed: %d\n", len(report.Changes.MetadataOnlyChanged))
	fmt.Fprintf(out, "  removed:          %d\n", len(report.Changes.Removed))
	fmt.Fprintf(out, "  applied:          %t\n", report.Applied)

	return nil
}

// sourceStore is a chunk storage that can also look up a single chunk.
type sourceStore interface {
	docsplit.ChunkStorage
	Source(ctx context.Context, collection, id string) (docsplit.Source, error)
}

func openStorage(cfg config.StorageConfig) (sourceStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		r, err := storage.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis storage: %w", err)
		}
		return r, r.Close, nil
	default:
		b, err := storage.NewBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt storage: %w", err)
		}
		return b, b.Close, nil
	}
}

func confirm(in io.Reader, out io.Writer, changes docsplit.ChangeSet) bool {
	fmt.Fprintf(out, "%d chunks to add or update, %d metadata updates, %d to remove.\n",
		len(changes.ContentChanged), len(changes.MetadataOnlyChanged), len(changes.Removed))
	fmt.Fprint(out, "Apply these changes? [y/N] ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
