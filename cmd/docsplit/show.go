package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MegaGrindStone/go-docsplit"
	"github.com/spf13/cobra"
)

func showCmd(flags *globalFlags) *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored chunk as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if collection != "" {
				cfg.Collection = collection
			}

			store, closeStore, err := openStorage(cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			source, err := store.Source(cmd.Context(), cfg.Collection, args[0])
			if errors.Is(err, docsplit.ErrSourceNotFound) {
				return fmt.Errorf("chunk %q not found in collection %q: %w", args[0], cfg.Collection, err)
			}
			if err != nil {
				return fmt.Errorf("get chunk: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(source); err != nil {
				return fmt.Errorf("encode chunk: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "", "Collection name (default from config)")

	return cmd
}
