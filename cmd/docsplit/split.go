package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MegaGrindStone/go-docsplit/splitter"
	"github.com/spf13/cobra"
)

func splitCmd(flags *globalFlags) *cobra.Command {
	var (
		maxChars int
		minChars int
		overlap  int
		idPrefix string
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Split a Markdown file and print its chunks as JSON",
		Long: `Split a Markdown file and print its chunks as a JSON array.

The file is read from standard input when it is omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			opts := cfg.Splitter.Options()
			if cmd.Flags().Changed("max-chars") {
				opts.MaxChars = maxChars
			}
			if cmd.Flags().Changed("min-chars") {
				opts.MinChars = minChars
			}
			if cmd.Flags().Changed("overlap") {
				opts.Overlap = overlap
			}
			opts.IDPrefix = idPrefix

			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			s, err := splitter.New(opts, cfg.Logger(cmd.ErrOrStderr()))
			if err != nil {
				return fmt.Errorf("create splitter: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(s.Split(content)); err != nil {
				return fmt.Errorf("encode chunks: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Maximum chunk size in characters (default from config)")
	cmd.Flags().IntVar(&minChars, "min-chars", 0, "Minimum chunk size in characters (default from config)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Characters of overlap between chunks (default from config)")
	cmd.Flags().StringVar(&idPrefix, "id-prefix", "", "Prefix for chunk IDs")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print compact JSON")

	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
