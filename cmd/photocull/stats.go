package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"photocull/internal/database"
	"photocull/internal/logging"
)

func newStatsCmd(g *globalFlags) *cobra.Command {
	var (
		cacheDir string
		limit    int
		clear    bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the move journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if err := cfg.ResolveCachePaths(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.JournalPath); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(out, "No journal at %s\n", cfg.JournalPath)
				return nil
			}

			ctx := cmd.Context()
			journal, err := database.Open(ctx, cfg.JournalPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := journal.Close(); err != nil {
					logging.Warn("Failed to close journal: %v", err)
				}
			}()

			if clear {
				n, err := journal.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d moves from %s\n", n, cfg.JournalPath)
				return nil
			}

			totals, err := journal.Totals(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Journal: %s\n", cfg.JournalPath)
			fmt.Fprintf(out, "Kept:    %d\n", totals.Kept)
			fmt.Fprintf(out, "Deleted: %d\n", totals.Deleted)

			moves, err := journal.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(moves) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			return writeMoves(out, moves)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory holding journal.db (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recent moves to list")
	cmd.Flags().BoolVar(&clear, "clear", false, "delete every recorded move")
	return cmd
}

func writeMoves(out io.Writer, moves []database.Move) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACTION\tFROM\tTO")
	for _, m := range moves {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.CreatedAt.Local().Format(time.DateTime), m.Action, m.FromPath, m.ToPath)
	}
	return tw.Flush()
}
