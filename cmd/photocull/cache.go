package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"photocull/internal/diskcache"
)

func newCacheCmd(g *globalFlags) *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the RAW disk cache",
	}
	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default from config)")

	open := func(cmd *cobra.Command) (*diskcache.Cache, error) {
		cfg, err := loadConfig(g)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheDir = cacheDir
		}
		if err := cfg.ResolveCachePaths(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(cfg.RawCacheDir); errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		// Stats and Clear span every variant, so the zero Variant is enough.
		return diskcache.New(cfg.RawCacheDir, diskcache.Variant{})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the number and size of cached RAW buffers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "RAW cache is empty")
				return nil
			}
			count, size, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %d entries, %s\n", c.Dir(), count, formatSize(size))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached RAW buffer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "RAW cache is empty")
				return nil
			}
			removed, err := c.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d entries from %s\n", removed, c.Dir())
			return nil
		},
	})

	return cmd
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
