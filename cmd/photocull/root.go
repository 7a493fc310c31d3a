package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photocull/internal/logging"
	"photocull/internal/startup"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
	debug      bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cf := &cullFlags{}

	root := &cobra.Command{
		Use:   "photocull [input-dir]",
		Short: "Cull a directory of photos from the keyboard",
		Long: `photocull shows each image of a directory, RAW files included, and
moves it into a dated keep folder, a Deleted folder, or leaves it in place.
Images are decoded in the background a window ahead of the cursor.`,
		Version:       startup.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return applyLogFlags(g)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCull(cmd, args, g, cf)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "YAML settings file")
	pf.StringVar(&g.envFile, "env-file", "", "dotenv file to load before reading the environment")
	pf.BoolVar(&g.debug, "debug", false, "enable debug logging")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cf.register(root)

	root.AddCommand(newCullCmd(g))
	root.AddCommand(newCacheCmd(g))
	root.AddCommand(newStatsCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func applyLogFlags(g *globalFlags) error {
	if g.logLevel != "" {
		level, ok := logging.ParseLevel(g.logLevel)
		if !ok {
			return fmt.Errorf("unknown log level %q", g.logLevel)
		}
		logging.SetLevel(level)
	}
	if g.debug {
		logging.SetLevel(logging.LevelDebug)
	}
	return nil
}

// loadConfig reads settings, dotenv and environment layers.
func loadConfig(g *globalFlags) (*startup.Config, error) {
	return startup.LoadConfig(startup.LoadOptions{
		SettingsFile: g.configFile,
		EnvFile:      g.envFile,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "photocull %s\n", info.Version)
			fmt.Fprintf(out, "  commit:  %s\n", info.Commit)
			fmt.Fprintf(out, "  built:   %s\n", info.BuildTime)
			fmt.Fprintf(out, "  go:      %s %s/%s\n", info.GoVersion, info.OS, info.Arch)
		},
	}
}
