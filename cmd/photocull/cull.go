package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photocull/internal/capture"
	"photocull/internal/database"
	"photocull/internal/diskcache"
	"photocull/internal/filesystem"
	"photocull/internal/logging"
	"photocull/internal/media"
	"photocull/internal/memory"
	"photocull/internal/metrics"
	"photocull/internal/navigator"
	"photocull/internal/organize"
	"photocull/internal/preload"
	"photocull/internal/scanner"
	"photocull/internal/startup"
	"photocull/internal/terminal"
)

// thumbSize is the decode size used by the corruption and duplicate checks.
const thumbSize = 64

// cullFlags override the loaded configuration when set on the command line.
type cullFlags struct {
	output       string
	cacheDir     string
	preview      string
	width        int
	height       int
	chunkSize    int
	quality      string
	noCache      bool
	recursive    bool
	sortByDate   bool
	ignore       []string
	checkCorrupt bool
	dedupe       bool
	saveKey      string
	deleteKey    string
	metrics      bool
	metricsPort  string
}

func (f *cullFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output directory (default <input>/culled)")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "directory for the RAW cache, journal and preview")
	fl.StringVar(&f.preview, "preview", "", "file the current frame is written to")
	fl.IntVar(&f.width, "width", startup.DefaultMaxWidth, "display width")
	fl.IntVar(&f.height, "height", startup.DefaultMaxHeight, "display height")
	fl.IntVar(&f.chunkSize, "chunk-size", startup.DefaultChunkSize, "images per preload window")
	fl.StringVarP(&f.quality, "quality", "q", "normal", "RAW decode quality: low, normal, high")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the RAW disk cache")
	fl.BoolVarP(&f.recursive, "recursive", "r", true, "scan subdirectories")
	fl.BoolVar(&f.sortByDate, "sort-by-date", true, "sort each window by capture date")
	fl.StringSliceVar(&f.ignore, "ignore", nil, "glob patterns to skip (repeatable)")
	fl.BoolVar(&f.checkCorrupt, "check-corrupt", false, "move files that fail to decode to Corrupted before culling")
	fl.BoolVar(&f.dedupe, "dedupe", false, "move pixel-identical copies to Duplicates before culling")
	fl.StringVar(&f.saveKey, "save-key", "space", "key that keeps an image")
	fl.StringVar(&f.deleteKey, "delete-key", "backspace", "key that deletes an image")
	fl.BoolVar(&f.metrics, "metrics", false, "serve Prometheus metrics")
	fl.StringVar(&f.metricsPort, "metrics-port", startup.DefaultMetricsPort, "metrics port")
}

// apply copies every flag the user set onto cfg.
func (f *cullFlags) apply(cmd *cobra.Command, cfg *startup.Config) error {
	changed := cmd.Flags().Changed

	if changed("output") {
		cfg.OutputDir = f.output
	}
	if changed("cache-dir") {
		cfg.CacheDir = f.cacheDir
	}
	if changed("preview") {
		cfg.PreviewPath = f.preview
	}
	if changed("width") {
		cfg.MaxWidth = f.width
	}
	if changed("height") {
		cfg.MaxHeight = f.height
	}
	if changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if changed("quality") {
		q, err := media.ParseQuality(f.quality)
		if err != nil {
			return fmt.Errorf("%w: %v", startup.ErrInvalidConfig, err)
		}
		cfg.Quality = q
	}
	if changed("no-cache") {
		cfg.UseCache = !f.noCache
	}
	if changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if changed("sort-by-date") {
		cfg.SortByDate = f.sortByDate
	}
	if changed("ignore") {
		cfg.Ignore = f.ignore
	}
	if changed("check-corrupt") {
		cfg.CheckCorrupt = f.checkCorrupt
	}
	if changed("dedupe") {
		cfg.Dedupe = f.dedupe
	}
	if changed("save-key") {
		cfg.SaveKey = f.saveKey
	}
	if changed("delete-key") {
		cfg.DeleteKey = f.deleteKey
	}
	if changed("metrics") {
		cfg.MetricsEnabled = f.metrics
	}
	if changed("metrics-port") {
		cfg.MetricsPort = f.metricsPort
	}
	return nil
}

func newCullCmd(g *globalFlags) *cobra.Command {
	cf := &cullFlags{}
	cmd := &cobra.Command{
		Use:   "cull [input-dir]",
		Short: "Start an interactive culling session (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCull(cmd, args, g, cf)
		},
	}
	cf.register(cmd)
	return cmd
}

func runCull(cmd *cobra.Command, args []string, g *globalFlags, cf *cullFlags) error {
	startTime := time.Now()

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}
	if err := cf.apply(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	startup.LogStartup()
	cfg.LogConfig()
	if err := cfg.Prepare(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"input":  cfg.InputDir,
		"output": cfg.OutputDir,
		"cache":  cfg.CacheDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer media.ShutdownVips()
	startup.LogVipsInit(media.IsVipsAvailable())

	var raw media.RawDecoder
	if media.IsVipsAvailable() {
		raw = media.VipsRawDecoder{}
	}

	journalStart := time.Now()
	journal, err := database.Open(ctx, cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logging.Warn("Failed to close journal: %v", err)
		}
	}()
	startup.LogJournalInit(cfg.JournalPath, time.Since(journalStart))
	if err := journal.SetMetadata(ctx, "input_dir", cfg.InputDir); err != nil {
		logging.Warn("Failed to record input dir: %v", err)
	}

	collector := metrics.NewCollector(journal, 30*time.Second)
	collector.Start()
	defer collector.Stop()

	if cfg.MetricsEnabled {
		srv := startMetricsServer(cfg.MetricsPort, journal)
		defer shutdownMetricsServer(srv)
	}

	dates := capture.NewSource()
	organizer := organize.New(cfg.OutputDir, dates.Date)

	paths, err := scanInput(ctx, cfg, raw, organizer, startTime)
	if err != nil {
		return err
	}

	var cache media.BufferCache
	if cfg.UseCache {
		dc, err := diskcache.New(cfg.RawCacheDir, diskcache.Variant{
			Width:   cfg.MaxWidth,
			Height:  cfg.MaxHeight,
			Quality: cfg.Quality.String(),
		})
		if err != nil {
			logging.Warn("RAW cache disabled: %v", err)
		} else {
			cache = dc
		}
	}
	decoder := media.NewDecoder(raw, cache)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	opts := preload.DefaultOptions(cfg.MaxWidth, cfg.MaxHeight, cfg.Quality)
	opts.Backpressure = monitor
	manager := preload.NewManager(decoder, opts)

	display, err := terminal.Open(cfg.PreviewPath, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := display.Close(); err != nil {
			logging.Warn("Failed to restore terminal: %v", err)
		}
	}()

	session, err := navigator.NewSession(paths, manager, display, organizer, dates, navigator.Options{
		ChunkSize:   cfg.ChunkSize,
		SortWindows: cfg.SortByDate,
		Bindings:    cfg.Bindings(),
		OutputDir:   cfg.OutputDir,
		Journal:     journal,
	})
	if err != nil {
		return err
	}

	startup.LogSessionStarted(startup.SessionConfig{
		Images:          len(paths),
		ChunkSize:       cfg.ChunkSize,
		PreviewPath:     cfg.PreviewPath,
		Help:            cfg.Bindings().Help(),
		StartupDuration: time.Since(startTime),
	})

	summary, err := session.Run(ctx)

	reason := "session " + summary.State.String()
	if errors.Is(err, context.Canceled) {
		reason = "interrupted"
		err = nil
	}
	startup.LogShutdownInitiated(reason)
	startup.LogShutdownStep("Stopping preload worker")
	manager.Stop()
	startup.LogShutdownStepComplete("Preload worker stopped")
	startup.LogShutdownComplete()
	return err
}

// scanInput enumerates the input directory and runs the optional prefilters.
func scanInput(ctx context.Context, cfg *startup.Config, raw media.RawDecoder, organizer *organize.Organizer, startTime time.Time) ([]string, error) {
	paths, err := scanner.Scan(cfg.InputDir, scanner.Options{
		Recursive:  cfg.Recursive,
		SkipHidden: true,
		Ignore:     cfg.Ignore,
		Exclude:    []string{cfg.OutputDir, cfg.CacheDir},
	})
	if err != nil {
		return nil, err
	}

	// No disk cache here: thumbnail-sized buffers must not land in it.
	thumbs := media.NewDecoder(raw, nil)
	thumbnail := func(path string) (*image.RGBA, error) {
		return thumbs.DecodeAndResize(path, thumbSize, thumbSize, media.QualityLow)
	}

	var corrupt, duplicates int
	if cfg.CheckCorrupt {
		res, err := scanner.CheckCorrupt(ctx, paths, scanner.ProbeFunc(func(path string) error {
			_, err := thumbnail(path)
			if errors.Is(err, media.ErrVipsUnavailable) {
				return nil
			}
			return err
		}), organizer, filepath.Join(cfg.OutputDir, organize.CorruptedDir))
		if err != nil {
			return nil, err
		}
		paths, corrupt = res.Kept, len(res.Moved)
	}

	if cfg.Dedupe {
		res, err := scanner.Dedupe(ctx, paths, scanner.ThumbnailFunc(thumbnail), organizer, filepath.Join(cfg.OutputDir, organize.DuplicatesDir))
		if err != nil {
			return nil, err
		}
		paths, duplicates = res.Kept, len(res.Moved)
	}

	startup.LogScanResult(len(paths), corrupt, duplicates, time.Since(startTime))
	return paths, nil
}
