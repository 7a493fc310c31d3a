package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"photocull/internal/logging"
	"photocull/internal/media"
	"photocull/internal/navigator"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults
const (
	DefaultMaxWidth    = 1720
	DefaultMaxHeight   = 1000
	DefaultChunkSize   = 100
	DefaultMetricsPort = "9090"
	// DefaultOutputName is the output directory created inside the input
	// directory when none is configured.
	DefaultOutputName = "culled"
)

// Config holds all application configuration
type Config struct {
	InputDir    string
	OutputDir   string
	CacheDir    string
	PreviewPath string

	MaxWidth  int
	MaxHeight int
	ChunkSize int
	Quality   media.Quality
	UseCache  bool

	Recursive  bool
	SortByDate bool
	Ignore     []string

	CheckCorrupt bool
	Dedupe       bool

	SaveKey   string
	DeleteKey string

	MetricsEnabled bool
	MetricsPort    string

	// Derived paths
	JournalPath string
	RawCacheDir string
}

// LoadOptions selects the optional files LoadConfig reads.
type LoadOptions struct {
	// SettingsFile is a YAML file. Empty means PHOTOCULL_CONFIG, then
	// the user config directory. A missing default file is not an error.
	SettingsFile string
	// EnvFile is a dotenv file. Empty means ".env" if present.
	EnvFile string
}

// settingsFile mirrors Config in the YAML settings file. Pointers tell
// unset keys from zero values.
type settingsFile struct {
	InputDir     string   `yaml:"input_dir"`
	OutputDir    string   `yaml:"output_dir"`
	CacheDir     string   `yaml:"cache_dir"`
	PreviewPath  string   `yaml:"preview_path"`
	MaxWidth     int      `yaml:"max_width"`
	MaxHeight    int      `yaml:"max_height"`
	ChunkSize    int      `yaml:"chunk_size"`
	Quality      string   `yaml:"quality"`
	UseCache     *bool    `yaml:"use_cache"`
	Recursive    *bool    `yaml:"recursive"`
	SortByDate   *bool    `yaml:"sort_by_date"`
	Ignore       []string `yaml:"ignore"`
	CheckCorrupt *bool    `yaml:"check_corrupt"`
	Dedupe       *bool    `yaml:"dedupe"`
	Keys         struct {
		Save   string `yaml:"save"`
		Delete string `yaml:"delete"`
	} `yaml:"keys"`
	Metrics struct {
		Enabled *bool  `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"metrics"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	bindings := navigator.DefaultBindings()
	return &Config{
		CacheDir:    defaultCacheDir(),
		MaxWidth:    DefaultMaxWidth,
		MaxHeight:   DefaultMaxHeight,
		ChunkSize:   DefaultChunkSize,
		Quality:     media.QualityNormal,
		UseCache:    true,
		Recursive:   true,
		SortByDate:  true,
		SaveKey:     bindings.Save,
		DeleteKey:   bindings.Delete,
		MetricsPort: DefaultMetricsPort,
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "photocull")
	}
	return ".photocull-cache"
}

func defaultSettingsFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "photocull", "config.yaml")
	}
	return ""
}

// LoadConfig layers defaults, the YAML settings file, the dotenv file and
// the environment, later layers winning. It does not touch directories;
// call Validate and Prepare afterwards.
func LoadConfig(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	settingsPath := opts.SettingsFile
	explicit := settingsPath != ""
	if !explicit {
		settingsPath = os.Getenv("PHOTOCULL_CONFIG")
		explicit = settingsPath != ""
	}
	if !explicit {
		settingsPath = defaultSettingsFile()
	}
	if settingsPath != "" {
		if err := cfg.applySettingsFile(settingsPath, explicit); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		logging.Debug("Loaded environment from %s", path)
		return nil
	}

	err := godotenv.Load()
	if err == nil {
		logging.Debug("Loaded environment from .env")
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load .env: %w", err)
}

func (c *Config) applySettingsFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("error reading settings file: %w", err)
	}

	var s settingsFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("error parsing settings file %s: %w", path, err)
	}
	logging.Debug("Loaded settings from %s", path)

	setString(&c.InputDir, s.InputDir)
	setString(&c.OutputDir, s.OutputDir)
	setString(&c.CacheDir, s.CacheDir)
	setString(&c.PreviewPath, s.PreviewPath)
	setString(&c.SaveKey, s.Keys.Save)
	setString(&c.DeleteKey, s.Keys.Delete)
	setString(&c.MetricsPort, s.Metrics.Port)
	setInt(&c.MaxWidth, s.MaxWidth)
	setInt(&c.MaxHeight, s.MaxHeight)
	setInt(&c.ChunkSize, s.ChunkSize)
	setBool(&c.UseCache, s.UseCache)
	setBool(&c.Recursive, s.Recursive)
	setBool(&c.SortByDate, s.SortByDate)
	setBool(&c.CheckCorrupt, s.CheckCorrupt)
	setBool(&c.Dedupe, s.Dedupe)
	setBool(&c.MetricsEnabled, s.Metrics.Enabled)
	if len(s.Ignore) > 0 {
		c.Ignore = s.Ignore
	}
	if s.Quality != "" {
		q, err := media.ParseQuality(s.Quality)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		c.Quality = q
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.InputDir = getEnv("PHOTOCULL_INPUT_DIR", c.InputDir)
	c.OutputDir = getEnv("PHOTOCULL_OUTPUT_DIR", c.OutputDir)
	c.CacheDir = getEnv("PHOTOCULL_CACHE_DIR", c.CacheDir)
	c.PreviewPath = getEnv("PHOTOCULL_PREVIEW_PATH", c.PreviewPath)
	c.MaxWidth = getEnvInt("PHOTOCULL_MAX_WIDTH", c.MaxWidth)
	c.MaxHeight = getEnvInt("PHOTOCULL_MAX_HEIGHT", c.MaxHeight)
	c.ChunkSize = getEnvInt("PHOTOCULL_CHUNK_SIZE", c.ChunkSize)
	c.UseCache = getEnvBool("PHOTOCULL_USE_CACHE", c.UseCache)
	c.Recursive = getEnvBool("PHOTOCULL_RECURSIVE", c.Recursive)
	c.SortByDate = getEnvBool("PHOTOCULL_SORT_BY_DATE", c.SortByDate)
	c.CheckCorrupt = getEnvBool("PHOTOCULL_CHECK_CORRUPT", c.CheckCorrupt)
	c.Dedupe = getEnvBool("PHOTOCULL_DEDUPE", c.Dedupe)
	c.SaveKey = getEnv("PHOTOCULL_SAVE_KEY", c.SaveKey)
	c.DeleteKey = getEnv("PHOTOCULL_DELETE_KEY", c.DeleteKey)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)

	if v := os.Getenv("PHOTOCULL_IGNORE"); v != "" {
		c.Ignore = splitList(v)
	}
	if v := os.Getenv("PHOTOCULL_QUALITY"); v != "" {
		q, err := media.ParseQuality(v)
		if err != nil {
			return fmt.Errorf("%w: PHOTOCULL_QUALITY: %v", ErrInvalidConfig, err)
		}
		c.Quality = q
	}
	return nil
}

// Bindings returns the configured key bindings.
func (c *Config) Bindings() navigator.Bindings {
	return navigator.Bindings{Save: c.SaveKey, Delete: c.DeleteKey}
}

// Validate checks values that do not depend on the filesystem.
func (c *Config) Validate() error {
	var errs []string
	if c.InputDir == "" {
		errs = append(errs, "input directory is required")
	}
	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		errs = append(errs, fmt.Sprintf("display size must be positive, got %dx%d", c.MaxWidth, c.MaxHeight))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Sprintf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if err := c.Bindings().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.MetricsEnabled && c.MetricsPort == "" {
		errs = append(errs, "metrics port is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// Prepare resolves paths, checks the input directory and creates the
// output and cache directories. The disk cache is disabled, not fatal,
// when the cache directory is not writable.
func (c *Config) Prepare() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	if c.InputDir, err = filepath.Abs(c.InputDir); err != nil {
		return fmt.Errorf("failed to resolve input directory path: %w", err)
	}
	logging.Info("  Input directory (absolute):  %s", c.InputDir)

	info, err := os.Stat(c.InputDir)
	if err != nil {
		return fmt.Errorf("input directory error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input path %s is not a directory", ErrInvalidConfig, c.InputDir)
	}
	logInputContents(c.InputDir)

	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, DefaultOutputName)
	}
	if c.OutputDir, err = filepath.Abs(c.OutputDir); err != nil {
		return fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	logging.Info("  Output directory (absolute): %s", c.OutputDir)

	if err := ensureDirectory(c.OutputDir, "output"); err != nil {
		return fmt.Errorf("output directory error: %w", err)
	}
	if err := testWriteAccess(c.OutputDir); err != nil {
		return fmt.Errorf("output directory is not writable (required for keep and delete): %w", err)
	}
	logging.Info("  [OK] Output directory is writable")

	if err := c.ResolveCachePaths(); err != nil {
		return err
	}
	logging.Info("  Cache directory (absolute):  %s", c.CacheDir)

	if err := ensureDirectory(c.CacheDir, "cache"); err != nil {
		return fmt.Errorf("cache directory error: %w", err)
	}
	if err := testWriteAccess(c.CacheDir); err != nil {
		return fmt.Errorf("cache directory is not writable (required for the journal): %w", err)
	}

	if c.UseCache {
		c.UseCache = setupOptionalDir(c.RawCacheDir, "raw cache")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Journal:       ENABLED (required)")
	logging.Info("    RAW cache:     %s", enabledString(c.UseCache))
	logging.Info("    Date sort:     %s", enabledString(c.SortByDate))
	logging.Info("    Corrupt check: %s", enabledString(c.CheckCorrupt))
	logging.Info("    Dedupe:        %s", enabledString(c.Dedupe))
	logging.Info("    Metrics:       %s", enabledString(c.MetricsEnabled))
	return nil
}

// ResolveCachePaths makes the cache directory absolute and derives the
// journal, RAW cache and preview paths from it. Nothing is created.
func (c *Config) ResolveCachePaths() error {
	dir, err := filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	c.CacheDir = dir
	c.JournalPath = filepath.Join(dir, "journal.db")
	c.RawCacheDir = filepath.Join(dir, "raw")
	if c.PreviewPath == "" {
		c.PreviewPath = filepath.Join(dir, "preview.jpg")
	}
	return nil
}

// LogConfig prints the effective configuration.
func (c *Config) LogConfig() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  INPUT_DIR:       %s", c.InputDir)
	logging.Info("  OUTPUT_DIR:      %s", valueOr(c.OutputDir, "<input>/"+DefaultOutputName))
	logging.Info("  CACHE_DIR:       %s", c.CacheDir)
	logging.Info("  MAX_SIZE:        %dx%d", c.MaxWidth, c.MaxHeight)
	logging.Info("  CHUNK_SIZE:      %d", c.ChunkSize)
	logging.Info("  QUALITY:         %s", c.Quality)
	logging.Info("  USE_CACHE:       %v", c.UseCache)
	logging.Info("  RECURSIVE:       %v", c.Recursive)
	logging.Info("  SORT_BY_DATE:    %v", c.SortByDate)
	logging.Info("  IGNORE:          %s", valueOr(strings.Join(c.Ignore, ","), "none"))
	logging.Info("  KEYS:            save=%s delete=%s", c.SaveKey, c.DeleteKey)
	logging.Info("  METRICS_ENABLED: %v", c.MetricsEnabled)
	logging.Info("  METRICS_PORT:    %s", c.MetricsPort)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
