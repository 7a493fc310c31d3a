// Package startup loads configuration and prints the startup and shutdown
// log sections.
//
// # Configuration
//
// [LoadConfig] layers, from lowest to highest precedence:
//
//   - built-in defaults ([DefaultConfig])
//   - a YAML settings file (--config, PHOTOCULL_CONFIG, or
//     photocull/config.yaml in the user config directory)
//   - a dotenv file (--env-file, or .env in the working directory), which
//     only fills variables not already set
//   - environment variables
//
// Command line flags are applied on top by the caller. [Config.Validate]
// checks values, [Config.Prepare] resolves and creates directories.
//
// Environment variables:
//
//   - PHOTOCULL_INPUT_DIR, PHOTOCULL_OUTPUT_DIR (default <input>/culled)
//   - PHOTOCULL_CACHE_DIR (default photocull in the user cache directory)
//   - PHOTOCULL_PREVIEW_PATH (default <cache>/preview.jpg)
//   - PHOTOCULL_MAX_WIDTH (1720), PHOTOCULL_MAX_HEIGHT (1000)
//   - PHOTOCULL_CHUNK_SIZE (100)
//   - PHOTOCULL_QUALITY: low, normal or high (normal)
//   - PHOTOCULL_USE_CACHE (true): disk cache for decoded RAW files
//   - PHOTOCULL_RECURSIVE (true), PHOTOCULL_SORT_BY_DATE (true)
//   - PHOTOCULL_IGNORE: comma separated glob patterns
//   - PHOTOCULL_CHECK_CORRUPT, PHOTOCULL_DEDUPE (false)
//   - PHOTOCULL_SAVE_KEY (space), PHOTOCULL_DELETE_KEY (backspace)
//   - METRICS_ENABLED (false), METRICS_PORT (9090)
//   - LOG_LEVEL, DEBUG
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
