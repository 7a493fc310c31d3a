// Package logging provides a simple leveled logging interface for photocull.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (decode timings, cache hits)
//   - INFO: General operational messages (window changes, moves)
//   - WARN: Warning conditions (skipped images, cache write failures)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read from DEBUG or LOG_LEVEL and can be overridden with
// SetLevel, which the --debug flag uses.
package logging
