// Package middleware provides HTTP middleware for the metrics server.
//
// [Logger] writes one W3C Extended Log Format line per request at debug
// level, skipping health probes unless configured otherwise.
package middleware
