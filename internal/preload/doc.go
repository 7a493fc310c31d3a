// Package preload keeps the images around the navigation cursor decoded
// ahead of time.
//
// A Manager owns a map from path to decoded buffer and one background
// worker. Start hands it two windows, the one being viewed and the one after
// it; the worker decodes every path of the current window (RAW files first,
// since they dominate decode cost) before it touches the next window, then
// idles. GetImage serves from the map and decodes synchronously on a miss,
// so callers never need their own fallback path.
//
// Failed decodes are stored as tombstones and never retried. Entries outside
// the two windows are evicted on the next Start. No lock is held while a
// decode runs, and concurrent requests for the same path share one decode.
package preload
