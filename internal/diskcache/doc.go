// Package diskcache persists already-resized decode results for formats that
// are expensive to decode (camera RAW), so repeated sessions over the same
// folder skip demosaicing entirely.
//
// Entries are keyed by an xxhash of the absolute source path, its
// modification time and the decode Variant. Touching a source file therefore
// invalidates its entry without any bookkeeping. Entries are lossless PNG so a
// Lookup after a Store returns a pixel-identical buffer. Any read problem is
// reported as ErrMiss; the directory can be deleted at any time.
package diskcache
