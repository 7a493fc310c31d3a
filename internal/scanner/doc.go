// Package scanner enumerates the images a culling session will visit and
// runs the optional corruption and duplicate prefilters over them.
//
// Scan walks a directory, flat or recursive, keeping files whose extension
// is in the mediatypes allow-list. Hidden entries, ignore globs and
// excluded directories (the output directory, typically) are skipped.
// The result is in lexical walk order, which is the order the navigator
// presents unless windows are sorted by capture date.
//
// CheckCorrupt and Dedupe probe files on a bounded worker pool sized by
// the workers package and move rejects through a Mover, returning the
// surviving paths in their original order.
package scanner
