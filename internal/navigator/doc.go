// Package navigator runs the interactive culling loop.
//
// A Session walks an ordered list of image paths one at a time. The list is
// split into windows of ChunkSize paths; whenever the cursor enters a
// different window the session (optionally) sorts that window by capture
// date and restarts the background cache with the window and the one after
// it. Each readable image is composed with its status overlay, shown, and
// one key press decides what happens next:
//
//   - keep: move the file into the dated output tree and advance
//   - delete: move the file into the Deleted directory and advance
//   - skip: advance without touching the file
//   - back: return to the most recent entry in the History
//   - quit: stop immediately
//
// Moved files keep their slot in the list under their new path, so going
// back to a kept photo shows it from its new location. A move that fails is
// reported on the next frame and is not recorded in the History. Images
// that cannot be decoded are skipped without stopping for input.
package navigator
