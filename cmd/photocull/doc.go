// Command photocull is a keyboard-driven photo culling tool.
//
// It walks an input directory, shows each image (RAW files decoded
// through libvips) and moves it into a dated keep folder or a Deleted
// folder of the output directory. Decoding runs a window ahead of the
// cursor in a background worker.
//
// Usage:
//
//	photocull [flags] [input-dir]
//	photocull cache stats|clear
//	photocull stats [--limit N] [--clear]
//	photocull version
//
// Keys: the save key (space) keeps, the delete key (backspace) deletes,
// the right arrow skips, the left arrow goes back to the previous image, q or
// escape quits.
//
// The current frame is written to a preview JPEG, by default
// preview.jpg in the cache directory; open it in any viewer that
// reloads on change.
package main
