// Package organize moves culled photos into the output directory.
//
// Kept photos go to <output>/<Year>/<Mon>/ by capture date (or
// <output>/No Date/), deleted photos to <output>/Deleted/. Moves never
// overwrite: a name collision gets a _<n> suffix before the extension.
package organize
