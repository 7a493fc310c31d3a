// Package terminal is the text-mode front end of a culling session.
//
// Frames are written as a JPEG to a preview path that any image viewer
// with auto-reload can watch, and key presses are read from the
// controlling terminal in raw mode. Arrow keys, backspace, enter, space
// and escape are reported by the names the navigator binds.
package terminal
