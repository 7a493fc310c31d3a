// Package overlay draws the status text of the culling view (position,
// key help, saved/deleted badge, capture date, history depth) onto a copy
// of a decoded frame.
package overlay
