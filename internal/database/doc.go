// Package database keeps the SQLite action journal.
//
// Every keep or delete that succeeds on disk is appended to the moves
// table with its source and destination path, so a culling run can be
// audited or replayed by hand later. The journal uses WAL mode and
// initializes and migrates its schema on open.
package database
