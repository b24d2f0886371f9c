package storage

// Package storage persists the webdelta result cache between runs.
//
// It currently supports:
//   - A JSON snapshot file (atomic replace on save)
//   - A SQLite database (single cache table)
