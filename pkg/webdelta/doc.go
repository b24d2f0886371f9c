// Package webdelta polls web pages for changes.
//
// Register (endpoint, parser) pairs, then either run a single pass
// (GetNew/GetAll) or start a rate-limited background loop
// (StartNew/StartAll) that pushes results onto a channel until Stop.
// Results are diffed against a cache that can be persisted across restarts.
package webdelta
