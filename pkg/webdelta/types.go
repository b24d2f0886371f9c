package webdelta

import (
	"context"
	"fmt"
	"time"
)

// Parser extracts a value from fetched page content.
//
// The second return value reports whether a usable value was produced.
// false is the "no result yet" signal: the engine treats it like a transient
// failure and retries the fetch+parse cycle for this registration.
//
// Name() must be stable across runs: together with the endpoint it forms the
// cache identity, so two parsers with the same name on the same endpoint
// share a cache entry.
type Parser interface {
	Name() string
	Parse(raw string) (string, bool)
}

// ParserFunc adapts a plain function plus an explicit name into a Parser.
type ParserFunc struct {
	name string
	fn   func(raw string) (string, bool)
}

// Named wraps fn as a Parser with the given stable name.
func Named(name string, fn func(raw string) (string, bool)) ParserFunc {
	return ParserFunc{name: name, fn: fn}
}

func (p ParserFunc) Name() string { return p.name }

func (p ParserFunc) Parse(raw string) (string, bool) {
	if p.fn == nil {
		return "", false
	}
	return p.fn(raw)
}

// Fetcher retrieves the raw content of an endpoint. It must not retry
// internally; retries are the engine's job.
type Fetcher func(ctx context.Context, endpoint string) (string, error)

// Registration is one (endpoint, parser) pair tracked by the engine.
// Registrations are immutable; duplicates are allowed and run independently,
// which is how multiple parsers watch the same endpoint.
type Registration struct {
	Endpoint string
	Parser   Parser
}

// key is the cache identity for this registration.
// Endpoint and parser name are joined with a NUL so the two parts can never
// collide with each other's contents.
func (r Registration) key() string {
	return r.Endpoint + "\x00" + r.Parser.Name()
}

// Result is one emitted (endpoint, value) pair.
type Result struct {
	Endpoint string
	Parser   string
	Value    string
}

// RateLimit is the minimum interval between continuous passes, expressed in
// calendar-ish units like the upstream API. All components must be >= 0; a
// zero total means no enforced delay.
type RateLimit struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

func (r RateLimit) Interval() time.Duration {
	return time.Duration(r.Days)*24*time.Hour +
		time.Duration(r.Hours)*time.Hour +
		time.Duration(r.Minutes)*time.Minute +
		time.Duration(r.Seconds)*time.Second
}

func (r RateLimit) validate() error {
	if r.Days < 0 || r.Hours < 0 || r.Minutes < 0 || r.Seconds < 0 {
		return fmt.Errorf("rate limit components must be >= 0, got %+v", r)
	}
	return nil
}

type mode int

const (
	modeNew mode = iota
	modeAll
)
