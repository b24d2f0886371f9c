package webdelta

import (
	"context"
	"sync"

	"webdelta/internal/storage"
	logx "webdelta/pkg/logx"
)

// Engine polls registered endpoints, applies the registered parsers, and
// reports results that differ from the persisted cache.
//
// One-shot calls (GetNew/GetAll) run synchronously on the caller's
// goroutine; StartNew/StartAll run the same pass in a background loop paced
// by the configured rate limit until Stop.
type Engine struct {
	cfg   resolved
	pacer pacer
	cache *cache

	regMu sync.Mutex
	regs  []Registration

	// Continuous runner state. runCancel is non-nil exactly while RUNNING.
	runMu     sync.Mutex
	runCancel context.CancelFunc
	runDone   chan struct{}
}

// New builds an Engine from opts. When a cache file or store is configured,
// prior cache state is loaded here; a missing file is a fresh start, not an
// error. Invalid options (negative retry limit, negative rate limit
// components, unparsable cron spec) are rejected outright.
func New(opts Options) (*Engine, error) {
	cfg, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	if cfg.store == nil && cfg.cacheFile != "" {
		st, err := storage.Open(storage.Config{Driver: "file", Path: cfg.cacheFile}, cfg.log)
		if err != nil {
			return nil, err
		}
		cfg.store = st
	}

	p, err := newPacer(cfg)
	if err != nil {
		return nil, err
	}

	c, err := newCache(context.Background(), cfg.store)
	if err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg, pacer: p, cache: c}, nil
}

// Register appends an (endpoint, parser) pair. The endpoint is not validated
// for reachability; a dead endpoint just never produces results.
func (e *Engine) Register(endpoint string, p Parser) {
	e.regMu.Lock()
	e.regs = append(e.regs, Registration{Endpoint: endpoint, Parser: p})
	e.regMu.Unlock()
}

// Registrations returns the current registrations in insertion order.
func (e *Engine) Registrations() []Registration {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	return append([]Registration(nil), e.regs...)
}

// GetNew runs one pass and returns only results that differ from the cache
// (first-seen results always count as new). The cache is persisted after the
// pass when a backing store is configured; a persistence failure is returned
// alongside the results, which are still valid.
func (e *Engine) GetNew(ctx context.Context) ([]Result, error) {
	res := e.runPass(ctx, modeNew)
	return res, e.cache.save(ctx)
}

// GetAll runs one pass and returns every registration's non-empty result,
// regardless of cache history. The cache is still brought current so a later
// GetNew diffs against fresh state.
func (e *Engine) GetAll(ctx context.Context) ([]Result, error) {
	res := e.runPass(ctx, modeAll)
	return res, e.cache.save(ctx)
}

// SaveCache persists the current cache state on demand.
// No-op without a backing store.
func (e *Engine) SaveCache(ctx context.Context) error {
	return e.cache.save(ctx)
}

// CacheSnapshot returns a copy of the current key→value cache contents.
func (e *Engine) CacheSnapshot() map[string]string {
	return e.cache.snapshot()
}

// Clear removes all registrations, empties the cache, and deletes any
// persisted cache state. A missing backing file is not an error.
func (e *Engine) Clear() error {
	e.regMu.Lock()
	e.regs = nil
	e.regMu.Unlock()
	return e.cache.clear()
}

// Close stops the continuous runner (if running), flushes the cache, and
// releases the backing store.
func (e *Engine) Close(ctx context.Context) error {
	e.Stop()
	saveErr := e.cache.save(ctx)
	closeErr := e.cache.close()
	if saveErr != nil {
		return saveErr
	}
	return closeErr
}

// runPass is the unit of work shared by one-shot calls and the continuous
// loop: one ordered iteration over all registrations.
//
// A registration that stays empty after exhausting retries contributes
// nothing and does not touch the cache. Emitted results preserve
// registration order.
func (e *Engine) runPass(ctx context.Context, m mode) []Result {
	regs := e.Registrations()
	out := make([]Result, 0, len(regs))
	for _, reg := range regs {
		if ctx.Err() != nil {
			break
		}
		val, ok := e.executeOne(ctx, reg)
		if !ok {
			continue
		}

		switch m {
		case modeNew:
			if e.cache.diffNew(reg.key(), val) {
				out = append(out, Result{Endpoint: reg.Endpoint, Parser: reg.Parser.Name(), Value: val})
			}
		case modeAll:
			e.cache.getAll(reg.key(), val)
			out = append(out, Result{Endpoint: reg.Endpoint, Parser: reg.Parser.Name(), Value: val})
		}
	}
	if len(out) > 0 {
		e.cfg.log.Debug("pass complete", logx.Int("emitted", len(out)), logx.Int("registrations", len(regs)))
	}
	return out
}
