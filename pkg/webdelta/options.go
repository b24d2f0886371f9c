package webdelta

import (
	"fmt"
	"time"

	"webdelta/internal/storage"
	logx "webdelta/pkg/logx"
)

const (
	defaultRetryLimit   = 5
	defaultRateInterval = 10 * time.Minute
)

// Options configures an Engine.
//
// Pointer fields distinguish "omitted" from an explicit zero value.
//
// Defaults (when fields are omitted/nil):
//   - rate limit: 10 minutes between continuous passes
//   - retry limit: 5 extra attempts per registration per pass
//   - wait between retries: true
//   - cache: memory-only (nothing persisted)
//   - fetcher: plain HTTP GET with a bounded timeout
type Options struct {
	// RateLimit paces continuous passes. Zero interval means no delay.
	RateLimit *RateLimit

	// CronSpec, when set, replaces RateLimit for continuous pacing.
	// Accepts 5-field and 6-field (with seconds) cron expressions.
	CronSpec string

	// RetryLimit is the number of extra fetch+parse attempts after the first
	// when the parser reports no result. Must be >= 0.
	RetryLimit *int

	// WaitBetweenRetries inserts a growing delay between attempts
	// (one second longer on each retry).
	WaitBetweenRetries *bool

	// CacheFile enables JSON file persistence of the result cache.
	// Ignored when Store is set.
	CacheFile string

	// Store overrides CacheFile with a custom persistence backend.
	Store storage.Store

	// Fetcher overrides the default HTTP fetcher.
	Fetcher Fetcher

	Logger logx.Logger

	// OnError receives non-fatal per-registration failures (fetch errors,
	// parser panics). Never called concurrently with itself for the same
	// engine pass. May be nil.
	OnError func(endpoint, parser string, err error)
}

// resolved holds Options with every default applied.
type resolved struct {
	interval           time.Duration
	cronSpec           string
	retryLimit         int
	waitBetweenRetries bool
	cacheFile          string
	store              storage.Store
	fetch              Fetcher
	log                logx.Logger
	onError            func(endpoint, parser string, err error)
}

func (o Options) resolve() (resolved, error) {
	r := resolved{
		interval:           defaultRateInterval,
		retryLimit:         defaultRetryLimit,
		waitBetweenRetries: true,
		cacheFile:          o.CacheFile,
		store:              o.Store,
		fetch:              o.Fetcher,
		log:                o.Logger,
		onError:            o.OnError,
		cronSpec:           o.CronSpec,
	}

	if o.RateLimit != nil {
		if err := o.RateLimit.validate(); err != nil {
			return resolved{}, err
		}
		r.interval = o.RateLimit.Interval()
	}
	if o.RetryLimit != nil {
		if *o.RetryLimit < 0 {
			return resolved{}, fmt.Errorf("retry limit must be >= 0, got %d", *o.RetryLimit)
		}
		r.retryLimit = *o.RetryLimit
	}
	if o.WaitBetweenRetries != nil {
		r.waitBetweenRetries = *o.WaitBetweenRetries
	}
	if r.fetch == nil {
		r.fetch = defaultFetcher()
	}
	if r.log.IsZero() {
		r.log = logx.Nop()
	}
	return r, nil
}
