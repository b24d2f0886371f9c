package webdelta

import (
	"context"
	"fmt"
	"time"

	logx "webdelta/pkg/logx"
)

// executeOne runs the fetch → parse → retry cycle for a single registration.
//
// A fetch error or a parser reporting no result counts as an empty attempt;
// empty attempts are retried up to retryLimit extra times, waiting one second
// longer before each retry (first retry is immediate) when waitBetweenRetries
// is enabled. Exhausting all attempts is a valid terminal outcome, not an
// error: the registration simply contributes nothing this pass.
func (e *Engine) executeOne(ctx context.Context, reg Registration) (string, bool) {
	for attempt := 0; attempt <= e.cfg.retryLimit; attempt++ {
		if attempt > 0 && e.cfg.waitBetweenRetries {
			if !sleepCtx(ctx, time.Duration(attempt-1)*time.Second) {
				return "", false
			}
		}
		if ctx.Err() != nil {
			return "", false
		}

		raw, err := e.cfg.fetch(ctx, reg.Endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return "", false
			}
			e.reportError(reg, err)
			continue
		}

		val, ok := e.parseSafe(reg, raw)
		if ok {
			return val, true
		}
	}
	return "", false
}

// parseSafe invokes the user-supplied parser, converting a panic into an
// empty result for this cycle. A buggy parser must never take down a pass.
func (e *Engine) parseSafe(reg Registration, raw string) (val string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			val, ok = "", false
			e.reportError(reg, fmt.Errorf("parser panic: %v", r))
		}
	}()
	return reg.Parser.Parse(raw)
}

func (e *Engine) reportError(reg Registration, err error) {
	e.cfg.log.Warn("registration attempt failed",
		logx.String("endpoint", reg.Endpoint), logx.String("parser", reg.Parser.Name()), logx.Err(err))
	if e.cfg.onError != nil {
		e.cfg.onError(reg.Endpoint, reg.Parser.Name(), err)
	}
}

// sleepCtx sleeps for d, returning false if ctx was cancelled first.
// A non-positive d returns immediately.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
