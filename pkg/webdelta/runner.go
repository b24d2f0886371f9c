package webdelta

import (
	"context"
	"errors"
	"runtime/debug"

	logx "webdelta/pkg/logx"
)

// ErrAlreadyRunning is returned by StartNew/StartAll when a continuous
// runner is already active for this engine.
var ErrAlreadyRunning = errors.New("webdelta: continuous runner already active")

// StartNew launches the continuous runner in NEW mode: each pass pushes only
// changed results onto out. Returns ErrAlreadyRunning if a runner is active.
//
// The engine never closes out; after Stop returns, no further pushes happen.
func (e *Engine) StartNew(out chan<- Result) error {
	return e.start(modeNew, out)
}

// StartAll launches the continuous runner in ALL mode: each pass pushes
// every non-empty result, changed or not.
func (e *Engine) StartAll(out chan<- Result) error {
	return e.start(modeAll, out)
}

func (e *Engine) start(m mode, out chan<- Result) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.runCancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.runCancel = cancel
	e.runDone = done

	go e.loop(ctx, m, out, done)
	e.cfg.log.Info("continuous runner started", logx.Bool("all_mode", m == modeAll))
	return nil
}

// Stop requests cancellation and waits for the runner goroutine to exit.
// In-flight fetch/parse work observes the cancellation at its next
// suspension point (fetch, inter-retry delay, inter-pass wait), so Stop
// returns within one such delay. Stop on a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.runMu.Lock()
	cancel := e.runCancel
	done := e.runDone
	e.runCancel = nil
	e.runDone = nil
	e.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.cfg.log.Info("continuous runner stopped")
}

func (e *Engine) loop(ctx context.Context, m mode, out chan<- Result, done chan struct{}) {
	defer close(done)

	for {
		// The pacer's first wait is immediate; later waits enforce the
		// configured spacing between pass starts.
		if err := e.pacer.wait(ctx); err != nil {
			return
		}

		results := e.passSafe(ctx, m)

		for _, r := range results {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}

		if err := e.cache.save(ctx); err != nil && ctx.Err() == nil {
			// Persistence trouble must not halt polling; surface and carry on.
			e.cfg.log.Error("cache save failed", logx.Err(err))
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// passSafe shields the loop from anything a pass might panic with; one bad
// cycle is logged and skipped, the loop lives on.
func (e *Engine) passSafe(ctx context.Context, m mode) (results []Result) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			e.cfg.log.Error("panic in pass", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	return e.runPass(ctx, m)
}
