package webdelta

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// pacer spaces out continuous passes. wait blocks until the next pass may
// start or ctx is cancelled.
type pacer interface {
	wait(ctx context.Context) error
}

func newPacer(cfg resolved) (pacer, error) {
	if cfg.cronSpec != "" {
		// SecondOptional allows both 5-field and 6-field (with seconds) specs.
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		sched, err := parser.Parse(cfg.cronSpec)
		if err != nil {
			return nil, fmt.Errorf("invalid cron spec %q: %w", cfg.cronSpec, err)
		}
		return &cronPacer{sched: sched}, nil
	}
	if cfg.interval <= 0 {
		return noPacer{}, nil
	}
	// Burst 1: the first pass starts immediately, later passes are spaced by
	// at least the configured interval.
	return &intervalPacer{lim: rate.NewLimiter(rate.Every(cfg.interval), 1)}, nil
}

type noPacer struct{}

func (noPacer) wait(ctx context.Context) error { return ctx.Err() }

type intervalPacer struct {
	lim *rate.Limiter
}

func (p *intervalPacer) wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}

type cronPacer struct {
	sched cron.Schedule
}

func (p *cronPacer) wait(ctx context.Context) error {
	next := p.sched.Next(time.Now())
	d := time.Until(next)
	if !sleepCtx(ctx, d) {
		return ctx.Err()
	}
	return nil
}
