// Package app wires config, storage, the poll engine, and the event bus
// into the webdelta daemon.
package app

import (
	"context"
	"fmt"
	"sync"

	"webdelta/internal/config"
	"webdelta/internal/eventbus"
	"webdelta/internal/storage"
	logx "webdelta/pkg/logx"
	"webdelta/pkg/parse"
	"webdelta/pkg/webdelta"
)

type App struct {
	cfgPath   string
	log       logx.Logger
	logCloser func() error
	bus       eventbus.Bus

	// out is owned by the App and shared across engine generations: a
	// reloaded engine pushes into the same channel the consumer reads.
	out chan webdelta.Result

	mu     sync.Mutex
	engine *webdelta.Engine
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Parse(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	console := true
	if cfg.Logging.Console != nil {
		console = *cfg.Logging.Console
	}
	log, closer, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: console,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgPath:   cfgPath,
		log:       log,
		logCloser: closer,
		bus:       eventbus.New(),
		out:       make(chan webdelta.Result, 64),
	}
	eng, err := a.buildEngine(cfg)
	if err != nil {
		_ = closer()
		return nil, err
	}
	a.engine = eng
	return a, nil
}

// RunOnce executes a single pass and prints the emitted results.
func (a *App) RunOnce(ctx context.Context, all bool) error {
	defer a.shutdown()

	var (
		results []webdelta.Result
		err     error
	)
	if all {
		results, err = a.engine.GetAll(ctx)
	} else {
		results, err = a.engine.GetNew(ctx)
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\n", r.Endpoint, r.Value)
	}
	return err
}

// Run starts the continuous loop and blocks until ctx is cancelled.
// The config file is watched; endpoint or pacing changes swap in a freshly
// built engine without dropping the output consumer.
func (a *App) Run(ctx context.Context, all bool) error {
	defer a.shutdown()

	go a.consume(ctx)
	go a.printEvents(ctx)
	go config.Watch(ctx, a.cfgPath, a.log, func(cfg *config.Config) {
		a.reload(ctx, cfg, all)
	})

	if err := a.startEngine(all); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (a *App) startEngine(all bool) error {
	a.mu.Lock()
	eng := a.engine
	a.mu.Unlock()
	if all {
		return eng.StartAll(a.out)
	}
	return eng.StartNew(a.out)
}

func (a *App) buildEngine(cfg *config.Config) (*webdelta.Engine, error) {
	store, err := storage.Open(storage.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path}, a.log)
	if err != nil {
		return nil, err
	}

	opts := webdelta.Options{
		CronSpec:           cfg.Cron,
		RetryLimit:         cfg.RetryLimit,
		WaitBetweenRetries: cfg.WaitBetweenRetries,
		Store:              store,
		Logger:             a.log,
		OnError: func(endpoint, parser string, err error) {
			a.bus.Publish(eventbus.Event{
				Type: eventbus.TypePollError,
				Data: eventbus.PollErrorEvent{Endpoint: endpoint, Parser: parser, Error: err.Error()},
			})
		},
	}
	if !cfg.RateLimit.IsZero() {
		opts.RateLimit = &webdelta.RateLimit{
			Days:    cfg.RateLimit.Days,
			Hours:   cfg.RateLimit.Hours,
			Minutes: cfg.RateLimit.Minutes,
			Seconds: cfg.RateLimit.Seconds,
		}
	}

	eng, err := webdelta.New(opts)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	for _, ep := range cfg.Endpoints {
		p, err := buildParser(ep)
		if err != nil {
			_ = eng.Close(context.Background())
			return nil, err
		}
		eng.Register(ep.URL, p)
	}
	return eng, nil
}

func buildParser(ep config.EndpointConfig) (webdelta.Parser, error) {
	switch ep.Parser {
	case "strip":
		return parse.Strip(), nil
	case "regexp":
		return parse.Regexp(ep.Pattern)
	case "css":
		return parse.CSS(ep.Selector)
	default:
		return nil, fmt.Errorf("unknown parser %q for %s", ep.Parser, ep.URL)
	}
}

// reload swaps in an engine built from cfg. The old engine is stopped and
// flushed first so the two never share a pass window.
func (a *App) reload(ctx context.Context, cfg *config.Config, all bool) {
	next, err := a.buildEngine(cfg)
	if err != nil {
		a.log.Error("reload failed; keeping running engine", logx.Err(err))
		return
	}

	a.mu.Lock()
	prev := a.engine
	a.engine = next
	a.mu.Unlock()

	if prev != nil {
		if err := prev.Close(ctx); err != nil {
			a.log.Warn("closing previous engine", logx.Err(err))
		}
	}
	if err := a.startEngine(all); err != nil {
		a.log.Error("restart after reload failed", logx.Err(err))
	}
}

// consume forwards engine output onto the event bus.
func (a *App) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-a.out:
			a.bus.Publish(eventbus.Event{
				Type: eventbus.TypeResult,
				Data: eventbus.ResultEvent{Endpoint: r.Endpoint, Parser: r.Parser, Value: r.Value},
			})
		}
	}
}

// printEvents is the default bus subscriber: results to stdout, poll errors
// to the log.
func (a *App) printEvents(ctx context.Context) {
	ch, unsub := a.bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch d := ev.Data.(type) {
			case eventbus.ResultEvent:
				fmt.Printf("%s\t%s\n", d.Endpoint, d.Value)
			case eventbus.PollErrorEvent:
				a.log.Warn("poll error",
					logx.String("endpoint", d.Endpoint),
					logx.String("parser", d.Parser),
					logx.String("err", d.Error))
			}
		}
	}
}

func (a *App) shutdown() {
	a.mu.Lock()
	eng := a.engine
	a.engine = nil
	a.mu.Unlock()

	// The run context is usually already cancelled here; the final cache
	// flush still needs to run, so it gets a fresh context.
	if eng != nil {
		if err := eng.Close(context.Background()); err != nil {
			a.log.Error("shutdown", logx.Err(err))
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser()
	}
}
