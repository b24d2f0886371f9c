package config

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "webdelta/pkg/logx"
)

// Watch monitors the config file and calls onChange with each successfully
// parsed, validated, content-changed config. It blocks until ctx is done.
//
// Editors produce bursts of partial-write events, so reloads are debounced;
// a parse or validation failure keeps the previous config in effect.
// If the watcher itself breaks it is recreated with a small backoff.
func Watch(ctx context.Context, path string, log logx.Logger, onChange func(*Config)) {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	const (
		debounceDelay = 250 * time.Millisecond
		backoffBase   = 250 * time.Millisecond
		backoffMax    = 5 * time.Second
	)

	var (
		mu       sync.Mutex
		timer    *time.Timer
		lastHash uint64
	)
	if cfg, err := Parse(path); err == nil {
		lastHash = hashConfig(cfg)
	}

	reload := func() {
		cfg, err := Parse(path)
		if err != nil {
			log.Warn("config reload rejected; keeping previous", logx.String("path", path), logx.Err(err))
			return
		}
		h := hashConfig(cfg)
		mu.Lock()
		unchanged := h != 0 && h == lastHash
		if !unchanged {
			lastHash = h
		}
		mu.Unlock()
		if unchanged {
			log.Debug("config unchanged; skipping reload", logx.String("path", path))
			return
		}
		log.Info("config reloaded", logx.String("path", path))
		onChange(cfg)
	}

	debounce := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, reload)
	}

	backoff := backoffBase
	for {
		if ctx.Err() != nil {
			return
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(dir)
			if err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			log.Warn("config watch setup failed", logx.Err(err), logx.String("dir", dir))
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, backoffMax)
			continue
		}
		backoff = backoffBase
		log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				// Compare by basename; editors often replace via rename.
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err != nil {
					log.Warn("config watch error", logx.Err(err), logx.String("dir", dir))
				}
			}
		}
		_ = w.Close()
	}
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
