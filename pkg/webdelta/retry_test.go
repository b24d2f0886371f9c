package webdelta

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetryExhaustionInvokesParserLimitPlusOne(t *testing.T) {
	f := newScriptedFetcher(map[string][]string{
		"http://a": {"body"},
	})

	var calls atomic.Int64
	alwaysEmpty := Named("empty", func(raw string) (string, bool) {
		calls.Add(1)
		return "", false
	})

	eng := newTestEngine(t, f.fetch, Options{RetryLimit: intPtr(4)})
	eng.Register("http://a", alwaysEmpty)

	res, err := eng.GetNew(context.Background())
	if err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("exhausted retries must emit nothing, got %+v", res)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("want retry_limit+1 = 5 parser invocations, got %d", got)
	}
}

func TestFetchErrorCountsAsEmptyAttempt(t *testing.T) {
	var fetches atomic.Int64
	failing := func(ctx context.Context, endpoint string) (string, error) {
		fetches.Add(1)
		return "", errors.New("connection refused")
	}

	var errCount atomic.Int64
	eng := newTestEngine(t, failing, Options{
		RetryLimit: intPtr(2),
		OnError: func(endpoint, parser string, err error) {
			errCount.Add(1)
		},
	})
	eng.Register("http://down", stripParser())

	res, err := eng.GetNew(context.Background())
	if err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("fetch failures must degrade to empty, got %+v", res)
	}
	if got := fetches.Load(); got != 3 {
		t.Fatalf("want 3 fetch attempts, got %d", got)
	}
	if got := errCount.Load(); got != 3 {
		t.Fatalf("each failed attempt should surface via OnError, got %d", got)
	}
}

func TestRecoversAfterEmptyAttempts(t *testing.T) {
	f := newScriptedFetcher(map[string][]string{
		"http://flaky": {"None", "None", "real value"},
	})
	p := Named("skip-none", func(raw string) (string, bool) {
		if raw == "None" {
			return "", false
		}
		return raw, true
	})

	eng := newTestEngine(t, f.fetch, Options{RetryLimit: intPtr(5)})
	eng.Register("http://flaky", p)

	res, err := eng.GetNew(context.Background())
	if err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	if len(res) != 1 || res[0].Value != "real value" {
		t.Fatalf("want the third attempt's value, got %+v", res)
	}
}

func TestParserPanicTreatedAsEmpty(t *testing.T) {
	f := newScriptedFetcher(map[string][]string{
		"http://a": {"boom"},
		"http://b": {"fine"},
	})
	panicky := Named("panicky", func(raw string) (string, bool) {
		panic("parser bug")
	})

	var sawErr atomic.Bool
	eng := newTestEngine(t, f.fetch, Options{
		RetryLimit: intPtr(1),
		OnError: func(endpoint, parser string, err error) {
			if parser == "panicky" {
				sawErr.Store(true)
			}
		},
	})
	eng.Register("http://a", panicky)
	eng.Register("http://b", stripParser())

	res, err := eng.GetNew(context.Background())
	if err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	// The panicking registration contributes nothing; the healthy one is
	// unaffected.
	if len(res) != 1 || res[0].Endpoint != "http://b" {
		t.Fatalf("want only the healthy registration, got %+v", res)
	}
	if !sawErr.Load() {
		t.Fatal("parser panic should surface via OnError")
	}
}

func TestRetryDelayIsCancellable(t *testing.T) {
	f := newScriptedFetcher(map[string][]string{
		"http://a": {"body"},
	})
	alwaysEmpty := Named("empty", func(raw string) (string, bool) { return "", false })

	// Large retry budget with waits enabled: attempts 3+ sleep multiple
	// seconds each, so only cancellation can end the pass quickly.
	eng := newTestEngine(t, f.fetch, Options{
		RetryLimit:         intPtr(100),
		WaitBetweenRetries: boolPtr(true),
	})
	eng.Register("http://a", alwaysEmpty)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if _, err := eng.GetNew(ctx); err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	if took := time.Since(start); took > 3*time.Second {
		t.Fatalf("cancellation should end the retry loop promptly, took %v", took)
	}
}
