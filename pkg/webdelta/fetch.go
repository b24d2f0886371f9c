package webdelta

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	fetchTimeout = 20 * time.Second
	fetchBodyCap = 8 << 20 // 8 MiB; pages larger than this are not poll targets
)

// NewHTTPFetcher wraps client into a Fetcher. A nil client gets a default
// with a bounded total timeout. The fetcher performs exactly one GET per
// call; retry policy lives in the engine.
func NewHTTPFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return func(ctx context.Context, endpoint string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", err
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", globalUA.random())
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("GET %s: status %d", endpoint, resp.StatusCode)
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyCap))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func defaultFetcher() Fetcher {
	return NewHTTPFetcher(nil)
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
