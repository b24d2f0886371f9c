package webdelta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcherReturnsBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("198.51.100.7\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(nil)
	body, err := f(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "198.51.100.7\n" {
		t.Fatalf("body: %q", body)
	}
	if gotUA == "" {
		t.Fatal("fetcher should send a user agent")
	}
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(nil)
	if _, err := f(context.Background(), srv.URL); err == nil {
		t.Fatal("4xx status should be a fetch error")
	}
}

func TestHTTPFetcherHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(nil)
	if _, err := f(ctx, srv.URL); err == nil {
		t.Fatal("cancelled context should abort the fetch")
	}
}
