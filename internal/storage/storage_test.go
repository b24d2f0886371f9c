package storage

import (
	"context"
	"path/filepath"
	"testing"

	logx "webdelta/pkg/logx"
)

func testEntries() map[string]string {
	return map[string]string{
		"http://a\x00strip":    "1.2.3.4",
		"http://b\x00css:h1":   "headline",
		"http://b\x00regexp:x": "42",
	}
}

func roundTrip(t *testing.T, cfg Config) {
	t.Helper()
	ctx := context.Background()

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Fresh store loads empty, not an error.
	m, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("fresh store should load empty, got %v", m)
	}

	want := testEntries()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and verify the exact mapping survives, NUL-separated keys
	// included.
	st2, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	got, err := st2.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("want %d entries, got %v", len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("entry %q: want %q, got %q", k, v, got[k])
		}
	}

	if err := st2.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = st2.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Delete should leave nothing, got %v", got)
	}
	// Deleting again must not error.
	if err := st2.Delete(); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	roundTrip(t, Config{Driver: "file", Path: filepath.Join(t.TempDir(), "cache.json")})
}

func TestSQLiteRoundTrip(t *testing.T) {
	roundTrip(t, Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "cache.db")})
}

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("driver %q should yield a nil store", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "etcd", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver must be rejected")
	}
}

func TestFileDriverRequiresPath(t *testing.T) {
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("file driver without path must be rejected")
	}
}

func TestFileSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: "file", Path: filepath.Join(t.TempDir(), "cache.json")}
	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if err := st.Save(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := st.Save(ctx, map[string]string{"a": "9"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got["a"] != "9" {
		t.Fatalf("save must replace wholesale, got %v", got)
	}
}
