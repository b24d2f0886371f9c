package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "webdelta/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole cache is written as one JSON object. Saves go through a temp
// file + rename so a crash mid-write never leaves a truncated snapshot.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Load(ctx context.Context) (map[string]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run; nothing persisted yet.
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	var m map[string]string
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (s *fileStore) Save(ctx context.Context, entries map[string]string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = map[string]string{}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		// We wanted it gone anyway.
		return nil
	}
	return err
}

func (s *fileStore) Close() error { return nil }
