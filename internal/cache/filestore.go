package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileStore is a durable Store keeping one JSON file per fingerprint under
// <dir>/<provider>/. Writes go to a temp file and are renamed into place, so
// concurrent readers never observe a partial entry. Entries survive process
// restarts; repeated runs within the TTL window do not re-hit the network.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFileStore builds a file-backed store rooted at dir.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}

	return &FileStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

func (s *FileStore) entryPath(provider, key string) string {
	return filepath.Join(s.dir, provider, key+".json")
}

func (s *FileStore) Load(_ context.Context, provider, key string) (*Entry, error) {
	p := s.entryPath(provider, key)

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Unreadable entries are treated as a miss and removed.
		_ = os.Remove(p)
		return nil, nil
	}

	if e.Expired(s.now()) {
		_ = os.Remove(p)
		return nil, nil
	}

	return &e, nil
}

func (s *FileStore) Save(_ context.Context, provider, key string, body []byte) error {
	dir := filepath.Join(s.dir, provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: create namespace: %w", err)
	}

	e := Entry{
		Fingerprint: key,
		Body:        body,
		StoredAt:    s.now(),
		TTL:         s.ttl,
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}

	tmp, err := os.CreateTemp(dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.entryPath(provider, key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: commit entry: %w", err)
	}

	return nil
}

func (s *FileStore) Clear(_ context.Context, provider string) error {
	if err := os.RemoveAll(filepath.Join(s.dir, provider)); err != nil {
		return fmt.Errorf("cache: clear namespace: %w", err)
	}
	return nil
}
