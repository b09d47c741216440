// Package cache avoids redundant upstream calls by mapping request
// fingerprints to previously retrieved response bodies with a freshness
// window. Storage tiers mirror the layered design of the rest of the system:
// a fast in-memory front and a durable on-disk back that survives restarts.
package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached response body. Body is kept as raw bytes (base64 in the
// encoded form) so a cached response reads back byte-identical to what the
// upstream sent, whitespace included.
type Entry struct {
	Fingerprint string        `json:"fingerprint"`
	Body        []byte        `json:"body"`
	StoredAt    time.Time     `json:"stored_at"`
	TTL         time.Duration `json:"ttl"`
}

// Expired reports whether the entry's freshness window has passed.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Store is a key-value mapping from fingerprint to Entry, namespaced per
// provider. Implementations must be safe for concurrent use and must never
// return a torn entry.
type Store interface {
	// Load returns the fresh entry for the key, or nil when absent or
	// expired. Expired entries are removed lazily on read.
	Load(ctx context.Context, provider, key string) (*Entry, error)

	// Save records a response body under the key, stamping it with the
	// current time.
	Save(ctx context.Context, provider, key string, body []byte) error

	// Clear removes every entry in the provider's namespace.
	Clear(ctx context.Context, provider string) error
}

// Memory is a mutex-guarded in-memory Store, used as the fast front tier.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory builds an in-memory store with the given freshness window.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

func (m *Memory) Load(_ context.Context, provider, key string) (*Entry, error) {
	k := provider + "/" + key

	m.mu.RLock()
	e, ok := m.entries[k]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if e.Expired(m.now()) {
		m.mu.Lock()
		delete(m.entries, k)
		m.mu.Unlock()
		return nil, nil
	}

	out := e
	out.Body = append([]byte(nil), e.Body...)
	return &out, nil
}

func (m *Memory) Save(_ context.Context, provider, key string, body []byte) error {
	e := Entry{
		Fingerprint: key,
		Body:        append([]byte(nil), body...),
		StoredAt:    m.now(),
		TTL:         m.ttl,
	}

	m.mu.Lock()
	m.entries[provider+"/"+key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context, provider string) error {
	prefix := provider + "/"

	m.mu.Lock()
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
	return nil
}

// Tiered composes a fast front store with a durable back store. Loads check
// the front first and promote back-tier hits; saves write through to both.
// Promotion re-stamps the front copy, so the front TTL should be the shorter
// freshness window.
type Tiered struct {
	front Store
	back  Store
}

// NewTiered builds a two-level store.
func NewTiered(front, back Store) *Tiered {
	return &Tiered{front: front, back: back}
}

func (t *Tiered) Load(ctx context.Context, provider, key string) (*Entry, error) {
	if e, err := t.front.Load(ctx, provider, key); err == nil && e != nil {
		return e, nil
	}

	e, err := t.back.Load(ctx, provider, key)
	if err != nil || e == nil {
		return e, err
	}

	_ = t.front.Save(ctx, provider, key, e.Body)
	return e, nil
}

func (t *Tiered) Save(ctx context.Context, provider, key string, body []byte) error {
	if err := t.back.Save(ctx, provider, key, body); err != nil {
		return err
	}
	return t.front.Save(ctx, provider, key, body)
}

func (t *Tiered) Clear(ctx context.Context, provider string) error {
	if err := t.front.Clear(ctx, provider); err != nil {
		return err
	}
	return t.back.Clear(ctx, provider)
}
