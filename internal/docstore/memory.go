package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tidwall/sjson"
)

// Compile-time check that Memory satisfies Store.
var _ Store = (*Memory)(nil)

// Memory keeps every document in a map guarded by a RWMutex. Field writes are applied to
// the raw JSON with sjson, so sibling fields and key order survive untouched.
type Memory struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	feed   *feed
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	m := &Memory{docs: make(map[string][]byte)}
	m.feed = newFeed(func(context.Context) ([]Document, error) {
		return m.snapshot(), nil
	}, o.log)
	return m
}

// Subscribe implements Store.
func (m *Memory) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	return m.feed.subscribe(ctx, fn), nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, p Path, value json.RawMessage) error {
	if err := p.validate(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return ErrInvalidDocument
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	doc, ok := m.docs[p.ID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("set %s: %w", p, ErrNotFound)
	}
	updated, err := sjson.SetRawBytes(append([]byte(nil), doc...), p.sjsonPath(), value)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("set %s: %w", p, err)
	}
	m.docs[p.ID] = updated
	m.mu.Unlock()

	m.feed.notify()
	return nil
}

// Create implements Store.
func (m *Memory) Create(_ context.Context, id string, doc json.RawMessage) error {
	if id == "" {
		return ErrEmptyPath
	}
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, exists := m.docs[id]; exists {
		m.mu.Unlock()
		return fmt.Errorf("create %q: %w", id, ErrExists)
	}
	m.docs[id] = append([]byte(nil), doc...)
	m.mu.Unlock()

	m.feed.notify()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(m.docs, id)
	m.mu.Unlock()

	m.feed.notify()
	return nil
}

// Get returns a copy of one raw document.
func (m *Memory) Get(id string) (json.RawMessage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), doc...), true
}

// Close ends every subscription. Later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.feed.close()
	return nil
}

func (m *Memory) snapshot() []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Document, 0, len(m.docs))
	for id, doc := range m.docs {
		out = append(out, Document{ID: id, Raw: append(json.RawMessage(nil), doc...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
