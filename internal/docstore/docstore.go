// Package docstore is the shared remote store: a collection of JSON documents keyed by
// tournament id, where individual field paths inside a document can be overwritten
// without touching their siblings, and every change is pushed to subscribers as a full
// snapshot of the collection.
//
// Three backends implement Store:
//   - Memory: in-process, used by tests and single-process dev runs
//   - SQLite: a local file (modernc.org/sqlite, no cgo)
//   - Postgres: GORM + a json column, with LISTEN/NOTIFY so every process sees every change
//
// Concurrency policy is last-write-wins per field path: writes never read or compare the
// current value first.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Errors returned by every backend.
var (
	ErrNotFound        = errors.New("document not found")
	ErrExists          = errors.New("document already exists")
	ErrEmptyPath       = errors.New("path must name a document and a field")
	ErrInvalidDocument = errors.New("value is not valid JSON")
	ErrClosed          = errors.New("store is closed")
)

// Document is one raw tournament record as stored. Raw is whatever JSON was written;
// the gateway, not the store, is responsible for making sense of its shape.
type Document struct {
	ID  string
	Raw json.RawMessage
}

// Listener receives the entire collection, sorted by id, after every change.
type Listener func(docs []Document)

// Store is the path-addressable document store the gateway talks to.
type Store interface {
	// Subscribe registers fn and delivers the current collection immediately, then again
	// after every change. Deliveries to one listener never overlap. The subscription ends
	// when the returned cancel func is called or ctx is done.
	Subscribe(ctx context.Context, fn Listener) (cancel func(), err error)
	// Set overwrites the value at one field path of an existing document.
	Set(ctx context.Context, p Path, value json.RawMessage) error
	// Create stores a brand-new document under id.
	Create(ctx context.Context, id string, doc json.RawMessage) error
	// Delete removes the document and everything under it.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Path addresses one field inside one document, e.g.
// tournaments/{id}/teams/{key}/scores is Path{ID: id, Field: ["teams", key, "scores"]}.
type Path struct {
	ID    string
	Field []string
}

// ScoresPath addresses a team's scores. teamKey is the team's key inside the stored
// teams collection: its index for a sequence, its map key for a keyed mapping.
func ScoresPath(id, teamKey string) Path {
	return Path{ID: id, Field: []string{"teams", teamKey, "scores"}}
}

// NotesPath addresses a team's notes.
func NotesPath(id, teamKey string) Path {
	return Path{ID: id, Field: []string{"teams", teamKey, "notes"}}
}

// HolesPath addresses the course pars.
func HolesPath(id string) Path {
	return Path{ID: id, Field: []string{"course", "holes"}}
}

// String renders the path the way the store schema is documented.
func (p Path) String() string {
	return "tournaments/" + p.ID + "/" + strings.Join(p.Field, "/")
}

func (p Path) validate() error {
	if p.ID == "" || len(p.Field) == 0 {
		return ErrEmptyPath
	}
	for _, f := range p.Field {
		if f == "" {
			return ErrEmptyPath
		}
	}
	return nil
}

// sjsonPath renders the field part of p in gjson/sjson path syntax.
func (p Path) sjsonPath() string {
	parts := make([]string, len(p.Field))
	for i, f := range p.Field {
		parts[i] = escapeSegment(f)
	}
	return strings.Join(parts, ".")
}

// escapeSegment backslash-escapes the characters sjson treats as path syntax.
func escapeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

type options struct {
	log *zap.Logger
}

// Option configures a backend.
type Option func(*options)

// WithLogger sets the logger used for background failures (snapshot loads, listener
// reconnects). The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
