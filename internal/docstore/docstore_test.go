package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/database"
)

const seedDoc = `{"name":"Pebble (2024-05-01)","course":{"name":"Pebble","date":"2024-05-01","holes":[4,4,4]},` +
	`"teams":[{"name":"A","scores":[null,null],"notes":["",""]},{"name":"B","scores":[3,4],"notes":["x",""]}]}`

type rawGetter func(t *testing.T, id string) string

// backends lists the stores every parity test runs against. Postgres joins the list when
// SCORECARD_TEST_DATABASE_URL points at a scratch database.
func backends(t *testing.T) map[string]func(t *testing.T) (Store, rawGetter) {
	all := map[string]func(t *testing.T) (Store, rawGetter){
		"memory": func(t *testing.T) (Store, rawGetter) {
			m := NewMemory()
			t.Cleanup(func() { _ = m.Close() })
			return m, func(t *testing.T, id string) string {
				raw, ok := m.Get(id)
				if !ok {
					t.Fatalf("document %q missing", id)
				}
				return string(raw)
			}
		},
		"sqlite": func(t *testing.T) (Store, rawGetter) {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "scorecard.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s, func(t *testing.T, id string) string {
				raw, err := s.Get(context.Background(), id)
				if err != nil {
					t.Fatalf("get %q: %v", id, err)
				}
				return string(raw)
			}
		},
	}
	if dsn := os.Getenv("SCORECARD_TEST_DATABASE_URL"); dsn != "" {
		all["postgres"] = func(t *testing.T) (Store, rawGetter) { return openTestPostgres(t, dsn) }
	}
	return all
}

func openTestPostgres(t *testing.T, dsn string) (Store, rawGetter) {
	t.Helper()
	if err := database.RunMigrations(dsn, "../../migrations", zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Connect(dsn, false)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Exec("DELETE FROM tournaments").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}
	p := NewPostgres(db, "")
	t.Cleanup(func() { _ = p.Close() })
	return p, func(t *testing.T, id string) string {
		var rec tournamentRecord
		if err := db.Take(&rec, "id = ?", id).Error; err != nil {
			t.Fatalf("get %q: %v", id, err)
		}
		return string(rec.Document)
	}
}

func TestStoreScopedWriteIsolation(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st, get := open(t)
			ctx := context.Background()
			id := "Pebble (2024-05-01)"
			if err := st.Create(ctx, id, json.RawMessage(seedDoc)); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := st.Set(ctx, ScoresPath(id, "0"), json.RawMessage(`[null,null,null,5]`)); err != nil {
				t.Fatalf("set: %v", err)
			}

			doc := get(t, id)
			if got := gjson.Get(doc, "teams.0.scores").Raw; got != `[null,null,null,5]` {
				t.Fatalf("scores not written: %s", got)
			}
			if got := gjson.Get(doc, "teams.0.notes").Raw; got != `["",""]` {
				t.Fatalf("team 0 notes changed: %s", got)
			}
			if got := gjson.Get(doc, "teams.1.scores").Raw; got != `[3,4]` {
				t.Fatalf("team 1 scores changed: %s", got)
			}
			if got := gjson.Get(doc, "course.holes").Raw; got != `[4,4,4]` {
				t.Fatalf("pars changed: %s", got)
			}
		})
	}
}

func TestStoreKeyedTeamsPath(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st, get := open(t)
			ctx := context.Background()
			doc := `{"name":"x","course":{"holes":[]},"teams":{"b":{"name":"B"},"a":{"name":"A"}}}`
			if err := st.Create(ctx, "x", json.RawMessage(doc)); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := st.Set(ctx, NotesPath("x", "a"), json.RawMessage(`["hi"]`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			raw := get(t, "x")
			if got := gjson.Get(raw, "teams.a.notes").Raw; got != `["hi"]` {
				t.Fatalf("notes not written under key a: %s", raw)
			}
			var keys []string
			gjson.Get(raw, "teams").ForEach(func(k, _ gjson.Result) bool {
				keys = append(keys, k.String())
				return true
			})
			if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
				t.Fatalf("key order not preserved: %v", keys)
			}
		})
	}
}

func TestStoreErrors(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st, _ := open(t)
			ctx := context.Background()
			if err := st.Set(ctx, HolesPath("missing"), json.RawMessage(`[]`)); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := st.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on delete, got %v", err)
			}
			if err := st.Create(ctx, "x", json.RawMessage(`{}`)); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := st.Create(ctx, "x", json.RawMessage(`{}`)); !errors.Is(err, ErrExists) {
				t.Fatalf("expected ErrExists, got %v", err)
			}
			if err := st.Create(ctx, "y", json.RawMessage(`{`)); !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
			if err := st.Set(ctx, Path{ID: "x"}, json.RawMessage(`1`)); !errors.Is(err, ErrEmptyPath) {
				t.Fatalf("expected ErrEmptyPath, got %v", err)
			}
		})
	}
}

func TestStoreSubscriptionDeliversFullCollection(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st, _ := open(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			deliveries := make(chan []Document, 64)
			stop, err := st.Subscribe(ctx, func(docs []Document) { deliveries <- docs })
			if err != nil {
				t.Fatalf("subscribe: %v", err)
			}
			defer stop()

			waitFor(t, deliveries, func(docs []Document) bool { return len(docs) == 0 })

			if err := st.Create(ctx, "b", json.RawMessage(`{"name":"b"}`)); err != nil {
				t.Fatalf("create b: %v", err)
			}
			if err := st.Create(ctx, "a", json.RawMessage(`{"name":"a"}`)); err != nil {
				t.Fatalf("create a: %v", err)
			}
			docs := waitFor(t, deliveries, func(docs []Document) bool { return len(docs) == 2 })
			if docs[0].ID != "a" || docs[1].ID != "b" {
				t.Fatalf("expected sorted ids, got %s, %s", docs[0].ID, docs[1].ID)
			}

			if err := st.Delete(ctx, "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			waitFor(t, deliveries, func(docs []Document) bool { return len(docs) == 1 && docs[0].ID == "b" })
		})
	}
}

func TestMemoryCloseEndsSubscriptions(t *testing.T) {
	m := NewMemory()
	calls := make(chan []Document, 8)
	if _, err := m.Subscribe(context.Background(), func(d []Document) { calls <- d }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitFor(t, calls, func([]Document) bool { return true })
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := m.Subscribe(context.Background(), func([]Document) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := m.Create(context.Background(), "x", json.RawMessage(`{}`)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on create, got %v", err)
	}
}

func TestPathRendering(t *testing.T) {
	if got := ScoresPath("Pebble (2024-05-01)", "3").String(); got != "tournaments/Pebble (2024-05-01)/teams/3/scores" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := HolesPath("x").String(); got != "tournaments/x/course/holes" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := NotesPath("x", "a.b").sjsonPath(); got != `teams.a\.b.notes` {
		t.Fatalf("unexpected sjson path %q", got)
	}
}

func waitFor(t *testing.T, ch <-chan []Document, pred func([]Document) bool) []Document {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case docs := <-ch:
			if pred(docs) {
				return docs
			}
		case <-deadline:
			t.Fatalf("timed out waiting for delivery")
			return nil
		}
	}
}
