// Package gateway keeps a viewer's copy of the tournaments collection in sync with the
// shared docstore.
//
// Inbound, every snapshot is normalized before anyone sees it: teams stored as a keyed
// mapping become an ordered sequence, and missing or malformed score/note arrays are
// healed. Healed arrays are written back to exactly the path that was broken, in the
// background, so the next snapshot is clean for everybody.
//
// Outbound, each write touches a single field path (one team's scores, one team's notes,
// or the course pars) and never re-reads the record first: last write wins.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/docstore"
	"github.com/trentd187/golf-scorecard/internal/models"
)

// Snapshot is the whole normalized collection, keyed by tournament id.
type Snapshot map[string]models.Tournament

// IDs returns every tournament id in sorted order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Observer receives gateway events for metrics. All methods must be safe for concurrent use.
type Observer interface {
	ObserveWrite(field string, err error, elapsed time.Duration)
	ObserveRepair(field string, err error)
	ObserveDelivery(tournaments int)
}

type noopObserver struct{}

func (noopObserver) ObserveWrite(string, error, time.Duration) {}
func (noopObserver) ObserveRepair(string, error)               {}
func (noopObserver) ObserveDelivery(int)                       {}

// Gateway is the synchronization layer between viewers and the remote store.
type Gateway struct {
	remote docstore.Store
	log    *zap.Logger
	obs    Observer
	retry  RetryPolicy

	mu       sync.Mutex
	keys     map[string][]string // tournament id -> stored key of each normalized team
	inflight map[string]struct{} // repair paths currently being written
	closed   bool
	repairs  sync.WaitGroup
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger for repairs and write failures.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.obs = o
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(g *Gateway) {
		g.retry = p
	}
}

// New returns a gateway over remote.
func New(remote docstore.Store, opts ...Option) *Gateway {
	g := &Gateway{
		remote:   remote,
		log:      zap.NewNop(),
		obs:      noopObserver{},
		retry:    DefaultRetryPolicy(),
		keys:     make(map[string][]string),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Subscribe calls onChange with the full normalized collection now and after every
// remote change. Repairs triggered by a delivery never block it and their failures are
// only logged.
func (g *Gateway) Subscribe(ctx context.Context, onChange func(Snapshot)) (func(), error) {
	return g.remote.Subscribe(ctx, func(docs []docstore.Document) {
		onChange(g.apply(docs))
	})
}

func (g *Gateway) apply(docs []docstore.Document) Snapshot {
	snap := make(Snapshot, len(docs))
	keys := make(map[string][]string, len(docs))

	for _, d := range docs {
		n := normalize(d.ID, d.Raw)
		snap[d.ID] = n.tournament
		keys[d.ID] = n.teamKeys
		if n.shape == shapeKeyedMap {
			g.log.Debug("teams stored as keyed mapping", zap.String("tournament", d.ID))
		}

		for i, rep := range n.repairs {
			team := n.tournament.Teams[i]
			if rep.Scores {
				g.scheduleRepair(docstore.ScoresPath(d.ID, n.teamKeys[i]), "scores", team.Scores)
			}
			if rep.Notes {
				g.scheduleRepair(docstore.NotesPath(d.ID, n.teamKeys[i]), "notes", team.Notes)
			}
		}
	}

	g.mu.Lock()
	g.keys = keys
	g.mu.Unlock()

	g.obs.ObserveDelivery(len(snap))
	return snap
}

// scheduleRepair writes a healed array back in the background. A path already being
// repaired is skipped.
func (g *Gateway) scheduleRepair(p docstore.Path, field string, value any) {
	key := p.String()
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if _, busy := g.inflight[key]; busy {
		g.mu.Unlock()
		return
	}
	g.inflight[key] = struct{}{}
	g.repairs.Add(1)
	g.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		g.finishRepair(key)
		g.log.Error("encode repair", zap.String("path", key), zap.Error(err))
		return
	}

	go func() {
		defer g.finishRepair(key)
		err := g.withRetry(context.Background(), func(ctx context.Context) error {
			return g.remote.Set(ctx, p, raw)
		})
		g.obs.ObserveRepair(field, err)
		if err != nil {
			g.log.Warn("write back healed field failed", zap.String("path", key), zap.Error(err))
			return
		}
		g.log.Info("healed malformed field", zap.String("path", key))
	}()
}

func (g *Gateway) finishRepair(key string) {
	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
	g.repairs.Done()
}

// WriteScores overwrites one team's scores.
func (g *Gateway) WriteScores(ctx context.Context, id string, teamIndex int, scores []*int) error {
	if len(scores) != models.HoleCount {
		return fmt.Errorf("%w: scores has %d entries", models.ErrBadLength, len(scores))
	}
	for i, s := range scores {
		if s != nil && *s < 1 {
			return fmt.Errorf("%w: hole %d has %d", models.ErrInvalidScore, i+1, *s)
		}
	}
	key, err := g.teamKey(id, teamIndex)
	if err != nil {
		return err
	}
	return g.write(ctx, "scores", docstore.ScoresPath(id, key), scores)
}

// WriteNotes overwrites one team's notes.
func (g *Gateway) WriteNotes(ctx context.Context, id string, teamIndex int, notes []string) error {
	if len(notes) != models.HoleCount {
		return fmt.Errorf("%w: notes has %d entries", models.ErrBadLength, len(notes))
	}
	key, err := g.teamKey(id, teamIndex)
	if err != nil {
		return err
	}
	return g.write(ctx, "notes", docstore.NotesPath(id, key), notes)
}

// WritePars overwrites the course pars. Non-positive pars are stored as the default.
func (g *Gateway) WritePars(ctx context.Context, id string, holes []int) error {
	if len(holes) != models.HoleCount {
		return fmt.Errorf("%w: holes has %d entries", models.ErrBadLength, len(holes))
	}
	pars, _ := models.NormalizeHoles(holes)
	return g.write(ctx, "holes", docstore.HolesPath(id), pars)
}

// CreateTournament stores a new tournament under its derived id and returns that id.
// Course holes and team arrays are normalized before writing.
func (g *Gateway) CreateTournament(ctx context.Context, t models.Tournament) (string, error) {
	id, err := models.TournamentID(t.Course.Name, t.Course.Date)
	if err != nil {
		return "", err
	}
	t = t.Clone()
	t.Name = id
	t.Course.Holes, _ = models.NormalizeHoles(t.Course.Holes)
	for i := range t.Teams {
		t.Teams[i], _ = models.EnsureInitialized(t.Teams[i])
	}
	if t.Teams == nil {
		t.Teams = []models.Team{}
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tournament: %w", err)
	}
	start := time.Now()
	err = g.withRetry(ctx, func(ctx context.Context) error {
		return g.remote.Create(ctx, id, raw)
	})
	g.obs.ObserveWrite("tournament", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("create tournament %q: %w", id, err)
	}
	return id, nil
}

// DeleteTournament removes the whole record. Session preferences pointing at it are the
// caller's to clear.
func (g *Gateway) DeleteTournament(ctx context.Context, id string) error {
	start := time.Now()
	err := g.withRetry(ctx, func(ctx context.Context) error {
		return g.remote.Delete(ctx, id)
	})
	g.obs.ObserveWrite("delete", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("delete tournament %q: %w", id, err)
	}
	return nil
}

// Close stops scheduling repairs and waits for those in flight. Writes keep working and
// the remote store stays open.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.repairs.Wait()
}

func (g *Gateway) write(ctx context.Context, field string, p docstore.Path, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	start := time.Now()
	err = g.withRetry(ctx, func(ctx context.Context) error {
		return g.remote.Set(ctx, p, raw)
	})
	g.obs.ObserveWrite(field, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// teamKey maps a normalized team index to the key it is stored under. Until a snapshot
// of the tournament has been seen the index itself is used.
func (g *Gateway) teamKey(id string, index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: %d", models.ErrTeamOutOfRange, index)
	}
	g.mu.Lock()
	keys, known := g.keys[id]
	g.mu.Unlock()
	if !known {
		return strconv.Itoa(index), nil
	}
	if index >= len(keys) {
		return "", fmt.Errorf("%w: %d", models.ErrTeamOutOfRange, index)
	}
	return keys[index], nil
}

// IsValidation reports whether err was caused by bad input rather than by the store.
func IsValidation(err error) bool {
	for _, target := range []error{
		models.ErrHoleOutOfRange, models.ErrTeamOutOfRange, models.ErrInvalidScore,
		models.ErrBadLength, models.ErrMissingCourseName, models.ErrMissingDate,
		models.ErrInvalidDate, models.ErrDuplicateTeam,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
