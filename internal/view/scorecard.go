// Package view holds one viewer's working copy of the selected tournament: what the
// scorecard and leaderboard screens render, and where edits land before they reach the store.
//
// Edits are optimistic. The local copy changes at once and the whole field array is written
// through the gateway in the background; a failed write leaves the local value in place and
// raises a notice instead of rolling back. The next snapshot replaces the local copy.
//
// Writes to one field path go out one at a time in edit order. While a write is in flight,
// newer edits to the same path collapse into a single pending write of the latest array.
package view

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/leaderboard"
	"github.com/trentd187/golf-scorecard/internal/models"
	"github.com/trentd187/golf-scorecard/internal/scoring"
	"github.com/trentd187/golf-scorecard/internal/session"
)

// State is where the viewer is in the selection lifecycle.
type State int

const (
	StateUnselected State = iota // no tournament chosen
	StateLoading                 // chosen, waiting for the first snapshot
	StateReady                   // chosen and present in the latest snapshot
	StateDeleted                 // chosen, then removed from the store
)

func (s State) String() string {
	switch s {
	case StateUnselected:
		return "unselected"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Writer is the part of the gateway that persists edits.
type Writer interface {
	WriteScores(ctx context.Context, id string, teamIndex int, scores []*int) error
	WriteNotes(ctx context.Context, id string, teamIndex int, notes []string) error
	WritePars(ctx context.Context, id string, holes []int) error
}

// Scorecard is one viewer's state. All methods are safe for concurrent use; Apply is meant
// to be the gateway subscription callback.
type Scorecard struct {
	w     Writer
	prefs session.Preferences
	log   *zap.Logger

	mu         sync.Mutex
	state      State
	snap       gateway.Snapshot // nil until the first delivery
	id         string
	team       string
	deselected bool
	current    models.Tournament
	notices    []Notice
	lanes      map[string]*lane // field path -> write queue; guarded by mu

	pending sync.WaitGroup
}

// lane serializes the writes for one field path. next is the newest write not yet started.
type lane struct {
	field string
	next  func(context.Context) error
	ctx   context.Context
}

// New restores the last selection from prefs. A nil logger is replaced with a no-op one.
func New(w Writer, prefs session.Preferences, log *zap.Logger) *Scorecard {
	if log == nil {
		log = zap.NewNop()
	}
	if prefs == nil {
		prefs = session.NewMemory()
	}
	s := &Scorecard{
		w: w, prefs: prefs, log: log,
		id: prefs.Tournament(), team: prefs.Team(),
		lanes: make(map[string]*lane),
	}
	if s.id != "" {
		s.state = StateLoading
	}
	return s
}

// Apply takes a new snapshot. With nothing remembered, the lexically greatest tournament
// id is selected.
func (s *Scorecard) Apply(snap gateway.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
	if s.id == "" && !s.deselected {
		if ids := snap.IDs(); len(ids) > 0 {
			s.id = ids[len(ids)-1]
			s.state = StateLoading
			s.remember(s.prefs.SetTournament, s.id)
		}
	}
	if s.id == "" {
		return
	}

	t, ok := snap[s.id]
	if !ok {
		if s.state != StateDeleted {
			s.log.Info("selected tournament was deleted", zap.String("tournament", s.id))
			s.remember(s.prefs.SetTournament, "")
		}
		s.state = StateDeleted
		s.current = models.Tournament{}
		return
	}
	s.current = t.Clone()
	s.state = StateReady
}

// SelectTournament switches to id, or deselects when id is empty. Selecting an id that
// the latest snapshot doesn't contain fails with models.ErrTournamentMissing.
func (s *Scorecard) SelectTournament(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.id, s.state, s.deselected = "", StateUnselected, true
		s.current = models.Tournament{}
		return s.prefs.SetTournament("")
	}

	if s.snap == nil {
		s.id, s.state, s.deselected = id, StateLoading, false
		return s.prefs.SetTournament(id)
	}
	t, ok := s.snap[id]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrTournamentMissing, id)
	}
	s.id, s.state, s.deselected = id, StateReady, false
	s.current = t.Clone()
	return s.prefs.SetTournament(id)
}

// SelectTeam focuses the scorecard on a team. Once the tournament is loaded the team must
// be part of it.
func (s *Scorecard) SelectTeam(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateReady && name != "" {
		if _, ok := s.current.TeamIndex(name); !ok {
			return fmt.Errorf("%w: %q", models.ErrTeamNotFound, name)
		}
	}
	s.team = name
	return s.prefs.SetTeam(name)
}

// State returns the lifecycle state.
func (s *Scorecard) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selection returns the selected tournament id and focused team name.
func (s *Scorecard) Selection() (tournament, team string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.team
}

// IDs lists every tournament in the latest snapshot.
func (s *Scorecard) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.IDs()
}

// Tournament returns a copy of the working tournament when one is loaded.
func (s *Scorecard) Tournament() (models.Tournament, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return models.Tournament{}, false
	}
	return s.current.Clone(), true
}

// Card renders the focused team's scorecard from the working copy.
func (s *Scorecard) Card() (scoring.Scorecard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return scoring.Scorecard{}, fmt.Errorf("%w: %q", models.ErrTournamentMissing, s.id)
	}
	idx, ok := s.current.TeamIndex(s.team)
	if !ok {
		return scoring.Scorecard{}, fmt.Errorf("%w: %q", models.ErrTeamNotFound, s.team)
	}
	return scoring.Card(s.current.Course, s.current.Teams[idx]), nil
}

// Leaderboard ranks the working copy. It is empty until a tournament is loaded.
func (s *Scorecard) Leaderboard() []leaderboard.Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return leaderboard.Build(nil, nil)
	}
	return leaderboard.Build(&s.current.Course, s.current.Teams)
}

// SetScore records strokes for the focused team at a 0-based hole. nil clears the hole.
func (s *Scorecard) SetScore(ctx context.Context, hole int, value *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok, err := s.focusedTeam()
	if err != nil || !ok {
		return err
	}
	team := &s.current.Teams[idx]
	if err := team.SetScore(hole, value); err != nil {
		return err
	}
	id, scores := s.id, team.Clone().Scores
	s.dispatch(ctx, fieldPath(id, idx, "scores"), "scores", func(ctx context.Context) error {
		return s.w.WriteScores(ctx, id, idx, scores)
	})
	return nil
}

// SetNote records a note for the focused team at a 0-based hole.
func (s *Scorecard) SetNote(ctx context.Context, hole int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok, err := s.focusedTeam()
	if err != nil || !ok {
		return err
	}
	team := &s.current.Teams[idx]
	if err := team.SetNote(hole, text); err != nil {
		return err
	}
	id, notes := s.id, append([]string(nil), team.Notes...)
	s.dispatch(ctx, fieldPath(id, idx, "notes"), "notes", func(ctx context.Context) error {
		return s.w.WriteNotes(ctx, id, idx, notes)
	})
	return nil
}

// SetPar changes the par of a 0-based hole. Non-positive values store the default par.
func (s *Scorecard) SetPar(ctx context.Context, hole, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return fmt.Errorf("%w: %q", models.ErrTournamentMissing, s.id)
	}
	if err := s.current.Course.SetPar(hole, value); err != nil {
		return err
	}
	id, holes := s.id, append([]int(nil), s.current.Course.Holes...)
	s.dispatch(ctx, fieldPath(id, -1, "holes"), "holes", func(ctx context.Context) error {
		return s.w.WritePars(ctx, id, holes)
	})
	return nil
}

// Wait blocks until every dispatched write has finished.
func (s *Scorecard) Wait() {
	s.pending.Wait()
}

// focusedTeam resolves the focused team. A team missing from the loaded tournament raises
// a NotFound notice and reports ok=false without an error. Caller holds s.mu.
func (s *Scorecard) focusedTeam() (int, bool, error) {
	if s.state != StateReady {
		return 0, false, fmt.Errorf("%w: %q", models.ErrTournamentMissing, s.id)
	}
	idx, ok := s.current.TeamIndex(s.team)
	if !ok {
		s.pushNotice(NoticeNotFound, fmt.Sprintf("team %q is not part of %s", s.team, s.id), models.ErrTeamNotFound)
		return 0, false, nil
	}
	return idx, true, nil
}

// dispatch queues write on the lane for path, detached from ctx cancellation so a
// finished request doesn't abort it. If the lane is busy, write replaces any queued write.
// Caller holds s.mu.
func (s *Scorecard) dispatch(ctx context.Context, path, field string, write func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	if l, busy := s.lanes[path]; busy {
		l.next, l.ctx = write, ctx
		return
	}
	s.lanes[path] = &lane{field: field}
	s.pending.Add(1)
	go s.drain(ctx, path, write)
}

// drain runs writes for one path until its lane is empty, then retires the lane.
func (s *Scorecard) drain(ctx context.Context, path string, write func(context.Context) error) {
	defer s.pending.Done()
	for {
		err := write(ctx)

		s.mu.Lock()
		l := s.lanes[path]
		if err != nil {
			s.log.Warn("write failed", zap.String("field", l.field), zap.Error(err))
			s.pushNotice(NoticeWriteFailed, fmt.Sprintf("could not save %s: %v", l.field, err), err)
		}
		if l.next == nil {
			delete(s.lanes, path)
			s.mu.Unlock()
			return
		}
		write, ctx = l.next, l.ctx
		l.next, l.ctx = nil, nil
		s.mu.Unlock()
	}
}

func fieldPath(id string, team int, field string) string {
	return fmt.Sprintf("%s/%d/%s", id, team, field)
}

func (s *Scorecard) remember(set func(string) error, value string) {
	if err := set(value); err != nil {
		s.log.Warn("save selection", zap.Error(err))
	}
}
