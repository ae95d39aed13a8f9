// Package lifecycle creates and deletes whole tournaments and keeps the viewer's
// remembered selection consistent with those changes.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/models"
	"github.com/trentd187/golf-scorecard/internal/session"
)

// dateLayout is the only accepted tournament date format.
const dateLayout = "2006-01-02"

// Tournaments is the part of the gateway the manager needs.
type Tournaments interface {
	CreateTournament(ctx context.Context, t models.Tournament) (string, error)
	DeleteTournament(ctx context.Context, id string) error
}

// Request is the user's input for a new tournament.
type Request struct {
	CourseName string   `json:"course_name"`
	Date       string   `json:"date"`
	TeamNames  []string `json:"teams"`
}

// Manager runs create and delete.
type Manager struct {
	store Tournaments
	prefs session.Preferences
	log   *zap.Logger
}

// New returns a manager. A nil logger is replaced with a no-op one.
func New(store Tournaments, prefs session.Preferences, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, prefs: prefs, log: log}
}

// Build validates req and returns the tournament it describes, without storing it.
// Blank team names are dropped; names are trimmed and must be unique.
func Build(req Request) (models.Tournament, error) {
	name := strings.TrimSpace(req.CourseName)
	date := strings.TrimSpace(req.Date)
	if name == "" {
		return models.Tournament{}, models.ErrMissingCourseName
	}
	if date == "" {
		return models.Tournament{}, models.ErrMissingDate
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.Tournament{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}

	t := models.Tournament{Course: models.NewCourse(name, date), Teams: []models.Team{}}
	seen := make(map[string]bool, len(req.TeamNames))
	for _, raw := range req.TeamNames {
		team := strings.TrimSpace(raw)
		if team == "" {
			continue
		}
		if seen[team] {
			return models.Tournament{}, fmt.Errorf("%w: %q", models.ErrDuplicateTeam, team)
		}
		seen[team] = true
		t.Teams = append(t.Teams, models.NewTeam(team))
	}

	id, err := models.TournamentID(name, date)
	if err != nil {
		return models.Tournament{}, err
	}
	t.Name = id
	return t, nil
}

// Create stores a new tournament and selects it. The selection is only updated once the
// store accepted the record.
func (m *Manager) Create(ctx context.Context, req Request) (string, models.Tournament, error) {
	t, err := Build(req)
	if err != nil {
		return "", models.Tournament{}, err
	}
	id, err := m.store.CreateTournament(ctx, t)
	if err != nil {
		return "", models.Tournament{}, err
	}
	m.log.Info("tournament created", zap.String("tournament", id), zap.Int("teams", len(t.Teams)))

	if m.prefs != nil {
		if err := m.prefs.SetTournament(id); err != nil {
			m.log.Warn("remember selected tournament", zap.String("tournament", id), zap.Error(err))
		}
	}
	return id, t, nil
}

// Delete removes a tournament and forgets it if it was the remembered selection.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteTournament(ctx, id); err != nil {
		return err
	}
	m.log.Info("tournament deleted", zap.String("tournament", id))

	if m.prefs != nil && m.prefs.Tournament() == id {
		if err := m.prefs.Clear(); err != nil {
			m.log.Warn("clear selection", zap.String("tournament", id), zap.Error(err))
		}
	}
	return nil
}
