// Package models defines the tournament data structures that are stored in the shared
// document store and exchanged with viewers.
//
// The data model is deliberately small:
//   - A Tournament owns exactly one Course and an ordered list of Teams
//   - A Course holds the par for each of the 18 holes
//   - A Team holds one score and one note per hole, index-aligned with the course holes
//
// Derived values (front nine, back nine, relative-to-par totals) are never stored here;
// they're recomputed by the scoring package from the raw scores every time they're needed.
package models

import (
	"fmt"
	"strings"
)

const (
	HoleCount      = 18 // Every course and every team sequence has exactly this many entries
	FrontNineHoles = 9  // Holes 1–9 are the front nine; 10–18 are the back nine
	DefaultPar     = 4  // Par used when none (or an invalid one) is supplied
)

// Course describes where a tournament is played.
// Holes[i] is the par for hole i+1.
type Course struct {
	Name  string `json:"name"`
	Date  string `json:"date"`  // ISO date ("2006-01-02"); part of the tournament identifier
	Holes []int  `json:"holes"` // Always HoleCount long once normalized
}

// NewCourse returns a course with every hole set to DefaultPar.
func NewCourse(name, date string) Course {
	holes := make([]int, HoleCount)
	for i := range holes {
		holes[i] = DefaultPar
	}
	return Course{Name: name, Date: date, Holes: holes}
}

// SetPar changes the par of a single hole. A value of zero or below is treated as
// "no value" and replaced by DefaultPar. Out-of-range indices are rejected and leave
// the course untouched.
func (c *Course) SetPar(index, value int) error {
	if index < 0 || index >= len(c.Holes) {
		return fmt.Errorf("%w: %d", ErrHoleOutOfRange, index)
	}
	if value <= 0 {
		value = DefaultPar
	}
	c.Holes[index] = value
	return nil
}

// Team is one competing team in a tournament.
//
// Scores uses *int so a hole can be "not yet played" (nil, stored as JSON null) without
// being confused with a real number of strokes.
type Team struct {
	Name   string   `json:"name"`
	Scores []*int   `json:"scores"`
	Notes  []string `json:"notes"`
}

// NewTeam returns a team with all holes unplayed and all notes empty.
func NewTeam(name string) Team {
	return Team{
		Name:   name,
		Scores: make([]*int, HoleCount),
		Notes:  make([]string, HoleCount),
	}
}

// SetScore records the strokes for one hole. A nil value marks the hole as unplayed again.
func (t *Team) SetScore(index int, value *int) error {
	if index < 0 || index >= len(t.Scores) {
		return fmt.Errorf("%w: %d", ErrHoleOutOfRange, index)
	}
	if value != nil && *value < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidScore, *value)
	}
	if value != nil {
		v := *value
		value = &v // never alias the caller's variable
	}
	t.Scores[index] = value
	return nil
}

// SetNote replaces the free-text note for one hole.
func (t *Team) SetNote(index int, value string) error {
	if index < 0 || index >= len(t.Notes) {
		return fmt.Errorf("%w: %d", ErrHoleOutOfRange, index)
	}
	t.Notes[index] = value
	return nil
}

// Tournament is the top-level record in the store, keyed by its Name.
type Tournament struct {
	Name   string `json:"name"`
	Course Course `json:"course"`
	Teams  []Team `json:"teams"`
}

// TeamIndex returns the position of the first team with the given name.
// Team lookups are by name, so duplicate names make later teams unreachable.
func (t Tournament) TeamIndex(name string) (int, bool) {
	for i, team := range t.Teams {
		if team.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy so callers can mutate it without touching a shared snapshot.
func (t Tournament) Clone() Tournament {
	out := t
	out.Course.Holes = append([]int(nil), t.Course.Holes...)
	out.Teams = make([]Team, len(t.Teams))
	for i, team := range t.Teams {
		out.Teams[i] = team.Clone()
	}
	return out
}

// Clone returns a deep copy of the team, including every score pointer.
func (t Team) Clone() Team {
	out := Team{Name: t.Name}
	if t.Scores != nil {
		out.Scores = make([]*int, len(t.Scores))
		for i, s := range t.Scores {
			if s != nil {
				v := *s
				out.Scores[i] = &v
			}
		}
	}
	if t.Notes != nil {
		out.Notes = append([]string(nil), t.Notes...)
	}
	return out
}

// TournamentID builds the store key for a new tournament: "<course name> (<date>)".
// The key is generated once at creation; renaming the course later doesn't change it.
func TournamentID(courseName, date string) (string, error) {
	name := strings.TrimSpace(courseName)
	if name == "" {
		return "", ErrMissingCourseName
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return "", ErrMissingDate
	}
	return fmt.Sprintf("%s (%s)", name, date), nil
}

// Strokes is a small helper for building score values: models.Strokes(5) -> *int(5).
func Strokes(v int) *int {
	return &v
}
