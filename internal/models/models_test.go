package models

import (
	"errors"
	"reflect"
	"testing"
)

func TestSetParFallsBackToDefault(t *testing.T) {
	c := NewCourse("Pebble", "2024-05-01")
	if err := c.SetPar(2, 5); err != nil {
		t.Fatalf("set par: %v", err)
	}
	if err := c.SetPar(3, 0); err != nil {
		t.Fatalf("set zero par: %v", err)
	}
	if err := c.SetPar(4, -3); err != nil {
		t.Fatalf("set negative par: %v", err)
	}
	if c.Holes[2] != 5 || c.Holes[3] != DefaultPar || c.Holes[4] != DefaultPar {
		t.Fatalf("unexpected pars: %v", c.Holes)
	}
	for i, p := range c.Holes {
		if i != 2 && p != DefaultPar {
			t.Fatalf("hole %d changed to %d", i, p)
		}
	}
}

func TestSetParRejectsOutOfRange(t *testing.T) {
	c := NewCourse("Pebble", "2024-05-01")
	before := append([]int(nil), c.Holes...)
	for _, idx := range []int{-1, HoleCount, 40} {
		if err := c.SetPar(idx, 3); !errors.Is(err, ErrHoleOutOfRange) {
			t.Fatalf("index %d: expected ErrHoleOutOfRange, got %v", idx, err)
		}
	}
	if !reflect.DeepEqual(before, c.Holes) {
		t.Fatalf("holes changed: %v", c.Holes)
	}
}

func TestTeamSetScoreAndNote(t *testing.T) {
	team := NewTeam("A")
	five := 5
	if err := team.SetScore(0, &five); err != nil {
		t.Fatalf("set score: %v", err)
	}
	five = 9
	if *team.Scores[0] != 5 {
		t.Fatalf("score aliased caller variable: %d", *team.Scores[0])
	}
	if err := team.SetScore(0, nil); err != nil {
		t.Fatalf("clear score: %v", err)
	}
	if team.Scores[0] != nil {
		t.Fatalf("expected unplayed hole")
	}
	if err := team.SetScore(1, Strokes(0)); !errors.Is(err, ErrInvalidScore) {
		t.Fatalf("expected ErrInvalidScore, got %v", err)
	}
	if err := team.SetScore(18, Strokes(4)); !errors.Is(err, ErrHoleOutOfRange) {
		t.Fatalf("expected ErrHoleOutOfRange, got %v", err)
	}
	if err := team.SetNote(17, "water left"); err != nil {
		t.Fatalf("set note: %v", err)
	}
	if team.Notes[17] != "water left" {
		t.Fatalf("note not stored")
	}
	if err := team.SetNote(-1, "x"); !errors.Is(err, ErrHoleOutOfRange) {
		t.Fatalf("expected ErrHoleOutOfRange, got %v", err)
	}
}

func TestEnsureInitializedBackfills(t *testing.T) {
	healed, rep := EnsureInitialized(Team{Name: "A"})
	if !rep.Scores || !rep.Notes {
		t.Fatalf("expected both sequences repaired: %+v", rep)
	}
	if len(healed.Scores) != HoleCount || len(healed.Notes) != HoleCount {
		t.Fatalf("unexpected lengths %d/%d", len(healed.Scores), len(healed.Notes))
	}
	for i := range healed.Scores {
		if healed.Scores[i] != nil || healed.Notes[i] != "" {
			t.Fatalf("hole %d not blank", i)
		}
	}
}

func TestEnsureInitializedKeepsValues(t *testing.T) {
	team := Team{Name: "A", Scores: []*int{Strokes(3), nil, Strokes(6)}, Notes: NewTeam("x").Notes}
	team.Notes[4] = "bunker"
	healed, rep := EnsureInitialized(team)
	if !rep.Scores || rep.Notes {
		t.Fatalf("unexpected repair report: %+v", rep)
	}
	if *healed.Scores[0] != 3 || healed.Scores[1] != nil || *healed.Scores[2] != 6 {
		t.Fatalf("existing scores altered")
	}
	if healed.Notes[4] != "bunker" {
		t.Fatalf("existing note altered")
	}
}

func TestEnsureInitializedIdempotent(t *testing.T) {
	inputs := []Team{
		{Name: "empty"},
		{Name: "short", Scores: []*int{Strokes(4)}},
		{Name: "long", Notes: make([]string, 25)},
		NewTeam("complete"),
	}
	for _, in := range inputs {
		once, _ := EnsureInitialized(in)
		twice, rep := EnsureInitialized(once)
		if rep.Any() {
			t.Fatalf("%s: second pass reported repair %+v", in.Name, rep)
		}
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("%s: not idempotent", in.Name)
		}
	}
}

func TestNormalizeHoles(t *testing.T) {
	holes, changed := NormalizeHoles([]int{3, 0, 5})
	if !changed {
		t.Fatalf("expected change")
	}
	if len(holes) != HoleCount || holes[0] != 3 || holes[1] != DefaultPar || holes[2] != 5 || holes[17] != DefaultPar {
		t.Fatalf("unexpected holes %v", holes)
	}
	if _, changed := NormalizeHoles(NewCourse("x", "y").Holes); changed {
		t.Fatalf("complete course reported change")
	}
}

func TestTournamentID(t *testing.T) {
	id, err := TournamentID("  Pebble ", "2024-05-01")
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	if id != "Pebble (2024-05-01)" {
		t.Fatalf("unexpected id %q", id)
	}
	if _, err := TournamentID("  ", "2024-05-01"); !errors.Is(err, ErrMissingCourseName) {
		t.Fatalf("expected ErrMissingCourseName, got %v", err)
	}
	if _, err := TournamentID("Pebble", ""); !errors.Is(err, ErrMissingDate) {
		t.Fatalf("expected ErrMissingDate, got %v", err)
	}
}

func TestTeamIndexAndClone(t *testing.T) {
	tour := Tournament{Name: "x", Course: NewCourse("x", "y"), Teams: []Team{NewTeam("A"), NewTeam("B"), NewTeam("A")}}
	if idx, ok := tour.TeamIndex("A"); !ok || idx != 0 {
		t.Fatalf("expected first A at 0, got %d %v", idx, ok)
	}
	if _, ok := tour.TeamIndex("C"); ok {
		t.Fatalf("unexpected match")
	}
	clone := tour.Clone()
	clone.Course.Holes[0] = 3
	if err := clone.Teams[1].SetScore(0, Strokes(7)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tour.Course.Holes[0] != DefaultPar || tour.Teams[1].Scores[0] != nil {
		t.Fatalf("clone shares state with original")
	}
}
