// Package scoring derives relative-to-par figures from raw hole scores.
// Everything here is a pure function of its inputs: no store, no logging, no clock.
package scoring

import (
	"strconv"

	"github.com/trentd187/golf-scorecard/internal/models"
)

// Stats is a team's standing relative to par.
type Stats struct {
	Front int `json:"front"` // Holes 1–9
	Back  int `json:"back"`  // Holes 10–18
	Total int `json:"total"` // Front + Back
}

// ScoreDiff sums (score - par) over every hole that has a score. Unplayed holes add
// nothing, so a partial round reports a partial total. A par that is missing or not
// positive counts as models.DefaultPar.
func ScoreDiff(scores []*int, pars []int) int {
	diff := 0
	for i, s := range scores {
		if s == nil {
			continue
		}
		diff += *s - parAt(pars, i)
	}
	return diff
}

// FrontNine is ScoreDiff over holes 1–9.
func FrontNine(scores []*int, pars []int) int {
	return ScoreDiff(window(scores, 0, models.FrontNineHoles), windowInts(pars, 0, models.FrontNineHoles))
}

// BackNine is ScoreDiff over holes 10–18.
func BackNine(scores []*int, pars []int) int {
	return ScoreDiff(
		window(scores, models.FrontNineHoles, models.HoleCount),
		windowInts(pars, models.FrontNineHoles, models.HoleCount),
	)
}

// Compute returns front, back and total for one team.
func Compute(scores []*int, pars []int) Stats {
	front := FrontNine(scores, pars)
	back := BackNine(scores, pars)
	return Stats{Front: front, Back: back, Total: front + back}
}

// FormatRelative renders a relative-to-par figure the way a scoreboard shows it:
// 0 is "E", over par gets an explicit "+", under par keeps its minus sign.
func FormatRelative(v int) string {
	switch {
	case v == 0:
		return "E"
	case v > 0:
		return "+" + strconv.Itoa(v)
	default:
		return strconv.Itoa(v)
	}
}

func parAt(pars []int, i int) int {
	if i < len(pars) && pars[i] > 0 {
		return pars[i]
	}
	return models.DefaultPar
}

// window returns s[lo:hi] clipped to the slice length.
func window(s []*int, lo, hi int) []*int {
	if lo > len(s) {
		return nil
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}

func windowInts(s []int, lo, hi int) []int {
	if lo > len(s) {
		return nil
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}
