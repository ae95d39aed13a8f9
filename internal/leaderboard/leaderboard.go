// Package leaderboard ranks the teams of a tournament by their total relative to par.
package leaderboard

import (
	"sort"

	"github.com/trentd187/golf-scorecard/internal/models"
	"github.com/trentd187/golf-scorecard/internal/scoring"
)

// Standing is one row of the leaderboard.
type Standing struct {
	Position int    `json:"position"` // 1-based row number; tied teams get consecutive positions
	Name     string `json:"name"`
	Front    int    `json:"front"`
	Back     int    `json:"back"`
	Total    int    `json:"total"`
	Display  string `json:"display"` // Total formatted as "E", "+3", "-2"
}

// Build computes every team's figures against the course and sorts them lowest total
// first (golf scoring). Teams with equal totals keep their input order.
// Without a course there is no par data, so no standings are produced.
func Build(course *models.Course, teams []models.Team) []Standing {
	if course == nil {
		return []Standing{}
	}

	out := make([]Standing, 0, len(teams))
	for _, team := range teams {
		stats := scoring.Compute(team.Scores, course.Holes)
		out = append(out, Standing{
			Name:    team.Name,
			Front:   stats.Front,
			Back:    stats.Back,
			Total:   stats.Total,
			Display: scoring.FormatRelative(stats.Total),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total < out[j].Total
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
