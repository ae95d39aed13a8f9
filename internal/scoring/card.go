package scoring

import "github.com/trentd187/golf-scorecard/internal/models"

// HoleRow is one line of a team's scorecard.
type HoleRow struct {
	Hole   int    `json:"hole"` // 1-based
	Par    int    `json:"par"`
	Score  *int   `json:"score"`
	Result Result `json:"result"`
	Note   string `json:"note"`
}

// Scorecard is everything a viewer needs to render one team's card.
type Scorecard struct {
	Team    string    `json:"team"`
	Holes   []HoleRow `json:"holes"`
	Stats   Stats     `json:"stats"`
	Display string    `json:"display"` // FormatRelative(Stats.Total)
}

// Card builds the scorecard for team on course. The team is expected to be normalized;
// missing entries are read as unplayed / empty.
func Card(course models.Course, team models.Team) Scorecard {
	rows := make([]HoleRow, len(course.Holes))
	for i := range course.Holes {
		par := parAt(course.Holes, i)
		var score *int
		if i < len(team.Scores) {
			score = team.Scores[i]
		}
		var note string
		if i < len(team.Notes) {
			note = team.Notes[i]
		}
		rows[i] = HoleRow{Hole: i + 1, Par: par, Score: score, Result: Classify(score, par), Note: note}
	}
	stats := Compute(team.Scores, course.Holes)
	return Scorecard{
		Team:    team.Name,
		Holes:   rows,
		Stats:   stats,
		Display: FormatRelative(stats.Total),
	}
}
