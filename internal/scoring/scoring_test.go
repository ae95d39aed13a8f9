package scoring

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/trentd187/golf-scorecard/internal/models"
)

func randomRound(r *rand.Rand) ([]*int, []int) {
	scores := make([]*int, models.HoleCount)
	pars := make([]int, models.HoleCount)
	for i := range scores {
		pars[i] = 3 + r.Intn(3)
		if r.Intn(4) > 0 {
			scores[i] = models.Strokes(1 + r.Intn(9))
		}
	}
	return scores, pars
}

func TestScoreDiffSplitsIntoNines(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		scores, pars := randomRound(r)
		whole := ScoreDiff(scores, pars)
		split := ScoreDiff(scores[:9], pars[:9]) + ScoreDiff(scores[9:], pars[9:])
		if whole != split {
			t.Fatalf("round %d: whole %d != split %d", i, whole, split)
		}
		stats := Compute(scores, pars)
		if stats.Total != whole || stats.Front+stats.Back != stats.Total {
			t.Fatalf("round %d: inconsistent stats %+v (whole %d)", i, stats, whole)
		}
	}
}

func TestScoreDiffIgnoresAbsent(t *testing.T) {
	pars := []int{3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5}
	if got := ScoreDiff(make([]*int, models.HoleCount), pars); got != 0 {
		t.Fatalf("expected 0 for unplayed round, got %d", got)
	}
	scores := make([]*int, models.HoleCount)
	scores[2] = models.Strokes(7)
	if got := ScoreDiff(scores, pars); got != 2 {
		t.Fatalf("expected partial total 2, got %d", got)
	}
}

func TestScoreDiffDefaultsMissingPar(t *testing.T) {
	scores := []*int{models.Strokes(5), models.Strokes(5)}
	if got := ScoreDiff(scores, []int{0}); got != 2 {
		t.Fatalf("expected missing pars to read as 4, got %d", got)
	}
}

func TestNinesToleratesShortInput(t *testing.T) {
	scores := []*int{models.Strokes(6)}
	stats := Compute(scores, nil)
	if stats.Front != 2 || stats.Back != 0 || stats.Total != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestFormatRelative(t *testing.T) {
	cases := map[int]string{0: "E", 3: "+3", -2: "-2", 1: "+1"}
	for in, want := range cases {
		if got := FormatRelative(in); got != want {
			t.Fatalf("FormatRelative(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		score *int
		par   int
		want  Result
	}{
		{nil, 4, ResultAbsent},
		{models.Strokes(1), 5, ResultEagleOrBetter},
		{models.Strokes(2), 4, ResultEagleOrBetter},
		{models.Strokes(3), 4, ResultBirdie},
		{models.Strokes(4), 4, ResultPar},
		{models.Strokes(5), 4, ResultBogey},
		{models.Strokes(6), 4, ResultDoubleOrWorse},
		{models.Strokes(12), 3, ResultDoubleOrWorse},
	}
	for _, c := range cases {
		if got := Classify(c.score, c.par); got != c.want {
			t.Fatalf("Classify(%v, %d) = %s, want %s", c.score, c.par, got, c.want)
		}
	}
}

func TestCard(t *testing.T) {
	course := models.NewCourse("Pebble", "2024-05-01")
	team := models.NewTeam("A")
	if err := team.SetScore(0, models.Strokes(5)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := team.SetNote(0, "lip out"); err != nil {
		t.Fatalf("note: %v", err)
	}
	card := Card(course, team)
	if len(card.Holes) != models.HoleCount {
		t.Fatalf("expected %d rows, got %d", models.HoleCount, len(card.Holes))
	}
	first := card.Holes[0]
	if first.Hole != 1 || first.Result != ResultBogey || first.Note != "lip out" {
		t.Fatalf("unexpected first row %+v", first)
	}
	if card.Holes[1].Result != ResultAbsent {
		t.Fatalf("expected unplayed second hole")
	}
	if card.Stats.Total != 1 || card.Display != "+1" {
		t.Fatalf("unexpected totals %+v %q", card.Stats, card.Display)
	}
	raw, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"hole":1,"par":4,"score":5,"result":"bogey","note":"lip out"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
