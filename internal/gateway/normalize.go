package gateway

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/trentd187/golf-scorecard/internal/models"
)

// teamsShape tags how a tournament's teams field arrived from the store.
type teamsShape int

const (
	shapeMissing  teamsShape = iota // no teams field, or something that isn't a collection
	shapeSequence                   // a JSON array
	shapeKeyedMap                   // a JSON object keyed by arbitrary strings
)

// rawTeams is the boundary representation of the teams field: a tagged union of the two
// shapes the store may hold. keys[i] is the stored key of entries[i], in document order.
type rawTeams struct {
	shape   teamsShape
	keys    []string
	entries []gjson.Result
}

func decodeTeams(v gjson.Result) rawTeams {
	switch {
	case v.IsArray():
		out := rawTeams{shape: shapeSequence}
		for i, entry := range v.Array() {
			out.keys = append(out.keys, strconv.Itoa(i))
			out.entries = append(out.entries, entry)
		}
		return out
	case v.IsObject():
		out := rawTeams{shape: shapeKeyedMap}
		v.ForEach(func(key, entry gjson.Result) bool {
			out.keys = append(out.keys, key.String())
			out.entries = append(out.entries, entry)
			return true
		})
		return out
	default:
		return rawTeams{shape: shapeMissing}
	}
}

// normalized is one tournament after healing, plus what it took to get there.
type normalized struct {
	tournament models.Tournament
	teamKeys   []string       // stored key for each normalized team index
	repairs    []models.Repair // per team; only Scores/Notes repairs are written back
	shape      teamsShape
}

// normalize turns one raw stored document into a Tournament that satisfies every length
// invariant. It never fails: whatever can't be read becomes its default.
func normalize(id string, raw []byte) normalized {
	doc := gjson.ParseBytes(raw)

	t := models.Tournament{
		Name: doc.Get("name").String(),
		Course: models.Course{
			Name: doc.Get("course.name").String(),
			Date: doc.Get("course.date").String(),
		},
	}
	if t.Name == "" {
		t.Name = id
	}
	t.Course.Holes, _ = models.NormalizeHoles(decodeInts(doc.Get("course.holes")))

	teams := decodeTeams(doc.Get("teams"))
	out := normalized{
		teamKeys: teams.keys,
		repairs:  make([]models.Repair, len(teams.entries)),
		shape:    teams.shape,
	}
	t.Teams = make([]models.Team, len(teams.entries))
	for i, entry := range teams.entries {
		team, rewrite := decodeTeam(entry)
		healed, rep := models.EnsureInitialized(team)
		rep.Scores = rep.Scores || rewrite
		if !entry.IsObject() {
			rep = models.Repair{} // nothing addressable to write back into
		}
		t.Teams[i] = healed
		out.repairs[i] = rep
	}
	out.tournament = t
	return out
}

// decodeTeam reads a team leniently. An absent (or non-array) scores/notes field stays
// nil so EnsureInitialized can tell it was missing. rewrite reports scores that were read
// but not stored the canonical way: an object keyed by hole index, or an entry that isn't
// null or a positive whole number.
func decodeTeam(v gjson.Result) (team models.Team, rewrite bool) {
	team = models.Team{Name: v.Get("name").String()}

	if scores := v.Get("scores"); scores.IsArray() {
		team.Scores = []*int{}
		for _, s := range scores.Array() {
			n, ok := decodeScore(s)
			rewrite = rewrite || !ok
			team.Scores = append(team.Scores, n)
		}
	} else if scores.IsObject() {
		// A sparse array saved as {"3": 5, ...}: place each value at its index.
		rewrite = true
		team.Scores = make([]*int, models.HoleCount)
		scores.ForEach(func(k, s gjson.Result) bool {
			if idx, err := strconv.Atoi(k.String()); err == nil && idx >= 0 && idx < models.HoleCount {
				team.Scores[idx], _ = decodeScore(s)
			}
			return true
		})
	}

	if notes := v.Get("notes"); notes.IsArray() {
		team.Notes = []string{}
		for _, n := range notes.Array() {
			team.Notes = append(team.Notes, decodeNote(n))
		}
	}
	return team, rewrite
}

// decodeScore reads one stored score. Numbers and numeric strings are accepted; zero,
// negatives and anything unreadable become "unplayed", and fractions are truncated. ok is
// false whenever the stored value differs from what is returned, so the array is written
// back in canonical form.
func decodeScore(v gjson.Result) (score *int, ok bool) {
	switch v.Type {
	case gjson.Null:
		return nil, true
	case gjson.Number:
		n := int(v.Int())
		if n < 1 {
			return nil, false
		}
		return &n, float64(n) == v.Num
	case gjson.String:
		n, err := strconv.Atoi(v.Str)
		if err != nil || n < 1 {
			return nil, false
		}
		return &n, false
	default:
		return nil, false
	}
}

func decodeNote(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

func decodeInts(v gjson.Result) []int {
	if !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]int, len(arr))
	for i, x := range arr {
		out[i] = int(x.Int()) // null and garbage read as 0, which NormalizeHoles defaults
	}
	return out
}
