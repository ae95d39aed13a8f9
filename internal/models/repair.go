package models

// Repair reports which of a team's sequences had to be healed by EnsureInitialized.
type Repair struct {
	Scores bool // Scores was absent or had the wrong length
	Notes  bool // Notes was absent or had the wrong length
}

// Any reports whether anything was healed.
func (r Repair) Any() bool {
	return r.Scores || r.Notes
}

// EnsureInitialized returns a copy of team whose Scores and Notes are both exactly
// HoleCount long. Absent sequences are filled with "unplayed" / empty-note sentinels,
// short ones are padded and long ones truncated. Values already present at valid
// indices are kept as they are.
//
// Calling it on its own output changes nothing and reports no repair.
func EnsureInitialized(team Team) (Team, Repair) {
	var rep Repair
	out := team.Clone()

	if len(out.Scores) != HoleCount {
		rep.Scores = true
		scores := make([]*int, HoleCount)
		copy(scores, out.Scores)
		out.Scores = scores
	}
	if len(out.Notes) != HoleCount {
		rep.Notes = true
		notes := make([]string, HoleCount)
		copy(notes, out.Notes)
		out.Notes = notes
	}
	return out, rep
}

// NormalizeHoles returns an 18-entry par list built from holes. Missing entries and
// non-positive pars read as DefaultPar.
func NormalizeHoles(holes []int) ([]int, bool) {
	changed := len(holes) != HoleCount
	out := make([]int, HoleCount)
	for i := range out {
		if i < len(holes) && holes[i] > 0 {
			out[i] = holes[i]
			continue
		}
		if i < len(holes) {
			changed = true
		}
		out[i] = DefaultPar
	}
	return out, changed
}
