package scoring

import "encoding/json"

// Result is the qualitative outcome of a single hole.
type Result int

const (
	ResultAbsent        Result = iota // Hole not played yet
	ResultEagleOrBetter               // Two or more under par
	ResultBirdie                      // One under
	ResultPar                         // Level
	ResultBogey                       // One over
	ResultDoubleOrWorse               // Two or more over
)

var resultNames = map[Result]string{
	ResultAbsent:        "absent",
	ResultEagleOrBetter: "eagle_or_better",
	ResultBirdie:        "birdie",
	ResultPar:           "par",
	ResultBogey:         "bogey",
	ResultDoubleOrWorse: "double_or_worse",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the result by name.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Classify maps a score against its par. It is defined for every integer difference.
func Classify(score *int, par int) Result {
	if score == nil {
		return ResultAbsent
	}
	switch diff := *score - par; {
	case diff <= -2:
		return ResultEagleOrBetter
	case diff == -1:
		return ResultBirdie
	case diff == 0:
		return ResultPar
	case diff == 1:
		return ResultBogey
	default:
		return ResultDoubleOrWorse
	}
}
