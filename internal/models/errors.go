package models

import "errors"

// Validation errors. Callers match them with errors.Is; they're usually wrapped with the
// offending value ("hole index out of range: 18").
var (
	ErrHoleOutOfRange    = errors.New("hole index out of range")
	ErrTeamOutOfRange    = errors.New("team index out of range")
	ErrInvalidScore      = errors.New("score must be at least 1 stroke")
	ErrBadLength         = errors.New("sequence must have one entry per hole")
	ErrMissingCourseName = errors.New("course name is required")
	ErrMissingDate       = errors.New("date is required")
	ErrInvalidDate       = errors.New("date must be in YYYY-MM-DD format")
	ErrDuplicateTeam     = errors.New("duplicate team name")
	ErrTeamNotFound      = errors.New("team not found")
	ErrTournamentMissing = errors.New("tournament not found")
)
