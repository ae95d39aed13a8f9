package handlers

// This file handles the /api/v1/tournaments routes. Reads are served from the latest
// snapshot the gateway delivered, so they never wait on the store. Writes go through the
// gateway and touch exactly one field path; the resulting change reaches readers (and
// websocket clients) through the next snapshot.

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-scorecard/internal/leaderboard"
	"github.com/trentd187/golf-scorecard/internal/lifecycle"
	"github.com/trentd187/golf-scorecard/internal/models"
	"github.com/trentd187/golf-scorecard/internal/scoring"
)

// ListResponse is the body of GET /api/v1/tournaments.
type ListResponse struct {
	IDs         []string                     `json:"ids"` // sorted
	Tournaments map[string]models.Tournament `json:"tournaments"`
}

// CreateResponse is the body of a successful POST /api/v1/tournaments.
type CreateResponse struct {
	ID         string            `json:"id"`
	Tournament models.Tournament `json:"tournament"`
}

// ScoresRequest, NotesRequest and HolesRequest are the PUT bodies. Each carries the
// complete 18-entry array for its field.
type ScoresRequest struct {
	Scores []*int `json:"scores"` // null = unplayed
}

type NotesRequest struct {
	Notes []string `json:"notes"`
}

type HolesRequest struct {
	Holes []int `json:"holes"`
}

// ListTournaments returns a handler for GET /api/v1/tournaments.
func ListTournaments(src SnapshotSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := src.Snapshot()
		return c.JSON(ListResponse{IDs: snap.IDs(), Tournaments: snap})
	}
}

// GetTournament returns a handler for GET /api/v1/tournaments/:id.
func GetTournament(src SnapshotSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := lookup(src, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	}
}

// CreateTournament returns a handler for POST /api/v1/tournaments.
// Body: {"course_name": "...", "date": "YYYY-MM-DD", "teams": ["A", "B"]}.
func CreateTournament(lc Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req lifecycle.Request
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		id, t, err := lc.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(CreateResponse{ID: id, Tournament: t})
	}
}

// DeleteTournament returns a handler for DELETE /api/v1/tournaments/:id.
func DeleteTournament(lc Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := lc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetLeaderboard returns a handler for GET /api/v1/tournaments/:id/leaderboard.
func GetLeaderboard(src SnapshotSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := lookup(src, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"id":          t.Name,
			"leaderboard": leaderboard.Build(&t.Course, t.Teams),
		})
	}
}

// GetScorecard returns a handler for GET /api/v1/tournaments/:id/teams/:name/scorecard.
func GetScorecard(src SnapshotSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := lookup(src, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		name := c.Params("name")
		idx, ok := t.TeamIndex(name)
		if !ok {
			return respondError(c, fmt.Errorf("%w: %q", models.ErrTeamNotFound, name))
		}
		return c.JSON(scoring.Card(t.Course, t.Teams[idx]))
	}
}

// PutScores returns a handler for PUT /api/v1/tournaments/:id/teams/:index/scores.
func PutScores(w FieldWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idx, err := c.ParamsInt("index")
		if err != nil {
			return respondError(c, fmt.Errorf("%w: %q", models.ErrTeamOutOfRange, c.Params("index")))
		}
		var req ScoresRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := w.WriteScores(c.UserContext(), c.Params("id"), idx, req.Scores); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PutNotes returns a handler for PUT /api/v1/tournaments/:id/teams/:index/notes.
func PutNotes(w FieldWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idx, err := c.ParamsInt("index")
		if err != nil {
			return respondError(c, fmt.Errorf("%w: %q", models.ErrTeamOutOfRange, c.Params("index")))
		}
		var req NotesRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := w.WriteNotes(c.UserContext(), c.Params("id"), idx, req.Notes); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PutHoles returns a handler for PUT /api/v1/tournaments/:id/course/holes.
func PutHoles(w FieldWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req HolesRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if err := w.WritePars(c.UserContext(), c.Params("id"), req.Holes); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func lookup(src SnapshotSource, id string) (models.Tournament, error) {
	t, ok := src.Snapshot()[id]
	if !ok {
		return models.Tournament{}, fmt.Errorf("%w: %q", models.ErrTournamentMissing, id)
	}
	return t, nil
}
