package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-scorecard/internal/docstore"
	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/lifecycle"
	"github.com/trentd187/golf-scorecard/internal/middleware"
	"github.com/trentd187/golf-scorecard/internal/models"
)

// SnapshotSource serves the most recent normalized collection.
type SnapshotSource interface {
	Snapshot() gateway.Snapshot
	Ready() bool
}

// Lifecycle creates and deletes whole tournaments.
type Lifecycle interface {
	Create(ctx context.Context, req lifecycle.Request) (string, models.Tournament, error)
	Delete(ctx context.Context, id string) error
}

// FieldWriter performs the scoped writes.
type FieldWriter interface {
	WriteScores(ctx context.Context, id string, teamIndex int, scores []*int) error
	WriteNotes(ctx context.Context, id string, teamIndex int, notes []string) error
	WritePars(ctx context.Context, id string, holes []int) error
}

// Deps bundles what the API routes need.
type Deps struct {
	Snapshots SnapshotSource
	Lifecycle Lifecycle
	Writer    FieldWriter
}

// NewApp returns a fiber app configured for this API. Tournament ids contain spaces and
// parentheses, so path parameters are unescaped before routing.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "Golf Scorecard API",
		UnescapePath: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
}

// Mount registers the /health and /api/v1 routes.
func Mount(app fiber.Router, d Deps) {
	app.Get("/health", Health(d.Snapshots))

	// Route group: every tournament route lives under /api/v1/tournaments.
	api := app.Group("/api/v1/tournaments", middleware.RequireJSON())
	api.Get("/", ListTournaments(d.Snapshots))
	api.Post("/", CreateTournament(d.Lifecycle))
	api.Get("/:id", GetTournament(d.Snapshots))
	api.Delete("/:id", DeleteTournament(d.Lifecycle))
	api.Get("/:id/leaderboard", GetLeaderboard(d.Snapshots))
	api.Get("/:id/teams/:name/scorecard", GetScorecard(d.Snapshots))
	api.Put("/:id/teams/:index/scores", PutScores(d.Writer))
	api.Put("/:id/teams/:index/notes", PutNotes(d.Writer))
	api.Put("/:id/course/holes", PutHoles(d.Writer))
}

// respondError maps domain errors to HTTP statuses:
// validation 400, missing 404, already exists 409, anything else from the store 502.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	switch {
	case gateway.IsValidation(err), errors.Is(err, docstore.ErrEmptyPath):
		status = fiber.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, models.ErrTournamentMissing),
		errors.Is(err, models.ErrTeamNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, docstore.ErrExists):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
