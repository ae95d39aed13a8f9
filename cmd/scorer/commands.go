package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/trentd187/golf-scorecard/internal/gateway"
	"github.com/trentd187/golf-scorecard/internal/lifecycle"
	"github.com/trentd187/golf-scorecard/internal/models"
	"github.com/trentd187/golf-scorecard/internal/session"
	"github.com/trentd187/golf-scorecard/internal/view"
)

var errUsage = errors.New("usage")

const usage = `commands:
  create --course NAME --date YYYY-MM-DD [--team NAME ...]
  delete [--id ID]                    (defaults to the selected tournament)
  list
  select [--tournament ID] [--team NAME]
  board
  card
  score --hole N [--value STROKES]    (no value marks the hole unplayed)
  note  --hole N [--text TEXT]
  par   --hole N --value PAR
`

// cli runs one subcommand against a synced view.
type cli struct {
	out     io.Writer
	sc      *view.Scorecard
	lc      *lifecycle.Manager
	prefs   session.Preferences
	synced  <-chan struct{}
	timeout time.Duration
	cancel  func()
}

func newCLI(ctx context.Context, out io.Writer, gw *gateway.Gateway, prefs session.Preferences, log *zap.Logger) (*cli, error) {
	sc, lc, synced, cancel, err := wire(ctx, gw, prefs, log)
	if err != nil {
		return nil, err
	}
	return &cli{out: out, sc: sc, lc: lc, prefs: prefs, synced: synced, timeout: syncTimeout, cancel: cancel}, nil
}

func (c *cli) close() {
	c.sc.Wait()
	c.cancel()
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create":
		return c.create(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	case "list":
		return c.list(ctx, rest)
	case "select":
		return c.selectCmd(ctx, rest)
	case "board":
		return c.board(ctx, rest)
	case "card":
		return c.card(ctx, rest)
	case "score":
		return c.score(ctx, rest)
	case "note":
		return c.note(ctx, rest)
	case "par":
		return c.par(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", errUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// waitSynced blocks until the first snapshot has been applied.
func (c *cli) waitSynced(ctx context.Context) error {
	select {
	case <-c.synced:
		return nil
	case <-time.After(c.timeout):
		return errors.New("timed out waiting for the tournament store")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := flags("create")
	course := fs.String("course", "", "course name")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	teams := fs.StringArray("team", nil, "team name (repeatable)")
	if err := parse(fs, args); err != nil {
		return err
	}

	id, t, err := c.lc.Create(ctx, lifecycle.Request{CourseName: *course, Date: *date, TeamNames: *teams})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created %s with %d teams\n", id, len(t.Teams))
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := flags("delete")
	id := fs.String("id", "", "tournament id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		*id = c.prefs.Tournament()
	}
	if *id == "" {
		return fmt.Errorf("%w: delete: no --id and no tournament selected", errUsage)
	}
	if err := c.lc.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %s\n", *id)
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	if err := parse(flags("list"), args); err != nil {
		return err
	}
	if err := c.waitSynced(ctx); err != nil {
		return err
	}
	selected, _ := c.sc.Selection()
	for _, id := range c.sc.IDs() {
		marker := " "
		if id == selected {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %s\n", marker, id)
	}
	return nil
}

func (c *cli) selectCmd(ctx context.Context, args []string) error {
	fs := flags("select")
	tournament := fs.String("tournament", "", "tournament id")
	team := fs.String("team", "", "team name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.waitSynced(ctx); err != nil {
		return err
	}
	if fs.Changed("tournament") {
		if err := c.sc.SelectTournament(*tournament); err != nil {
			return err
		}
	}
	if fs.Changed("team") {
		if err := c.sc.SelectTeam(*team); err != nil {
			return err
		}
	}
	id, name := c.sc.Selection()
	fmt.Fprintf(c.out, "tournament: %s\nteam: %s\n", orNone(id), orNone(name))
	return nil
}

func (c *cli) board(ctx context.Context, args []string) error {
	if err := parse(flags("board"), args); err != nil {
		return err
	}
	if err := c.ready(ctx); err != nil {
		return err
	}
	return renderLeaderboard(c.out, c.sc.Leaderboard())
}

func (c *cli) card(ctx context.Context, args []string) error {
	if err := parse(flags("card"), args); err != nil {
		return err
	}
	if err := c.ready(ctx); err != nil {
		return err
	}
	card, err := c.sc.Card()
	if err != nil {
		return err
	}
	return renderCard(c.out, card)
}

func (c *cli) score(ctx context.Context, args []string) error {
	fs := flags("score")
	hole := fs.Int("hole", 0, "hole number (1-18)")
	value := fs.String("value", "", "strokes; empty marks the hole unplayed")
	if err := parse(fs, args); err != nil {
		return err
	}
	var strokes *int
	if v := strings.TrimSpace(*value); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %q", models.ErrInvalidScore, v)
		}
		strokes = &n
	}
	return c.edit(ctx, func() error { return c.sc.SetScore(ctx, *hole-1, strokes) })
}

func (c *cli) note(ctx context.Context, args []string) error {
	fs := flags("note")
	hole := fs.Int("hole", 0, "hole number (1-18)")
	text := fs.String("text", "", "note text; empty clears the note")
	if err := parse(fs, args); err != nil {
		return err
	}
	return c.edit(ctx, func() error { return c.sc.SetNote(ctx, *hole-1, *text) })
}

func (c *cli) par(ctx context.Context, args []string) error {
	fs := flags("par")
	hole := fs.Int("hole", 0, "hole number (1-18)")
	value := fs.Int("value", 0, "par for the hole")
	if err := parse(fs, args); err != nil {
		return err
	}
	return c.edit(ctx, func() error { return c.sc.SetPar(ctx, *hole-1, *value) })
}

// edit applies one change, waits for its write and reports any notices it raised.
func (c *cli) edit(ctx context.Context, apply func() error) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	before := len(c.sc.Notices())
	if err := apply(); err != nil {
		return err
	}
	c.sc.Wait()

	notices := c.sc.Notices()[before:]
	for _, n := range notices {
		fmt.Fprintf(c.out, "%s: %s\n", n.Kind, n.Message)
		c.sc.Dismiss(n.ID)
	}
	if len(notices) > 0 {
		return errors.New("change not saved")
	}
	fmt.Fprintln(c.out, "saved")
	return nil
}

// ready waits for the first snapshot and requires a loaded tournament.
func (c *cli) ready(ctx context.Context) error {
	if err := c.waitSynced(ctx); err != nil {
		return err
	}
	switch st := c.sc.State(); st {
	case view.StateReady:
		return nil
	case view.StateUnselected:
		return errors.New("no tournament selected; run: scorer select --tournament ID")
	default:
		id, _ := c.sc.Selection()
		return fmt.Errorf("%w: %q (%s)", models.ErrTournamentMissing, id, st)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
