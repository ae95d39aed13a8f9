package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/trentd187/golf-scorecard/internal/leaderboard"
	"github.com/trentd187/golf-scorecard/internal/scoring"
)

var (
	underPar = color.New(color.FgGreen).SprintFunc()
	overPar  = color.New(color.FgRed).SprintFunc()
)

// paint colours an already padded to-par cell: green under, red over, plain at even.
func paint(cell string, v int) string {
	switch {
	case v < 0:
		return underPar(cell)
	case v > 0:
		return overPar(cell)
	default:
		return cell
	}
}

func relative(v int) string {
	return paint(scoring.FormatRelative(v), v)
}

// renderLeaderboard lays columns out on the plain text and colours the padded cells
// afterwards, so escape codes never count towards a column's width.
func renderLeaderboard(out io.Writer, rows []leaderboard.Standing) error {
	const gap = 2
	table := [][]string{{"POS", "TEAM", "OUT", "IN", "TOTAL"}}
	for _, r := range rows {
		table = append(table, []string{
			strconv.Itoa(r.Position), r.Name,
			scoring.FormatRelative(r.Front), scoring.FormatRelative(r.Back), scoring.FormatRelative(r.Total),
		})
	}
	widths := make([]int, len(table[0]))
	for _, row := range table {
		for j, cell := range row {
			widths[j] = max(widths[j], utf8.RuneCountInString(cell))
		}
	}

	var b strings.Builder
	for i, row := range table {
		for j, cell := range row {
			last := j == len(row)-1
			if !last {
				cell += strings.Repeat(" ", widths[j]-utf8.RuneCountInString(cell)+gap)
			}
			if i > 0 && j >= 2 {
				r := rows[i-1]
				cell = paint(cell, [...]int{r.Front, r.Back, r.Total}[j-2])
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func renderCard(out io.Writer, card scoring.Scorecard) error {
	fmt.Fprintf(out, "%s  %s\n", card.Team, relative(card.Stats.Total))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOLE\tPAR\tSCORE\tRESULT\tNOTE")
	for _, h := range card.Holes {
		score := "-"
		if h.Score != nil {
			score = strconv.Itoa(*h.Score)
		}
		result := ""
		if h.Result != scoring.ResultAbsent {
			result = h.Result.String()
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", h.Hole, h.Par, score, result, h.Note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "out %s  in %s\n", relative(card.Stats.Front), relative(card.Stats.Back))
	return nil
}
