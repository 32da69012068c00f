package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/graph"

	"github.com/olekukonko/tablewriter"
)

func row(cells ...string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func renderTable(w io.Writer, columns []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(row(columns...)...)
	for _, r := range rows {
		if err := table.Append(row(r...)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderPairs(w io.Writer, pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return renderTable(w, []string{"Field", "Value"}, rows)
}

func renderCatalog(w io.Writer, entries []catalog.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		writes := ""
		if e.Writes {
			writes = "yes"
		}
		rows = append(rows, []string{strconv.Itoa(e.ID), e.Title, e.Store, strings.Join(e.Params, ", "), writes})
	}
	return renderTable(w, []string{"ID", "Title", "Store", "Params", "Writes"}, rows)
}

// renderResult prints the title, then the table or the label, then any warning
func renderResult(w io.Writer, res *catalog.Result) error {
	if _, err := fmt.Fprintf(w, "#%d %s\n", res.ID, res.Title); err != nil {
		return err
	}

	if res.Empty {
		warning := res.Warning
		if warning == "" {
			warning = "no results"
		}
		_, err := fmt.Fprintf(w, "(%s)\n", warning)
		return err
	}

	if res.Label != "" {
		if _, err := fmt.Fprintln(w, res.Label); err != nil {
			return err
		}
	}

	if path, ok := res.Records.([]graph.PathNode); ok {
		steps := make([]string, 0, len(path))
		for _, n := range path {
			steps = append(steps, fmt.Sprintf("(%s %s)", n.Type, n.Name))
		}
		_, err := fmt.Fprintln(w, strings.Join(steps, " -> "))
		return err
	}

	if len(res.Columns) > 0 {
		return renderTable(w, res.Columns, res.Rows)
	}
	return nil
}

func renderReport(w io.Writer, report *derive.Report) error {
	stages := make([]string, 0, len(report.Stages))
	for _, s := range report.Stages {
		stages = append(stages, string(s))
	}
	pairs := [][2]string{
		{"Run", report.RunID},
		{"Stages", strings.Join(stages, ", ")},
		{"Films merged", strconv.Itoa(report.Films)},
		{"Films skipped", strconv.Itoa(report.SkippedFilms)},
		{"Batches", strconv.Itoa(report.Batches)},
		{"Actor links", strconv.Itoa(report.ActorLinks)},
		{"Director links", strconv.Itoa(report.DirectorLinks)},
	}
	if report.TeamFilmID != "" {
		pairs = append(pairs, [2]string{"Team film", report.TeamFilmID})
		pairs = append(pairs, [2]string{"Team members", strconv.Itoa(report.TeamMembers)})
	}
	pairs = append(pairs, [2]string{"Duration", report.Duration.String()})
	return renderPairs(w, pairs)
}

func renderCounts(w io.Writer, c graph.Counts) error {
	format := func(n int64) string { return strconv.FormatInt(n, 10) }
	return renderPairs(w, [][2]string{
		{"Film nodes", format(c.Films)},
		{"Actor nodes", format(c.Actors)},
		{"Director nodes", format(c.Directors)},
		{"PLAYS_IN", format(c.PlaysIn)},
		{"DIRECTED", format(c.Directed)},
		{"INFLUENCED_BY", format(c.InfluencedBy)},
		{"COMPETES_WITH", format(c.CompetesWith)},
	})
}
