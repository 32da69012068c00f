package main

import (
	"bytes"
	"testing"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderResult_Table(t *testing.T) {
	var buf bytes.Buffer
	res := &catalog.Result{
		ID:      7,
		Title:   "Directors with more than five films",
		Kind:    catalog.KindTable,
		Columns: []string{"Director", "Films"},
		Rows:    [][]string{{"Ridley Scott", "8"}},
	}

	require.NoError(t, renderResult(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "#7 Directors with more than five films")
	assert.Contains(t, out, "Ridley Scott")
	assert.Contains(t, out, "8")
}

func TestRenderResult_Warning(t *testing.T) {
	var buf bytes.Buffer
	res := &catalog.Result{ID: 14, Title: "Actor with the most films", Empty: true, Warning: "Neo4j is not connected"}

	require.NoError(t, renderResult(&buf, res))

	assert.Equal(t, "#14 Actor with the most films\n(Neo4j is not connected)\n", buf.String())
}

func TestRenderResult_Path(t *testing.T) {
	var buf bytes.Buffer
	res := &catalog.Result{
		ID:    25,
		Title: "Shortest path",
		Kind:  catalog.KindRecords,
		Label: "2 hops",
		Records: []graph.PathNode{
			{Type: "Actor", Name: "P"},
			{Type: "Film", Name: "Film A"},
			{Type: "Actor", Name: "Q"},
		},
	}

	require.NoError(t, renderResult(&buf, res))

	assert.Equal(t, "#25 Shortest path\n2 hops\n(Actor P) -> (Film Film A) -> (Actor Q)\n", buf.String())
}

func TestRenderCatalog(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, renderCatalog(&buf, catalog.Catalog()))

	out := buf.String()
	assert.Contains(t, out, "29")
	assert.Contains(t, out, catalog.StoreGraph)
	assert.Contains(t, out, "actor2")
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	report := &derive.Report{
		RunID:      "run-1",
		Stages:     []derive.Stage{derive.StageFilms, derive.StageTeam},
		Films:      3,
		TeamFilmID: "A",
	}

	require.NoError(t, renderReport(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "films, team")
	assert.Contains(t, out, "Team film")
}
