package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cinegraph/backend/internal/catalog"
	"cinegraph/backend/internal/derive"
	"cinegraph/backend/internal/graph"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQueries struct {
	id     int
	params catalog.Params
}

func (s *stubQueries) Execute(ctx context.Context, id int, params catalog.Params) *catalog.Result {
	s.id = id
	s.params = params
	return &catalog.Result{ID: id, Kind: catalog.KindScalar, Label: "42 films", Value: 42}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

type stubCounts struct{}

func (stubCounts) Counts(ctx context.Context) (graph.Counts, error) {
	return graph.Counts{Films: 3, Actors: 3, Directors: 2}, nil
}

func newTestRouter(deps routerDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if deps.queries == nil {
		deps.queries = &stubQueries{}
	}
	return newRouter(deps)
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(routerDeps{pingers: map[string]pinger{
		"mongodb": stubPinger{},
		"neo4j":   stubPinger{},
	}})

	w := serve(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint_Degraded(t *testing.T) {
	router := newTestRouter(routerDeps{pingers: map[string]pinger{
		"neo4j": stubPinger{err: errors.New("connection refused")},
	}})

	w := serve(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response struct {
		Status string            `json:"status"`
		Stores map[string]string `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "not connected", response.Stores["mongodb"])
	assert.Equal(t, "connection refused", response.Stores["neo4j"])
}

func TestQueriesEndpoint_ListsCatalog(t *testing.T) {
	w := serve(newTestRouter(routerDeps{}), "GET", "/api/queries", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 30)
}

func TestQueryEndpoint(t *testing.T) {
	queries := &stubQueries{}
	router := newTestRouter(routerDeps{queries: queries})

	w := serve(router, "GET", "/api/queries/25?actor=P&actor2=%20R%20&limit=3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, queries.id)
	assert.Equal(t, catalog.Params{Actor: "P", Actor2: "R", Limit: 3}, queries.params)

	var res catalog.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "42 films", res.Label)
}

func TestQueryEndpoint_CollaborationSorts(t *testing.T) {
	queries := &stubQueries{}
	router := newTestRouter(routerDeps{queries: queries})

	w := serve(router, "GET", "/api/queries/30?sort=votes&collab_sort=director", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.Params{Sort: "votes", CollabSort: "director"}, queries.params)
}

func TestQueryEndpoint_BadRequests(t *testing.T) {
	router := newTestRouter(routerDeps{})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"non-numeric id", "/api/queries/abc", http.StatusBadRequest},
		{"unknown id", "/api/queries/31", http.StatusNotFound},
		{"bad sort", "/api/queries/30?sort=rating", http.StatusBadRequest},
		{"bad collab sort", "/api/queries/30?collab_sort=revenue", http.StatusBadRequest},
		{"bad mode", "/api/queries/29?mode=replace", http.StatusBadRequest},
		{"bad limit", "/api/queries/21?limit=0x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, "GET", tt.path, nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestDeriveEndpoint(t *testing.T) {
	var gotStages []derive.Stage
	var gotTeam []string
	router := newTestRouter(routerDeps{
		derive: func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error) {
			gotStages, gotTeam = stages, team
			return &derive.Report{RunID: "run-1", Stages: stages, Films: 3}, nil
		},
	})

	w := serve(router, "POST", "/api/derive", []byte(`{"stages":["directors","films"],"team_members":["Ana"]}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []derive.Stage{derive.StageFilms, derive.StageDirectors}, gotStages)
	assert.Equal(t, []string{"Ana"}, gotTeam)

	w = serve(router, "POST", "/api/derive", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, derive.AllStages, gotStages)
}

func TestDeriveEndpoint_Errors(t *testing.T) {
	t.Run("stores missing", func(t *testing.T) {
		w := serve(newTestRouter(routerDeps{}), "POST", "/api/derive", []byte(`{}`))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("unknown stage", func(t *testing.T) {
		router := newTestRouter(routerDeps{
			derive: func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error) {
				return &derive.Report{}, nil
			},
		})
		w := serve(router, "POST", "/api/derive", []byte(`{"stages":["genres"]}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("already running", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		router := newTestRouter(routerDeps{
			derive: func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error) {
				close(started)
				<-release
				return &derive.Report{}, nil
			},
		})

		done := make(chan int)
		go func() {
			done <- serve(router, "POST", "/api/derive", []byte(`{}`)).Code
		}()
		<-started

		w := serve(router, "POST", "/api/derive", []byte(`{}`))
		assert.Equal(t, http.StatusConflict, w.Code)

		close(release)
		assert.Equal(t, http.StatusOK, <-done)
	})

	t.Run("stage failure", func(t *testing.T) {
		router := newTestRouter(routerDeps{
			derive: func(ctx context.Context, stages []derive.Stage, team []string) (*derive.Report, error) {
				return &derive.Report{Films: 100}, errors.New("stage actors: write failed")
			},
		})
		w := serve(router, "POST", "/api/derive", []byte(`{}`))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"films":100`)
	})
}

func TestCountsEndpoint(t *testing.T) {
	w := serve(newTestRouter(routerDeps{}), "GET", "/api/graph/counts", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(newTestRouter(routerDeps{counts: stubCounts{}}), "GET", "/api/graph/counts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var counts graph.Counts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, int64(3), counts.Films)
}
