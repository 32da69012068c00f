package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The integration tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD to point at it. Every node they create
// carries a per-run prefix and is removed afterwards.

type fixture struct {
	repo   *Repository
	driver neo4j.DriverWithContext
	prefix string
}

func (f *fixture) name(s string) string { return f.prefix + s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not reachable: %v", err)
	}

	f := &fixture{
		repo:   NewRepository(driver),
		driver: driver,
		prefix: "test-" + time.Now().Format("20060102150405.000") + "-",
	}
	t.Cleanup(func() {
		ctx := context.Background()
		session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)
		_, _ = session.Run(ctx, `
			MATCH (n)
			WHERE (n:Film AND n.id STARTS WITH $prefix) OR ((n:Actor OR n:Director) AND n.name STARTS WITH $prefix)
			DETACH DELETE n
		`, map[string]interface{}{"prefix": f.prefix})
		driver.Close(ctx)
	})
	return f
}

// derive loads the three-film scenario through the derivation writes
func (f *fixture) derive(t *testing.T, ctx context.Context) {
	t.Helper()
	docs := []map[string]interface{}{
		{"_id": f.name("A"), "title": f.name("Film A"), "year": 2000, "genre": "Action,Drama", "Director": f.name("X"),
			"Actors": f.name("P") + "," + f.name("Q"), "Revenue (Millions)": 100.0, "Votes": 1000, "rating": 7.5},
		{"_id": f.name("B"), "title": f.name("Film B"), "year": 2000, "genre": "Drama", "Director": f.name("Y"),
			"Actors": f.name("Q") + "," + f.name("R"), "Revenue (Millions)": 20.0, "Votes": 3000, "rating": 6.0},
		{"_id": f.name("C"), "title": f.name("Film C"), "year": 2010, "genre": "Comedy", "Director": f.name("X"),
			"Actors": f.name("P")},
	}

	var films []FilmNode
	var actors, directors []Credit
	for _, d := range docs {
		m := movie.FromDocument(d)
		films = append(films, NewFilmNode(m))
		actors = append(actors, Credit{FilmID: m.ID, Names: m.Actors})
		directors = append(directors, Credit{FilmID: m.ID, Names: []string{m.Director}})
	}

	require.NoError(t, f.repo.EnsureConstraints(ctx))
	require.NoError(t, f.repo.UpsertFilms(ctx, films))
	require.NoError(t, f.repo.LinkActors(ctx, actors))
	require.NoError(t, f.repo.LinkDirectors(ctx, directors))
}

func TestRepository_DerivationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.derive(t, ctx)
	first, err := f.repo.Counts(ctx)
	require.NoError(t, err)

	f.derive(t, ctx)
	second, err := f.repo.Counts(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Films, second.Films)
	assert.Equal(t, first.Actors, second.Actors)
	assert.Equal(t, first.Directors, second.Directors)
	assert.Equal(t, first.PlaysIn, second.PlaysIn)
	assert.Equal(t, first.Directed, second.Directed)
}

func TestRepository_ScenarioQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	coActors, err := f.repo.CoActors(ctx, f.name("P"))
	require.NoError(t, err)
	assert.Equal(t, []CoActor{{Name: f.name("Q"), Films: []string{f.name("Film A")}}}, coActors)

	costarFilms, err := f.repo.CoStarFilms(ctx, f.name("P"))
	require.NoError(t, err)
	assert.Equal(t, []FilmRef{{Title: f.name("Film B"), Year: 2000}}, costarFilms)

	path, err := f.repo.ShortestPath(ctx, f.name("P"), f.name("R"))
	require.NoError(t, err)
	require.Len(t, path, 5)
	assert.Equal(t, PathNode{Type: "Actor", Name: f.name("P")}, path[0])
	assert.Equal(t, PathNode{Type: "Actor", Name: f.name("R")}, path[4])

	same, err := f.repo.ShortestPath(ctx, f.name("P"), f.name("P"))
	require.NoError(t, err)
	assert.Empty(t, same)

	none, err := f.repo.ShortestPath(ctx, f.name("P"), f.name("nobody"))
	require.NoError(t, err)
	assert.Empty(t, none)

	recs, err := f.repo.RecommendByCoStars(ctx, f.name("P"), 5)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, f.name("Film B"), recs[0].Title)
	assert.Equal(t, int64(1), recs[0].CoStars)
}

// Aggregates span the whole graph, so only properties that hold whatever else is stored are asserted
func TestRepository_GraphAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	topActor, err := f.repo.ActorWithMostFilms(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, topActor.Count, int64(2))

	topRevenue, err := f.repo.ActorWithHighestRevenue(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, topRevenue.Value, 100.0)

	avg, err := f.repo.AverageVotes(ctx)
	require.NoError(t, err)
	assert.Greater(t, avg, 0.0)

	genre, err := f.repo.MostRepresentedGenre(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, genre.Genre)
	assert.Contains(t, []string{GenreSourceNodes, GenreSourceProperty}, genre.Source)

	director, err := f.repo.DirectorWithMostActors(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, director.Count, int64(2))

	connected, err := f.repo.MostConnectedFilms(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, connected)
	assert.LessOrEqual(t, len(connected), 10)
	for i := 1; i < len(connected); i++ {
		assert.GreaterOrEqual(t, connected[i-1].Shared, connected[i].Shared)
	}

	actors, err := f.repo.ActorsWithMostDirectors(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, actors)
	for i := 1; i < len(actors); i++ {
		assert.GreaterOrEqual(t, actors[i-1].Count, actors[i].Count)
	}

	collabs, err := f.repo.Collaborations(ctx, 2)
	require.NoError(t, err)
	assert.Contains(t, collabs, Collaboration{
		Director: f.name("X"),
		Actor:    f.name("P"),
		Count:    2,
		Films:    collabFilms(collabs, f.name("X"), f.name("P")),
	})
	assert.ElementsMatch(t, []string{f.name("Film A"), f.name("Film C")}, collabFilms(collabs, f.name("X"), f.name("P")))

	commercial, err := f.repo.CommercialCollaborations(ctx, 2, SortByRevenue)
	require.NoError(t, err)
	for _, c := range commercial {
		if c.Director == f.name("X") && c.Actor == f.name("P") {
			require.NotNil(t, c.AvgRevenue)
			assert.InDelta(t, 100.0, *c.AvgRevenue, 1e-9)
			require.NotNil(t, c.AvgVotes)
			assert.InDelta(t, 1000.0, *c.AvgVotes, 1e-9)
		}
	}
}

func collabFilms(collabs []Collaboration, director, actor string) []string {
	for _, c := range collabs {
		if c.Director == director && c.Actor == actor {
			return c.Films
		}
	}
	return nil
}

func TestRepository_DirectorFilmsFeedCompetition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	all, err := f.repo.DirectorFilms(ctx)
	require.NoError(t, err)

	var ours []DirectorFilms
	for _, d := range all {
		if d.Name == f.name("X") || d.Name == f.name("Y") {
			ours = append(ours, d)
		}
	}
	require.Len(t, ours, 2)

	edges := CompetitionPairs(ours)
	require.Len(t, edges, 1)
	assert.Equal(t, f.name("X"), edges[0].From)
	assert.Equal(t, []int64{2000}, edges[0].Years)
}

// edgesBetween returns the properties of every rel edge joining the two directors, either direction
func (f *fixture) edgesBetween(t *testing.T, ctx context.Context, rel, a, b string) []map[string]interface{} {
	t.Helper()
	session := f.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (:Director {name: $a})-[r:`+rel+`]-(:Director {name: $b})
		RETURN properties(r) AS props
	`, map[string]interface{}{"a": a, "b": b})
	require.NoError(t, err)

	var props []map[string]interface{}
	for result.Next(ctx) {
		p, _ := result.Record().Get("props")
		props = append(props, p.(map[string]interface{}))
	}
	require.NoError(t, result.Err())
	return props
}

// Both modes rewrite COMPETES_WITH across the whole graph; rebuild clears edges left by other data
func TestRepository_CompetitionAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	_, err := f.repo.CreateCompetitionRelationships(ctx, CompetitionAccumulate)
	require.NoError(t, err)
	_, err = f.repo.CreateCompetitionRelationships(ctx, CompetitionAccumulate)
	require.NoError(t, err)

	edges := f.edgesBetween(t, ctx, "COMPETES_WITH", f.name("X"), f.name("Y"))
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0]["count"])
	assert.Equal(t, []interface{}{int64(2000)}, edges[0]["years"])
	pair := f.name("Film A") + " vs " + f.name("Film B")
	assert.Equal(t, []interface{}{pair, pair}, edges[0]["film_pairs"])
}

func TestRepository_CompetitionRebuildIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	_, err := f.repo.CreateCompetitionRelationships(ctx, CompetitionAccumulate)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		total, err := f.repo.CreateCompetitionRelationships(ctx, CompetitionRebuild)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, int64(1))

		edges := f.edgesBetween(t, ctx, "COMPETES_WITH", f.name("X"), f.name("Y"))
		require.Len(t, edges, 1)
		assert.Equal(t, int64(1), edges[0]["count"])
		assert.Equal(t, []interface{}{int64(2000)}, edges[0]["years"])
		assert.Len(t, edges[0]["film_pairs"], 1)
	}

	_, err = f.repo.CreateCompetitionRelationships(ctx, "replace")
	assert.Error(t, err)
}

func TestRepository_InfluenceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	for i := 0; i < 2; i++ {
		written, err := f.repo.CreateInfluenceRelationships(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, written, 1)
	}

	edges := f.edgesBetween(t, ctx, "INFLUENCED_BY", f.name("X"), f.name("Y"))
	require.Len(t, edges, 1)
	assert.InDelta(t, 1.0/3.0, edges[0]["similarity"], 1e-9)
	assert.Equal(t, []interface{}{"Drama"}, edges[0]["common_genres"])
}

func TestRepository_TeamMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.derive(t, ctx)

	team := []string{f.name("Ada"), f.name("P")}
	require.NoError(t, f.repo.AttachTeamMembers(ctx, f.name("C"), team))
	require.NoError(t, f.repo.AttachTeamMembers(ctx, f.name("C"), team))

	coActors, err := f.repo.CoActors(ctx, f.name("Ada"))
	require.NoError(t, err)
	require.Len(t, coActors, 1)
	assert.Equal(t, f.name("P"), coActors[0].Name)
}

func TestRepository_UnknownActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	recs, err := f.repo.RecommendByRating(ctx, f.name("ghost"), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpen_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	_, err := Open(context.Background(), "bolt://127.0.0.1:1", "neo4j", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsConnectivity(err))
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "Neo4j123")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return Open(ctx, uri, user, password)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
