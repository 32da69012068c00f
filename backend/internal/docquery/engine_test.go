package docquery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeSource struct {
	movies    []movie.Movie
	err       error
	viewName  string
	viewCalls int
}

func newFakeSource(docs ...map[string]interface{}) *fakeSource {
	src := &fakeSource{}
	for _, d := range docs {
		src.movies = append(src.movies, movie.FromDocument(d))
	}
	return src
}

func (f *fakeSource) Movies(ctx context.Context) ([]movie.Movie, error) {
	return f.movies, f.err
}

func (f *fakeSource) YearCounts(ctx context.Context) ([]movie.YearCount, error) {
	return filmsPerYear(f.movies), f.err
}

func (f *fakeSource) CountAfterYear(ctx context.Context, year int) (int64, error) {
	var n int64
	for _, m := range f.movies {
		if m.HasYear && m.Year > year {
			n++
		}
	}
	return n, f.err
}

func (f *fakeSource) CreateFilterView(ctx context.Context, name string, filter bson.D) (int64, error) {
	f.viewName = name
	f.viewCalls++
	return 1, f.err
}

// scenario is the three-film dataset used across the engine tests
func scenario() *fakeSource {
	return newFakeSource(
		map[string]interface{}{"_id": "A", "title": "Film A", "year": 2000, "genre": "Action,Drama", "Director": "X", "Actors": "P,Q",
			"Runtime (Minutes)": 150, "Revenue (Millions)": 100.0, "Votes": 1000, "Metascore": 70},
		map[string]interface{}{"_id": "B", "title": "Film B", "year": 2000, "genre": "Drama", "Director": "Y", "Actors": "Q,R",
			"Runtime (Minutes)": 90, "Revenue (Millions)": 20.0, "Votes": 3000, "Metascore": 90},
		map[string]interface{}{"_id": "C", "title": "Film C", "year": 2010, "genre": "Comedy", "Director": "X", "Actors": "P",
			"Runtime (Minutes)": "", "Revenue (Millions)": "", "Metascore": 60},
	)
}

func TestEngine_YearWithMostFilms(t *testing.T) {
	e := NewEngine(scenario(), 0)

	best, err := e.YearWithMostFilms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, movie.YearCount{Year: 2000, Count: 2}, best)
}

func TestEngine_YearWithMostFilms_TieGoesToEarlierYear(t *testing.T) {
	e := NewEngine(newFakeSource(
		map[string]interface{}{"year": 2012},
		map[string]interface{}{"year": 2008},
	), 0)

	best, err := e.YearWithMostFilms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2008, best.Year)
}

func TestEngine_EmptyCollection(t *testing.T) {
	e := NewEngine(newFakeSource(), 0)
	ctx := context.Background()

	_, err := e.YearWithMostFilms(ctx)
	assert.True(t, apperrors.IsNoData(err))

	_, err = e.AverageVotes(ctx, 2007)
	assert.True(t, apperrors.IsNoData(err))

	_, err = e.HighestRevenueFilm(ctx)
	assert.True(t, apperrors.IsNoData(err))

	_, err = e.HighestAverageRevenueGenre(ctx)
	assert.True(t, apperrors.IsNoData(err))

	corr, err := e.RuntimeRevenueCorrelation(ctx)
	assert.True(t, apperrors.IsNoData(err))
	assert.Equal(t, Correlation{}, corr)

	pairs, err := e.CommonGenrePairs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestEngine_SourceErrorPropagates(t *testing.T) {
	src := scenario()
	src.err = errors.New("connection refused")
	e := NewEngine(src, 0)

	_, err := e.GenreFrequencies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genre frequencies")
	assert.False(t, apperrors.IsNoData(err))
}

func TestEngine_CountFilmsAfter(t *testing.T) {
	e := NewEngine(scenario(), 0)

	n, err := e.CountFilmsAfter(context.Background(), 1999)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = e.CountFilmsAfter(context.Background(), 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "strictly after")
}

func TestEngine_AverageVotes(t *testing.T) {
	e := NewEngine(scenario(), 0)

	avg, err := e.AverageVotes(context.Background(), 2000)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, avg)

	_, err = e.AverageVotes(context.Background(), 2007)
	assert.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestEngine_GenreExplosion(t *testing.T) {
	e := NewEngine(scenario(), 0)
	ctx := context.Background()

	freq, err := e.GenreFrequencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []GenreCount{
		{Genre: "Drama", Count: 2},
		{Genre: "Action", Count: 1},
		{Genre: "Comedy", Count: 1},
	}, freq)

	genres, err := e.AvailableGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Action", "Comedy", "Drama"}, genres)

	means, err := e.AverageRevenueByGenre(ctx)
	require.NoError(t, err)
	assert.Equal(t, []GenreMean{
		{Genre: "Action", Mean: 100, Films: 1},
		{Genre: "Drama", Mean: 60, Films: 2},
	}, means)

	longest, err := e.LongestFilmByGenre(ctx)
	require.NoError(t, err)
	assert.Equal(t, []GenreFilm{
		{Genre: "Action", Title: "Film A", Runtime: 150},
		{Genre: "Drama", Title: "Film A", Runtime: 150},
	}, longest)
}

func TestEngine_HighestRevenueFilm(t *testing.T) {
	e := NewEngine(scenario(), 0)

	best, err := e.HighestRevenueFilm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Film A", best.Title)
}

func TestEngine_HighestRevenueFilm_TieKeepsCollectionOrder(t *testing.T) {
	e := NewEngine(newFakeSource(
		map[string]interface{}{"title": "First", "Revenue (Millions)": 10.0},
		map[string]interface{}{"title": "Second", "Revenue (Millions)": 10.0},
	), 0)

	best, err := e.HighestRevenueFilm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "First", best.Title)
}

func TestEngine_Directors(t *testing.T) {
	docs := []map[string]interface{}{}
	for i := 0; i < 6; i++ {
		docs = append(docs, map[string]interface{}{"title": fmt.Sprintf("Z%d", i), "Director": "Zed"})
	}
	for i := 0; i < 5; i++ {
		docs = append(docs, map[string]interface{}{"title": fmt.Sprintf("W%d", i), "Director": "Wu"})
	}
	e := NewEngine(newFakeSource(docs...), 0)

	prolific, err := e.DirectorsWithMoreThan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []DirectorCount{{Director: "Zed", Count: 6}}, prolific)

	top, err := NewEngine(scenario(), 0).DirectorWithMostFilms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DirectorCount{Director: "X", Count: 2}, top)
}

func TestEngine_TopRatedByDecade(t *testing.T) {
	e := NewEngine(newFakeSource(
		map[string]interface{}{"title": "a", "year": 2001, "Metascore": 70},
		map[string]interface{}{"title": "b", "year": 2005, "Metascore": 90},
		map[string]interface{}{"title": "c", "year": 2003, "Metascore": 70},
		map[string]interface{}{"title": "d", "year": 2009, "Metascore": 50},
		map[string]interface{}{"title": "e", "year": 1999, "Metascore": 40},
		map[string]interface{}{"title": "f", "year": 2002, "Metascore": ""},
	), 0)

	decades, err := e.TopRatedByDecade(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, decades, 2)

	assert.Equal(t, 1990, decades[0].Decade)
	assert.Equal(t, "1990-1999", decades[0].Label)
	assert.Len(t, decades[0].Films, 1)

	assert.Equal(t, 2000, decades[1].Decade)
	titles := []string{}
	for _, f := range decades[1].Films {
		titles = append(titles, f.Title)
	}
	assert.Equal(t, []string{"b", "a", "c"}, titles, "ties keep collection order")
}

func TestEngine_AverageRuntimeByDecade(t *testing.T) {
	e := NewEngine(newFakeSource(
		map[string]interface{}{"year": 2001, "Runtime (Minutes)": 100},
		map[string]interface{}{"year": 2009, "Runtime (Minutes)": "121"},
		map[string]interface{}{"year": 2004, "Runtime (Minutes)": "n/a"},
		map[string]interface{}{"year": 1995, "Runtime (Minutes)": 90},
		map[string]interface{}{"year": 2015, "Runtime (Minutes)": 130.5},
	), 0)

	means, err := e.AverageRuntimeByDecade(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DecadeMean{
		{Decade: 1990, Label: "1990-1999", Mean: 90, Films: 1},
		{Decade: 2000, Label: "2000-2009", Mean: 110.5, Films: 2},
		{Decade: 2010, Label: "2010-2019", Mean: 130.5, Films: 1},
	}, means)
}

func TestEngine_RuntimeRevenueCorrelation(t *testing.T) {
	runtimes := []int{1, 2, 3, 4, 5}
	revenues := []float64{2, 4, 5, 4, 5}
	var docs []map[string]interface{}
	for i := range runtimes {
		docs = append(docs, map[string]interface{}{
			"title":              fmt.Sprintf("f%d", i),
			"Runtime (Minutes)":  runtimes[i],
			"Revenue (Millions)": revenues[i],
		})
	}
	// Missing revenue is excluded, not treated as zero
	docs = append(docs, map[string]interface{}{"title": "no revenue", "Runtime (Minutes)": 500})
	e := NewEngine(newFakeSource(docs...), 0)

	corr, err := e.RuntimeRevenueCorrelation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, corr.N)
	assert.InDelta(t, 0.7745966692414834, corr.Coefficient, 1e-9)
	assert.InDelta(t, 0.12402706265755459, corr.PValue, 1e-6)
	assert.Len(t, corr.Points, 5)
}

func TestEngine_RuntimeRevenueCorrelation_SinglePoint(t *testing.T) {
	e := NewEngine(newFakeSource(
		map[string]interface{}{"Runtime (Minutes)": 100, "Revenue (Millions)": 5.0},
		map[string]interface{}{"Runtime (Minutes)": 110},
	), 0)

	corr, err := e.RuntimeRevenueCorrelation(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoData)
	assert.Zero(t, corr.Coefficient)
	assert.Zero(t, corr.PValue)
	assert.Nil(t, corr.Points)
}

func TestPearson_TwoPoints(t *testing.T) {
	r, p, ok := pearson([]float64{1, 2}, []float64{3, 1})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)
	assert.Equal(t, 1.0, p)
}

func TestEngine_CommonGenrePairs(t *testing.T) {
	e := NewEngine(scenario(), 0)

	pairs, err := e.CommonGenrePairs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []FilmPair{{First: "Film A", Second: "Film B", CommonGenres: []string{"Drama"}}}, pairs)
}

func TestEngine_CommonGenrePairs_Capped(t *testing.T) {
	var docs []map[string]interface{}
	for i := 0; i < 30; i++ {
		docs = append(docs, map[string]interface{}{
			"title":    fmt.Sprintf("f%d", i),
			"genre":    "Drama",
			"Director": fmt.Sprintf("d%d", i),
		})
	}
	e := NewEngine(newFakeSource(docs...), 100)

	pairs, err := e.CommonGenrePairs(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pairs, 100)

	pairs, err = e.CommonGenrePairs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pairs, 10)

	pairs, err = e.CommonGenrePairs(context.Background(), 5000)
	require.NoError(t, err)
	assert.Len(t, pairs, 100, "caller limits never exceed the engine cap")
}

func TestEngine_CreateHighRatedView(t *testing.T) {
	src := scenario()
	e := NewEngine(src, 0)

	for i := 0; i < 2; i++ {
		n, err := e.CreateHighRatedView(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}
	assert.Equal(t, HighRatedViewName, src.viewName)
	assert.Equal(t, 2, src.viewCalls)
}
