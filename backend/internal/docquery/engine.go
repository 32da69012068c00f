// Package docquery answers the analytical questions asked of the films collection.
package docquery

import (
	"context"
	"fmt"

	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// High-rated, high-revenue view definition
const (
	HighRatedViewName   = "high_rated_high_revenue"
	HighRatedMinScore   = 80
	HighRatedMinRevenue = 50
)

// DefaultPairLimit caps CommonGenrePairs
const DefaultPairLimit = 100

// Source is the document store as seen by the engine
type Source interface {
	Movies(ctx context.Context) ([]movie.Movie, error)
	YearCounts(ctx context.Context) ([]movie.YearCount, error)
	CountAfterYear(ctx context.Context, year int) (int64, error)
	CreateFilterView(ctx context.Context, name string, filter bson.D) (int64, error)
}

// Engine runs document-side queries
type Engine struct {
	source    Source
	pairLimit int
	logger    *zap.Logger
}

// NewEngine creates an engine over source. pairLimit <= 0 uses DefaultPairLimit.
func NewEngine(source Source, pairLimit int) *Engine {
	if pairLimit <= 0 {
		pairLimit = DefaultPairLimit
	}
	return &Engine{
		source:    source,
		pairLimit: pairLimit,
		logger:    logger.Named("docquery"),
	}
}

func (e *Engine) movies(ctx context.Context, op string) (Films, error) {
	movies, err := e.source.Movies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return movies, nil
}

// YearWithMostFilms returns the year with the most releases
func (e *Engine) YearWithMostFilms(ctx context.Context) (movie.YearCount, error) {
	counts, err := e.source.YearCounts(ctx)
	if err != nil {
		return movie.YearCount{}, fmt.Errorf("year with most films: %w", err)
	}
	best, ok := topYear(counts)
	if !ok {
		return movie.YearCount{}, apperrors.ErrNoData
	}
	return best, nil
}

// CountFilmsAfter counts films released strictly after year
func (e *Engine) CountFilmsAfter(ctx context.Context, year int) (int64, error) {
	count, err := e.source.CountAfterYear(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("count films after %d: %w", year, err)
	}
	return count, nil
}

// AverageVotes returns the mean vote count of films released in year
func (e *Engine) AverageVotes(ctx context.Context, year int) (float64, error) {
	movies, err := e.movies(ctx, "average votes")
	if err != nil {
		return 0, err
	}
	avg, n := averageVotes(movies, year)
	if n == 0 {
		return 0, apperrors.ErrNoData
	}
	return avg, nil
}

// FilmsPerYear returns the release histogram ordered by year
func (e *Engine) FilmsPerYear(ctx context.Context) ([]movie.YearCount, error) {
	movies, err := e.movies(ctx, "films per year")
	if err != nil {
		return nil, err
	}
	return filmsPerYear(movies), nil
}

// AvailableGenres lists every distinct genre, sorted
func (e *Engine) AvailableGenres(ctx context.Context) ([]string, error) {
	movies, err := e.movies(ctx, "available genres")
	if err != nil {
		return nil, err
	}
	return availableGenres(movies), nil
}

// GenreFrequencies counts films per genre, most frequent first
func (e *Engine) GenreFrequencies(ctx context.Context) ([]GenreCount, error) {
	movies, err := e.movies(ctx, "genre frequencies")
	if err != nil {
		return nil, err
	}
	return genreFrequencies(movies), nil
}

// HighestRevenueFilm returns the top-grossing film
func (e *Engine) HighestRevenueFilm(ctx context.Context) (movie.Movie, error) {
	movies, err := e.movies(ctx, "highest revenue film")
	if err != nil {
		return movie.Movie{}, err
	}
	best, ok := highestRevenue(movies)
	if !ok {
		return movie.Movie{}, apperrors.ErrNoData
	}
	return best, nil
}

// DirectorsWithMoreThan lists directors credited on more than min films
func (e *Engine) DirectorsWithMoreThan(ctx context.Context, min int) ([]DirectorCount, error) {
	movies, err := e.movies(ctx, "prolific directors")
	if err != nil {
		return nil, err
	}
	return directorsWithMoreThan(movies, min), nil
}

// DirectorWithMostFilms returns the director credited on the most films
func (e *Engine) DirectorWithMostFilms(ctx context.Context) (DirectorCount, error) {
	movies, err := e.movies(ctx, "director with most films")
	if err != nil {
		return DirectorCount{}, err
	}
	all := directorsWithMoreThan(movies, 0)
	if len(all) == 0 {
		return DirectorCount{}, apperrors.ErrNoData
	}
	return all[0], nil
}

// AverageRevenueByGenre returns mean revenue per genre, highest first
func (e *Engine) AverageRevenueByGenre(ctx context.Context) ([]GenreMean, error) {
	movies, err := e.movies(ctx, "average revenue by genre")
	if err != nil {
		return nil, err
	}
	return averageRevenueByGenre(movies), nil
}

// HighestAverageRevenueGenre returns the genre with the best mean revenue
func (e *Engine) HighestAverageRevenueGenre(ctx context.Context) (GenreMean, error) {
	means, err := e.AverageRevenueByGenre(ctx)
	if err != nil {
		return GenreMean{}, err
	}
	if len(means) == 0 {
		return GenreMean{}, apperrors.ErrNoData
	}
	return means[0], nil
}

// TopRatedByDecade returns the k best films by metascore for each decade
func (e *Engine) TopRatedByDecade(ctx context.Context, k int) ([]DecadeFilms, error) {
	movies, err := e.movies(ctx, "top rated by decade")
	if err != nil {
		return nil, err
	}
	if k < 1 {
		k = 3
	}
	return topRatedByDecade(movies, k), nil
}

// LongestFilmByGenre returns the longest film of each genre
func (e *Engine) LongestFilmByGenre(ctx context.Context) ([]GenreFilm, error) {
	movies, err := e.movies(ctx, "longest film by genre")
	if err != nil {
		return nil, err
	}
	return longestFilmByGenre(movies), nil
}

// CreateHighRatedView (re)defines the metascore > 80 and revenue > 50 view and
// returns how many films it holds
func (e *Engine) CreateHighRatedView(ctx context.Context) (int64, error) {
	filter := bson.D{
		{Key: movie.FieldMetascore, Value: bson.D{{Key: "$gt", Value: HighRatedMinScore}}},
		{Key: movie.FieldRevenue, Value: bson.D{{Key: "$gt", Value: HighRatedMinRevenue}}},
	}
	count, err := e.source.CreateFilterView(ctx, HighRatedViewName, filter)
	if err != nil {
		return 0, fmt.Errorf("create %s view: %w", HighRatedViewName, err)
	}
	return count, nil
}

// RuntimeRevenueCorrelation correlates runtime with revenue.
// With fewer than two usable films it returns the zero Correlation and ErrNoData.
func (e *Engine) RuntimeRevenueCorrelation(ctx context.Context) (Correlation, error) {
	movies, err := e.movies(ctx, "runtime/revenue correlation")
	if err != nil {
		return Correlation{}, err
	}
	points := runtimeRevenuePoints(movies)
	corr, ok := correlate(points)
	if !ok {
		e.logger.Debug("Not enough data for correlation", zap.Int("points", len(points)))
		return Correlation{}, apperrors.ErrNoData
	}
	return corr, nil
}

// AverageRuntimeByDecade returns the mean runtime per decade, oldest first
func (e *Engine) AverageRuntimeByDecade(ctx context.Context) ([]DecadeMean, error) {
	movies, err := e.movies(ctx, "average runtime by decade")
	if err != nil {
		return nil, err
	}
	return averageRuntimeByDecade(movies), nil
}

// CommonGenrePairs lists film pairs sharing a genre but not a director.
// Cost is quadratic in the collection size; limit <= 0 uses the engine's cap.
func (e *Engine) CommonGenrePairs(ctx context.Context, limit int) ([]FilmPair, error) {
	if limit <= 0 || limit > e.pairLimit {
		limit = e.pairLimit
	}
	movies, err := e.movies(ctx, "common genre pairs")
	if err != nil {
		return nil, err
	}
	if len(movies) > 1000 {
		e.logger.Warn("All-pairs genre comparison over a large collection",
			zap.Int("films", len(movies)),
			zap.Int("limit", limit),
		)
	}
	return commonGenrePairs(movies, limit), nil
}
