package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinegraph/backend/internal/docquery"
	"cinegraph/backend/internal/graph"
	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"go.uber.org/zap"
)

// DocumentQueries is the document-side engine used by the catalog
type DocumentQueries interface {
	YearWithMostFilms(ctx context.Context) (movie.YearCount, error)
	CountFilmsAfter(ctx context.Context, year int) (int64, error)
	AverageVotes(ctx context.Context, year int) (float64, error)
	FilmsPerYear(ctx context.Context) ([]movie.YearCount, error)
	AvailableGenres(ctx context.Context) ([]string, error)
	GenreFrequencies(ctx context.Context) ([]docquery.GenreCount, error)
	HighestRevenueFilm(ctx context.Context) (movie.Movie, error)
	DirectorsWithMoreThan(ctx context.Context, min int) ([]docquery.DirectorCount, error)
	DirectorWithMostFilms(ctx context.Context) (docquery.DirectorCount, error)
	AverageRevenueByGenre(ctx context.Context) ([]docquery.GenreMean, error)
	HighestAverageRevenueGenre(ctx context.Context) (docquery.GenreMean, error)
	TopRatedByDecade(ctx context.Context, k int) ([]docquery.DecadeFilms, error)
	LongestFilmByGenre(ctx context.Context) ([]docquery.GenreFilm, error)
	CreateHighRatedView(ctx context.Context) (int64, error)
	RuntimeRevenueCorrelation(ctx context.Context) (docquery.Correlation, error)
	AverageRuntimeByDecade(ctx context.Context) ([]docquery.DecadeMean, error)
	CommonGenrePairs(ctx context.Context, limit int) ([]docquery.FilmPair, error)
}

// GraphQueries is the graph-side repository used by the catalog
type GraphQueries interface {
	ActorWithMostFilms(ctx context.Context) (graph.NameCount, error)
	DirectorWithMostFilms(ctx context.Context) (graph.NameCount, error)
	CoActors(ctx context.Context, name string) ([]graph.CoActor, error)
	ActorWithHighestRevenue(ctx context.Context) (graph.NameValue, error)
	DirectorWithHighestRevenue(ctx context.Context) (graph.NameValue, error)
	AverageVotes(ctx context.Context) (float64, error)
	MostRepresentedGenre(ctx context.Context) (graph.GenreCount, error)
	CoStarFilms(ctx context.Context, name string) ([]graph.FilmRef, error)
	DirectorWithMostActors(ctx context.Context) (graph.NameCount, error)
	MostConnectedFilms(ctx context.Context, limit int) ([]graph.ConnectedFilms, error)
	ActorsWithMostDirectors(ctx context.Context, limit int) ([]graph.ActorDirectors, error)
	RecommendByRating(ctx context.Context, actor string, limit int) ([]graph.Recommendation, error)
	CreateInfluenceRelationships(ctx context.Context) (int, error)
	ShortestPath(ctx context.Context, from, to string) ([]graph.PathNode, error)
	ActorCommunities(ctx context.Context, maxCommunities int) ([]graph.Community, graph.CommunityGraph, error)
	RecommendByCoStars(ctx context.Context, actor string, limit int) ([]graph.Recommendation, error)
	CreateCompetitionRelationships(ctx context.Context, mode string) (int64, error)
	Collaborations(ctx context.Context, minFilms int) ([]graph.Collaboration, error)
	CommercialCollaborations(ctx context.Context, minFilms int, sortBy string) ([]graph.CommercialCollaboration, error)
}

// Params are the user-supplied query arguments; zero values take each query's default
type Params struct {
	Actor  string `json:"actor,omitempty"`
	Actor2 string `json:"actor2,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Min    int    `json:"min,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Role   string `json:"role,omitempty"`

	// CollabSort orders the raw collaboration list of query 30 independently of Sort
	CollabSort string `json:"collab_sort,omitempty"`
}

// Role values for queries 14 and 16
const (
	RoleActor    = "actor"
	RoleDirector = "director"
)

// DefaultActor is the subject of query 15 when no actor is given
const DefaultActor = "Anne Hathaway"

// errMissingParam is reported as a warning, never as a query failure
var errMissingParam = errors.New("missing parameter")

func (p Params) limitOr(def int) int {
	if p.Limit > 0 {
		return p.Limit
	}
	return def
}

func (p Params) minOr(def int) int {
	if p.Min > 0 {
		return p.Min
	}
	return def
}

// Options configures an Executor
type Options struct {
	CompetitionMode string
	Timeout         time.Duration
}

// Executor runs catalog queries against the engines
type Executor struct {
	docs            DocumentQueries
	graph           GraphQueries
	competitionMode string
	timeout         time.Duration
	logger          *zap.Logger
}

// NewExecutor creates an executor. Either engine may be nil when its store could not be
// reached; queries against it then come back empty with a warning.
func NewExecutor(docs DocumentQueries, g GraphQueries, opts Options) *Executor {
	mode := opts.CompetitionMode
	if mode == "" {
		mode = graph.CompetitionAccumulate
	}
	return &Executor{
		docs:            docs,
		graph:           g,
		competitionMode: mode,
		timeout:         opts.Timeout,
		logger:          logger.Named("catalog"),
	}
}

// Execute runs query id and always returns a Result. Failures come back as an empty
// Result whose Warning explains the cause.
func (e *Executor) Execute(ctx context.Context, id int, params Params) *Result {
	entry, ok := Lookup(id)
	if !ok {
		return (&Result{ID: id, Kind: KindScalar}).empty(fmt.Sprintf("unknown query %d", id))
	}
	res := &Result{ID: id, Title: entry.Title, Kind: KindScalar}

	switch {
	case entry.Store == StoreDocuments && e.docs == nil:
		return res.empty("MongoDB is not connected")
	case entry.Store == StoreGraph && e.graph == nil:
		return res.empty("Neo4j is not connected")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if entry.Store == StoreDocuments {
		err = e.runDocument(ctx, id, params, res)
	} else {
		err = e.runGraph(ctx, id, params, res)
	}
	if err != nil {
		return e.degrade(res, err)
	}

	e.logger.Debug("Query executed",
		zap.Int("id", id),
		zap.Bool("empty", res.Empty),
		zap.Duration("took", time.Since(start)),
	)
	return res
}

// degrade turns err into an empty result with a readable warning
func (e *Executor) degrade(res *Result, err error) *Result {
	var warning string
	switch {
	case errors.Is(err, errMissingParam):
		warning = err.Error()
	case apperrors.IsNoData(err):
		warning = "not enough data to answer this query"
	case apperrors.IsConnectivity(err):
		var unavailable *apperrors.ErrStoreUnavailable
		errors.As(err, &unavailable)
		warning = fmt.Sprintf("%s is unavailable", unavailable.Store)
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		warning = "query cancelled or timed out"
	default:
		warning = "query failed, see server logs"
	}

	if apperrors.IsNoData(err) || errors.Is(err, errMissingParam) {
		e.logger.Debug("Query returned no result", zap.Int("id", res.ID), zap.Error(err))
	} else {
		e.logger.Error("Query failed", zap.Int("id", res.ID), zap.Error(err))
	}
	return res.empty(warning)
}
