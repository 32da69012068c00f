// Package derive builds the film graph from the films collection.
//
// The build runs in stages (constraints, films, actors, directors, team). Every stage
// merges by key, so any stage can be re-run on its own and a failed run can simply be
// repeated: batches committed before the failure stay in place.
package derive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinegraph/backend/internal/graph"
	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage names one step of the build
type Stage string

const (
	StageConstraints Stage = "constraints"
	StageFilms       Stage = "films"
	StageActors      Stage = "actors"
	StageDirectors   Stage = "directors"
	StageTeam        Stage = "team"
)

// AllStages is every stage in dependency order
var AllStages = []Stage{StageConstraints, StageFilms, StageActors, StageDirectors, StageTeam}

// DefaultBatchSize is the number of films per write transaction
const DefaultBatchSize = 100

// ParseStages validates stage names and returns them in dependency order.
// An empty list means every stage.
func ParseStages(names []string) ([]Stage, error) {
	if len(names) == 0 {
		return AllStages, nil
	}
	wanted := make(map[Stage]bool, len(names))
	for _, n := range names {
		s := Stage(strings.ToLower(strings.TrimSpace(n)))
		if s == "" {
			continue
		}
		if !isStage(s) {
			return nil, fmt.Errorf("unknown stage %q", n)
		}
		wanted[s] = true
	}
	if len(wanted) == 0 {
		return AllStages, nil
	}
	ordered := make([]Stage, 0, len(wanted))
	for _, s := range AllStages {
		if wanted[s] {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

func isStage(s Stage) bool {
	for _, known := range AllStages {
		if s == known {
			return true
		}
	}
	return false
}

// MovieSource provides the normalized films collection
type MovieSource interface {
	Movies(ctx context.Context) ([]movie.Movie, error)
}

// GraphSink receives the merge writes
type GraphSink interface {
	EnsureConstraints(ctx context.Context) error
	UpsertFilms(ctx context.Context, films []graph.FilmNode) error
	LinkActors(ctx context.Context, credits []graph.Credit) error
	LinkDirectors(ctx context.Context, credits []graph.Credit) error
	FirstFilmID(ctx context.Context) (string, error)
	AttachTeamMembers(ctx context.Context, filmID string, names []string) error
}

// Options configures a Builder
type Options struct {
	BatchSize   int
	TeamMembers []string
}

// Report summarizes one build run
type Report struct {
	RunID         string        `json:"run_id"`
	Stages        []Stage       `json:"stages"`
	Films         int           `json:"films"`
	SkippedFilms  int           `json:"skipped_films"`
	Batches       int           `json:"batches"`
	ActorLinks    int           `json:"actor_links"`
	DirectorLinks int           `json:"director_links"`
	TeamFilmID    string        `json:"team_film_id,omitempty"`
	TeamMembers   int           `json:"team_members"`
	Duration      time.Duration `json:"duration"`
}

// Builder runs derivation stages
type Builder struct {
	source    MovieSource
	sink      GraphSink
	batchSize int
	team      []string
	logger    *zap.Logger
}

// NewBuilder creates a builder reading from source and writing to sink
func NewBuilder(source MovieSource, sink GraphSink, opts Options) *Builder {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Builder{
		source:    source,
		sink:      sink,
		batchSize: batchSize,
		team:      movie.SplitList(strings.Join(opts.TeamMembers, ",")),
		logger:    logger.Named("derive"),
	}
}

// Run executes the given stages (all of them when none are given) in dependency order
func (b *Builder) Run(ctx context.Context, stages ...Stage) (*Report, error) {
	if len(stages) == 0 {
		stages = AllStages
	}
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	ordered, err := ParseStages(names)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Stages: ordered}
	log := b.logger.With(zap.String("run_id", report.RunID))
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log.Info("Derivation started", zap.Any("stages", ordered))

	var movies []movie.Movie
	for _, s := range ordered {
		if s == StageFilms || s == StageActors || s == StageDirectors {
			movies, err = b.source.Movies(ctx)
			if err != nil {
				return report, fmt.Errorf("load films: %w", err)
			}
			movies = withIDs(movies, report)
			break
		}
	}

	for _, s := range ordered {
		stageStart := time.Now()
		if err := b.runStage(ctx, s, movies, report, log); err != nil {
			log.Error("Derivation stage failed", zap.String("stage", string(s)), zap.Error(err))
			return report, fmt.Errorf("stage %s: %w", s, err)
		}
		log.Info("Derivation stage finished",
			zap.String("stage", string(s)),
			zap.Duration("took", time.Since(stageStart)),
		)
	}

	log.Info("Derivation finished",
		zap.Int("films", report.Films),
		zap.Int("actor_links", report.ActorLinks),
		zap.Int("director_links", report.DirectorLinks),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// withIDs drops records that cannot be keyed as a Film
func withIDs(movies []movie.Movie, report *Report) []movie.Movie {
	out := movies[:0:0]
	for _, m := range movies {
		if m.ID == "" {
			report.SkippedFilms++
			continue
		}
		out = append(out, m)
	}
	return out
}

func (b *Builder) runStage(ctx context.Context, s Stage, movies []movie.Movie, report *Report, log *zap.Logger) error {
	switch s {
	case StageConstraints:
		return b.sink.EnsureConstraints(ctx)
	case StageFilms:
		return b.films(ctx, movies, report, log)
	case StageActors:
		return b.credits(ctx, movies, func(m movie.Movie) []string { return m.Actors },
			b.sink.LinkActors, &report.ActorLinks, string(s), log)
	case StageDirectors:
		return b.credits(ctx, movies, func(m movie.Movie) []string {
			if m.Director == "" {
				return nil
			}
			return []string{m.Director}
		}, b.sink.LinkDirectors, &report.DirectorLinks, string(s), log)
	case StageTeam:
		return b.teamMembers(ctx, report, log)
	}
	return fmt.Errorf("unknown stage %q", s)
}

// batches calls fn for consecutive slices of at most size items, stopping on
// cancellation or the first error
func batches[T any](ctx context.Context, items []T, size int, fn func(batch []T, n int) error) error {
	for start, n := 0, 1; start < len(items); start, n = start+size, n+1 {
		if err := ctx.Err(); err != nil {
			return apperrors.NewContextCancelled("derive", err)
		}
		end := min(start+size, len(items))
		if err := fn(items[start:end], n); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) films(ctx context.Context, movies []movie.Movie, report *Report, log *zap.Logger) error {
	return batches(ctx, movies, b.batchSize, func(batch []movie.Movie, n int) error {
		nodes := make([]graph.FilmNode, 0, len(batch))
		for _, m := range batch {
			nodes = append(nodes, graph.NewFilmNode(m))
		}
		if err := b.sink.UpsertFilms(ctx, nodes); err != nil {
			return fmt.Errorf("film batch %d: %w", n, err)
		}
		report.Films += len(nodes)
		report.Batches++
		log.Info("Film batch committed",
			zap.Int("batch", n),
			zap.Int("films", report.Films),
			zap.Int("total", len(movies)),
		)
		return nil
	})
}

func (b *Builder) credits(ctx context.Context, movies []movie.Movie, names func(movie.Movie) []string,
	write func(context.Context, []graph.Credit) error, counter *int, stage string, log *zap.Logger) error {
	credits := make([]graph.Credit, 0, len(movies))
	for _, m := range movies {
		if people := names(m); len(people) > 0 {
			credits = append(credits, graph.Credit{FilmID: m.ID, Names: people})
		}
	}

	return batches(ctx, credits, b.batchSize, func(batch []graph.Credit, n int) error {
		if err := write(ctx, batch); err != nil {
			return fmt.Errorf("%s batch %d: %w", stage, n, err)
		}
		for _, c := range batch {
			*counter += len(c.Names)
		}
		log.Debug("Credit batch committed", zap.String("stage", stage), zap.Int("batch", n))
		return nil
	})
}

// teamMembers attaches the configured team to the film with the smallest id
func (b *Builder) teamMembers(ctx context.Context, report *Report, log *zap.Logger) error {
	if len(b.team) == 0 {
		log.Info("No team members configured, skipping")
		return nil
	}
	filmID, err := b.sink.FirstFilmID(ctx)
	if apperrors.IsNoData(err) {
		log.Warn("No films in graph, team members not attached")
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.sink.AttachTeamMembers(ctx, filmID, b.team); err != nil {
		return err
	}
	report.TeamFilmID = filmID
	report.TeamMembers = len(b.team)
	return nil
}
