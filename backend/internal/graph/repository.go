package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// Open creates a driver and verifies the server is reachable
func Open(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(apperrors.ErrorTypeGraph, uri, err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(context.Background())
		return nil, apperrors.NewStoreUnavailable(apperrors.ErrorTypeGraph, uri, err)
	}
	return driver, nil
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Named("graph"),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// Ping verifies the server is still reachable
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		target := r.driver.Target()
		return apperrors.NewStoreUnavailable(apperrors.ErrorTypeGraph, target.String(), err)
	}
	return nil
}

// run executes one statement in its own session and hands every record to each
func (r *Repository) run(ctx context.Context, mode neo4j.AccessMode, op, query string, params map[string]interface{}, each func(*neo4j.Record)) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return r.wrap(op, err)
	}
	for result.Next(ctx) {
		if each != nil {
			each(result.Record())
		}
	}
	if err := result.Err(); err != nil {
		return r.wrap(op, err)
	}
	return nil
}

func (r *Repository) read(ctx context.Context, op, query string, params map[string]interface{}, each func(*neo4j.Record)) error {
	return r.run(ctx, neo4j.AccessModeRead, op, query, params, each)
}

func (r *Repository) write(ctx context.Context, op, query string, params map[string]interface{}) error {
	return r.run(ctx, neo4j.AccessModeWrite, op, query, params, nil)
}

// writeTx runs a statement inside a managed write transaction
func (r *Repository) writeTx(ctx context.Context, op, query string, params map[string]interface{}) error {
	return r.writeSteps(ctx, op, statement{query: query, params: params})
}

// statement is one Cypher query with its parameters
type statement struct {
	query  string
	params map[string]interface{}
}

// writeSteps runs the statements in order inside a single write transaction
func (r *Repository) writeSteps(ctx context.Context, op string, steps ...statement) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		for _, step := range steps {
			result, err := tx.Run(ctx, step.query, step.params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return r.wrap(op, err)
	}
	return nil
}

func (r *Repository) wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewContextCancelled(op, err)
	}
	if neo4j.IsConnectivityError(err) {
		target := r.driver.Target()
		return apperrors.NewStoreUnavailable(apperrors.ErrorTypeGraph, target.String(), err)
	}
	return apperrors.NewQueryFailed(op, err)
}

// ============================================================================
// Derivation Writes
// ============================================================================

// Credit links a film to the people credited on it
type Credit struct {
	FilmID string
	Names  []string
}

func creditParams(credits []Credit) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(credits))
	for _, c := range credits {
		out = append(out, map[string]interface{}{"film": c.FilmID, "names": c.Names})
	}
	return out
}

// EnsureConstraints creates the uniqueness constraints on Film.id, Actor.name and Director.name
func (r *Repository) EnsureConstraints(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT film_id IF NOT EXISTS FOR (f:Film) REQUIRE f.id IS UNIQUE",
		"CREATE CONSTRAINT actor_name IF NOT EXISTS FOR (a:Actor) REQUIRE a.name IS UNIQUE",
		"CREATE CONSTRAINT director_name IF NOT EXISTS FOR (d:Director) REQUIRE d.name IS UNIQUE",
	}
	for _, c := range constraints {
		if err := r.write(ctx, "ensure constraints", c, nil); err != nil {
			return err
		}
	}
	r.logger.Debug("Constraints ensured")
	return nil
}

// UpsertFilms merges one batch of Film nodes in a single transaction
func (r *Repository) UpsertFilms(ctx context.Context, films []FilmNode) error {
	if len(films) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(films))
	for _, f := range films {
		rows = append(rows, f.params())
	}

	query := `
		UNWIND $films AS film
		MERGE (f:Film {id: film.id})
		SET f.title = film.title,
		    f.year = film.year,
		    f.votes = film.votes,
		    f.revenue = film.revenue,
		    f.rating = film.rating,
		    f.genres = film.genres
	`
	return r.writeTx(ctx, "upsert films", query, map[string]interface{}{"films": rows})
}

// LinkActors merges Actor nodes and their PLAYS_IN edges for a batch of films
func (r *Repository) LinkActors(ctx context.Context, credits []Credit) error {
	if len(credits) == 0 {
		return nil
	}
	query := `
		UNWIND $credits AS credit
		MATCH (f:Film {id: credit.film})
		UNWIND credit.names AS name
		MERGE (a:Actor {name: name})
		MERGE (a)-[:PLAYS_IN]->(f)
	`
	return r.writeTx(ctx, "link actors", query, map[string]interface{}{"credits": creditParams(credits)})
}

// LinkDirectors merges Director nodes and their DIRECTED edges for a batch of films
func (r *Repository) LinkDirectors(ctx context.Context, credits []Credit) error {
	if len(credits) == 0 {
		return nil
	}
	query := `
		UNWIND $credits AS credit
		MATCH (f:Film {id: credit.film})
		UNWIND credit.names AS name
		MERGE (d:Director {name: name})
		MERGE (d)-[:DIRECTED]->(f)
	`
	return r.writeTx(ctx, "link directors", query, map[string]interface{}{"credits": creditParams(credits)})
}

// FirstFilmID returns the smallest Film id, or ErrNoData on an empty graph
func (r *Repository) FirstFilmID(ctx context.Context) (string, error) {
	var id string
	err := r.read(ctx, "first film", `
		MATCH (f:Film)
		RETURN f.id AS id
		ORDER BY f.id
		LIMIT 1
	`, nil, func(record *neo4j.Record) {
		id = getStringFromRecord(record, "id")
	})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", apperrors.ErrNoData
	}
	return id, nil
}

// AttachTeamMembers merges flagged Actor nodes playing in filmID.
// An existing actor with the same name is linked but not re-flagged.
func (r *Repository) AttachTeamMembers(ctx context.Context, filmID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	query := `
		MATCH (f:Film {id: $filmID})
		UNWIND $names AS name
		MERGE (a:Actor {name: name})
		ON CREATE SET a.is_team_member = true
		MERGE (a)-[:PLAYS_IN]->(f)
	`
	if err := r.writeTx(ctx, "attach team members", query, map[string]interface{}{
		"filmID": filmID,
		"names":  names,
	}); err != nil {
		return err
	}

	r.logger.Info("Team members attached",
		zap.String("film_id", filmID),
		zap.Strings("names", names),
	)
	return nil
}

// Counts returns node and relationship totals
func (r *Repository) Counts(ctx context.Context) (Counts, error) {
	query := `
		OPTIONAL MATCH (f:Film) WITH count(f) AS films
		OPTIONAL MATCH (a:Actor) WITH films, count(a) AS actors
		OPTIONAL MATCH (d:Director) WITH films, actors, count(d) AS directors
		OPTIONAL MATCH ()-[p:PLAYS_IN]->() WITH films, actors, directors, count(p) AS plays_in
		OPTIONAL MATCH ()-[dr:DIRECTED]->() WITH films, actors, directors, plays_in, count(dr) AS directed
		OPTIONAL MATCH ()-[i:INFLUENCED_BY]->() WITH films, actors, directors, plays_in, directed, count(i) AS influenced_by
		OPTIONAL MATCH ()-[c:COMPETES_WITH]->()
		RETURN films, actors, directors, plays_in, directed, influenced_by, count(c) AS competes_with
	`
	var counts Counts
	err := r.read(ctx, "counts", query, nil, func(record *neo4j.Record) {
		counts = Counts{
			Films:        getInt64FromRecord(record, "films"),
			Actors:       getInt64FromRecord(record, "actors"),
			Directors:    getInt64FromRecord(record, "directors"),
			PlaysIn:      getInt64FromRecord(record, "plays_in"),
			Directed:     getInt64FromRecord(record, "directed"),
			InfluencedBy: getInt64FromRecord(record, "influenced_by"),
			CompetesWith: getInt64FromRecord(record, "competes_with"),
		}
	})
	if err != nil {
		return Counts{}, fmt.Errorf("graph counts: %w", err)
	}
	return counts, nil
}

// Reset detaches and deletes every Film, Actor, Director and Genre node and returns
// how many were removed. Constraints are kept.
func (r *Repository) Reset(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.run(ctx, neo4j.AccessModeWrite, "reset graph", `
		MATCH (n)
		WHERE n:Film OR n:Actor OR n:Director OR n:Genre
		DETACH DELETE n
		RETURN count(n) AS deleted
	`, nil, func(record *neo4j.Record) {
		deleted = getInt64FromRecord(record, "deleted")
	})
	if err != nil {
		return 0, err
	}
	r.logger.Warn("Graph reset", zap.Int64("deleted_nodes", deleted))
	return deleted, nil
}
