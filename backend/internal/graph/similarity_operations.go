package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Derived Director Relationships
// ============================================================================

// DirectorFilms loads each director with the films they directed
func (r *Repository) DirectorFilms(ctx context.Context) ([]DirectorFilms, error) {
	query := `
		MATCH (d:Director)-[:DIRECTED]->(f:Film)
		WITH d, f
		ORDER BY f.id
		RETURN d.name AS director,
		       collect({id: f.id, title: f.title, year: f.year, genres: f.genres}) AS films
		ORDER BY director
	`
	directors := []DirectorFilms{}
	err := r.read(ctx, "director films", query, nil, func(record *neo4j.Record) {
		directors = append(directors, directorFilmsFromRecord(record))
	})
	return directors, err
}

// CreateInfluenceRelationships writes INFLUENCED_BY between directors whose genre
// multisets are similar enough. Rewriting an existing edge refreshes its properties,
// so re-running is idempotent. Returns the number of edges written.
func (r *Repository) CreateInfluenceRelationships(ctx context.Context) (int, error) {
	directors, err := r.DirectorFilms(ctx)
	if err != nil {
		return 0, err
	}
	edges := InfluencePairs(directors)
	if len(edges) == 0 {
		r.logger.Info("No director pair reached the influence threshold",
			zap.Int("directors", len(directors)),
		)
		return 0, nil
	}

	rows := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]interface{}{
			"from":          e.From,
			"to":            e.To,
			"similarity":    e.Similarity,
			"common_genres": e.CommonGenres,
		})
	}
	query := `
		UNWIND $edges AS edge
		MATCH (d1:Director {name: edge.from})
		MATCH (d2:Director {name: edge.to})
		MERGE (d1)-[r:INFLUENCED_BY]->(d2)
		SET r.similarity = edge.similarity,
		    r.common_genres = edge.common_genres
	`
	if err := r.writeTx(ctx, "create influence relationships", query, map[string]interface{}{"edges": rows}); err != nil {
		return 0, err
	}

	r.logger.Info("Influence relationships written",
		zap.Int("directors", len(directors)),
		zap.Int("edges", len(edges)),
	)
	return len(edges), nil
}

// CreateCompetitionRelationships writes COMPETES_WITH between directors with same-year,
// genre-sharing films and returns the total number of COMPETES_WITH edges.
//
// In accumulate mode a re-run adds its count and film pairs onto existing edges, so
// counts grow with every run. Rebuild mode deletes every COMPETES_WITH edge in the same
// transaction as the rewrite and is idempotent.
func (r *Repository) CreateCompetitionRelationships(ctx context.Context, mode string) (int64, error) {
	switch mode {
	case "", CompetitionAccumulate:
		mode = CompetitionAccumulate
	case CompetitionRebuild:
	default:
		return 0, fmt.Errorf("unknown competition mode %q", mode)
	}

	directors, err := r.DirectorFilms(ctx)
	if err != nil {
		return 0, err
	}
	edges := CompetitionPairs(directors)

	// Rebuild clears and rewrites in one transaction so a failed write keeps the old edges
	var steps []statement
	if mode == CompetitionRebuild {
		steps = append(steps, statement{query: "MATCH ()-[r:COMPETES_WITH]->() DELETE r"})
	}
	if len(edges) > 0 {
		rows := make([]map[string]interface{}, 0, len(edges))
		for _, e := range edges {
			rows = append(rows, map[string]interface{}{
				"from":       e.From,
				"to":         e.To,
				"count":      e.Count,
				"years":      e.Years,
				"film_pairs": e.FilmPairs,
			})
		}
		steps = append(steps, statement{
			query: `
				UNWIND $edges AS edge
				MATCH (d1:Director {name: edge.from})
				MATCH (d2:Director {name: edge.to})
				MERGE (d1)-[r:COMPETES_WITH]->(d2)
				ON CREATE SET r.count = edge.count,
				              r.years = edge.years,
				              r.film_pairs = edge.film_pairs
				ON MATCH SET r.count = r.count + edge.count,
				             r.years = r.years + [y IN edge.years WHERE NOT y IN r.years],
				             r.film_pairs = r.film_pairs + edge.film_pairs
			`,
			params: map[string]interface{}{"edges": rows},
		})
	}
	if len(steps) > 0 {
		if err := r.writeSteps(ctx, "create competition relationships", steps...); err != nil {
			return 0, err
		}
	}

	var total int64
	err = r.read(ctx, "count competition relationships",
		"MATCH ()-[r:COMPETES_WITH]->() RETURN count(r) AS total", nil,
		func(record *neo4j.Record) {
			total = getInt64FromRecord(record, "total")
		})
	if err != nil {
		return 0, err
	}

	r.logger.Info("Competition relationships written",
		zap.String("mode", mode),
		zap.Int("pairs", len(edges)),
		zap.Int64("total", total),
	)
	return total, nil
}
