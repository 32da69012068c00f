package graph

import (
	"context"
	"sort"

	apperrors "cinegraph/backend/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// People
// ============================================================================

func (r *Repository) topNameCount(ctx context.Context, op, query string) (NameCount, error) {
	var top NameCount
	found := false
	err := r.read(ctx, op, query, nil, func(record *neo4j.Record) {
		top = NameCount{
			Name:  getStringFromRecord(record, "name"),
			Count: getInt64FromRecord(record, "count"),
		}
		found = true
	})
	if err != nil {
		return NameCount{}, err
	}
	if !found {
		return NameCount{}, apperrors.ErrNoData
	}
	return top, nil
}

// ActorWithMostFilms returns the actor credited on the most films; ties go to the lesser name
func (r *Repository) ActorWithMostFilms(ctx context.Context) (NameCount, error) {
	return r.topNameCount(ctx, "actor with most films", `
		MATCH (a:Actor)-[:PLAYS_IN]->(f:Film)
		WITH a, count(f) AS count
		RETURN a.name AS name, count
		ORDER BY count DESC, name ASC
		LIMIT 1
	`)
}

// DirectorWithMostFilms returns the director credited on the most films
func (r *Repository) DirectorWithMostFilms(ctx context.Context) (NameCount, error) {
	return r.topNameCount(ctx, "director with most films", `
		MATCH (d:Director)-[:DIRECTED]->(f:Film)
		WITH d, count(f) AS count
		RETURN d.name AS name, count
		ORDER BY count DESC, name ASC
		LIMIT 1
	`)
}

// DirectorWithMostActors returns the director who worked with the most distinct actors
func (r *Repository) DirectorWithMostActors(ctx context.Context) (NameCount, error) {
	return r.topNameCount(ctx, "director with most actors", `
		MATCH (d:Director)-[:DIRECTED]->(:Film)<-[:PLAYS_IN]-(a:Actor)
		WITH d, count(DISTINCT a) AS count
		RETURN d.name AS name, count
		ORDER BY count DESC, name ASC
		LIMIT 1
	`)
}

// CoActors lists everyone who shared a film with the named actor, by name
func (r *Repository) CoActors(ctx context.Context, name string) ([]CoActor, error) {
	query := `
		MATCH (a:Actor {name: $name})-[:PLAYS_IN]->(f:Film)<-[:PLAYS_IN]-(other:Actor)
		WHERE other.name <> $name
		WITH other, collect(DISTINCT f.title) AS films
		RETURN other.name AS name, films
		ORDER BY name
	`
	coActors := []CoActor{}
	err := r.read(ctx, "co-actors", query, map[string]interface{}{"name": name}, func(record *neo4j.Record) {
		coActors = append(coActors, CoActor{
			Name:  getStringFromRecord(record, "name"),
			Films: getStringSliceFromRecord(record, "films"),
		})
	})
	return coActors, err
}

func (r *Repository) topRevenue(ctx context.Context, op, query string) (NameValue, error) {
	var top NameValue
	found := false
	err := r.read(ctx, op, query, nil, func(record *neo4j.Record) {
		top = NameValue{
			Name:  getStringFromRecord(record, "name"),
			Value: getFloat64FromRecord(record, "total"),
		}
		found = true
	})
	if err != nil {
		return NameValue{}, err
	}
	if !found {
		return NameValue{}, apperrors.ErrNoData
	}
	return top, nil
}

// ActorWithHighestRevenue sums film revenue per actor, ignoring films without revenue
func (r *Repository) ActorWithHighestRevenue(ctx context.Context) (NameValue, error) {
	return r.topRevenue(ctx, "actor with highest revenue", `
		MATCH (a:Actor)-[:PLAYS_IN]->(f:Film)
		WHERE f.revenue IS NOT NULL
		WITH a, sum(f.revenue) AS total
		RETURN a.name AS name, total
		ORDER BY total DESC, name ASC
		LIMIT 1
	`)
}

// DirectorWithHighestRevenue sums film revenue per director
func (r *Repository) DirectorWithHighestRevenue(ctx context.Context) (NameValue, error) {
	return r.topRevenue(ctx, "director with highest revenue", `
		MATCH (d:Director)-[:DIRECTED]->(f:Film)
		WHERE f.revenue IS NOT NULL
		WITH d, sum(f.revenue) AS total
		RETURN d.name AS name, total
		ORDER BY total DESC, name ASC
		LIMIT 1
	`)
}

// ActorsWithMostDirectors ranks actors by the number of distinct directors they worked with
func (r *Repository) ActorsWithMostDirectors(ctx context.Context, limit int) ([]ActorDirectors, error) {
	query := `
		MATCH (a:Actor)-[:PLAYS_IN]->(:Film)<-[:DIRECTED]-(d:Director)
		WITH a, collect(DISTINCT d.name) AS directors
		RETURN a.name AS actor, size(directors) AS count, directors
		ORDER BY count DESC, actor ASC
		LIMIT $limit
	`
	out := []ActorDirectors{}
	err := r.read(ctx, "actors with most directors", query, map[string]interface{}{"limit": limit}, func(record *neo4j.Record) {
		out = append(out, ActorDirectors{
			Actor:     getStringFromRecord(record, "actor"),
			Count:     getInt64FromRecord(record, "count"),
			Directors: getStringSliceFromRecord(record, "directors"),
		})
	})
	return out, err
}

// ============================================================================
// Films
// ============================================================================

// AverageVotes averages Film.votes over films that have it
func (r *Repository) AverageVotes(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.read(ctx, "average votes", `
		MATCH (f:Film)
		WHERE f.votes IS NOT NULL
		RETURN avg(f.votes) AS avg_votes
	`, nil, func(record *neo4j.Record) {
		avg = getOptionalFloat64FromRecord(record, "avg_votes")
	})
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, apperrors.ErrNoData
	}
	return *avg, nil
}

// MostRepresentedGenre counts films per genre through Genre nodes when the graph has
// them, and otherwise through the Film genres list.
func (r *Repository) MostRepresentedGenre(ctx context.Context) (GenreCount, error) {
	queries := []struct {
		source string
		query  string
	}{
		{GenreSourceNodes, `
			MATCH (g:Genre)<-[:IN_GENRE]-(f:Film)
			WITH g, count(f) AS count
			RETURN g.name AS genre, count
			ORDER BY count DESC, genre ASC
			LIMIT 1
		`},
		{GenreSourceProperty, `
			MATCH (f:Film)
			WHERE f.genres IS NOT NULL
			UNWIND f.genres AS genre
			WITH genre, count(DISTINCT f) AS count
			RETURN genre, count
			ORDER BY count DESC, genre ASC
			LIMIT 1
		`},
	}

	for _, q := range queries {
		var top GenreCount
		found := false
		err := r.read(ctx, "most represented genre", q.query, nil, func(record *neo4j.Record) {
			top = GenreCount{
				Genre:  getStringFromRecord(record, "genre"),
				Count:  getInt64FromRecord(record, "count"),
				Source: q.source,
			}
			found = true
		})
		if err != nil {
			return GenreCount{}, err
		}
		if found {
			return top, nil
		}
		r.logger.Debug("No genre answer, trying next model", zap.String("source", q.source))
	}
	return GenreCount{}, apperrors.ErrNoData
}

// CoStarFilms lists films of the named actor's co-stars that the actor is not in,
// newest first
func (r *Repository) CoStarFilms(ctx context.Context, name string) ([]FilmRef, error) {
	query := `
		MATCH (you:Actor {name: $name})-[:PLAYS_IN]->(:Film)<-[:PLAYS_IN]-(costar:Actor)-[:PLAYS_IN]->(f:Film)
		WHERE costar <> you AND NOT (you)-[:PLAYS_IN]->(f)
		RETURN DISTINCT f.title AS title, f.year AS year
		ORDER BY year DESC, title ASC
	`
	films := []FilmRef{}
	err := r.read(ctx, "co-star films", query, map[string]interface{}{"name": name}, func(record *neo4j.Record) {
		films = append(films, FilmRef{
			Title: getStringFromRecord(record, "title"),
			Year:  getInt64FromRecord(record, "year"),
		})
	})
	return films, err
}

// MostConnectedFilms ranks film pairs by the number of actors they share
func (r *Repository) MostConnectedFilms(ctx context.Context, limit int) ([]ConnectedFilms, error) {
	query := `
		MATCH (f1:Film)<-[:PLAYS_IN]-(a:Actor)-[:PLAYS_IN]->(f2:Film)
		WHERE f1.id < f2.id
		WITH f1, f2, collect(a.name) AS actors
		RETURN f1.title AS first, f2.title AS second, size(actors) AS shared, actors
		ORDER BY shared DESC, first ASC, second ASC
		LIMIT $limit
	`
	pairs := []ConnectedFilms{}
	err := r.read(ctx, "most connected films", query, map[string]interface{}{"limit": limit}, func(record *neo4j.Record) {
		pairs = append(pairs, ConnectedFilms{
			First:  getStringFromRecord(record, "first"),
			Second: getStringFromRecord(record, "second"),
			Shared: getInt64FromRecord(record, "shared"),
			Actors: getStringSliceFromRecord(record, "actors"),
		})
	})
	return pairs, err
}

// ============================================================================
// Recommendations
// ============================================================================

func recommendationFromRecord(record *neo4j.Record) Recommendation {
	return Recommendation{
		Title:   getStringFromRecord(record, "title"),
		Year:    getInt64FromRecord(record, "year"),
		Rating:  getOptionalFloat64FromRecord(record, "rating"),
		Votes:   getOptionalInt64FromRecord(record, "votes"),
		CoStars: getInt64FromRecord(record, "co_stars"),
	}
}

// RecommendByRating suggests the best rated films the actor has not played in.
// Unknown actors get no recommendations.
func (r *Repository) RecommendByRating(ctx context.Context, actor string, limit int) ([]Recommendation, error) {
	query := `
		MATCH (a:Actor {name: $actor})
		OPTIONAL MATCH (a)-[:PLAYS_IN]->(own:Film)
		WITH collect(own.id) AS seen
		MATCH (f:Film)
		WHERE NOT f.id IN seen
		RETURN f.title AS title, f.year AS year, f.rating AS rating, f.votes AS votes
		ORDER BY coalesce(f.rating, -1.0) DESC, coalesce(f.votes, -1) DESC, title ASC
		LIMIT $limit
	`
	recs := []Recommendation{}
	err := r.read(ctx, "recommend by rating", query, map[string]interface{}{
		"actor": actor,
		"limit": limit,
	}, func(record *neo4j.Record) {
		recs = append(recs, recommendationFromRecord(record))
	})
	return recs, err
}

// RecommendByCoStars suggests films featuring the most of the actor's co-stars
func (r *Repository) RecommendByCoStars(ctx context.Context, actor string, limit int) ([]Recommendation, error) {
	query := `
		MATCH (a:Actor {name: $actor})-[:PLAYS_IN]->(:Film)<-[:PLAYS_IN]-(costar:Actor)
		WHERE costar <> a
		MATCH (costar)-[:PLAYS_IN]->(f:Film)
		WHERE NOT (a)-[:PLAYS_IN]->(f)
		WITH f, count(DISTINCT costar) AS co_stars
		RETURN f.title AS title, f.year AS year, f.rating AS rating, f.votes AS votes, co_stars
		ORDER BY co_stars DESC, coalesce(f.votes, -1) DESC, title ASC
		LIMIT $limit
	`
	recs := []Recommendation{}
	err := r.read(ctx, "recommend by co-stars", query, map[string]interface{}{
		"actor": actor,
		"limit": limit,
	}, func(record *neo4j.Record) {
		recs = append(recs, recommendationFromRecord(record))
	})
	return recs, err
}

// ============================================================================
// Paths and Communities
// ============================================================================

// ShortestPath finds the shortest chain between two actors, first over acting and
// directing edges only (up to 10 hops), then over any edge (up to 6 hops).
// No path is an empty slice, not an error.
func (r *Repository) ShortestPath(ctx context.Context, from, to string) ([]PathNode, error) {
	if from == to {
		return []PathNode{}, nil
	}
	attempts := []string{
		`MATCH path = shortestPath((a1:Actor {name: $from})-[:PLAYS_IN|DIRECTED*..10]-(a2:Actor {name: $to}))
		 RETURN path`,
		`MATCH path = shortestPath((a1:Actor {name: $from})-[*..6]-(a2:Actor {name: $to}))
		 RETURN path`,
	}
	params := map[string]interface{}{"from": from, "to": to}

	for i, query := range attempts {
		var nodes []PathNode
		err := r.read(ctx, "shortest path", query, params, func(record *neo4j.Record) {
			raw, _ := record.Get("path")
			if path, ok := raw.(neo4j.Path); ok && nodes == nil {
				nodes = decodePath(path)
			}
		})
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			if i > 0 {
				r.logger.Debug("Shortest path found with relaxed traversal",
					zap.String("from", from),
					zap.String("to", to),
				)
			}
			return nodes, nil
		}
	}
	return []PathNode{}, nil
}

// FilmCasts returns every film with at least minCast actors
func (r *Repository) FilmCasts(ctx context.Context, minCast int) ([]FilmCast, error) {
	query := `
		MATCH (f:Film)<-[:PLAYS_IN]-(a:Actor)
		WITH f, collect(a.name) AS actors
		WHERE size(actors) >= $minCast
		RETURN f.title AS film, actors
	`
	casts := []FilmCast{}
	err := r.read(ctx, "film casts", query, map[string]interface{}{"minCast": minCast}, func(record *neo4j.Record) {
		casts = append(casts, FilmCast{
			Film:   getStringFromRecord(record, "film"),
			Actors: getStringSliceFromRecord(record, "actors"),
		})
	})
	return casts, err
}

// ActorCommunities groups actors that form the whole cast of the same films
func (r *Repository) ActorCommunities(ctx context.Context, maxCommunities int) ([]Community, CommunityGraph, error) {
	casts, err := r.FilmCasts(ctx, MinCommunityCast)
	if err != nil {
		return nil, CommunityGraph{}, err
	}
	communities, g := BuildCommunities(casts, maxCommunities)
	return communities, g, nil
}

// ============================================================================
// Collaborations
// ============================================================================

// Collaboration sort keys. Revenue and votes apply to the commercial view only,
// director to the raw view only.
const (
	SortByRevenue  = "revenue"
	SortByVotes    = "votes"
	SortByCount    = "count"
	SortByDirector = "director"
)

// Collaborations lists director/actor pairs with at least minFilms shared films
func (r *Repository) Collaborations(ctx context.Context, minFilms int) ([]Collaboration, error) {
	query := `
		MATCH (d:Director)-[:DIRECTED]->(f:Film)<-[:PLAYS_IN]-(a:Actor)
		WITH d, a, collect(f.title) AS films
		WHERE size(films) >= $min
		RETURN d.name AS director, a.name AS actor, size(films) AS count, films
		ORDER BY count DESC, director ASC, actor ASC
	`
	out := []Collaboration{}
	err := r.read(ctx, "collaborations", query, map[string]interface{}{"min": minFilms}, func(record *neo4j.Record) {
		out = append(out, Collaboration{
			Director: getStringFromRecord(record, "director"),
			Actor:    getStringFromRecord(record, "actor"),
			Count:    getInt64FromRecord(record, "count"),
			Films:    getStringSliceFromRecord(record, "films"),
		})
	})
	return out, err
}

// SortCollaborations orders the raw collaboration list. SortByDirector sorts by director
// then actor; anything else sorts by shared film count, descending.
func SortCollaborations(rows []Collaboration, sortBy string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if sortBy != SortByDirector && a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Director != b.Director {
			return a.Director < b.Director
		}
		if a.Actor != b.Actor {
			return a.Actor < b.Actor
		}
		return a.Count > b.Count
	})
}

// CommercialCollaborations averages revenue and votes over each collaboration's films
func (r *Repository) CommercialCollaborations(ctx context.Context, minFilms int, sortBy string) ([]CommercialCollaboration, error) {
	query := `
		MATCH (d:Director)-[:DIRECTED]->(f:Film)<-[:PLAYS_IN]-(a:Actor)
		WITH d, a, collect(f) AS films
		WHERE size(films) >= $min
		UNWIND films AS film
		WITH d, a, size(films) AS count, avg(film.revenue) AS avg_revenue, avg(film.votes) AS avg_votes
		RETURN d.name AS director, a.name AS actor, count, avg_revenue, avg_votes
	`
	out := []CommercialCollaboration{}
	err := r.read(ctx, "commercial collaborations", query, map[string]interface{}{"min": minFilms}, func(record *neo4j.Record) {
		out = append(out, CommercialCollaboration{
			Director:   getStringFromRecord(record, "director"),
			Actor:      getStringFromRecord(record, "actor"),
			Count:      getInt64FromRecord(record, "count"),
			AvgRevenue: getOptionalFloat64FromRecord(record, "avg_revenue"),
			AvgVotes:   getOptionalFloat64FromRecord(record, "avg_votes"),
		})
	})
	if err != nil {
		return nil, err
	}
	SortCommercial(out, sortBy)
	return out, nil
}

// SortCommercial orders collaborations by the chosen key, descending, missing values last.
// Unknown keys sort by revenue.
func SortCommercial(rows []CommercialCollaboration, sortBy string) {
	key := func(c CommercialCollaboration) *float64 {
		switch sortBy {
		case SortByVotes:
			return c.AvgVotes
		case SortByCount:
			n := float64(c.Count)
			return &n
		default:
			return c.AvgRevenue
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key(rows[i]), key(rows[j])
		switch {
		case a == nil && b == nil:
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		if rows[i].Director != rows[j].Director {
			return rows[i].Director < rows[j].Director
		}
		return rows[i].Actor < rows[j].Actor
	})
}
