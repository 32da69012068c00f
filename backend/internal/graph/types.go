package graph

import "cinegraph/backend/internal/movie"

// ============================================================================
// Node Types
// ============================================================================

// FilmNode is the Film node written during derivation
type FilmNode struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Year    *int64   `json:"year,omitempty"`
	Votes   *int64   `json:"votes,omitempty"`
	Revenue *float64 `json:"revenue,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
	Genres  []string `json:"genres"`
}

// NewFilmNode maps a normalized movie onto its Film node
func NewFilmNode(m movie.Movie) FilmNode {
	f := FilmNode{
		ID:      m.ID,
		Title:   m.Title,
		Votes:   m.Votes,
		Revenue: m.Revenue,
		Rating:  m.Rating,
		Genres:  m.Genres,
	}
	if m.HasYear {
		year := int64(m.Year)
		f.Year = &year
	}
	if f.Genres == nil {
		f.Genres = []string{}
	}
	return f
}

func (f FilmNode) params() map[string]interface{} {
	return map[string]interface{}{
		"id":      f.ID,
		"title":   f.Title,
		"year":    nullable(f.Year),
		"votes":   nullable(f.Votes),
		"revenue": nullable(f.Revenue),
		"rating":  nullable(f.Rating),
		"genres":  f.Genres,
	}
}

func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// ============================================================================
// Query Result Types
// ============================================================================

// NameCount is a person with a count (films, actors, directors)
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NameValue is a person with a numeric total
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// CoActor is an actor who shared at least one film with another actor
type CoActor struct {
	Name  string   `json:"name"`
	Films []string `json:"films"`
}

// FilmRef identifies a film in query output
type FilmRef struct {
	Title string `json:"title"`
	Year  int64  `json:"year"`
}

// GenreCount is the most represented genre and which model answered
type GenreCount struct {
	Genre  string `json:"genre"`
	Count  int64  `json:"count"`
	Source string `json:"source"`
}

// Genre count sources
const (
	GenreSourceNodes    = "genre_nodes"
	GenreSourceProperty = "film_property"
)

// ConnectedFilms is a pair of films sharing actors
type ConnectedFilms struct {
	First  string   `json:"first"`
	Second string   `json:"second"`
	Shared int64    `json:"shared"`
	Actors []string `json:"actors"`
}

// ActorDirectors is an actor with the directors they worked with
type ActorDirectors struct {
	Actor     string   `json:"actor"`
	Count     int64    `json:"count"`
	Directors []string `json:"directors"`
}

// Recommendation is a film suggested to an actor
type Recommendation struct {
	Title   string   `json:"title"`
	Year    int64    `json:"year"`
	Rating  *float64 `json:"rating,omitempty"`
	Votes   *int64   `json:"votes,omitempty"`
	CoStars int64    `json:"co_stars,omitempty"`
}

// PathNode is one typed node along a shortest path
type PathNode struct {
	Type string `json:"type"` // Actor, Film, Director, Unknown
	Name string `json:"name"`
}

// Collaboration is a director/actor pair with repeated films
type Collaboration struct {
	Director string   `json:"director"`
	Actor    string   `json:"actor"`
	Count    int64    `json:"count"`
	Films    []string `json:"films"`
}

// CommercialCollaboration carries the averages of a collaboration's films
type CommercialCollaboration struct {
	Director   string   `json:"director"`
	Actor      string   `json:"actor"`
	Count      int64    `json:"count"`
	AvgRevenue *float64 `json:"avg_revenue,omitempty"`
	AvgVotes   *float64 `json:"avg_votes,omitempty"`
}

// Counts is a snapshot of node and relationship totals
type Counts struct {
	Films        int64 `json:"films"`
	Actors       int64 `json:"actors"`
	Directors    int64 `json:"directors"`
	PlaysIn      int64 `json:"plays_in"`
	Directed     int64 `json:"directed"`
	InfluencedBy int64 `json:"influenced_by"`
	CompetesWith int64 `json:"competes_with"`
}

// ============================================================================
// Derived Relationship Types
// ============================================================================

// DirectorFilm is one film as seen by the director-pair computations
type DirectorFilm struct {
	ID      string
	Title   string
	Year    int64
	HasYear bool
	Genres  []string
}

// DirectorFilms groups a director's films
type DirectorFilms struct {
	Name  string
	Films []DirectorFilm
}

// InfluenceEdge is an INFLUENCED_BY relationship to write
type InfluenceEdge struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Similarity   float64  `json:"similarity"`
	CommonGenres []string `json:"common_genres"`
}

// CompetitionEdge is a COMPETES_WITH relationship to write
type CompetitionEdge struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Count     int64    `json:"count"`
	Years     []int64  `json:"years"`
	FilmPairs []string `json:"film_pairs"`
}

// Competition write modes
const (
	CompetitionAccumulate = "accumulate"
	CompetitionRebuild    = "rebuild"
)
