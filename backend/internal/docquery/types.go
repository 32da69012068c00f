package docquery

import "cinegraph/backend/internal/movie"

// GenreCount is the number of films listing a genre
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// DirectorCount is the number of films by a director
type DirectorCount struct {
	Director string `json:"director"`
	Count    int    `json:"count"`
}

// GenreMean is a per-genre average
type GenreMean struct {
	Genre string  `json:"genre"`
	Mean  float64 `json:"mean"`
	Films int     `json:"films"`
}

// RatedFilm is a film with its score
type RatedFilm struct {
	Title     string  `json:"title"`
	Year      int     `json:"year"`
	Metascore float64 `json:"metascore"`
}

// DecadeFilms holds the best-rated films of one decade
type DecadeFilms struct {
	Decade int         `json:"decade"`
	Label  string      `json:"label"`
	Films  []RatedFilm `json:"films"`
}

// GenreFilm is the longest film listing a genre
type GenreFilm struct {
	Genre   string  `json:"genre"`
	Title   string  `json:"title"`
	Runtime float64 `json:"runtime"`
}

// DecadeMean is an average over one decade
type DecadeMean struct {
	Decade int     `json:"decade"`
	Label  string  `json:"label"`
	Mean   float64 `json:"mean"`
	Films  int     `json:"films"`
}

// Point is one (runtime, revenue) observation
type Point struct {
	Title   string  `json:"title"`
	Runtime float64 `json:"runtime"`
	Revenue float64 `json:"revenue"`
}

// Correlation is a Pearson coefficient with its two-sided p-value.
// The zero value (no points) is the "no data" shape.
type Correlation struct {
	Coefficient float64 `json:"coefficient"`
	PValue      float64 `json:"p_value"`
	N           int     `json:"n"`
	Points      []Point `json:"points,omitempty"`
}

// FilmPair is two films that share genres but not a director
type FilmPair struct {
	First        string   `json:"first"`
	Second       string   `json:"second"`
	CommonGenres []string `json:"common_genres"`
}

// Films is shorthand used by the aggregate helpers
type Films = []movie.Movie
