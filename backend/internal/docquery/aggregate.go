package docquery

import (
	"sort"

	"cinegraph/backend/internal/movie"
)

// Aggregations over normalized movies. Multi-valued genres are always exploded:
// a film listing "Action, Drama" contributes to both buckets.

func filmsPerYear(movies Films) []movie.YearCount {
	byYear := make(map[int]int64)
	for _, m := range movies {
		if m.HasYear {
			byYear[m.Year]++
		}
	}
	out := make([]movie.YearCount, 0, len(byYear))
	for year, count := range byYear {
		out = append(out, movie.YearCount{Year: year, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// topYear picks the busiest year; ties go to the earlier year
func topYear(counts []movie.YearCount) (movie.YearCount, bool) {
	if len(counts) == 0 {
		return movie.YearCount{}, false
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.Count > best.Count || (c.Count == best.Count && c.Year < best.Year) {
			best = c
		}
	}
	return best, true
}

func averageVotes(movies Films, year int) (float64, int) {
	var sum float64
	n := 0
	for _, m := range movies {
		if !m.HasYear || m.Year != year || m.Votes == nil {
			continue
		}
		sum += float64(*m.Votes)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

func genreFrequencies(movies Films) []GenreCount {
	counts := make(map[string]int)
	for _, m := range movies {
		for _, g := range m.Genres {
			counts[g]++
		}
	}
	out := make([]GenreCount, 0, len(counts))
	for g, c := range counts {
		out = append(out, GenreCount{Genre: g, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

func availableGenres(movies Films) []string {
	freq := genreFrequencies(movies)
	genres := make([]string, 0, len(freq))
	for _, f := range freq {
		genres = append(genres, f.Genre)
	}
	sort.Strings(genres)
	return genres
}

// highestRevenue keeps the first film in collection order on ties
func highestRevenue(movies Films) (movie.Movie, bool) {
	var best movie.Movie
	found := false
	for _, m := range movies {
		if m.Revenue == nil {
			continue
		}
		if !found || *m.Revenue > *best.Revenue {
			best = m
			found = true
		}
	}
	return best, found
}

func directorsWithMoreThan(movies Films, min int) []DirectorCount {
	counts := make(map[string]int)
	for _, m := range movies {
		if m.Director != "" {
			counts[m.Director]++
		}
	}
	var out []DirectorCount
	for d, c := range counts {
		if c > min {
			out = append(out, DirectorCount{Director: d, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Director < out[j].Director
	})
	return out
}

func averageRevenueByGenre(movies Films) []GenreMean {
	type acc struct {
		sum float64
		n   int
	}
	byGenre := make(map[string]*acc)
	for _, m := range movies {
		if m.Revenue == nil {
			continue
		}
		for _, g := range m.Genres {
			a, ok := byGenre[g]
			if !ok {
				a = &acc{}
				byGenre[g] = a
			}
			a.sum += *m.Revenue
			a.n++
		}
	}
	out := make([]GenreMean, 0, len(byGenre))
	for g, a := range byGenre {
		out = append(out, GenreMean{Genre: g, Mean: a.sum / float64(a.n), Films: a.n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}

// topRatedByDecade ranks by metascore within each decade; equal scores keep collection order
func topRatedByDecade(movies Films, k int) []DecadeFilms {
	byDecade := make(map[int][]RatedFilm)
	for _, m := range movies {
		if !m.HasYear || m.Metascore == nil {
			continue
		}
		d := m.Decade()
		byDecade[d] = append(byDecade[d], RatedFilm{Title: m.Title, Year: m.Year, Metascore: *m.Metascore})
	}

	out := make([]DecadeFilms, 0, len(byDecade))
	for d, films := range byDecade {
		sort.SliceStable(films, func(i, j int) bool { return films[i].Metascore > films[j].Metascore })
		if len(films) > k {
			films = films[:k]
		}
		out = append(out, DecadeFilms{Decade: d, Label: movie.DecadeLabel(d), Films: films})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decade < out[j].Decade })
	return out
}

func longestFilmByGenre(movies Films) []GenreFilm {
	best := make(map[string]GenreFilm)
	for _, m := range movies {
		if m.Runtime == nil {
			continue
		}
		for _, g := range m.Genres {
			current, ok := best[g]
			if !ok || *m.Runtime > current.Runtime {
				best[g] = GenreFilm{Genre: g, Title: m.Title, Runtime: *m.Runtime}
			}
		}
	}
	out := make([]GenreFilm, 0, len(best))
	for _, f := range best {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Genre < out[j].Genre })
	return out
}

func averageRuntimeByDecade(movies Films) []DecadeMean {
	type acc struct {
		sum float64
		n   int
	}
	byDecade := make(map[int]*acc)
	for _, m := range movies {
		if !m.HasYear || m.Runtime == nil {
			continue
		}
		d := m.Decade()
		a, ok := byDecade[d]
		if !ok {
			a = &acc{}
			byDecade[d] = a
		}
		a.sum += *m.Runtime
		a.n++
	}
	out := make([]DecadeMean, 0, len(byDecade))
	for d, a := range byDecade {
		out = append(out, DecadeMean{Decade: d, Label: movie.DecadeLabel(d), Mean: a.sum / float64(a.n), Films: a.n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decade < out[j].Decade })
	return out
}

// commonGenrePairs compares every unordered pair once: O(n^2) in the number of films.
// Output stops at limit pairs, which also bounds the work once enough pairs are found.
func commonGenrePairs(movies Films, limit int) []FilmPair {
	var out []FilmPair
	for i := 0; i < len(movies); i++ {
		for j := i + 1; j < len(movies); j++ {
			a, b := movies[i], movies[j]
			if a.Director == b.Director {
				continue
			}
			common := a.CommonGenres(b)
			if len(common) == 0 {
				continue
			}
			out = append(out, FilmPair{First: a.Title, Second: b.Title, CommonGenres: common})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
