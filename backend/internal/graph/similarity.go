package graph

import (
	"fmt"
	"sort"
)

// InfluenceThreshold is the minimum genre similarity for an INFLUENCED_BY edge
const InfluenceThreshold = 0.3

// genreMultiset counts every genre occurrence across a director's films
func genreMultiset(films []DirectorFilm) map[string]int {
	counts := make(map[string]int)
	for _, f := range films {
		for _, g := range f.Genres {
			counts[g]++
		}
	}
	return counts
}

// Jaccard is the multiset Jaccard index sum(min)/sum(max) of two genre bags,
// with the genres present in both, sorted. Two empty bags score 0.
func Jaccard(a, b map[string]int) (float64, []string) {
	var inter, union int
	var common []string
	for g, ca := range a {
		cb := b[g]
		if cb > 0 {
			common = append(common, g)
		}
		inter += min(ca, cb)
		union += max(ca, cb)
	}
	for g, cb := range b {
		if _, seen := a[g]; !seen {
			union += cb
		}
	}
	if union == 0 {
		return 0, nil
	}
	sort.Strings(common)
	return float64(inter) / float64(union), common
}

func sortedDirectors(directors []DirectorFilms) []DirectorFilms {
	out := make([]DirectorFilms, 0, len(directors))
	for _, d := range directors {
		if d.Name != "" {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InfluencePairs computes one edge per unordered director pair whose genre
// similarity reaches InfluenceThreshold. Edges point from the lesser name to the greater.
func InfluencePairs(directors []DirectorFilms) []InfluenceEdge {
	sorted := sortedDirectors(directors)
	bags := make([]map[string]int, len(sorted))
	for i, d := range sorted {
		bags[i] = genreMultiset(d.Films)
	}

	var edges []InfluenceEdge
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			sim, common := Jaccard(bags[i], bags[j])
			if len(common) == 0 || sim < InfluenceThreshold {
				continue
			}
			edges = append(edges, InfluenceEdge{
				From:         sorted[i].Name,
				To:           sorted[j].Name,
				Similarity:   sim,
				CommonGenres: common,
			})
		}
	}
	return edges
}

func sharesGenre(a, b []string) bool {
	for _, ga := range a {
		for _, gb := range b {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

// CompetitionPairs finds director pairs with distinct films released the same year
// and sharing a genre. Each matching film pair counts once; edges point from the
// lesser name to the greater.
func CompetitionPairs(directors []DirectorFilms) []CompetitionEdge {
	sorted := sortedDirectors(directors)

	var edges []CompetitionEdge
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			edge := CompetitionEdge{From: sorted[i].Name, To: sorted[j].Name}
			seenYear := make(map[int64]bool)
			for _, f1 := range sorted[i].Films {
				for _, f2 := range sorted[j].Films {
					if f1.ID == f2.ID || !f1.HasYear || !f2.HasYear || f1.Year != f2.Year {
						continue
					}
					if !sharesGenre(f1.Genres, f2.Genres) {
						continue
					}
					edge.Count++
					if !seenYear[f1.Year] {
						seenYear[f1.Year] = true
						edge.Years = append(edge.Years, f1.Year)
					}
					edge.FilmPairs = append(edge.FilmPairs, fmt.Sprintf("%s vs %s", f1.Title, f2.Title))
				}
			}
			if edge.Count > 0 {
				sort.Slice(edge.Years, func(a, b int) bool { return edge.Years[a] < edge.Years[b] })
				edges = append(edges, edge)
			}
		}
	}
	return edges
}
