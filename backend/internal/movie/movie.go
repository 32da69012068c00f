// Package movie holds the normalized film record shared by the document and graph sides.
//
// Raw documents are loosely typed: multi-valued fields are comma-joined strings and
// numeric fields may be missing, empty or non-numeric. FromDocument is the single
// place where that is resolved; everything downstream works on Movie.
package movie

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names of the films collection
const (
	FieldID        = "_id"
	FieldTitle     = "title"
	FieldYear      = "year"
	FieldGenre     = "genre"
	FieldDirector  = "Director"
	FieldActors    = "Actors"
	FieldRuntime   = "Runtime (Minutes)"
	FieldRevenue   = "Revenue (Millions)"
	FieldVotes     = "Votes"
	FieldMetascore = "Metascore"
	FieldRating    = "rating"
)

// Movie is a normalized film document
type Movie struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	HasYear   bool     `json:"-"`
	Genres    []string `json:"genres"`
	Director  string   `json:"director,omitempty"`
	Actors    []string `json:"actors,omitempty"`
	Runtime   *float64 `json:"runtime,omitempty"`
	Revenue   *float64 `json:"revenue,omitempty"`
	Votes     *int64   `json:"votes,omitempty"`
	Metascore *float64 `json:"metascore,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

// Decade returns the decade the movie was released in
func (m Movie) Decade() int {
	return Decade(m.Year)
}

// CommonGenres returns the genres m shares with other, in m's order
func (m Movie) CommonGenres(other Movie) []string {
	if len(m.Genres) == 0 || len(other.Genres) == 0 {
		return nil
	}
	theirs := make(map[string]struct{}, len(other.Genres))
	for _, g := range other.Genres {
		theirs[g] = struct{}{}
	}
	var common []string
	for _, g := range m.Genres {
		if _, ok := theirs[g]; ok {
			common = append(common, g)
		}
	}
	return common
}

// Decade floors a year to its decade (1994 -> 1990)
func Decade(year int) int {
	d := year / 10
	if year < 0 && year%10 != 0 {
		d--
	}
	return d * 10
}

// DecadeLabel renders a decade as "1990-1999"
func DecadeLabel(decade int) string {
	return fmt.Sprintf("%d-%d", decade, decade+9)
}

// SplitList parses a comma-joined field into trimmed, non-empty, de-duplicated values.
// Order of first appearance is kept.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// FromDocument normalizes a raw films document (bson.M or decoded JSON)
func FromDocument(doc map[string]interface{}) Movie {
	m := Movie{
		ID:       idString(doc[FieldID]),
		Title:    stringField(doc, FieldTitle),
		Genres:   SplitList(stringField(doc, FieldGenre)),
		Director: strings.TrimSpace(stringField(doc, FieldDirector)),
		Actors:   SplitList(stringField(doc, FieldActors)),
	}

	if year, ok := Int(doc[FieldYear]); ok {
		m.Year = int(year)
		m.HasYear = true
	}
	m.Runtime = floatPtr(lookup(doc, FieldRuntime, "Runtime"))
	m.Revenue = floatPtr(lookup(doc, FieldRevenue, "Revenue"))
	m.Metascore = floatPtr(doc[FieldMetascore])
	m.Rating = floatPtr(lookup(doc, FieldRating, "Rating"))
	if votes, ok := Int(doc[FieldVotes]); ok {
		m.Votes = &votes
	}

	return m
}

// Float coerces a loosely typed value; ok is false for missing, empty or non-numeric input
func Float(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case fmt.Stringer:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n.String()), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int coerces a loosely typed value to an integer; fractional values are rejected
func Int(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	f, ok := Float(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func floatPtr(v interface{}) *float64 {
	f, ok := Float(v)
	if !ok {
		return nil
	}
	return &f
}

func lookup(doc map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(doc map[string]interface{}, key string) string {
	switch v := doc[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case interface{ Hex() string }:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

// YearCount is the number of films released in one year
type YearCount struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}
