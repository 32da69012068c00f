package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	return toInt64(val)
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	f := getOptionalFloat64FromRecord(record, key)
	if f == nil {
		return 0.0
	}
	return *f
}

// getOptionalFloat64FromRecord returns nil for null or missing values
func getOptionalFloat64FromRecord(record *neo4j.Record, key string) *float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	var f float64
	switch n := val.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func getOptionalInt64FromRecord(record *neo4j.Record, key string) *int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	i := toInt64(val)
	return &i
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	return toStringSlice(val)
}

func toInt64(val interface{}) int64 {
	switch n := val.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toStringSlice(val interface{}) []string {
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	if slice, ok := val.([]string); ok {
		return slice
	}
	return []string{}
}

func getStringFromMap(m map[string]interface{}, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

// directorFilmsFromRecord decodes {director, films: [{id, title, year, genres}]}
func directorFilmsFromRecord(record *neo4j.Record) DirectorFilms {
	d := DirectorFilms{Name: getStringFromRecord(record, "director")}
	raw, _ := record.Get("films")
	list, _ := raw.([]interface{})
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		film := DirectorFilm{
			ID:     getStringFromMap(m, "id"),
			Title:  getStringFromMap(m, "title"),
			Genres: toStringSlice(m["genres"]),
		}
		if year, ok := m["year"]; ok && year != nil {
			film.Year = toInt64(year)
			film.HasYear = true
		}
		d.Films = append(d.Films, film)
	}
	return d
}
