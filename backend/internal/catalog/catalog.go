// Package catalog lists the numbered dashboard queries, runs them, and shapes every
// answer into a Result.
package catalog

// Stores a query reads from
const (
	StoreDocuments = "mongodb"
	StoreGraph     = "neo4j"
)

// Parameter names accepted by queries
const (
	ParamActor  = "actor"
	ParamActor2 = "actor2"
	ParamLimit  = "limit"
	ParamMin    = "min"
	ParamSort   = "sort"
	ParamMode   = "mode"
	ParamRole   = "role"

	ParamCollabSort = "collab_sort"
)

// Entry describes one catalog query
type Entry struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Store  string   `json:"store"`
	Params []string `json:"params,omitempty"`
	Writes bool     `json:"writes,omitempty"`
}

var entries = []Entry{
	{ID: 1, Title: "Year with the most films", Store: StoreDocuments},
	{ID: 2, Title: "Films released after 1999", Store: StoreDocuments},
	{ID: 3, Title: "Average votes for films released in 2007", Store: StoreDocuments},
	{ID: 4, Title: "Films per year", Store: StoreDocuments},
	{ID: 5, Title: "Available genres", Store: StoreDocuments},
	{ID: 6, Title: "Highest revenue film", Store: StoreDocuments},
	{ID: 7, Title: "Directors with more than 5 films", Store: StoreDocuments, Params: []string{ParamMin}},
	{ID: 8, Title: "Genre with the highest average revenue", Store: StoreDocuments},
	{ID: 9, Title: "Top 3 rated films per decade", Store: StoreDocuments, Params: []string{ParamLimit}},
	{ID: 10, Title: "Longest film per genre", Store: StoreDocuments},
	{ID: 11, Title: "Create view of high-rated, high-revenue films", Store: StoreDocuments, Writes: true},
	{ID: 12, Title: "Runtime and revenue correlation", Store: StoreDocuments},
	{ID: 13, Title: "Average runtime per decade", Store: StoreDocuments},
	{ID: 14, Title: "Actor with the most films", Store: StoreGraph, Params: []string{ParamRole}},
	{ID: 15, Title: "Actors who played with Anne Hathaway", Store: StoreGraph, Params: []string{ParamActor}},
	{ID: 16, Title: "Actor with the highest total revenue", Store: StoreGraph, Params: []string{ParamRole}},
	{ID: 17, Title: "Average votes", Store: StoreGraph},
	{ID: 18, Title: "Most represented genre", Store: StoreGraph},
	{ID: 19, Title: "Films of your co-stars", Store: StoreGraph, Params: []string{ParamActor}},
	{ID: 20, Title: "Director who worked with the most actors", Store: StoreGraph},
	{ID: 21, Title: "Most connected films", Store: StoreGraph, Params: []string{ParamLimit}},
	{ID: 22, Title: "Actors who worked with the most directors", Store: StoreGraph, Params: []string{ParamLimit}},
	{ID: 23, Title: "Film recommendations for an actor", Store: StoreGraph, Params: []string{ParamActor, ParamLimit}},
	{ID: 24, Title: "Create INFLUENCED_BY between directors", Store: StoreGraph, Writes: true},
	{ID: 25, Title: "Shortest path between two actors", Store: StoreGraph, Params: []string{ParamActor, ParamActor2}},
	{ID: 26, Title: "Actor communities", Store: StoreGraph, Params: []string{ParamLimit}},
	{ID: 27, Title: "Films sharing a genre with different directors", Store: StoreDocuments, Params: []string{ParamLimit}},
	{ID: 28, Title: "Recommendations from an actor's co-stars", Store: StoreGraph, Params: []string{ParamActor, ParamLimit}},
	{ID: 29, Title: "Create COMPETES_WITH between directors", Store: StoreGraph, Params: []string{ParamMode}, Writes: true},
	{ID: 30, Title: "Frequent director and actor collaborations", Store: StoreGraph, Params: []string{ParamMin, ParamSort, ParamCollabSort}},
}

// Catalog returns every query in id order
func Catalog() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns the catalog entry for id
func Lookup(id int) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
