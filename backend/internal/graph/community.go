package graph

import (
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MinCommunityCast is the smallest cast considered a community
const MinCommunityCast = 3

// FilmCast is the actor list of one film
type FilmCast struct {
	Film   string
	Actors []string
}

// Community is a group of actors that appeared together as a whole cast
type Community struct {
	ID        int      `json:"id"`
	Actors    []string `json:"actors"`
	FilmCount int64    `json:"film_count"`
	Size      int      `json:"size"`
}

// CommunityNode is an actor in the community graph
type CommunityNode struct {
	Name      string `json:"name"`
	Community int    `json:"community"`
}

// CommunityEdge links two actors of the same community
type CommunityEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// CommunityGraph is the clique rendering of a set of communities
type CommunityGraph struct {
	Nodes []CommunityNode `json:"nodes"`
	Edges []CommunityEdge `json:"edges"`
}

// BuildCommunities groups films by identical cast (order-insensitive), keeps casts of
// at least MinCommunityCast actors, and ranks them by film count then size.
// An actor found in several communities keeps the first community's index.
func BuildCommunities(casts []FilmCast, maxCommunities int) ([]Community, CommunityGraph) {
	byCast := make(map[string]*Community)
	for _, c := range casts {
		actors := uniqueSorted(c.Actors)
		if len(actors) < MinCommunityCast {
			continue
		}
		key := strings.Join(actors, "\x00")
		group, ok := byCast[key]
		if !ok {
			group = &Community{Actors: actors, Size: len(actors)}
			byCast[key] = group
		}
		group.FilmCount++
	}

	communities := make([]Community, 0, len(byCast))
	for _, c := range byCast {
		communities = append(communities, *c)
	}
	sort.Slice(communities, func(i, j int) bool {
		a, b := communities[i], communities[j]
		if a.FilmCount != b.FilmCount {
			return a.FilmCount > b.FilmCount
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return strings.Join(a.Actors, ",") < strings.Join(b.Actors, ",")
	})
	if maxCommunities > 0 && len(communities) > maxCommunities {
		communities = communities[:maxCommunities]
	}

	g := CommunityGraph{Nodes: []CommunityNode{}, Edges: []CommunityEdge{}}
	placed := make(map[string]bool)
	linked := make(map[[2]string]bool)
	for i := range communities {
		communities[i].ID = i
		actors := communities[i].Actors
		for _, a := range actors {
			if !placed[a] {
				placed[a] = true
				g.Nodes = append(g.Nodes, CommunityNode{Name: a, Community: i})
			}
		}
		for x := 0; x < len(actors); x++ {
			for y := x + 1; y < len(actors); y++ {
				pair := [2]string{actors[x], actors[y]}
				if linked[pair] {
					continue
				}
				linked[pair] = true
				g.Edges = append(g.Edges, CommunityEdge{Source: actors[x], Target: actors[y], Weight: 1})
			}
		}
	}
	return communities, g
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// decodePath turns a path into typed nodes, first node first
func decodePath(path neo4j.Path) []PathNode {
	nodes := make([]PathNode, 0, len(path.Nodes))
	for _, n := range path.Nodes {
		nodes = append(nodes, decodeNode(n))
	}
	return nodes
}

func decodeNode(n neo4j.Node) PathNode {
	for _, label := range n.Labels {
		switch label {
		case "Actor", "Director":
			return PathNode{Type: label, Name: getStringFromMap(n.Props, "name")}
		case "Film":
			return PathNode{Type: label, Name: getStringFromMap(n.Props, "title")}
		}
	}
	return PathNode{Type: "Unknown", Name: n.ElementId}
}
