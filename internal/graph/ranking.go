package graph

import "sort"

// DefaultRankingLimit applies when a ranking is requested with no limit.
const DefaultRankingLimit = 10

// NodeDegreeRank pairs a node with its edge count.
type NodeDegreeRank struct {
	Node   Node `json:"node"`
	Degree int  `json:"degree"`
}

// StrongestConnections returns edges by weight descending. Equal weights keep
// insertion order.
func (s *Store) StrongestConnections(limit int) []Edge {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	edges := s.Edges()
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return edges
}

// MostConnectedNodes returns nodes by degree descending. Equal degrees keep
// insertion order.
func (s *Store) MostConnectedNodes(limit int) []NodeDegreeRank {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	ranked := make([]NodeDegreeRank, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		ranked = append(ranked, NodeDegreeRank{Node: copyNode(s.nodes[id]), Degree: s.NodeDegree(id)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Degree > ranked[j].Degree })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
