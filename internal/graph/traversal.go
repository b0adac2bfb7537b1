package graph

// DefaultMaxPathDepth bounds FindPath when the caller passes no depth.
const DefaultMaxPathDepth = 5

type pathStep struct {
	id   string
	path []string
}

// FindPath runs a breadth-first search over the undirected neighbor relation
// and returns the first path that reaches end. maxDepth bounds the number of
// nodes in the path, inclusive. Nil means no path within the bound, or an
// unknown endpoint.
func (s *Store) FindPath(start, end string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPathDepth
	}
	if _, ok := s.nodes[start]; !ok {
		return nil
	}
	if _, ok := s.nodes[end]; !ok {
		return nil
	}

	visited := map[string]bool{}
	queue := []pathStep{{id: start, path: []string{start}}}
	for len(queue) > 0 {
		step := queue[0]
		queue = queue[1:]

		if step.id == end {
			return step.path
		}
		if len(step.path) >= maxDepth || visited[step.id] {
			continue
		}
		visited[step.id] = true

		for _, next := range s.neighborIDs(step.id) {
			if visited[next] {
				continue
			}
			path := make([]string, len(step.path)+1)
			copy(path, step.path)
			path[len(step.path)] = next
			queue = append(queue, pathStep{id: next, path: path})
		}
	}
	return nil
}

// FindClusters partitions the nodes into undirected connected components and
// returns those with more than one member. Clusters follow node insertion
// order; members follow discovery order.
func (s *Store) FindClusters() [][]string {
	var clusters [][]string
	visited := map[string]bool{}
	for _, id := range s.nodeOrder {
		if visited[id] {
			continue
		}
		if c := s.explore(id, visited); len(c) > 1 {
			clusters = append(clusters, c)
		}
	}
	return clusters
}

func (s *Store) explore(start string, visited map[string]bool) []string {
	var cluster []string
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		cluster = append(cluster, id)
		for _, next := range s.neighborIDs(id) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return cluster
}
