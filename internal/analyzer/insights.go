package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hurttlocker/convograph/internal/graph"
)

// GraphInsights renders graph facts as short sentences for an LLM prompt:
// overall size, nodes named in the question with their neighbors, the
// strongest edges, the best-connected nodes and the cluster count.
// limit caps each ranking; zero means 5.
func GraphInsights(g *graph.Store, question string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}
	meta := g.Metadata()
	out := []string{fmt.Sprintf("Knowledge graph has %d nodes and %d edges", meta.NodeCount, meta.EdgeCount)}

	q := strings.ToLower(question)
	for _, n := range g.Nodes() {
		if n.Label == "" || !strings.Contains(q, strings.ToLower(n.Label)) {
			continue
		}
		var names []string
		for _, nb := range g.ConnectedNodes(n.ID) {
			names = append(names, nb.Label)
		}
		if len(names) == 0 {
			out = append(out, fmt.Sprintf("%s (%s) has no connections", n.Label, n.Type))
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s) is connected to: %s", n.Label, n.Type, strings.Join(names, ", ")))
	}

	for _, e := range g.StrongestConnections(limit) {
		out = append(out, fmt.Sprintf("%s %s %s (weight %s)",
			labelOf(g, e.Source), e.Type, labelOf(g, e.Target), strconv.FormatFloat(e.Weight, 'f', -1, 64)))
	}
	for _, r := range g.MostConnectedNodes(limit) {
		if r.Degree == 0 {
			break
		}
		out = append(out, fmt.Sprintf("%s (%s) has %d connections", r.Node.Label, r.Node.Type, r.Degree))
	}
	if clusters := g.FindClusters(); len(clusters) > 0 {
		largest := 0
		for _, c := range clusters {
			largest = max(largest, len(c))
		}
		out = append(out, fmt.Sprintf("%d clusters; the largest has %d nodes", len(clusters), largest))
	}
	return out
}

func labelOf(g *graph.Store, id string) string {
	if n, ok := g.GetNode(id); ok && n.Label != "" {
		return n.Label
	}
	return id
}
