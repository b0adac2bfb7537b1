package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hurttlocker/convograph/internal/graph"
)

// promptListLimit caps how many nodes and edges a summary prompt lists.
const promptListLimit = 20

// BuildQueryPrompt renders a question with its numbered graph insights and
// optional free-form context.
func BuildQueryPrompt(q Question) string {
	var b strings.Builder
	if len(q.Insights) > 0 {
		b.WriteString("Based on the following knowledge graph insights:\n\n")
		for i, insight := range q.Insights {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s", i+1, insight)
		}
		b.WriteString("\n\n")
	}
	if q.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", q.Context)
	}
	fmt.Fprintf(&b, "Question: %s\n\n", q.Question)
	b.WriteString("Please provide a comprehensive answer based on the information provided above. ")
	b.WriteString("If the graph insights contain relevant information, incorporate them into your answer. ")
	b.WriteString("Be specific and cite the insights when applicable.")
	return b.String()
}

// BuildGraphSummaryPrompt lists up to 20 nodes and 20 edges and asks for a
// structural summary.
func BuildGraphSummaryPrompt(nodes []graph.Node, edges []graph.Edge) string {
	var b strings.Builder
	b.WriteString("Analyze this knowledge graph and provide a comprehensive summary:\n\n")

	fmt.Fprintf(&b, "Nodes (%d):\n", len(nodes))
	for _, n := range head(nodes) {
		fmt.Fprintf(&b, "- %s (%s)\n", n.Label, n.Type)
	}
	if len(nodes) > promptListLimit {
		fmt.Fprintf(&b, "... and %d more\n", len(nodes)-promptListLimit)
	}

	fmt.Fprintf(&b, "\nEdges (%d):\n", len(edges))
	for _, e := range head(edges) {
		fmt.Fprintf(&b, "- %s --[%s]--> %s (weight: %s)\n", e.Source, e.Type, e.Target,
			strconv.FormatFloat(e.Weight, 'f', -1, 64))
	}
	if len(edges) > promptListLimit {
		fmt.Fprintf(&b, "... and %d more\n", len(edges)-promptListLimit)
	}

	b.WriteString("\nPlease provide:\n")
	b.WriteString("1. A summary of the main entities and their relationships\n")
	b.WriteString("2. Key patterns or clusters you observe\n")
	b.WriteString("3. Notable insights about the knowledge structure")
	return b.String()
}

func head[T any](items []T) []T {
	if len(items) > promptListLimit {
		return items[:promptListLimit]
	}
	return items
}
