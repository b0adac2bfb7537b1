package analyzer

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/hurttlocker/convograph/internal/extract"
	"github.com/hurttlocker/convograph/internal/graph"
	"github.com/hurttlocker/convograph/internal/metrics"
)

func colleagueConversation() conversation.Conversation {
	return conversation.NewSampleGenerator().Custom(
		[]conversation.Turn{
			{Role: conversation.RoleUser, Content: "I love TypeScript and my colleague Maria knows Docker"},
			{Role: conversation.RoleAssistant, Content: "Nice. Does Maria use TypeScript too?"},
		},
		conversation.Metadata{Participants: []string{"Alex"}},
	)
}

func hasRelationship(rels []extract.Relationship, from string, typ extract.RelationType, to string) bool {
	for _, r := range rels {
		if r.From == from && r.Type == typ && r.To == to {
			return true
		}
	}
	return false
}

func TestAnalyzeConversation_EndToEnd(t *testing.T) {
	store := graph.NewStore()
	a := New(store)
	conv := colleagueConversation()

	res := a.AnalyzeConversation(&conv)
	assert.Equal(t, "conv_1", res.ConversationID)

	byType := map[extract.EntityType][]string{}
	for _, e := range res.Entities {
		byType[e.Type] = append(byType[e.Type], e.Text)
	}
	assert.Equal(t, []string{"Maria"}, byType[extract.EntityPerson])
	assert.Equal(t, []string{"TypeScript"}, byType[extract.EntityTopic])
	require.Len(t, byType[extract.EntityPreference], 1)
	assert.Contains(t, byType[extract.EntityPreference][0], "TypeScript")

	assert.True(t, hasRelationship(res.Relationships, "Alex", extract.RelLikes, "TypeScript"))
	assert.True(t, hasRelationship(res.Relationships, "Alex", extract.RelKnows, "Maria"))
	assert.Len(t, res.Relationships, 10)

	require.NotEmpty(t, res.Insights)
	assert.Equal(t, "Extracted 3 entities: 1 person(s), 1 preference(s), 1 topic(s)", res.Insights[0])

	// the speaker gets no node; its edges dangle
	assert.Len(t, res.Graph.Nodes, 3)
	assert.Len(t, res.Graph.Edges, 10)
	meta := store.Metadata()
	assert.Equal(t, 3, meta.NodeCount)
	assert.Equal(t, 10, meta.EdgeCount)

	_, ok := store.GetNode("alex")
	assert.False(t, ok)
	_, ok = store.GetEdge(graph.EdgeID("alex", "knows", "maria"))
	assert.True(t, ok)
	assert.Nil(t, store.FindPath("alex", "maria", 2))
	assert.Equal(t, []string{"maria", "typescript"}, store.FindPath("maria", "typescript", 2))
}

func TestAnalyzeConversation_SpeakerNode(t *testing.T) {
	store := graph.NewStore()
	a := New(store, WithSpeakerNode())
	conv := colleagueConversation()

	res := a.AnalyzeConversation(&conv)
	assert.Len(t, res.Graph.Nodes, 4)
	assert.Equal(t, 4, store.Metadata().NodeCount)

	speaker, ok := store.GetNode("alex")
	require.True(t, ok)
	assert.Equal(t, SpeakerRole, speaker.Properties["role"])
	assert.Equal(t, []string{"alex", "maria"}, store.FindPath("alex", "maria", 2))

	// the speaker already exists on the second pass
	again := a.AnalyzeConversation(&conv)
	assert.Len(t, again.Graph.Nodes, 3)
}

func TestAnalyzeConversation_ClustersFollowCoMentions(t *testing.T) {
	store := graph.NewStore()
	a := New(store)
	conv := conversation.NewSampleGenerator().Custom([]conversation.Turn{
		{Role: conversation.RoleUser, Content: "I love Python and React."},
		{Role: conversation.RoleUser, Content: "I work with Figma daily."},
	}, conversation.Metadata{})

	a.AnalyzeConversation(&conv)

	_, ok := store.GetNode("user")
	assert.False(t, ok)
	clusters := store.FindClusters()
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []string{"python_and_react", "python", "react"}, clusters[0])
	assert.NotContains(t, clusters[0], "figma")

	top := store.MostConnectedNodes(1)
	require.Len(t, top, 1)
	assert.NotEqual(t, "user", top[0].Node.ID)
}

func TestAnalyzeConversation_ReanalysisIsIdempotent(t *testing.T) {
	store := graph.NewStore()
	a := New(store)
	conv := colleagueConversation()

	first := a.AnalyzeConversation(&conv)
	before := store.Metadata()
	second := a.AnalyzeConversation(&conv)
	after := store.Metadata()

	assert.Equal(t, before.NodeCount, after.NodeCount)
	assert.Equal(t, before.EdgeCount, after.EdgeCount)
	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, first.Relationships, second.Relationships)
	assert.Equal(t, first.Insights, second.Insights)
	assert.Len(t, second.Graph.Nodes, 3)
}

func TestAnalyzeConversation_EmptyInputs(t *testing.T) {
	store := graph.NewStore()
	a := New(store)

	assert.Equal(t, Result{}, a.AnalyzeConversation(nil))

	res := a.AnalyzeConversation(&conversation.Conversation{ID: "empty"})
	assert.Equal(t, "empty", res.ConversationID)
	assert.Empty(t, res.Entities)
	assert.Empty(t, res.Relationships)
	assert.Empty(t, res.Insights)
	assert.Empty(t, res.Graph.Nodes)
	assert.Zero(t, store.Metadata().NodeCount)
}

func TestAnalyzeAll_SampleData(t *testing.T) {
	store := graph.NewStore()
	a := New(store)
	convs := conversation.NewSampleGenerator().Generate(conversation.SampleCount())

	results := a.AnalyzeAll(convs)
	require.Len(t, results, len(convs))
	for i, r := range results {
		assert.Equal(t, convs[i].ID, r.ConversationID)
		assert.NotEmpty(t, r.Entities, r.ConversationID)
	}
	assert.NotEmpty(t, store.FindClusters())
	assert.NotEmpty(t, store.StrongestConnections(5))
}

func TestAnalyzeConversation_LogsAndMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.NewCollector("")
	a := New(graph.NewStore(), WithLogger(zap.New(core)), WithMetrics(m))
	conv := colleagueConversation()

	a.AnalyzeConversation(&conv)

	entries := logs.FilterMessage("analyzed conversation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "conv_1", fields["conversation_id"])
	assert.EqualValues(t, 3, fields["entities"])

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "convograph_conversations_analyzed_total 1")
	assert.Contains(t, string(body), `convograph_relationships_derived_total{type="knows"} 1`)
	assert.Contains(t, string(body), "convograph_graph_nodes 3")
}

func TestProjection(t *testing.T) {
	nodes := ProjectEntities([]extract.Entity{{Text: "Next.js", Type: extract.EntityTopic, Confidence: 1, Context: "I use Next.js"}})
	require.Len(t, nodes, 1)
	assert.Equal(t, "next_js", nodes[0].ID)
	assert.Equal(t, "Next.js", nodes[0].Label)
	assert.Equal(t, 1.0, nodes[0].Properties["confidence"])

	edges := ProjectRelationships([]extract.Relationship{{From: "Alex", To: "Next.js", Type: extract.RelLikes, Strength: 0.9}})
	require.Len(t, edges, 1)
	assert.Equal(t, graph.Edge{Source: "alex", Target: "next_js", Type: "likes", Weight: 0.9}, edges[0])
}

func TestWithCustomExtractor(t *testing.T) {
	ext := extract.NewExtractor(extract.WithExtraTechnologies("Docker"))
	a := New(graph.NewStore(), WithExtractor(ext))
	conv := colleagueConversation()

	res := a.AnalyzeConversation(&conv)
	var topics []string
	for _, e := range res.Entities {
		if e.Type == extract.EntityTopic {
			topics = append(topics, e.Text)
		}
	}
	assert.Equal(t, []string{"TypeScript", "Docker"}, topics)
}
