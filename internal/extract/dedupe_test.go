package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeEntities_KeepsHighestConfidence(t *testing.T) {
	got := DedupeEntities([]Entity{
		{Text: "alice", Type: EntityPerson, Confidence: 0.5},
		{Text: "Alice", Type: EntityPerson, Confidence: 0.9},
		{Text: "Go", Type: EntityTopic, Confidence: 1.0},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Alice", got[0].Text)
	assert.Equal(t, 0.9, got[0].Confidence)
	assert.Equal(t, "Go", got[1].Text)
}

func TestDedupeEntities_TieKeepsFirst(t *testing.T) {
	got := DedupeEntities([]Entity{
		{Text: "Rust", Type: EntityTopic, Confidence: 1.0, Context: "first"},
		{Text: "rust", Type: EntityTopic, Confidence: 1.0, Context: "second"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Context)
}

func TestDedupeEntities_TypeIsPartOfKey(t *testing.T) {
	got := DedupeEntities([]Entity{
		{Text: "Figma", Type: EntityPerson, Confidence: PersonConfidence},
		{Text: "Figma", Type: EntityPreference, Confidence: PreferenceConfidence},
		{Text: "Figma", Type: EntityTopic, Confidence: TopicConfidence},
	})
	assert.Len(t, got, 3)
}

func TestDedupeEntities_Empty(t *testing.T) {
	assert.Empty(t, DedupeEntities(nil))
}

func TestDedupeRelationships(t *testing.T) {
	got := DedupeRelationships([]Relationship{
		{From: "Alex", To: "Go", Type: RelMentions, Strength: 0.5},
		{From: "Alex", To: "Go", Type: RelLikes, Strength: 0.9},
		{From: "Alex", To: "Go", Type: RelMentions, Strength: 0.7},
		{From: "Alex", To: "go", Type: RelMentions, Strength: 0.7},
	})
	require.Len(t, got, 3)
	assert.Equal(t, Relationship{From: "Alex", To: "Go", Type: RelMentions, Strength: 0.7}, got[0])
	assert.Equal(t, RelLikes, got[1].Type)
	assert.Equal(t, "go", got[2].To, "relationship keys are case-sensitive")
}
