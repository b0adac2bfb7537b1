package extract

import (
	"testing"

	"github.com/hurttlocker/convograph/internal/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userConv(participants []string, msgs ...string) *conversation.Conversation {
	c := &conversation.Conversation{ID: "test", Metadata: conversation.Metadata{Participants: participants}}
	for _, m := range msgs {
		c.Messages = append(c.Messages, conversation.Message{Role: conversation.RoleUser, Content: m})
	}
	return c
}

func texts(entities []Entity, t EntityType) []string {
	var out []string
	for _, e := range entities {
		if e.Type == t {
			out = append(out, e.Text)
		}
	}
	return out
}

func TestNewExtractor(t *testing.T) {
	e := NewExtractor()
	require.NotNil(t, e)
	assert.Len(t, e.families, 5)
	assert.Equal(t, len(defaultTechnologies), e.Vocabulary().Len())
}

func TestExtractMessage_ColleagueAndPreference(t *testing.T) {
	msg := "I love TypeScript and my colleague Maria knows Docker"
	got := NewExtractor().ExtractMessage(msg)

	require.Len(t, got, 3)
	assert.Equal(t, Entity{Text: "Maria", Type: EntityPerson, Confidence: PersonConfidence, Context: msg}, got[0])
	assert.Equal(t, EntityPreference, got[1].Type)
	assert.Equal(t, "TypeScript and my colleague Maria knows Docker", got[1].Text)
	assert.Equal(t, PreferenceConfidence, got[1].Confidence)
	assert.Equal(t, Entity{Text: "TypeScript", Type: EntityTopic, Confidence: TopicConfidence, Context: msg}, got[2])
}

func TestExtractMessage_Families(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    map[EntityType][]string
	}{
		{
			name:    "subject verb person",
			message: "John is really good at backend development. He knows Python and Go very well.",
			want: map[EntityType][]string{
				EntityPerson: {"John"},
				EntityTopic:  {"Python", "Go"},
			},
		},
		{
			name:    "subject verb contraction",
			message: "Maria isn't here but John wasn't either",
			want: map[EntityType][]string{
				EntityPerson: {"Maria", "John"},
			},
		},
		{
			name:    "favorite matches any case",
			message: "I think python is great.",
			want: map[EntityType][]string{
				EntityPreference: {"think python"},
			},
		},
		{
			name:    "amazing spans leading word",
			message: "Honestly typescript is amazing",
			want: map[EntityType][]string{
				EntityPreference: {"Honestly typescript"},
			},
		},
		{
			name:    "interested in",
			message: "I'm interested in AI and machine learning, especially LLMs.",
			want: map[EntityType][]string{
				EntityPreference: {"AI and machine learning, especially LLMs"},
			},
		},
		{
			name:    "favorite",
			message: "Neo4j is my favorite. Figma is great",
			want: map[EntityType][]string{
				EntityPerson:     {"Figma"},
				EntityPreference: {"Figma"},
				EntityTopic:      {"Neo4j", "Figma"},
			},
		},
		{
			name:    "dislike patterns both fire",
			message: "I really don't like working with legacy PHP code.",
			want: map[EntityType][]string{
				EntityPreference: {"working with legacy PHP code"},
				EntityTopic:      {"PHP"},
			},
		},
		{
			name:    "created by fact",
			message: "Did you know that TypeScript was created by Microsoft?",
			want: map[EntityType][]string{
				EntityTopic: {"TypeScript"},
				EntityFact:  {"by Microsoft"},
			},
		},
		{
			name:    "events and year",
			message: "I joined my current company in January 2022.",
			want: map[EntityType][]string{
				EntityFact:  {"2022"},
				EntityEvent: {"I joined my current company in January 2022", "in January 2022"},
			},
		},
		{
			name:    "whole word topics only",
			message: "Google and Gopher are not Go.",
			want: map[EntityType][]string{
				EntityTopic: {"Go"},
			},
		},
		{
			name:    "short captures discarded",
			message: "I hate it.",
			want:    map[EntityType][]string{},
		},
		{
			name:    "no matches",
			message: "nothing to see here",
			want:    map[EntityType][]string{},
		},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractMessage(tt.message)
			for _, typ := range EntityTypes {
				assert.Equal(t, tt.want[typ], texts(got, typ), "type %s", typ)
			}
		})
	}
}

func TestExtractMessage_DislikeRegexesBothMatch(t *testing.T) {
	// "I don't like X" satisfies both dislike regexes; dedupe collapses them later.
	got := NewExtractor().ExtractMessage("I don't like meetings")
	assert.Equal(t, []string{"meetings", "meetings"}, texts(got, EntityPreference))
	assert.Len(t, DedupeEntities(got), 1)
}

func TestExtract_OnlyUserMessages(t *testing.T) {
	conv := &conversation.Conversation{
		ID: "c",
		Messages: []conversation.Message{
			{Role: conversation.RoleAssistant, Content: "TypeScript is a powerful language."},
			{Role: conversation.RoleUser, Content: "I use Python."},
		},
	}
	got := NewExtractor().Extract(conv)
	require.Len(t, got, 1)
	assert.Equal(t, "Python", got[0].Text)
}

func TestExtract_EmptyInputs(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.Extract(nil))
	assert.Empty(t, e.Extract(&conversation.Conversation{ID: "empty"}))
}

func TestExtract_Deterministic(t *testing.T) {
	convs := conversation.NewSampleGenerator().Generate(conversation.SampleCount())
	e := NewExtractor()
	d := NewDeriver()
	for i := range convs {
		c := &convs[i]
		first := DedupeEntities(e.Extract(c))
		second := DedupeEntities(e.Extract(c))
		assert.Equal(t, first, second)
		assert.Equal(t,
			DedupeRelationships(d.Derive(c, first)),
			DedupeRelationships(d.Derive(c, second)))
	}
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary("Docker", " ", "Docker", "Kubernetes")
	assert.Equal(t, []string{"Docker", "Kubernetes"}, v.Terms())

	e := NewExtractor(WithVocabulary(v))
	got := e.ExtractMessage("She knows Docker and Kubernetes, not TypeScript")
	assert.Equal(t, []string{"Docker", "Kubernetes"}, texts(got, EntityTopic))

	extended := NewExtractor(WithExtraTechnologies("Docker"))
	assert.Equal(t, len(defaultTechnologies)+1, extended.Vocabulary().Len())
	got = extended.ExtractMessage("Docker with Next.js.")
	assert.Equal(t, []string{"Docker", "Next.js"}, texts(got, EntityTopic))

	empty := NewExtractor(WithVocabulary(NewVocabulary()))
	assert.Empty(t, texts(empty.ExtractMessage("Go Python"), EntityTopic))
}
