// Package extract turns conversation messages into typed entities and
// relationships without any model in the loop.
//
// The pipeline is deterministic pattern matching:
// - People ("my colleague Maria", "John is ...")
// - Preferences and dislikes ("I love TypeScript", "I hate meetings")
// - Topics from a closed technology vocabulary ("Neo4j", "Go")
// - Facts ("created by Microsoft", bare years)
// - Events ("I joined ...", "in January 2022")
//
// Repeated observations are collapsed by Dedupe*, relationships are inferred
// from co-occurrence and cue phrases by Deriver, and Synthesize renders
// summary lines for downstream answer composition.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hurttlocker/convograph/internal/conversation"
)

// Confidence assigned per pattern family.
const (
	PersonConfidence     = 0.90
	PreferenceConfidence = 0.85
	TopicConfidence      = 1.00
	FactConfidence       = 0.80
	EventConfidence      = 0.85
)

// patternFamily is one group of regexes that all emit the same entity type.
type patternFamily struct {
	name       string
	entityType EntityType
	confidence float64
	minLen     int  // trimmed text shorter than this is noise
	wholeMatch bool // use the full match instead of capture group 1
	regexes    []*regexp.Regexp
}

// Extractor scans user messages for entities.
type Extractor struct {
	families   []patternFamily
	vocabulary *Vocabulary
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithVocabulary replaces the topic vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocabulary = v
		}
	}
}

// WithExtraTechnologies extends the default vocabulary.
func WithExtraTechnologies(terms ...string) Option {
	return func(e *Extractor) {
		e.vocabulary.Add(terms...)
	}
}

// NewExtractor creates an extractor with the built-in pattern families.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		families:   initPatternFamilies(),
		vocabulary: DefaultVocabulary(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Vocabulary exposes the topic vocabulary in use.
func (e *Extractor) Vocabulary() *Vocabulary {
	return e.vocabulary
}

const monthAlternation = `January|February|March|April|May|June|July|August|September|October|November|December`

// initPatternFamilies returns the families in extraction order. The topic
// family is vocabulary-driven and handled separately, between preferences
// and facts.
func initPatternFamilies() []patternFamily {
	return []patternFamily{
		{
			name:       "person",
			entityType: EntityPerson,
			confidence: PersonConfidence,
			minLen:     2,
			regexes: []*regexp.Regexp{
				regexp.MustCompile(`(?:my colleague|my friend|I work with)\s+([A-Z][a-z]+)`),
				regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:is|was|works|specializes)`),
			},
		},
		{
			name:       "like",
			entityType: EntityPreference,
			confidence: PreferenceConfidence,
			minLen:     3,
			regexes: []*regexp.Regexp{
				regexp.MustCompile(`(?i)I (?:love|like|enjoy|prefer)\s+([^.!?]+)`),
				regexp.MustCompile(`(?i)I'm (?:interested in|into)\s+([^.!?]+)`),
				regexp.MustCompile(`(?i)\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+is (?:my favorite|great|amazing)`),
			},
		},
		{
			name:       "dislike",
			entityType: EntityPreference,
			confidence: PreferenceConfidence,
			minLen:     3,
			regexes: []*regexp.Regexp{
				regexp.MustCompile(`(?i)I (?:don't like|dislike|hate)\s+([^.!?]+)`),
				regexp.MustCompile(`(?i)I (?:really )?don't (?:like|enjoy)\s+([^.!?]+)`),
			},
		},
		{
			name:       "fact",
			entityType: EntityFact,
			confidence: FactConfidence,
			minLen:     1,
			regexes: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:was created|was first released|created by|developed by)\s+([^.!?]+)`),
				regexp.MustCompile(`\b(\d{4})\b`),
			},
		},
		{
			name:       "event",
			entityType: EntityEvent,
			confidence: EventConfidence,
			minLen:     4,
			wholeMatch: true,
			regexes: []*regexp.Regexp{
				regexp.MustCompile(`(?i)I (?:started|joined|got promoted|attended)\s+([^.!?]+)`),
				regexp.MustCompile(`(?i)in (?:` + monthAlternation + `)\s+\d{4}`),
			},
		},
	}
}

// Extract returns every entity found in the conversation's user messages,
// in extraction order. The result is not deduplicated.
func (e *Extractor) Extract(conv *conversation.Conversation) []Entity {
	var entities []Entity
	for _, msg := range conv.UserMessages() {
		entities = append(entities, e.ExtractMessage(msg.Content)...)
	}
	return entities
}

// ExtractMessage applies all pattern families to one message.
func (e *Extractor) ExtractMessage(content string) []Entity {
	var out []Entity
	for _, fam := range e.families {
		if fam.entityType == EntityFact {
			// Topics sit between preferences and facts.
			out = append(out, e.extractTopics(content)...)
		}
		out = append(out, fam.apply(content)...)
	}
	return out
}

func (f patternFamily) apply(content string) []Entity {
	var out []Entity
	for _, re := range f.regexes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			text := m[0]
			if !f.wholeMatch && len(m) > 1 && m[1] != "" {
				text = m[1]
			}
			text = strings.TrimSpace(text)
			if utf8.RuneCountInString(text) < f.minLen {
				continue
			}
			out = append(out, Entity{
				Text:       text,
				Type:       f.entityType,
				Confidence: f.confidence,
				Context:    content,
			})
		}
	}
	return out
}

func (e *Extractor) extractTopics(content string) []Entity {
	re := e.vocabulary.matcher()
	if re == nil {
		return nil
	}
	var out []Entity
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		out = append(out, Entity{
			Text:       m[1],
			Type:       EntityTopic,
			Confidence: TopicConfidence,
			Context:    content,
		})
	}
	return out
}
