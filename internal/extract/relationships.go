package extract

import (
	"strings"

	"github.com/hurttlocker/convograph/internal/conversation"
)

// Strength assigned per relationship rule.
const (
	MentionsStrength  = 0.70
	LikesStrength     = 0.90
	DislikesStrength  = 0.90
	KnowsStrength     = 0.95
	RelatedToStrength = 0.60
)

var (
	defaultLikeCues          = []string{"love", "like", "enjoy"}
	defaultDislikeCues       = []string{"don't like", "dislike", "hate"}
	defaultCollaborationCues = []string{"work with", "colleague"}
)

// Deriver infers relationships from lexical co-occurrence and cue phrases.
type Deriver struct {
	likeCues          []string
	dislikeCues       []string
	collaborationCues []string
}

// DeriverOption configures a Deriver.
type DeriverOption func(*Deriver)

// WithLikeCues replaces the phrases that trigger a likes relationship.
func WithLikeCues(cues ...string) DeriverOption {
	return func(d *Deriver) { d.likeCues = lowerAll(cues) }
}

// WithDislikeCues replaces the phrases that trigger a dislikes relationship.
func WithDislikeCues(cues ...string) DeriverOption {
	return func(d *Deriver) { d.dislikeCues = lowerAll(cues) }
}

// WithCollaborationCues replaces the phrases that trigger a knows relationship.
func WithCollaborationCues(cues ...string) DeriverOption {
	return func(d *Deriver) { d.collaborationCues = lowerAll(cues) }
}

// NewDeriver returns a deriver with the default cue sets.
func NewDeriver(opts ...DeriverOption) *Deriver {
	d := &Deriver{
		likeCues:          defaultLikeCues,
		dislikeCues:       defaultDislikeCues,
		collaborationCues: defaultCollaborationCues,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive emits relationships for every user message. All applicable rules
// fire independently; the result is not deduplicated.
func (d *Deriver) Derive(conv *conversation.Conversation, entities []Entity) []Relationship {
	var rels []Relationship
	speaker := conv.Speaker()

	lowered := make([]string, len(entities))
	for i, e := range entities {
		lowered[i] = strings.ToLower(e.Text)
	}

	for _, msg := range conv.UserMessages() {
		content := strings.ToLower(msg.Content)

		var mentioned []Entity
		for i, e := range entities {
			if strings.Contains(content, lowered[i]) {
				mentioned = append(mentioned, e)
			}
		}
		if len(mentioned) == 0 {
			continue
		}

		likes := containsAny(content, d.likeCues)
		dislikes := containsAny(content, d.dislikeCues)
		collab := containsAny(content, d.collaborationCues)

		for _, e := range mentioned {
			rels = append(rels, Relationship{From: speaker, To: e.Text, Type: RelMentions, Strength: MentionsStrength})
			if likes {
				rels = append(rels, Relationship{From: speaker, To: e.Text, Type: RelLikes, Strength: LikesStrength})
			}
			if dislikes {
				rels = append(rels, Relationship{From: speaker, To: e.Text, Type: RelDislikes, Strength: DislikesStrength})
			}
			if collab && e.Type == EntityPerson {
				rels = append(rels, Relationship{From: speaker, To: e.Text, Type: RelKnows, Strength: KnowsStrength})
			}
		}

		for i := 0; i < len(mentioned); i++ {
			for j := i + 1; j < len(mentioned); j++ {
				rels = append(rels, Relationship{
					From:     mentioned[i].Text,
					To:       mentioned[j].Text,
					Type:     RelRelatedTo,
					Strength: RelatedToStrength,
				})
			}
		}
	}
	return rels
}

func containsAny(s string, cues []string) bool {
	for _, c := range cues {
		if c != "" && strings.Contains(s, c) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
