package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hurttlocker/convograph/internal/conversation"
)

// DefaultMaxMessages is the number of messages per segmented conversation.
const DefaultMaxMessages = 12

// DefaultTopic is used when no topic keyword appears in the opening messages.
const DefaultTopic = "General Discussion"

// continuationMinLen is the shortest unmatched line treated as a wrapped
// continuation of the previous message. Shorter ones are headers and noise.
const continuationMinLen = 20

var speakerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*[:：]\s*(.+)$`),
	regexp.MustCompile(`^([A-Z]+)\s*[:：]\s*(.+)$`),
	regexp.MustCompile(`^\[([^\]]+)\]\s*[:：]?\s*(.+)$`),
	regexp.MustCompile(`(?i)^([A-Z][a-z]+)\s+says?\s*[:：]?\s*(.+)$`),
}

var (
	pageNumberRe = regexp.MustCompile(`(?i)^page\s+\d+`)
	bareNumberRe = regexp.MustCompile(`^\d+$`)
)

var assistantKeywords = []string{"assistant", "ai", "bot", "system", "claude", "gpt", "model"}

type topicRule struct {
	keywords []string
	label    string
}

// Matched by substring, first rule wins.
var topicRules = []topicRule{
	{[]string{"code", "programming", "software", "development"}, "Software Development"},
	{[]string{"design", "ui", "ux", "interface"}, "Design"},
	{[]string{"data", "analysis", "analytics", "database"}, "Data Analysis"},
	{[]string{"ai", "machine learning", "ml", "model"}, "AI/ML"},
	{[]string{"project", "management", "planning"}, "Project Management"},
	{[]string{"business", "strategy", "market"}, "Business"},
}

// Segmenter groups transcript lines into conversations.
type Segmenter struct {
	// MaxMessages caps each conversation. Zero means DefaultMaxMessages.
	MaxMessages int
	// Now anchors message timestamps. Defaults to time.Now.
	Now func() time.Time
	// NewID names each conversation. Defaults to uuid.NewString.
	NewID func() string
}

type speakerMessage struct {
	speaker string
	msg     conversation.Message
}

// Segment parses speaker lines into messages and cuts them into
// conversations of at most MaxMessages. Lines that match no speaker pattern
// are appended to the previous message when long enough, else dropped.
func (s *Segmenter) Segment(lines []string) []conversation.Conversation {
	limit := s.MaxMessages
	if limit <= 0 {
		limit = DefaultMaxMessages
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	base := now().UTC()

	var (
		out     []conversation.Conversation
		current []speakerMessage
		count   int
	)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || pageNumberRe.MatchString(line) || bareNumberRe.MatchString(line) {
			continue
		}

		if speaker, content, ok := matchSpeaker(line); ok {
			current = append(current, speakerMessage{
				speaker: speaker,
				msg: conversation.Message{
					Role:      RoleForSpeaker(speaker),
					Content:   content,
					Timestamp: base.Add(time.Duration(count) * time.Minute),
				},
			})
			count++
		} else if len(current) > 0 && len(line) > continuationMinLen {
			last := &current[len(current)-1].msg
			last.Content += " " + line
		}

		if len(current) >= limit {
			out = append(out, s.build(current))
			current = nil
		}
	}
	if len(current) > 0 {
		out = append(out, s.build(current))
	}
	return out
}

func matchSpeaker(line string) (speaker, content string, ok bool) {
	for _, re := range speakerPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		speaker = strings.TrimSpace(m[1])
		content = strings.TrimSpace(m[2])
		if content != "" {
			return speaker, content, true
		}
	}
	return "", "", false
}

// RoleForSpeaker classifies a transcript speaker label.
func RoleForSpeaker(speaker string) conversation.Role {
	lower := strings.ToLower(speaker)
	for _, kw := range assistantKeywords {
		if strings.Contains(lower, kw) {
			return conversation.RoleAssistant
		}
	}
	return conversation.RoleUser
}

// InferTopic labels a conversation from its opening text.
func InferTopic(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.label
			}
		}
	}
	return DefaultTopic
}

func (s *Segmenter) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Segmenter) build(msgs []speakerMessage) conversation.Conversation {
	out := make([]conversation.Message, len(msgs))
	seen := make(map[string]bool)
	var participants []string
	var opening []string
	for i, sm := range msgs {
		out[i] = sm.msg
		if i < 3 {
			opening = append(opening, sm.msg.Content)
		}
		if sm.msg.Role == conversation.RoleUser && !seen[sm.speaker] {
			seen[sm.speaker] = true
			participants = append(participants, sm.speaker)
		}
	}

	return conversation.Conversation{
		ID:       s.newID(),
		Messages: out,
		Metadata: conversation.Metadata{
			Created:      out[0].Timestamp,
			Topic:        InferTopic(strings.Join(opening, " ")),
			Participants: participants,
		},
	}
}
