// Package conversation defines the chat transcript types consumed by the
// analyzer, plus a generator for the built-in sample conversations.
package conversation

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSpeaker labels the human participant when no participants are declared.
const DefaultSpeaker = "User"

// Message is a single utterance in a conversation.
type Message struct {
	Role      Role      `json:"role" validate:"required,oneof=user assistant"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata describes a conversation as a whole.
type Metadata struct {
	Created      time.Time `json:"created"`
	Topic        string    `json:"topic,omitempty"`
	Participants []string  `json:"participants,omitempty" validate:"omitempty,dive,required"`
}

// Conversation is an ordered list of messages plus metadata.
type Conversation struct {
	ID       string    `json:"id" validate:"required"`
	Messages []Message `json:"messages" validate:"dive"`
	Metadata Metadata  `json:"metadata"`
}

// Speaker returns the first declared participant, or DefaultSpeaker when
// there is none or it is empty. Later participants are never consulted.
func (c *Conversation) Speaker() string {
	if c == nil || len(c.Metadata.Participants) == 0 || c.Metadata.Participants[0] == "" {
		return DefaultSpeaker
	}
	return c.Metadata.Participants[0]
}

// UserMessages returns the human-role messages in transcript order.
func (c *Conversation) UserMessages() []Message {
	if c == nil {
		return nil
	}
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			out = append(out, m)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks structural well-formedness of a conversation received from
// an outside source (ingest, MCP, HTTP).
func Validate(c *Conversation) error {
	if c == nil {
		return fmt.Errorf("conversation is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid conversation %q: %w", c.ID, err)
	}
	return nil
}
