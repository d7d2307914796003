// README: Conversation context, transcript, and state lifecycle.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"tripflow/internal/intent"
)

// State is where the conversation stands in collecting a complete intent.
type State string

const (
	StateCollectingDestination State = "COLLECTING_DESTINATION"
	StateCollectingDate        State = "COLLECTING_DATE"
	StateCollectingDuration    State = "COLLECTING_DURATION"
	StateReadyToGenerate       State = "READY_TO_GENERATE"
	StateError                 State = "ERROR"
)

// AllowedTransitions captures the legal state moves. A single turn can
// resolve several fields at once, so every collecting state can reach
// every other, and ready can fall back when the user changes their mind.
var AllowedTransitions = map[State][]State{
	StateCollectingDestination: {StateCollectingDestination, StateCollectingDate, StateCollectingDuration, StateReadyToGenerate, StateError},
	StateCollectingDate:        {StateCollectingDestination, StateCollectingDate, StateCollectingDuration, StateReadyToGenerate, StateError},
	StateCollectingDuration:    {StateCollectingDestination, StateCollectingDate, StateCollectingDuration, StateReadyToGenerate, StateError},
	StateReadyToGenerate:       {StateCollectingDestination, StateCollectingDate, StateCollectingDuration, StateReadyToGenerate, StateError},
	StateError:                 {StateCollectingDestination, StateCollectingDate, StateCollectingDuration, StateError},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Role tags a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the transcript.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the full conversation state carried between turns. It
// travels to the client in serialized form and comes back with the next
// request, so the API itself stays stateless.
type Context struct {
	SessionID string             `json:"sessionId"`
	Messages  []Message          `json:"messages"`
	Intent    *intent.TripIntent `json:"intent"`
	State     State              `json:"state"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewContext starts a fresh conversation.
func NewContext(now time.Time) *Context {
	return &Context{
		SessionID: uuid.NewString(),
		Intent:    intent.New(),
		State:     StateCollectingDestination,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendUser records a user turn.
func (c *Context) AppendUser(text string, now time.Time) {
	c.Messages = append(c.Messages, Message{Role: RoleUser, Text: text, Timestamp: now})
	c.UpdatedAt = now
}

// AppendAssistant records an assistant turn.
func (c *Context) AppendAssistant(text string, now time.Time) {
	c.Messages = append(c.Messages, Message{Role: RoleAssistant, Text: text, Timestamp: now})
	c.UpdatedAt = now
}

// UserTexts returns the user-side transcript in order.
func (c *Context) UserTexts() []string {
	var out []string
	for _, m := range c.Messages {
		if m.Role == RoleUser && strings.TrimSpace(m.Text) != "" {
			out = append(out, m.Text)
		}
	}
	return out
}
