// Package convo holds the in-memory conversation state the relay operates
// on: per-participant turn history, the human-takeover state machine, and
// the bounded log of message ids the relay itself has sent.
package convo

import "time"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TakeoverState says who currently owns the right to reply in a
// conversation: automation or a human agent.
type TakeoverState string

const (
	AIActive    TakeoverState = "ai_active"
	HumanActive TakeoverState = "human_active"
)

// Turn is a single message in a conversation.
type Turn struct {
	Role       Role
	Content    string
	Timestamp  time.Time
	ExternalID string // platform message id, used to correlate echoes

	// FromAutomation is set for assistant turns only: true when the relay
	// generated the reply, false when a human agent sent it through the
	// channel. Nil for user turns.
	FromAutomation *bool
}

// Message is a role/content pair, the shape the completion capability
// consumes. Provenance and timestamps are stripped.
type Message struct {
	Role    Role
	Content string
}

// Conversation is the per-participant state: ordered turn history plus
// takeover bookkeeping. TakeoverSince is set if and only if State is
// HumanActive.
type Conversation struct {
	ParticipantID     string
	Turns             []Turn
	LastUpdated       time.Time
	State             TakeoverState
	TakeoverSince     *time.Time
	LastUserMessageAt *time.Time

	maxTurns int
}

// Append pushes a turn to the end of the history, bumps LastUpdated, and
// truncates from the front so at most maxTurns turns are retained. Order of
// the retained suffix is preserved.
func (c *Conversation) Append(t Turn) {
	c.Turns = append(c.Turns, t)
	c.LastUpdated = t.Timestamp
	if c.maxTurns > 0 && len(c.Turns) > c.maxTurns {
		c.Turns = c.Turns[len(c.Turns)-c.maxTurns:]
	}
}

// History returns the turn history as role/content pairs in insertion
// order, for use as completion context.
func (c *Conversation) History() []Message {
	msgs := make([]Message, len(c.Turns))
	for i, t := range c.Turns {
		msgs[i] = Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// LastTurn returns the most recent turn with the given role, scanning from
// the end, or nil if none exists.
func (c *Conversation) LastTurn(role Role) *Turn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == role {
			return &c.Turns[i]
		}
	}
	return nil
}
