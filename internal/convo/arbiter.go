package convo

import "time"

// DefaultCooldown is how long a human agent's silence must last before
// automation may take the conversation back.
const DefaultCooldown = 30 * time.Minute

// Takeover marks the conversation as human-owned and appends the human
// agent's outbound text as an assistant turn. Called when an echo event
// carries a provenance id the relay never sent: a human replied through
// the channel, bypassing automation. A repeat takeover refreshes the
// silence window.
func Takeover(c *Conversation, text, externalID string, now time.Time) {
	c.State = HumanActive
	since := now
	c.TakeoverSince = &since

	human := false
	c.Append(Turn{
		Role:           RoleAssistant,
		Content:        text,
		Timestamp:      now,
		ExternalID:     externalID,
		FromAutomation: &human,
	})
}

// ShouldRespond reports whether automation currently owns the right to
// reply. When the conversation is human-owned it evaluates the resume
// rules and may flip the state back to AIActive (clearing TakeoverSince):
//
//  1. Within the cool-down window since takeover, the human keeps the
//     conversation; no further checks.
//  2. After the window, if the last assistant turn was human-authored,
//     automation resumes only once that turn is itself older than the
//     cool-down (the human went silent while the customer kept writing).
//  3. If the last assistant turn came from automation, or none exists,
//     there is no human silence to wait out; resume immediately.
//
// The decision is a pure function of state, history and now: calling it
// again without new events yields the same answer.
func ShouldRespond(c *Conversation, cooldown time.Duration, now time.Time) bool {
	if c.State != HumanActive {
		return true
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now.Sub(*c.TakeoverSince) < cooldown {
		return false
	}

	lastUser := c.LastTurn(RoleUser)
	if lastUser == nil {
		return false
	}
	lastAssistant := c.LastTurn(RoleAssistant)
	if lastAssistant == nil || lastAssistant.FromAutomation == nil || *lastAssistant.FromAutomation {
		resume(c)
		return true
	}
	if now.Sub(lastAssistant.Timestamp) >= cooldown {
		resume(c)
		return true
	}
	return false
}

func resume(c *Conversation) {
	c.State = AIActive
	c.TakeoverSince = nil
}
