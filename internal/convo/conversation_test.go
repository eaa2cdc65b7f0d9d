package convo

import (
	"fmt"
	"testing"
	"time"
)

func TestAppend_Order(t *testing.T) {
	c := &Conversation{maxTurns: 50}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c.Append(Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i), Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	if len(c.Turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(c.Turns))
	}
	for i, turn := range c.Turns {
		if turn.Content != fmt.Sprintf("m%d", i) {
			t.Errorf("turn %d: expected m%d, got %q", i, i, turn.Content)
		}
	}
	if !c.LastUpdated.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("LastUpdated not bumped to last turn timestamp")
	}
}

func TestAppend_TruncatesFront(t *testing.T) {
	c := &Conversation{maxTurns: 3}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		c.Append(Turn{Role: RoleUser, Content: fmt.Sprintf("m%d", i), Timestamp: base})
		if len(c.Turns) > 3 {
			t.Fatalf("cap exceeded after append %d: %d turns", i, len(c.Turns))
		}
	}

	want := []string{"m7", "m8", "m9"}
	for i, w := range want {
		if c.Turns[i].Content != w {
			t.Errorf("turn %d: expected %q, got %q", i, w, c.Turns[i].Content)
		}
	}
}

func TestHistory_PreservesOrderAndStripsMetadata(t *testing.T) {
	auto := true
	c := &Conversation{maxTurns: 2}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Append(Turn{Role: RoleUser, Content: "dropped", Timestamp: base})
	c.Append(Turn{Role: RoleUser, Content: "hello", Timestamp: base, ExternalID: "m-1"})
	c.Append(Turn{Role: RoleAssistant, Content: "hi there", Timestamp: base, FromAutomation: &auto})

	msgs := c.History()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages after truncation, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "hello" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "hi there" {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
}

func TestLastTurn(t *testing.T) {
	c := &Conversation{maxTurns: 50}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if c.LastTurn(RoleAssistant) != nil {
		t.Fatal("expected nil for empty conversation")
	}

	auto := true
	c.Append(Turn{Role: RoleUser, Content: "q1", Timestamp: base})
	c.Append(Turn{Role: RoleAssistant, Content: "a1", Timestamp: base, FromAutomation: &auto})
	c.Append(Turn{Role: RoleUser, Content: "q2", Timestamp: base})

	if got := c.LastTurn(RoleUser); got == nil || got.Content != "q2" {
		t.Errorf("expected last user turn q2, got %+v", got)
	}
	if got := c.LastTurn(RoleAssistant); got == nil || got.Content != "a1" {
		t.Errorf("expected last assistant turn a1, got %+v", got)
	}
}
