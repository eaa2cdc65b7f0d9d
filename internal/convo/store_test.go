package convo

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a settable Clock for deterministic time-window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestStore_DoCreatesFresh(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(StoreOpts{Clock: clock})

	s.Do("user-1", func(c *Conversation) {
		if c.State != AIActive {
			t.Errorf("new conversation should start AIActive, got %s", c.State)
		}
		if len(c.Turns) != 0 {
			t.Errorf("new conversation should have no turns")
		}
		c.Append(Turn{Role: RoleUser, Content: "hi", Timestamp: clock.Now()})
	})

	if s.Len() != 1 {
		t.Fatalf("expected 1 stored conversation, got %d", s.Len())
	}
}

func TestStore_EmptyConversationNotStored(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(StoreOpts{Clock: clock})

	s.Do("user-1", func(c *Conversation) {})

	if s.Len() != 0 {
		t.Fatalf("conversation with zero turns must not be stored, got %d entries", s.Len())
	}
}

func TestStore_StaleEntryTreatedAsAbsent(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(StoreOpts{Clock: clock, TTL: time.Hour})

	s.Do("user-1", func(c *Conversation) {
		c.Append(Turn{Role: RoleUser, Content: "old", Timestamp: clock.Now()})
		Takeover(c, "human here", "mid-h", clock.Now())
	})

	// Within TTL the same conversation comes back.
	clock.Advance(30 * time.Minute)
	s.Do("user-1", func(c *Conversation) {
		if len(c.Turns) != 2 || c.State != HumanActive {
			t.Errorf("expected live conversation with 2 turns, got %d turns state %s", len(c.Turns), c.State)
		}
	})

	// Past TTL the entry reads as absent even before any sweep.
	clock.Advance(2 * time.Hour)
	s.Do("user-1", func(c *Conversation) {
		if len(c.Turns) != 0 {
			t.Errorf("stale conversation should read as fresh, got %d turns", len(c.Turns))
		}
		if c.State != AIActive {
			t.Errorf("fresh conversation should be AIActive, got %s", c.State)
		}
	})
}

func TestStore_Sweep(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(StoreOpts{Clock: clock, TTL: time.Hour})

	s.Do("stale", func(c *Conversation) {
		c.Append(Turn{Role: RoleUser, Content: "hi", Timestamp: clock.Now()})
	})
	clock.Advance(50 * time.Minute)
	s.Do("live", func(c *Conversation) {
		c.Append(Turn{Role: RoleUser, Content: "hi", Timestamp: clock.Now()})
	})
	clock.Advance(30 * time.Minute)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 remaining conversation, got %d", s.Len())
	}

	// Live entry still reachable with its history.
	s.Do("live", func(c *Conversation) {
		if len(c.Turns) != 1 {
			t.Errorf("live conversation lost its history")
		}
	})
}

func TestStore_PerKeySerialization(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(StoreOpts{Clock: clock, MaxTurns: 500})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do("user-1", func(c *Conversation) {
				// Read-modify-write that would lose appends if two
				// events for the same key interleaved.
				n := len(c.Turns)
				c.Append(Turn{Role: RoleUser, Content: "m", Timestamp: clock.Now()})
				if len(c.Turns) != n+1 {
					t.Errorf("interleaved append detected")
				}
			})
		}()
	}
	wg.Wait()

	s.Do("user-1", func(c *Conversation) {
		if len(c.Turns) != 100 {
			t.Fatalf("expected 100 turns after concurrent appends, got %d", len(c.Turns))
		}
	})
}

// tickingClock advances on every read so stored conversations are
// always past an aggressive TTL, keeping Sweep busy evicting and
// reaping locks while Do traffic is in flight.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *tickingClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(time.Millisecond)
	return f.now
}

func TestStore_SerializationSurvivesSweep(t *testing.T) {
	clock := &tickingClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(StoreOpts{Clock: clock, TTL: time.Nanosecond})

	stop := make(chan struct{})
	var sweeps sync.WaitGroup
	sweeps.Add(1)
	go func() {
		defer sweeps.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Sweep()
			}
		}
	}()

	// Mutual exclusion per key must hold even while Sweep evicts the
	// conversation and reaps its lock between events.
	var active int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Do("user-1", func(c *Conversation) {
					if n := atomic.AddInt32(&active, 1); n != 1 {
						t.Errorf("%d events inside the critical section for one key", n)
					}
					c.Append(Turn{Role: RoleUser, Content: "m", Timestamp: clock.Now()})
					atomic.AddInt32(&active, -1)
				})
			}
		}()
	}
	wg.Wait()
	close(stop)
	sweeps.Wait()
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore(StoreOpts{})
	if s.ttl != DefaultTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTTL, s.ttl)
	}
	if s.maxTurns != DefaultMaxTurns {
		t.Errorf("expected default max turns %d, got %d", DefaultMaxTurns, s.maxTurns)
	}
}
