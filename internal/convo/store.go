package convo

import (
	"sync"
	"time"
)

// Default configuration values for Store.
const (
	DefaultMaxTurns = 50
	DefaultTTL      = 24 * time.Hour
)

// Store maps participant ids to conversations. Mutation happens through
// Do, which serializes all processing for one participant id: two events
// for the same participant can never interleave their read/mutate/write
// sequences. Events for different participants run concurrently.
type Store struct {
	clock    Clock
	ttl      time.Duration
	maxTurns int

	mu     sync.Mutex
	convos map[string]*Conversation
	locks  map[string]*sync.Mutex
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	Clock    Clock         // defaults to SystemClock
	TTL      time.Duration // defaults to DefaultTTL
	MaxTurns int           // per-conversation history cap, defaults to DefaultMaxTurns
}

// NewStore creates a Store.
func NewStore(opts StoreOpts) *Store {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		clock:    clock,
		ttl:      ttl,
		maxTurns: maxTurns,
		convos:   make(map[string]*Conversation),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Do runs fn against the conversation for participantID under that
// participant's lock. A missing or TTL-expired entry is replaced by a
// fresh conversation before fn runs. The conversation is written back
// only if it holds at least one turn, so ignored events never leave an
// empty conversation in the store.
func (s *Store) Do(participantID string, fn func(c *Conversation)) {
	lk := s.lockKey(participantID)
	defer lk.Unlock()

	c := s.getOrCreate(participantID)
	fn(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(c.Turns) > 0 {
		s.convos[participantID] = c
	}
}

// lockKey acquires the live key lock for a participant. Sweep may reap a
// lock between keyLock handing out the pointer and Lock succeeding; if
// the map no longer holds the mutex we locked, it is orphaned and a
// concurrent Do could be holding a fresh one, so drop it and retry.
func (s *Store) lockKey(participantID string) *sync.Mutex {
	for {
		lk := s.keyLock(participantID)
		lk.Lock()
		s.mu.Lock()
		live := s.locks[participantID] == lk
		s.mu.Unlock()
		if live {
			return lk
		}
		lk.Unlock()
	}
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convos)
}

// Sweep removes conversations whose LastUpdated predates now minus the
// TTL and returns how many were evicted. Staleness is also checked on
// read in Do, so the sweep only bounds memory; it is not the sole
// eviction mechanism.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.convos {
		if now.Sub(c.LastUpdated) > s.ttl {
			delete(s.convos, id)
			removed++
			// Reap the key lock only if nothing holds it; a held lock
			// means an event for this participant is mid-flight. A Do
			// that got this pointer but has not locked yet detects the
			// reap in lockKey and retries on a fresh mutex.
			if lk, ok := s.locks[id]; ok && lk.TryLock() {
				lk.Unlock()
				delete(s.locks, id)
			}
		}
	}
	return removed
}

// keyLock returns the mutex for a participant id, creating it on first use.
func (s *Store) keyLock(participantID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.locks[participantID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[participantID] = lk
	}
	return lk
}

// getOrCreate fetches the live conversation for a participant, treating a
// TTL-expired entry as absent. Callers must hold the participant's key lock.
func (s *Store) getOrCreate(participantID string) *Conversation {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convos[participantID]
	if !ok || now.Sub(c.LastUpdated) > s.ttl {
		c = &Conversation{
			ParticipantID: participantID,
			State:         AIActive,
			LastUpdated:   now,
			maxTurns:      s.maxTurns,
		}
	}
	return c
}
