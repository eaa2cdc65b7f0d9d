package convo

import "sync"

// DefaultSentLogCap is the default number of sent-message ids retained.
const DefaultSentLogCap = 1000

// SentLog remembers the provenance ids of messages the relay itself sent,
// so echo events can be told apart from replies a human agent typed into
// the channel. It retains at most cap ids, evicting oldest first.
type SentLog struct {
	mu    sync.Mutex
	cap   int
	ids   map[string]struct{}
	order []string
}

// NewSentLog creates a SentLog retaining at most cap ids. A cap of zero
// or less falls back to DefaultSentLogCap.
func NewSentLog(cap int) *SentLog {
	if cap <= 0 {
		cap = DefaultSentLogCap
	}
	return &SentLog{
		cap: cap,
		ids: make(map[string]struct{}),
	}
}

// Add records an id. Adding an already-known id is a no-op.
func (l *SentLog) Add(id string) {
	if id == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; ok {
		return
	}
	l.ids[id] = struct{}{}
	l.order = append(l.order, id)
	for len(l.order) > l.cap {
		delete(l.ids, l.order[0])
		l.order = l.order[1:]
	}
}

// Has reports whether an id was recorded and has not been evicted.
func (l *SentLog) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok
}

// Len returns the number of retained ids.
func (l *SentLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}
