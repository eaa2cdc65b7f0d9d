package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/dauglabs/switchboard/internal/notify"
)

// MockChannel implements Channel for testing. It records sends and hands
// out sequential delivery ids ("sent-1", "sent-2", ...).
type MockChannel struct {
	mu       sync.Mutex
	sent     []SentMessage
	typing   []bool
	profiles map[string]Profile
	sendErr  error
	counter  int
}

// SentMessage is one recorded Send call.
type SentMessage struct {
	RecipientID string
	Text        string
	DeliveryID  string
}

// NewMockChannel creates a MockChannel.
func NewMockChannel() *MockChannel {
	return &MockChannel{profiles: make(map[string]Profile)}
}

// Send records the message and returns the next sequential delivery id,
// or the configured error.
func (m *MockChannel) Send(ctx context.Context, recipientID, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.counter++
	id := fmt.Sprintf("sent-%d", m.counter)
	m.sent = append(m.sent, SentMessage{RecipientID: recipientID, Text: text, DeliveryID: id})
	return id, nil
}

// Typing records the indicator state.
func (m *MockChannel) Typing(ctx context.Context, recipientID string, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, on)
	return nil
}

// Profile returns the pre-configured profile, or a bare-id profile.
func (m *MockChannel) Profile(ctx context.Context, userID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return Profile{ID: userID}, nil
}

// SetProfile pre-configures a profile for a user id.
func (m *MockChannel) SetProfile(userID string, p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
}

// SetSendError makes subsequent Send calls fail.
func (m *MockChannel) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// AllSent returns a copy of all recorded sends.
func (m *MockChannel) AllSent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent send, if any.
func (m *MockChannel) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// TypingStates returns the recorded typing indicator transitions.
func (m *MockChannel) TypingStates() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.typing))
	copy(out, m.typing)
	return out
}

// MockCompleter implements Completer with a fixed reply, recording the
// history of each call.
type MockCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]Message
}

// NewMockCompleter creates a MockCompleter returning reply.
func NewMockCompleter(reply string) *MockCompleter {
	return &MockCompleter{reply: reply}
}

// Complete records the history and returns the configured reply or error.
func (m *MockCompleter) Complete(ctx context.Context, history []Message, systemPrompt, knowledgeBase string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Message, len(history))
	copy(snapshot, history)
	m.calls = append(m.calls, snapshot)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// SetError makes subsequent Complete calls fail.
func (m *MockCompleter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the recorded histories, one per Complete call.
func (m *MockCompleter) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockClassifier implements Classifier with per-URL canned results.
type MockClassifier struct {
	mu      sync.Mutex
	results map[string]PaymentResult
	err     error
	calls   []string
}

// NewMockClassifier creates a MockClassifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{results: make(map[string]PaymentResult)}
}

// SetResult configures the classification result for a URL.
func (m *MockClassifier) SetResult(url string, r PaymentResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[url] = r
}

// SetError makes subsequent ClassifyImage calls fail.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ClassifyImage returns the canned result for the URL.
func (m *MockClassifier) ClassifyImage(ctx context.Context, imageURL string) (PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, imageURL)
	if m.err != nil {
		return PaymentResult{}, m.err
	}
	return m.results[imageURL], nil
}

// Calls returns the classified URLs in order.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockNotifier implements notify.Notifier, recording every alert.
type MockNotifier struct {
	mu       sync.Mutex
	buyers   []notify.BuyerInterest
	payments []notify.PaymentSighting
	tests    []string
	err      error
}

// NewMockNotifier creates a MockNotifier.
func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

// BuyerInterest records the alert.
func (m *MockNotifier) BuyerInterest(ctx context.Context, b notify.BuyerInterest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buyers = append(m.buyers, b)
	return m.err
}

// PaymentSighted records the alert.
func (m *MockNotifier) PaymentSighted(ctx context.Context, p notify.PaymentSighting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, p)
	return m.err
}

// Test records the text.
func (m *MockNotifier) Test(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests = append(m.tests, text)
	return m.err
}

// SetError makes subsequent calls return err (alerts are still recorded).
func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Buyers returns the recorded buyer alerts.
func (m *MockNotifier) Buyers() []notify.BuyerInterest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.BuyerInterest, len(m.buyers))
	copy(out, m.buyers)
	return out
}

// Payments returns the recorded payment alerts.
func (m *MockNotifier) Payments() []notify.PaymentSighting {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.PaymentSighting, len(m.payments))
	copy(out, m.payments)
	return out
}
