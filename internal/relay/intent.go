package relay

import "strings"

// defaultConfirmExact are the whole-message confirmations (after trimming
// and lowercasing).
var defaultConfirmExact = []string{"yes", "oo", "sure", "okay", "ok"}

// defaultConfirmPhrases match anywhere in the message. English and
// Tagalog, matching how buyers actually reply.
var defaultConfirmPhrases = []string{
	"yes i want to buy",
	"i want to buy",
	"i want to purchase",
	"yes i want to purchase",
	"i'll buy it",
	"ill buy it",
	"i will buy it",
	"yes i'll buy",
	"yes ill buy",
	"i'd like to buy",
	"id like to buy",
	"i would like to buy",
	"gusto ko bumili",
	"bibilhin ko",
	"yes please",
	"yes, i want to buy",
	"yes, i'll buy",
	"oo bibili ako",
	"oo gusto ko",
	"avail",
	"i want to avail",
	"avail ako",
	"pabili",
	"buy na",
	"yes buy",
}

// intentMatcher detects purchase-confirmation messages against a literal
// phrase list. Deliberately not a classifier: the phrase list is small,
// multilingual, and curated from real buyer replies.
type intentMatcher struct {
	exact   map[string]bool
	phrases []string
}

func newIntentMatcher(exact, phrases []string) *intentMatcher {
	if len(exact) == 0 {
		exact = defaultConfirmExact
	}
	if len(phrases) == 0 {
		phrases = defaultConfirmPhrases
	}
	m := &intentMatcher{exact: make(map[string]bool, len(exact))}
	for _, e := range exact {
		m.exact[strings.ToLower(strings.TrimSpace(e))] = true
	}
	for _, p := range phrases {
		m.phrases = append(m.phrases, strings.ToLower(p))
	}
	return m
}

// isPurchaseConfirmation reports whether text confirms purchase intent.
// Matching is case-insensitive; exact matches apply to the trimmed whole
// message, phrases match as substrings.
func (m *intentMatcher) isPurchaseConfirmation(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return false
	}
	if m.exact[normalized] {
		return true
	}
	for _, p := range m.phrases {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}
