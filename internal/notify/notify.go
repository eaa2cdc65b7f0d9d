// Package notify delivers operator alerts (interested buyers, payment
// screenshots) to a chat platform. Delivery is fire-and-forget from the
// relay's point of view: implementations return errors for logging only.
package notify

import "context"

// BuyerInterest describes a participant who confirmed purchase intent.
type BuyerInterest struct {
	ParticipantID string
	Username      string // platform handle, falls back to participant id
	Name          string
	Trigger       string // the message text that matched
	ProfileURL    string // deep link back to the conversation
}

// PaymentSighting describes a payment detected in an image attachment.
type PaymentSighting struct {
	ParticipantID string
	Username      string
	ProfileURL    string
	ImageURL      string
	Amount        string
	Reference     string
	SenderName    string
}

// Notifier is the outbound alert capability.
type Notifier interface {
	// BuyerInterest announces a confirmed purchase intent.
	BuyerInterest(ctx context.Context, b BuyerInterest) error

	// PaymentSighted announces a detected payment screenshot.
	PaymentSighted(ctx context.Context, p PaymentSighting) error

	// Test sends a plain text message to verify connectivity.
	Test(ctx context.Context, text string) error
}

// Noop is a Notifier that discards everything. Used when no notification
// platform is configured.
type Noop struct{}

func (Noop) BuyerInterest(ctx context.Context, b BuyerInterest) error    { return nil }
func (Noop) PaymentSighted(ctx context.Context, p PaymentSighting) error { return nil }
func (Noop) Test(ctx context.Context, text string) error                 { return nil }
