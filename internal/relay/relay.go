// Package relay routes decoded webhook events between the messaging
// channel, the completion capability, and the human agents sharing the
// inbox. Its job is deciding, per conversation, whether automation or a
// human currently owns the right to reply, and acting on that decision.
package relay

import (
	"context"

	"github.com/dauglabs/switchboard/internal/notify"
)

// Event is a single decoded messaging event from the webhook transport.
type Event struct {
	SenderID    string
	RecipientID string
	Message     *EventMessage // nil means the event carries no message
}

// EventMessage is the message payload of an event.
type EventMessage struct {
	ID          string // transport-assigned provenance id
	Text        string
	Attachments []Attachment
	IsEcho      bool // true when the message was sent from our own account
}

// Attachment is a media attachment on an inbound message.
type Attachment struct {
	Type string // "image", "video", "audio", "file"
	URL  string
}

// Profile is the participant profile the channel exposes.
type Profile struct {
	ID       string
	Name     string
	Username string
}

// Channel is the outbound messaging capability. A send may be chunked
// internally by the implementation; the returned id is the provenance id
// of the (last) delivered unit, usable for echo correlation.
type Channel interface {
	Send(ctx context.Context, recipientID, text string) (string, error)
	Typing(ctx context.Context, recipientID string, on bool) error
	Profile(ctx context.Context, userID string) (Profile, error)
}

// Completer is the language-model completion capability.
type Completer interface {
	Complete(ctx context.Context, history []Message, systemPrompt, knowledgeBase string) (string, error)
}

// Message mirrors convo.Message at the capability boundary.
type Message struct {
	Role    string
	Content string
}

// PaymentResult is what the image classifier reports for one image.
type PaymentResult struct {
	IsPayment       bool
	Amount          string
	SenderName      string
	ReferenceNumber string
}

// Classifier is the payment-image classification capability.
type Classifier interface {
	ClassifyImage(ctx context.Context, imageURL string) (PaymentResult, error)
}

// Recorder persists lead and payment sightings for later review. All
// writes are best-effort from the relay's perspective.
type Recorder interface {
	RecordLead(ctx context.Context, participantID, username, trigger string) error
	RecordPayment(ctx context.Context, participantID, username, imageURL, amount, reference string) error
}

// Notifier re-exports the notify capability consumed by the relay.
type Notifier = notify.Notifier
