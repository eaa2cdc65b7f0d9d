package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/dauglabs/switchboard/internal/relay"
)

// Wire structs mirror the Meta webhook payload shape. Only the fields
// the relay consumes are decoded.

type payload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender    party        `json:"sender"`
	Recipient party        `json:"recipient"`
	Timestamp int64        `json:"timestamp"`
	Message   *wireMessage `json:"message"`
}

type party struct {
	ID string `json:"id"`
}

type wireMessage struct {
	MID         string           `json:"mid"`
	Text        string           `json:"text"`
	IsEcho      bool             `json:"is_echo"`
	Attachments []wireAttachment `json:"attachments"`
}

type wireAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

func decodePayload(body []byte) (*payload, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("webhook: decode payload: %w", err)
	}
	return &p, nil
}

// events flattens the entry batch into relay events.
func (p *payload) events() []relay.Event {
	var out []relay.Event
	for _, e := range p.Entry {
		for _, m := range e.Messaging {
			ev := relay.Event{
				SenderID:    m.Sender.ID,
				RecipientID: m.Recipient.ID,
			}
			if m.Message != nil {
				msg := &relay.EventMessage{
					ID:     m.Message.MID,
					Text:   m.Message.Text,
					IsEcho: m.Message.IsEcho,
				}
				for _, a := range m.Message.Attachments {
					msg.Attachments = append(msg.Attachments, relay.Attachment{
						Type: a.Type,
						URL:  a.Payload.URL,
					})
				}
				ev.Message = msg
			}
			out = append(out, ev)
		}
	}
	return out
}
