package relay

import (
	"context"
	"fmt"
	"log"

	"github.com/dauglabs/switchboard/internal/convo"
	"github.com/dauglabs/switchboard/internal/notify"
)

const profileURLBase = "https://www.instagram.com/"

// respond decides what, if anything, to send back for a text message.
// Scripted purchase confirmations short-circuit the completion call;
// everything else goes to the language model with the full history.
func (h *Handler) respond(ctx context.Context, c *convo.Conversation, ev Event, allowed bool) {
	if !h.enabled {
		fmt.Fprintf(h.out, "relay: responses disabled, not replying to %s\n", ev.SenderID)
		return
	}
	if !allowed {
		fmt.Fprintf(h.out, "relay: human owns conversation %s, staying quiet\n", ev.SenderID)
		return
	}

	if h.intent.isPurchaseConfirmation(ev.Message.Text) {
		h.confirmPurchase(ctx, c, ev)
		return
	}

	reply, err := h.completer.Complete(ctx, historyFor(c), h.systemPrompt, h.knowledgeBase)
	if err != nil {
		log.Printf("relay: completion for %s: %v", ev.SenderID, err)
		return
	}
	h.sendReply(ctx, c, ev.SenderID, reply)
}

// confirmPurchase handles a matched purchase confirmation: notify the
// operator with the buyer's profile, record the lead, and send the
// scripted reply. The completion capability is not consulted.
func (h *Handler) confirmPurchase(ctx context.Context, c *convo.Conversation, ev Event) {
	profile := h.profileFor(ctx, ev.SenderID)
	handle := profile.Username
	if handle == "" {
		handle = ev.SenderID
	}

	if err := h.notifier.BuyerInterest(ctx, notify.BuyerInterest{
		ParticipantID: ev.SenderID,
		Username:      profile.Username,
		Name:          profile.Name,
		Trigger:       ev.Message.Text,
		ProfileURL:    profileURLBase + handle,
	}); err != nil {
		log.Printf("relay: buyer notification for %s: %v", ev.SenderID, err)
	}
	if h.recorder != nil {
		if err := h.recorder.RecordLead(ctx, ev.SenderID, profile.Username, ev.Message.Text); err != nil {
			log.Printf("relay: record lead for %s: %v", ev.SenderID, err)
		}
	}

	h.sendReply(ctx, c, ev.SenderID, purchaseReply)
	fmt.Fprintf(h.out, "relay: purchase confirmation from %s (@%s)\n", ev.SenderID, handle)
}

// analyzeImages runs payment classification over the image attachments.
// Detected payments always notify the operator; the acknowledgment reply
// additionally requires automation to own the conversation.
func (h *Handler) analyzeImages(ctx context.Context, c *convo.Conversation, ev Event, urls []string, allowed bool) {
	if h.classifier == nil {
		return
	}
	for _, url := range urls {
		result, err := h.classifier.ClassifyImage(ctx, url)
		if err != nil {
			log.Printf("relay: classify image for %s: %v", ev.SenderID, err)
			continue
		}
		if !result.IsPayment {
			continue
		}

		profile := h.profileFor(ctx, ev.SenderID)
		handle := profile.Username
		if handle == "" {
			handle = ev.SenderID
		}
		fmt.Fprintf(h.out, "relay: payment detected from %s (amount %q)\n", ev.SenderID, result.Amount)

		if err := h.notifier.PaymentSighted(ctx, notify.PaymentSighting{
			ParticipantID: ev.SenderID,
			Username:      profile.Username,
			ProfileURL:    profileURLBase + handle,
			ImageURL:      url,
			Amount:        result.Amount,
			Reference:     result.ReferenceNumber,
			SenderName:    result.SenderName,
		}); err != nil {
			log.Printf("relay: payment notification for %s: %v", ev.SenderID, err)
		}
		if h.recorder != nil {
			if err := h.recorder.RecordPayment(ctx, ev.SenderID, profile.Username, url, result.Amount, result.ReferenceNumber); err != nil {
				log.Printf("relay: record payment for %s: %v", ev.SenderID, err)
			}
		}

		if h.enabled && allowed {
			h.sendReply(ctx, c, ev.SenderID, paymentAckReply)
		}
	}
}

// sendReply sends text to a participant, registers the delivery id for
// echo correlation, and appends the automation turn. Returns false when
// the send failed; the inbound turn stays recorded either way.
func (h *Handler) sendReply(ctx context.Context, c *convo.Conversation, recipientID, text string) bool {
	id, err := h.channel.Send(ctx, recipientID, text)
	if err != nil {
		log.Printf("relay: send to %s: %v", recipientID, err)
		return false
	}
	h.sent.Add(id)

	auto := true
	c.Append(convo.Turn{
		Role:           convo.RoleAssistant,
		Content:        text,
		Timestamp:      h.clock.Now(),
		ExternalID:     id,
		FromAutomation: &auto,
	})
	return true
}

// profileFor looks up a participant's profile, degrading to the bare id
// when the channel cannot provide one.
func (h *Handler) profileFor(ctx context.Context, participantID string) Profile {
	profile, err := h.channel.Profile(ctx, participantID)
	if err != nil {
		log.Printf("relay: profile lookup for %s: %v", participantID, err)
		return Profile{ID: participantID}
	}
	return profile
}

// historyFor converts the conversation history to the completion shape.
func historyFor(c *convo.Conversation) []Message {
	history := c.History()
	msgs := make([]Message, len(history))
	for i, m := range history {
		msgs[i] = Message{Role: string(m.Role), Content: m.Content}
	}
	return msgs
}
