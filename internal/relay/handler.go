package relay

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dauglabs/switchboard/internal/convo"
	"github.com/dauglabs/switchboard/internal/notify"
)

// Handler classifies inbound webhook events and routes them through the
// conversation store and takeover arbitration: echoes either confirm our
// own sends or signal a human takeover; genuine inbound messages are
// recorded and, when automation owns the conversation, answered.
type Handler struct {
	store      *convo.Store
	sent       *convo.SentLog
	channel    Channel
	completer  Completer
	classifier Classifier
	notifier   notify.Notifier
	recorder   Recorder
	clock      convo.Clock
	cooldown   time.Duration
	enabled    bool

	systemPrompt  string
	knowledgeBase string
	intent        *intentMatcher
	out           io.Writer
}

// HandlerOpts holds parameters for creating a Handler.
type HandlerOpts struct {
	Store     *convo.Store
	SentLog   *convo.SentLog
	Channel   Channel
	Completer Completer

	Classifier Classifier      // optional; payment analysis disabled when nil
	Notifier   notify.Notifier // optional; defaults to notify.Noop
	Recorder   Recorder        // optional; lead/payment records skipped when nil

	Clock            convo.Clock   // defaults to convo.SystemClock
	Cooldown         time.Duration // defaults to convo.DefaultCooldown
	DisableResponses bool          // record inbound turns but never reply

	SystemPrompt   string // defaults to DefaultSystemPrompt
	KnowledgeBase  string // defaults to DefaultKnowledgeBase
	ConfirmExact   []string
	ConfirmPhrases []string

	Out io.Writer // defaults to os.Stdout
}

// NewHandler creates a Handler.
func NewHandler(opts HandlerOpts) (*Handler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("relay: store is required")
	}
	if opts.SentLog == nil {
		return nil, fmt.Errorf("relay: sent log is required")
	}
	if opts.Channel == nil {
		return nil, fmt.Errorf("relay: channel is required")
	}
	if opts.Completer == nil {
		return nil, fmt.Errorf("relay: completer is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Noop{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = convo.SystemClock()
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = convo.DefaultCooldown
	}
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	knowledgeBase := opts.KnowledgeBase
	if knowledgeBase == "" {
		knowledgeBase = DefaultKnowledgeBase
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Handler{
		store:         opts.Store,
		sent:          opts.SentLog,
		channel:       opts.Channel,
		completer:     opts.Completer,
		classifier:    opts.Classifier,
		notifier:      notifier,
		recorder:      opts.Recorder,
		clock:         clock,
		cooldown:      cooldown,
		enabled:       !opts.DisableResponses,
		systemPrompt:  systemPrompt,
		knowledgeBase: knowledgeBase,
		intent:        newIntentMatcher(opts.ConfirmExact, opts.ConfirmPhrases),
		out:           out,
	}, nil
}

// HandleEvent processes one webhook event. It never returns an error and
// never panics outward: every failure is contained to this one event.
func (h *Handler) HandleEvent(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("relay: panic handling event from %s: %v", ev.SenderID, r)
		}
	}()

	if ev.Message == nil {
		fmt.Fprintf(h.out, "relay: event from %s has no message, skipping\n", ev.SenderID)
		return
	}
	if ev.Message.IsEcho {
		h.handleEcho(ev)
		return
	}
	h.handleInbound(ctx, ev)
}

// handleEcho classifies an outbound message looped back by the transport.
// Ids we registered on send are our own automation replies; anything else
// with text means a human agent replied through the channel, which hands
// the conversation to them.
func (h *Handler) handleEcho(ev Event) {
	msg := ev.Message
	if h.sent.Has(msg.ID) {
		return
	}
	if msg.Text == "" {
		return
	}

	// The echo's recipient is the participant whose conversation the human
	// agent just took over.
	now := h.clock.Now()
	h.store.Do(ev.RecipientID, func(c *convo.Conversation) {
		convo.Takeover(c, msg.Text, msg.ID, now)
	})
	fmt.Fprintf(h.out, "relay: human takeover for %s (echo %s)\n", ev.RecipientID, msg.ID)
}

// handleInbound processes a genuine message from a participant: append
// the user turn, evaluate takeover arbitration, then orchestrate the
// reply and any payment-image analysis. The whole sequence runs under the
// participant's key lock so rapid double-sends cannot interleave.
func (h *Handler) handleInbound(ctx context.Context, ev Event) {
	msg := ev.Message
	fmt.Fprintf(h.out, "relay: recv from %s: %q (%d attachments)\n",
		ev.SenderID, truncate(msg.Text, 80), len(msg.Attachments))

	if err := h.channel.Typing(ctx, ev.SenderID, true); err != nil {
		log.Printf("relay: typing on for %s: %v", ev.SenderID, err)
	}
	defer func() {
		if err := h.channel.Typing(ctx, ev.SenderID, false); err != nil {
			log.Printf("relay: typing off for %s: %v", ev.SenderID, err)
		}
	}()

	images := imageURLs(msg.Attachments)

	h.store.Do(ev.SenderID, func(c *convo.Conversation) {
		now := h.clock.Now()
		at := now
		c.LastUserMessageAt = &at
		if msg.Text != "" {
			c.Append(convo.Turn{
				Role:       convo.RoleUser,
				Content:    msg.Text,
				Timestamp:  now,
				ExternalID: msg.ID,
			})
		}

		allowed := convo.ShouldRespond(c, h.cooldown, now)

		if msg.Text != "" {
			h.respond(ctx, c, ev, allowed)
		}
		if len(images) > 0 {
			h.analyzeImages(ctx, c, ev, images, allowed)
		}
	})
}

// imageURLs extracts the image attachment URLs in order.
func imageURLs(attachments []Attachment) []string {
	var urls []string
	for _, a := range attachments {
		if a.Type == "image" && a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
