package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// Attachment sidebar colors.
const (
	slackColorBuyer   = "#36a64f"
	slackColorPayment = "#f2c744"
)

// slackPoster abstracts the Slack API method we use, enabling test mocks.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts alerts to a Slack channel as attachment messages.
type Slack struct {
	client    slackPoster
	channelID string
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post alerts to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackPoster
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &Slack{client: client, channelID: opts.ChannelID}, nil
}

// BuyerInterest posts the interested-buyer alert.
func (s *Slack) BuyerInterest(ctx context.Context, b BuyerInterest) error {
	handle := b.Username
	if handle == "" {
		handle = b.ParticipantID
	}
	att := slackapi.Attachment{
		Color: slackColorBuyer,
		Title: "New Interested Buyer",
		Text:  fmt.Sprintf("@%s wants to buy the course. Trigger: %q", handle, b.Trigger),
		Fields: []slackapi.AttachmentField{
			{Title: "Username", Value: "@" + handle, Short: true},
			{Title: "Conversation", Value: b.ProfileURL, Short: true},
		},
	}
	return s.post(ctx, att)
}

// PaymentSighted posts the payment-screenshot alert.
func (s *Slack) PaymentSighted(ctx context.Context, p PaymentSighting) error {
	handle := p.Username
	if handle == "" {
		handle = p.ParticipantID
	}
	fields := []slackapi.AttachmentField{
		{Title: "Username", Value: "@" + handle, Short: true},
	}
	if p.Amount != "" {
		fields = append(fields, slackapi.AttachmentField{Title: "Amount", Value: p.Amount, Short: true})
	}
	if p.Reference != "" {
		fields = append(fields, slackapi.AttachmentField{Title: "Reference", Value: p.Reference, Short: true})
	}
	fields = append(fields,
		slackapi.AttachmentField{Title: "Screenshot", Value: p.ImageURL},
		slackapi.AttachmentField{Title: "Conversation", Value: p.ProfileURL},
	)
	att := slackapi.Attachment{
		Color:  slackColorPayment,
		Title:  "Payment Screenshot Detected",
		Fields: fields,
	}
	return s.post(ctx, att)
}

// Test posts a plain text message.
func (s *Slack) Test(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slackapi.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify: slack: post: %w", err)
	}
	return nil
}

func (s *Slack) post(ctx context.Context, att slackapi.Attachment) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slackapi.MsgOptionAttachments(att))
	if err != nil {
		return fmt.Errorf("notify: slack: post: %w", err)
	}
	return nil
}
