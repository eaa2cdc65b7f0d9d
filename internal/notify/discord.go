package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Embed sidebar colors.
const (
	discordColorBuyer   = 0x36a64f
	discordColorPayment = 0xf2c744
)

// discordSession abstracts the discordgo.Session methods we use, enabling
// test mocks. Alerts go out over plain REST; no gateway connection needed.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts alerts to a Discord channel as embeds.
type Discord struct {
	sess      discordSession
	channelID string
}

// DiscordOpts holds parameters for creating a Discord notifier.
type DiscordOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post alerts to
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscord creates a Discord notifier.
func NewDiscord(opts DiscordOpts) (*Discord, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("notify: discord: channel id is required")
	}
	sess := opts.Session
	if sess == nil {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("notify: discord: create session: %w", err)
		}
		sess = s
	}
	return &Discord{sess: sess, channelID: opts.ChannelID}, nil
}

// BuyerInterest posts the interested-buyer alert.
func (d *Discord) BuyerInterest(ctx context.Context, b BuyerInterest) error {
	handle := b.Username
	if handle == "" {
		handle = b.ParticipantID
	}
	embed := &discordgo.MessageEmbed{
		Title:       "New Interested Buyer",
		Description: fmt.Sprintf("@%s wants to buy the course.\nTrigger: %q", handle, b.Trigger),
		Color:       discordColorBuyer,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Username", Value: "@" + handle, Inline: true},
			{Name: "Conversation", Value: b.ProfileURL, Inline: true},
		},
	}
	return d.postEmbed(ctx, embed)
}

// PaymentSighted posts the payment-screenshot alert.
func (d *Discord) PaymentSighted(ctx context.Context, p PaymentSighting) error {
	handle := p.Username
	if handle == "" {
		handle = p.ParticipantID
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Username", Value: "@" + handle, Inline: true},
	}
	if p.Amount != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Amount", Value: p.Amount, Inline: true})
	}
	if p.Reference != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reference", Value: p.Reference, Inline: true})
	}
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "Screenshot", Value: p.ImageURL},
		&discordgo.MessageEmbedField{Name: "Conversation", Value: p.ProfileURL},
	)
	embed := &discordgo.MessageEmbed{
		Title:  "Payment Screenshot Detected",
		Color:  discordColorPayment,
		Fields: fields,
	}
	return d.postEmbed(ctx, embed)
}

// Test posts a plain text message.
func (d *Discord) Test(ctx context.Context, text string) error {
	if _, err := d.sess.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("notify: discord: send: %w", err)
	}
	return nil
}

func (d *Discord) postEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if _, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("notify: discord: send embed: %w", err)
	}
	return nil
}
