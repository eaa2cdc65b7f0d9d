package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram posts alerts to a Telegram chat via the Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	httpc    *http.Client
}

// TelegramOpts holds parameters for creating a Telegram notifier.
type TelegramOpts struct {
	BotToken   string
	ChatID     string
	BaseURL    string       // defaults to the public Bot API
	HTTPClient *http.Client // optional; for tests
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(opts TelegramOpts) (*Telegram, error) {
	if opts.BotToken == "" {
		return nil, fmt.Errorf("notify: telegram: bot token is required")
	}
	if opts.ChatID == "" {
		return nil, fmt.Errorf("notify: telegram: chat id is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = telegramAPIBase
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Telegram{
		botToken: opts.BotToken,
		chatID:   opts.ChatID,
		baseURL:  baseURL,
		httpc:    httpc,
	}, nil
}

// BuyerInterest sends the interested-buyer alert with a link back to the
// participant's profile.
func (t *Telegram) BuyerInterest(ctx context.Context, b BuyerInterest) error {
	handle := b.Username
	if handle == "" {
		handle = b.ParticipantID
	}
	msg := fmt.Sprintf("🛒 *New Interested Buyer*\n\nIG username: @%s\n\nwants to buy the course\\.\n\nplease message now:\n%s",
		escapeMarkdown(handle), escapeMarkdown(b.ProfileURL))
	return t.sendMessage(ctx, msg)
}

// PaymentSighted sends the payment-screenshot alert including the amount
// and reference the classifier extracted, when present.
func (t *Telegram) PaymentSighted(ctx context.Context, p PaymentSighting) error {
	handle := p.Username
	if handle == "" {
		handle = p.ParticipantID
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "💸 *Payment Screenshot Detected*\n\nIG username: @%s\n", escapeMarkdown(handle))
	if p.Amount != "" {
		fmt.Fprintf(&sb, "Amount: %s\n", escapeMarkdown(p.Amount))
	}
	if p.Reference != "" {
		fmt.Fprintf(&sb, "Reference: %s\n", escapeMarkdown(p.Reference))
	}
	if p.SenderName != "" {
		fmt.Fprintf(&sb, "Sender: %s\n", escapeMarkdown(p.SenderName))
	}
	fmt.Fprintf(&sb, "\nScreenshot: %s\n\nConversation: %s", escapeMarkdown(p.ImageURL), escapeMarkdown(p.ProfileURL))
	return t.sendMessage(ctx, sb.String())
}

// Test sends a plain text message without formatting.
func (t *Telegram) Test(ctx context.Context, text string) error {
	return t.post(ctx, map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	return t.post(ctx, map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
}

func (t *Telegram) post(ctx context.Context, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: telegram: marshal: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: telegram: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("notify: telegram: send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// markdownEscaper escapes the characters MarkdownV2 treats as syntax.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
