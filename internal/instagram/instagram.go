// Package instagram is a thin client for the Instagram Graph API messaging
// surface: sending DMs (with chunking), typing indicators, profile lookups,
// and webhook signature verification.
package instagram

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dauglabs/switchboard/internal/relay"
)

const (
	defaultBaseURL = "https://graph.instagram.com/v21.0"

	// maxChunkLen keeps each chunk under Instagram's 2000-character send
	// limit with headroom.
	maxChunkLen = 1900

	// chunkDelay spaces out consecutive chunk sends.
	chunkDelay = 500 * time.Millisecond
)

// Client talks to the Instagram Graph API. It implements relay.Channel.
type Client struct {
	baseURL     string
	accessToken string
	sent        func(messageID string)
	httpc       *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	AccessToken string

	// Sent is invoked with the delivery id of every chunk as it is
	// delivered. A chunked send produces one echo per chunk, each with
	// its own mid, and every one of them must be recognizable as our
	// own or the echo path reads it as a human takeover.
	Sent func(messageID string)

	BaseURL    string       // defaults to the public Graph API
	HTTPClient *http.Client // optional; for tests
}

// New creates a Client.
func New(opts ClientOpts) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("instagram: access token is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: opts.AccessToken,
		sent:        opts.Sent,
		httpc:       httpc,
	}, nil
}

type sendResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers text to a recipient, splitting it into chunks when it
// exceeds the platform limit. Every chunk's delivery id is reported
// through the Sent hook as it is delivered (even when a later chunk
// fails); the returned id is the last chunk's.
func (c *Client) Send(ctx context.Context, recipientID, text string) (string, error) {
	chunks := splitMessage(text, maxChunkLen)
	var lastID string

	for i, chunk := range chunks {
		payload := map[string]interface{}{
			"recipient":      map[string]string{"id": recipientID},
			"message":        map[string]string{"text": chunk},
			"messaging_type": "RESPONSE",
		}
		var resp sendResponse
		if err := c.post(ctx, "/me/messages", payload, &resp); err != nil {
			return "", fmt.Errorf("instagram: send to %s: %w", recipientID, err)
		}
		if resp.MessageID != "" {
			lastID = resp.MessageID
			if c.sent != nil {
				c.sent(resp.MessageID)
			}
		}

		if len(chunks) > 1 && i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return lastID, ctx.Err()
			case <-time.After(chunkDelay):
			}
		}
	}
	return lastID, nil
}

// Typing sets or clears the typing indicator for a recipient.
func (c *Client) Typing(ctx context.Context, recipientID string, on bool) error {
	action := "typing_off"
	if on {
		action = "typing_on"
	}
	payload := map[string]interface{}{
		"recipient":     map[string]string{"id": recipientID},
		"sender_action": action,
	}
	if err := c.post(ctx, "/me/messages", payload, nil); err != nil {
		return fmt.Errorf("instagram: typing %s for %s: %w", action, recipientID, err)
	}
	return nil
}

type profileResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// Profile looks up a user's display name and handle.
func (c *Client) Profile(ctx context.Context, userID string) (relay.Profile, error) {
	u := fmt.Sprintf("%s/%s?fields=name,username&access_token=%s",
		c.baseURL, url.PathEscape(userID), url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return relay.Profile{ID: userID}, fmt.Errorf("instagram: profile request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return relay.Profile{ID: userID}, fmt.Errorf("instagram: profile %s: %w", userID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return relay.Profile{ID: userID}, fmt.Errorf("instagram: profile %s: status %d", userID, resp.StatusCode)
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return relay.Profile{ID: userID}, fmt.Errorf("instagram: profile %s: decode: %w", userID, err)
	}
	return relay.Profile{ID: userID, Name: pr.Name, Username: pr.Username}, nil
}

// post sends a JSON payload to an API path and optionally decodes the
// response into out.
func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	u := fmt.Sprintf("%s%s?access_token=%s", c.baseURL, path, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	return nil
}

// splitMessage splits text into chunks no longer than maxLen, preferring
// sentence boundaries, then spaces, then a hard cut. Break points in the
// first half of a chunk are rejected to avoid tiny fragments.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			chunks = append(chunks, remaining)
			break
		}

		breakPoint := strings.LastIndex(remaining[:maxLen], ". ")
		if breakPoint == -1 || breakPoint < maxLen/2 {
			breakPoint = strings.LastIndex(remaining[:maxLen], " ")
		}
		if breakPoint == -1 || breakPoint < maxLen/2 {
			breakPoint = maxLen - 1
		}

		chunks = append(chunks, strings.TrimSpace(remaining[:breakPoint+1]))
		remaining = strings.TrimSpace(remaining[breakPoint+1:])
	}
	return chunks
}

// VerifySignature checks a webhook payload against its
// X-Hub-Signature-256 header value ("sha256=<hex hmac>").
func VerifySignature(appSecret string, payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
