// Package openrouter is a client for the OpenRouter chat-completions API,
// covering both the text completion and payment-screenshot vision calls.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dauglabs/switchboard/internal/relay"
)

// Defaults matching the production deployment.
const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultChatModel   = "openai/gpt-oss-120b"
	DefaultVisionModel = "google/gemini-2.0-flash-lite-001"

	maxTokens   = 300
	temperature = 0.3
)

// Client calls the OpenRouter chat-completions endpoint. It implements
// relay.Completer and relay.Classifier.
type Client struct {
	baseURL     string
	chatModel   string
	visionModel string
	referer     string
	httpc       *http.Client
}

// ClientOpts holds parameters for creating a Client.
type ClientOpts struct {
	APIKey      string
	BaseURL     string // defaults to DefaultBaseURL
	ChatModel   string // defaults to DefaultChatModel
	VisionModel string // defaults to DefaultVisionModel
	Referer     string // HTTP-Referer attribution header, optional

	// For testing: inject an HTTP client instead of the bearer transport.
	HTTPClient *http.Client
}

// New creates a Client. Authentication rides on an oauth2 static-token
// transport so every request carries the bearer header.
func New(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" && opts.HTTPClient == nil {
		return nil, fmt.Errorf("openrouter: api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	visionModel := opts.VisionModel
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey})
		httpc = oauth2.NewClient(context.Background(), src)
		httpc.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		chatModel:   chatModel,
		visionModel: visionModel,
		referer:     opts.Referer,
		httpc:       httpc,
	}, nil
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model       string         `json:"model"`
	Provider    *providerPrefs `json:"provider,omitempty"`
	Messages    []chatMessage  `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature float64        `json:"temperature"`
}

type providerPrefs struct {
	Order         []string `json:"order,omitempty"`
	Quantizations []string `json:"quantizations,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete generates a reply from the system prompt, a knowledge-base
// priming exchange, and the conversation history in order.
func (c *Client) Complete(ctx context.Context, history []relay.Message, systemPrompt, knowledgeBase string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "KNOWLEDGE BASE:\n" + knowledgeBase},
		{Role: "assistant", Content: "I understand the knowledge base. I will use this information to answer questions accurately."},
	}
	for _, m := range history {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	req := chatRequest{
		Model: c.chatModel,
		Provider: &providerPrefs{
			Order:         []string{"Fireworks"},
			Quantizations: []string{"fp8"},
		},
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	content, err := c.chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openrouter: complete: %w", err)
	}
	if content == "" {
		return "Sorry, I could not generate a response.", nil
	}
	return content, nil
}

// classifyPrompt instructs the vision model to emit strict JSON only.
const classifyPrompt = `Look at this image and determine if it is a payment receipt or payment confirmation screenshot (bank transfer, GCash, Maya, etc.).
Respond with STRICT JSON only, no prose, in this exact shape:
{"is_payment": true|false, "amount": "", "sender_name": "", "reference_number": ""}
Leave fields you cannot read as empty strings.`

type classifyResult struct {
	IsPayment       bool   `json:"is_payment"`
	Amount          string `json:"amount"`
	SenderName      string `json:"sender_name"`
	ReferenceNumber string `json:"reference_number"`
}

// ClassifyImage asks the vision model whether an image is a payment
// screenshot and extracts the amount and reference when readable.
func (c *Client) ClassifyImage(ctx context.Context, imageURL string) (relay.PaymentResult, error) {
	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{Role: "user", Content: []map[string]interface{}{
				{"type": "text", "text": classifyPrompt},
				{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
			}},
		},
		MaxTokens:   maxTokens,
		Temperature: 0,
	}

	content, err := c.chat(ctx, req)
	if err != nil {
		return relay.PaymentResult{}, fmt.Errorf("openrouter: classify image: %w", err)
	}

	var parsed classifyResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return relay.PaymentResult{}, fmt.Errorf("openrouter: classify image: parse %q: %w", truncate(content, 120), err)
	}
	return relay.PaymentResult{
		IsPayment:       parsed.IsPayment,
		Amount:          parsed.Amount,
		SenderName:      parsed.SenderName,
		ReferenceNumber: parsed.ReferenceNumber,
	}, nil
}

// chat posts a chat-completions request and returns the first choice text.
func (c *Client) chat(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", "Switchboard")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", nil
	}
	return cr.Choices[0].Message.Content, nil
}

// stripCodeFence unwraps ```json ... ``` fences some models insist on.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
