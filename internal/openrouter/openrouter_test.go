package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dauglabs/switchboard/internal/relay"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(ClientOpts{BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func chatReply(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(ClientOpts{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestComplete_BuildsPrimingMessages(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		io.WriteString(w, chatReply("Hi Maria!"))
	})

	history := []relay.Message{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "user", Content: "How much is the ebook?"},
	}
	reply, err := c.Complete(context.Background(), history, "You are Pauline.", "Price is 2178.")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Hi Maria!" {
		t.Errorf("reply = %q", reply)
	}

	if got.Model != DefaultChatModel {
		t.Errorf("model = %q, want %q", got.Model, DefaultChatModel)
	}
	if got.MaxTokens != 300 {
		t.Errorf("max_tokens = %d, want 300", got.MaxTokens)
	}
	if got.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", got.Temperature)
	}
	if got.Provider == nil || len(got.Provider.Order) != 1 || got.Provider.Order[0] != "Fireworks" {
		t.Errorf("provider prefs = %+v, want Fireworks order", got.Provider)
	}

	// system + KB priming pair + 3 history turns
	if len(got.Messages) != 6 {
		t.Fatalf("len(messages) = %d, want 6", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "You are Pauline." {
		t.Errorf("messages[0] = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "KNOWLEDGE BASE:\nPrice is 2178." {
		t.Errorf("messages[1] = %+v", got.Messages[1])
	}
	if got.Messages[2].Role != "assistant" {
		t.Errorf("messages[2].Role = %q, want assistant", got.Messages[2].Role)
	}
	if got.Messages[5].Content != "How much is the ebook?" {
		t.Errorf("messages[5] = %+v", got.Messages[5])
	}
}

func TestComplete_EmptyChoiceFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	})

	reply, err := c.Complete(context.Background(), nil, "p", "kb")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Sorry, I could not generate a response." {
		t.Errorf("reply = %q", reply)
	}
}

func TestComplete_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := c.Complete(context.Background(), nil, "p", "kb"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestClassifyImage_ParsesPayment(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		io.WriteString(w, chatReply(`{"is_payment":true,"amount":"2178.00","sender_name":"Maria","reference_number":"REF-9"}`))
	})

	res, err := c.ClassifyImage(context.Background(), "https://cdn.example.com/shot.jpg")
	if err != nil {
		t.Fatalf("ClassifyImage: %v", err)
	}
	if !res.IsPayment || res.Amount != "2178.00" || res.SenderName != "Maria" || res.ReferenceNumber != "REF-9" {
		t.Errorf("result = %+v", res)
	}

	if got.Model != DefaultVisionModel {
		t.Errorf("model = %q, want %q", got.Model, DefaultVisionModel)
	}
	parts, ok := got.Messages[0].Content.([]interface{})
	if !ok || len(parts) != 2 {
		t.Fatalf("content parts = %#v, want 2 parts", got.Messages[0].Content)
	}
	img, ok := parts[1].(map[string]interface{})
	if !ok || img["type"] != "image_url" {
		t.Errorf("second part = %#v, want image_url", parts[1])
	}
}

func TestClassifyImage_StripsCodeFence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatReply("```json\n{\"is_payment\":false}\n```"))
	})

	res, err := c.ClassifyImage(context.Background(), "https://cdn.example.com/cat.jpg")
	if err != nil {
		t.Fatalf("ClassifyImage: %v", err)
	}
	if res.IsPayment {
		t.Error("IsPayment = true, want false")
	}
}

func TestClassifyImage_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatReply("this is not json"))
	})

	if _, err := c.ClassifyImage(context.Background(), "https://cdn.example.com/x.jpg"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
