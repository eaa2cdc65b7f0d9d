package instagram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dauglabs/switchboard/internal/convo"
)

func TestSplitMessage_ShortTextUnchanged(t *testing.T) {
	chunks := splitMessage("hello there", 1900)
	if len(chunks) != 1 || chunks[0] != "hello there" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestSplitMessage_BreaksAtSentence(t *testing.T) {
	text := "First sentence here. Second sentence continues after it."
	chunks := splitMessage(text, 30)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %v", chunks)
	}
	if chunks[0] != "First sentence here." {
		t.Fatalf("expected sentence-boundary break, got %q", chunks[0])
	}
}

func TestSplitMessage_FallsBackToSpace(t *testing.T) {
	text := "word word word word word word word word"
	chunks := splitMessage(text, 25)
	for i, c := range chunks {
		if len(c) > 25 {
			t.Fatalf("chunk %d exceeds limit: %q", i, c)
		}
	}
	if strings.Join(chunks, " ") != text {
		t.Fatalf("content lost in split: %v", chunks)
	}
}

func TestSplitMessage_HardCutWithoutSpaces(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := splitMessage(text, 40)
	total := 0
	for i, c := range chunks {
		if len(c) > 40 {
			t.Fatalf("chunk %d exceeds limit: %d chars", i, len(c))
		}
		total += len(c)
	}
	if total != 100 {
		t.Fatalf("content lost in hard cut: got %d chars", total)
	}
}

func TestSend_ReturnsLastChunkID(t *testing.T) {
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		fmt.Fprintf(w, `{"message_id": "mid-%d"}`, len(bodies))
	}))
	defer srv.Close()

	c, err := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	long := strings.Repeat("word ", 500) // ~2500 chars, forces two chunks
	id, err := c.Send(context.Background(), "user-1", long)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 chunk sends, got %d", len(bodies))
	}
	if id != "mid-2" {
		t.Fatalf("expected last chunk id mid-2, got %q", id)
	}

	recipient := bodies[0]["recipient"].(map[string]interface{})
	if recipient["id"] != "user-1" {
		t.Fatalf("unexpected recipient: %v", recipient)
	}
	if bodies[0]["messaging_type"] != "RESPONSE" {
		t.Fatalf("expected messaging_type RESPONSE, got %v", bodies[0]["messaging_type"])
	}
}

func TestSend_ReportsEveryChunkID(t *testing.T) {
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		fmt.Fprintf(w, `{"message_id": "mid-%d"}`, served)
	}))
	defer srv.Close()

	// Feed the delivery hook straight into a sent log, the way serve
	// wires it, so we can assert echo recognizability per chunk.
	log := convo.NewSentLog(10)
	c, err := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client(), Sent: log.Add})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	long := strings.Repeat("word ", 500) // ~2500 chars, forces two chunks
	if _, err := c.Send(context.Background(), "user-1", long); err != nil {
		t.Fatalf("send: %v", err)
	}
	if served != 2 {
		t.Fatalf("expected 2 chunk sends, got %d", served)
	}

	// The echo of the first chunk carries mid-1, not the returned id.
	// It must still be recognizable as our own send.
	for _, id := range []string{"mid-1", "mid-2"} {
		if !log.Has(id) {
			t.Errorf("chunk id %s missing from sent log", id)
		}
	}
}

func TestSend_ReportsChunksDeliveredBeforeFailure(t *testing.T) {
	var served int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		if served > 1 {
			http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"message_id": "mid-%d"}`, served)
	}))
	defer srv.Close()

	var delivered []string
	c, _ := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client(), Sent: func(id string) {
		delivered = append(delivered, id)
	}})

	long := strings.Repeat("word ", 500)
	if _, err := c.Send(context.Background(), "user-1", long); err == nil {
		t.Fatal("expected error from failed second chunk")
	}
	if len(delivered) != 1 || delivered[0] != "mid-1" {
		t.Fatalf("delivered = %v, want the first chunk's id recorded despite the failure", delivered)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := c.Send(context.Background(), "user-1", "hi"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestTyping(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c, _ := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err := c.Typing(context.Background(), "user-1", true); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if got["sender_action"] != "typing_on" {
		t.Fatalf("expected typing_on, got %v", got["sender_action"])
	}
}

func TestProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "fields=name") {
			t.Errorf("missing fields parameter: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"name": "Juan Dela Cruz", "username": "juandc"}`)
	}))
	defer srv.Close()

	c, _ := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	p, err := c.Profile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Name != "Juan Dela Cruz" || p.Username != "juandc" || p.ID != "user-1" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestProfile_DegradesOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := New(ClientOpts{AccessToken: "tok", BaseURL: srv.URL, HTTPClient: srv.Client()})
	p, err := c.Profile(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if p.ID != "user-1" {
		t.Fatalf("degraded profile must keep the id, got %+v", p)
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"object":"instagram"}`)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(payload)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature("s3cret", payload, valid) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("s3cret", payload, "sha256=deadbeef") {
		t.Fatal("invalid signature accepted")
	}
	if VerifySignature("wrong", payload, valid) {
		t.Fatal("signature accepted with wrong secret")
	}
}
