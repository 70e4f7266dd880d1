package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Token:            "123:token",
		ChatID:           "-100555",
		MaxMessageLength: 200,
		RetryAttempts:    3,
		RetryDelay:       time.Millisecond,
		BaseURL:          baseURL,
	})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{Token: "", ChatID: "x"}); err == nil {
		t.Error("NewClient without token should fail")
	}
	if _, err := NewClient(Config{Token: "x", ChatID: ""}); err == nil {
		t.Error("NewClient without chat ID should fail")
	}
}

func TestSend_SingleMessage(t *testing.T) {
	var got struct {
		ChatID    string `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bot123:token/sendMessage") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.Send(context.Background(), "hello *world*"); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if got.ChatID != "-100555" {
		t.Errorf("chat_id = %q, want %q", got.ChatID, "-100555")
	}
	if got.Text != "hello *world*" {
		t.Errorf("text = %q, want the message body", got.Text)
	}
	if got.ParseMode != "Markdown" {
		t.Errorf("parse_mode = %q, want Markdown", got.ParseMode)
	}
}

func TestSend_ChunksLongMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	// 30 lines of 19 chars each is well over the 200-char test limit.
	long := strings.TrimSuffix(strings.Repeat(strings.Repeat("x", 18)+"\n", 30), "\n")

	c := newTestClient(t, srv.URL)
	if err := c.Send(context.Background(), long); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if calls.Load() < 2 {
		t.Errorf("got %d API calls, want multiple chunks", calls.Load())
	}
}

func TestSend_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"ok":false,"description":"bad gateway"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if err := c.Send(context.Background(), "retry me"); err != nil {
		t.Fatalf("Send error after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("got %d calls, want 3 (two failures then success)", calls.Load())
	}
}

func TestSend_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"ok":false,"description":"bot was blocked"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.Send(context.Background(), "doomed")
	if err == nil {
		t.Fatal("Send should fail after exhausting retries")
	}
	if !strings.Contains(err.Error(), "bot was blocked") {
		t.Errorf("error %q should carry the API description", err)
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		maxLen     int
		wantChunks int
	}{
		{name: "short text single chunk", text: "hello", maxLen: 100, wantChunks: 1},
		{name: "exactly at limit", text: strings.Repeat("a", 100), maxLen: 100, wantChunks: 1},
		{name: "two lines over limit", text: strings.Repeat("a", 80) + "\n" + strings.Repeat("b", 80), maxLen: 100, wantChunks: 2},
		{name: "oversized single line kept whole", text: strings.Repeat("a", 150) + "\nshort", maxLen: 100, wantChunks: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitMessage(tt.text, tt.maxLen)
			if len(chunks) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d: %q", len(chunks), tt.wantChunks, chunks)
			}
			// No content may be lost.
			joined := strings.Join(chunks, "\n")
			if joined != tt.text {
				t.Errorf("rejoined chunks differ from input:\n%q\nvs\n%q", joined, tt.text)
			}
		})
	}
}
