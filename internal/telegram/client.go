// Package telegram delivers briefings to a chat via the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Config holds delivery settings.
type Config struct {
	Token  string
	ChatID string

	// MaxMessageLength is the chunking threshold; Telegram rejects
	// messages over 4096 characters.
	MaxMessageLength int

	RetryAttempts int
	RetryDelay    time.Duration

	// BaseURL overrides the Bot API endpoint, for tests.
	BaseURL string
}

// Client posts messages to a single chat.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Client. Token and ChatID must be set.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram token and chat ID are required")
	}
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 4000
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Send delivers the text to the configured chat, splitting it into
// multiple messages when it exceeds the configured maximum length.
func (c *Client) Send(ctx context.Context, text string) error {
	chunks := splitMessage(text, c.cfg.MaxMessageLength)
	if len(chunks) > 1 {
		slog.Info("message exceeds max length, splitting", "chars", len(text), "chunks", len(chunks))
	}

	for i, chunk := range chunks {
		if err := c.sendWithRetry(ctx, chunk); err != nil {
			return fmt.Errorf("sending chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// sendWithRetry posts one message, retrying with a linearly growing delay.
func (c *Client) sendWithRetry(ctx context.Context, text string) error {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		lastErr = c.sendMessage(ctx, text)
		if lastErr == nil {
			return nil
		}

		slog.Warn("telegram send failed",
			"attempt", attempt,
			"max_attempts", c.cfg.RetryAttempts,
			"error", lastErr,
		)

		if attempt < c.cfg.RetryAttempts {
			select {
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// apiResponse is the envelope every Bot API call returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]any{
		"chat_id":                  c.cfg.ChatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.BaseURL, c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting message: %w", err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, api.Description)
	}
	return nil
}

// splitMessage splits text on line boundaries into chunks of at most
// maxLen characters. A single line longer than maxLen becomes its own
// chunk rather than being cut mid-line.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
	)
	for _, line := range strings.Split(text, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
