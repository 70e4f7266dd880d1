// Package prices fetches the BTC market snapshot shown at the top of a
// briefing. Price data is decoration, not pipeline input: a failed fetch
// just means the briefing goes out without a market line.
package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.coingecko.com"

// Snapshot holds the market data for one briefing.
type Snapshot struct {
	BTCPrice     float64
	BTCChange24h float64
	FetchedAt    time.Time
}

// Line renders the snapshot as the single-line briefing prefix.
func (s Snapshot) Line() string {
	return fmt.Sprintf("₿ $%.0f (%+.2f%% 24h)", s.BTCPrice, s.BTCChange24h)
}

// Client fetches prices from the CoinGecko simple-price API, which needs
// no API key.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client. baseURL overrides the API endpoint for
// tests; pass "" for the real one.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves the current BTC price and 24h change.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	url := c.baseURL + "/api/v3/simple/price?ids=bitcoin&vs_currencies=usd&include_24hr_change=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching BTC price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var body struct {
		Bitcoin struct {
			USD          float64 `json:"usd"`
			USD24hChange float64 `json:"usd_24h_change"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("decoding price response: %w", err)
	}
	if body.Bitcoin.USD == 0 {
		return Snapshot{}, fmt.Errorf("price API returned no bitcoin price")
	}

	return Snapshot{
		BTCPrice:     body.Bitcoin.USD,
		BTCChange24h: body.Bitcoin.USD24hChange,
		FetchedAt:    time.Now(),
	}, nil
}
