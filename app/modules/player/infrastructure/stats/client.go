package playerstats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNoStats is returned when the stats service knows nothing about the player.
var ErrNoStats = errors.New("no stats for player")

// TNTStats is the TNT Games slice of a player's stats.
type TNTStats struct {
	DisplayName string `json:"displayName"`
	Coins       int    `json:"coins"`
	Wins        int    `json:"wins"`
	TagWins     int    `json:"tagWins"`
	TagKills    int    `json:"tagKills"`
	RunWins     int    `json:"runWins"`
	BowSpleef   int    `json:"bowSpleefWins"`
	WizardsWins int    `json:"wizardsWins"`
	PVPRunWins  int    `json:"pvpRunWins"`
}

// Client fetches game stats. Every request carries the API key header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client. requestsPerSecond <= 0 disables rate limiting.
func NewClient(baseURL, apiKey string, requestsPerSecond float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type playerResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
	Player  *struct {
		DisplayName string `json:"displayname"`
		Stats       struct {
			TNTGames map[string]any `json:"TNTGames"`
		} `json:"stats"`
	} `json:"player"`
}

// TNTGames returns the player's TNT Games stats.
func (c *Client) TNTGames(ctx context.Context, uuid string) (*TNTStats, error) {
	if !c.Enabled() {
		return nil, errors.New("stats client has no api key")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("stats rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/player?uuid="+url.QueryEscape(uuid), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats request failed: %w", err)
	}
	defer resp.Body.Close()

	var body playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode stats response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return nil, fmt.Errorf("stats service returned %d: %s", resp.StatusCode, body.Cause)
	}
	if body.Player == nil {
		return nil, ErrNoStats
	}

	raw := body.Player.Stats.TNTGames
	return &TNTStats{
		DisplayName: body.Player.DisplayName,
		Coins:       intField(raw, "coins"),
		Wins:        intField(raw, "wins"),
		TagWins:     intField(raw, "wins_tntag"),
		TagKills:    intField(raw, "kills_tntag"),
		RunWins:     intField(raw, "wins_tntrun"),
		BowSpleef:   intField(raw, "wins_bowspleef"),
		WizardsWins: intField(raw, "wins_capture"),
		PVPRunWins:  intField(raw, "wins_pvprun"),
	}, nil
}

// intField reads a JSON number, treating anything else as zero.
func intField(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}
