package playeridentity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrProfileNotFound is returned when the identity service has no such account.
	ErrProfileNotFound = errors.New("minecraft profile not found")
	// ErrInvalidName is returned for strings that cannot be Minecraft names.
	ErrInvalidName = errors.New("invalid minecraft name")
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)
	uuidPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// Profile is an account as reported by the identity service.
type Profile struct {
	UUID    string       `json:"id"`
	Name    string       `json:"name"`
	History []NameChange `json:"history,omitempty"`
}

// NameChange is one entry of an account's name history, oldest first.
// ChangedAt is nil for the original name.
type NameChange struct {
	Name      string     `json:"name"`
	ChangedAt *time.Time `json:"changedAt,omitempty"`
}

// Client looks up Minecraft accounts.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client. requestsPerSecond <= 0 disables rate limiting.
func NewClient(baseURL string, requestsPerSecond float64, timeout time.Duration) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// NormalizeUUID strips dashes and lowercases. It returns "" when the result is
// not a 32-digit hex string.
func NormalizeUUID(raw string) string {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "-", ""))
	if !uuidPattern.MatchString(s) {
		return ""
	}
	return s
}

// IsValidName reports whether name could be a Minecraft name.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// ProfileByName resolves a current name to an account.
func (c *Client) ProfileByName(ctx context.Context, name string) (*Profile, error) {
	if !IsValidName(name) {
		return nil, ErrInvalidName
	}
	var profile Profile
	if err := c.get(ctx, "/users/profiles/minecraft/"+url.PathEscape(name), &profile); err != nil {
		return nil, err
	}
	profile.UUID = NormalizeUUID(profile.UUID)
	return &profile, nil
}

// ProfileByUUID returns the account's current name and its full name history.
func (c *Client) ProfileByUUID(ctx context.Context, uuid string) (*Profile, error) {
	id := NormalizeUUID(uuid)
	if id == "" {
		return nil, fmt.Errorf("%w: bad uuid %q", ErrProfileNotFound, uuid)
	}

	var raw []struct {
		Name        string `json:"name"`
		ChangedToAt int64  `json:"changedToAt"`
	}
	if err := c.get(ctx, "/user/profiles/"+id+"/names", &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrProfileNotFound
	}

	profile := &Profile{UUID: id, History: make([]NameChange, 0, len(raw))}
	for _, entry := range raw {
		change := NameChange{Name: entry.Name}
		if entry.ChangedToAt > 0 {
			at := time.UnixMilli(entry.ChangedToAt).UTC()
			change.ChangedAt = &at
		}
		profile.History = append(profile.History, change)
	}
	profile.Name = profile.History[len(profile.History)-1].Name
	return profile, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("identity rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "tnt-history/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		return ErrProfileNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}

// AvatarURL returns a face render for uuid. size is clamped to 8..512.
func AvatarURL(uuid string, size int) string {
	size = max(8, min(size, 512))
	id := NormalizeUUID(uuid)
	if id == "" {
		id = "8667ba71b85a4004af54457a9734eed7" // Steve
	}
	return fmt.Sprintf("https://crafatar.com/avatars/%s?size=%d&overlay", id, size)
}
