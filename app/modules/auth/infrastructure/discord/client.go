// Package authdiscord runs the Discord OAuth2 authorization-code flow.
package authdiscord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAPIBase = "https://discord.com/api"
	authorizePath  = "https://discord.com/oauth2/authorize"
)

// ErrExchange is returned when the authorization code cannot be redeemed.
var ErrExchange = errors.New("discord code exchange failed")

// User is the subset of /users/@me the admin login needs.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

// DisplayName prefers the global display name.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Client wraps an oauth2.Config pointed at Discord.
type Client struct {
	conf    *oauth2.Config
	apiBase string
	timeout time.Duration
}

// NewClient creates a Client requesting the identify scope.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return NewClientWithBase(clientID, clientSecret, redirectURL, defaultAPIBase, authorizePath)
}

// NewClientWithBase overrides the API and authorize endpoints.
func NewClientWithBase(clientID, clientSecret, redirectURL, apiBase, authorizeURL string) *Client {
	apiBase = strings.TrimRight(apiBase, "/")
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  apiBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
		timeout: 10 * time.Second,
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange redeems code and fetches the authorizing user.
func (c *Client) Exchange(ctx context.Context, code string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	resp, err := c.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord user lookup returned %d", resp.StatusCode)
	}
	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode discord user: %w", err)
	}
	if user.ID == "" {
		return nil, errors.New("discord user has no id")
	}
	return &user, nil
}
