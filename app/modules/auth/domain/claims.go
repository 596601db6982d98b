package authdomain

import (
	"context"
	"time"
)

// Claims is the signed-in Discord user carried by a session token.
type Claims struct {
	UserID    string    `json:"id"` // Discord user id
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsAdmin reports whether the claims grant the admin API.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin && !c.IsExpired()
}

type claimsKey struct{}

// WithClaims stores claims on the request context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by WithClaims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
