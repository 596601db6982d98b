package authservice

import (
	"context"

	authdomain "github.com/tnt-tag-history/tnt-history/app/modules/auth/domain"
	authdiscord "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/discord"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
)

// Service defines the authentication service interface.
type Service interface {
	// LoginURL returns the Discord consent URL carrying state.
	LoginURL(state string) string

	// CompleteLogin redeems a Discord authorization code for an admin session.
	CompleteLogin(ctx context.Context, code string) (results.OperationResult[*Session, error], error)

	// ValidateToken validates a session token and returns the claims if valid.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// OAuthClient is the Discord side of the login flow.
type OAuthClient interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*authdiscord.User, error)
}

// Session is a freshly minted admin session.
type Session struct {
	Token  string
	Claims *authdomain.Claims
}
