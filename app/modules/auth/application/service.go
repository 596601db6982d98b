package authservice

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/tnt-tag-history/tnt-history/app/modules/auth/domain"
	authjwt "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/jwt"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the auth service.
type Config struct {
	AdminIDs   []string
	DefaultTTL time.Duration
}

// DefaultTokenTTL applies when Config.DefaultTTL is zero.
const DefaultTokenTTL = 12 * time.Hour

// service implements the Service interface.
type service struct {
	jwtProvider authjwt.Provider
	oauth       OAuthClient
	admins      map[string]struct{}
	ttl         time.Duration
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	oauth OAuthClient,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	admins := make(map[string]struct{}, len(config.AdminIDs))
	for _, id := range config.AdminIDs {
		admins[id] = struct{}{}
	}
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &service{
		jwtProvider: jwtProvider,
		oauth:       oauth,
		admins:      admins,
		ttl:         ttl,
		logger:      logger,
		tracer:      tracer,
	}
}

func (s *service) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// CompleteLogin exchanges code with Discord and issues a token when the
// account is on the allowlist.
func (s *service) CompleteLogin(ctx context.Context, code string) (results.OperationResult[*Session, error], error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CompleteLogin")
	defer span.End()

	if code == "" {
		return results.FailureResult[*Session, error](ErrLoginFailed), nil
	}

	user, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "Discord exchange failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		return results.FailureResult[*Session, error](ErrLoginFailed), nil
	}

	if _, ok := s.admins[user.ID]; !ok {
		s.logger.WarnContext(ctx, "Login rejected for non-admin account",
			attr.ExtractCorrelationID(ctx),
			attr.String("discord_id", user.ID),
		)
		return results.FailureResult[*Session, error](ErrNotAdmin), nil
	}

	now := time.Now()
	claims := &authdomain.Claims{
		UserID:    user.ID,
		Username:  user.DisplayName(),
		Role:      authdomain.RoleAdmin,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	token, err := s.jwtProvider.GenerateToken(claims, s.ttl)
	if err != nil {
		span.RecordError(err)
		return results.OperationResult[*Session, error]{}, fmt.Errorf("%w: %v", ErrGenerateToken, err)
	}

	s.logger.InfoContext(ctx, "Admin signed in",
		attr.ExtractCorrelationID(ctx),
		attr.String("discord_id", user.ID),
	)
	return results.SuccessResult[*Session, error](&Session{Token: token, Claims: claims}), nil
}

// ValidateToken maps provider errors onto the service's sentinels.
func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	_, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}
	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	// Allowlist changes take effect without waiting for token expiry.
	if _, ok := s.admins[claims.UserID]; !ok {
		claims.Role = authdomain.RoleViewer
	}
	return claims, nil
}

// NewState returns a random URL-safe value for the OAuth2 state parameter.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
