package authhandlers

import (
	"context"

	authservice "github.com/tnt-tag-history/tnt-history/app/modules/auth/application"
	authdomain "github.com/tnt-tag-history/tnt-history/app/modules/auth/domain"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
)

// FakeService is a programmable fake for authservice.Service.
type FakeService struct {
	trace []string

	LoginURLFunc      func(state string) string
	CompleteLoginFunc func(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error)
	ValidateTokenFunc func(ctx context.Context, token string) (*authdomain.Claims, error)
}

func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) LoginURL(state string) string {
	f.trace = append(f.trace, "LoginURL")
	if f.LoginURLFunc != nil {
		return f.LoginURLFunc(state)
	}
	return "https://discord.test/authorize?state=" + state
}

func (f *FakeService) CompleteLogin(ctx context.Context, code string) (results.OperationResult[*authservice.Session, error], error) {
	f.trace = append(f.trace, "CompleteLogin")
	if f.CompleteLoginFunc != nil {
		return f.CompleteLoginFunc(ctx, code)
	}
	return results.FailureResult[*authservice.Session, error](authservice.ErrLoginFailed), nil
}

func (f *FakeService) ValidateToken(ctx context.Context, token string) (*authdomain.Claims, error) {
	f.trace = append(f.trace, "ValidateToken")
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(ctx, token)
	}
	return nil, authservice.ErrMissingToken
}
