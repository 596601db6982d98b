package authservice

import (
	"context"

	authdiscord "github.com/tnt-tag-history/tnt-history/app/modules/auth/infrastructure/discord"
)

// FakeOAuthClient is a programmable fake for OAuthClient.
type FakeOAuthClient struct {
	trace []string

	AuthCodeURLFunc func(state string) string
	ExchangeFunc    func(ctx context.Context, code string) (*authdiscord.User, error)
}

func (f *FakeOAuthClient) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeOAuthClient) AuthCodeURL(state string) string {
	f.trace = append(f.trace, "AuthCodeURL")
	if f.AuthCodeURLFunc != nil {
		return f.AuthCodeURLFunc(state)
	}
	return "https://discord.test/authorize?state=" + state
}

func (f *FakeOAuthClient) Exchange(ctx context.Context, code string) (*authdiscord.User, error) {
	f.trace = append(f.trace, "Exchange")
	if f.ExchangeFunc != nil {
		return f.ExchangeFunc(ctx, code)
	}
	return nil, authdiscord.ErrExchange
}
