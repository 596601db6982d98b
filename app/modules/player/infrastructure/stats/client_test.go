package playerstats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTNTGames(t *testing.T) {
	var gotKey, gotUUID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("API-Key")
		gotUUID = r.URL.Query().Get("uuid")
		switch gotUUID {
		case "known":
			_, _ = w.Write([]byte(`{"success":true,"player":{"displayname":"Steve","stats":{"TNTGames":{"coins":1500,"wins":42,"wins_tntag":30,"kills_tntag":311,"wins_tntrun":"oops"}}}}`))
		case "unknown":
			_, _ = w.Write([]byte(`{"success":true,"player":null}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"cause":"Invalid API key"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 0, time.Second)
	ctx := context.Background()

	stats, err := c.TNTGames(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, &TNTStats{DisplayName: "Steve", Coins: 1500, Wins: 42, TagWins: 30, TagKills: 311}, stats)

	_, err = c.TNTGames(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNoStats)

	_, err = c.TNTGames(ctx, "forbidden")
	assert.ErrorContains(t, err, "Invalid API key")
}

func TestDisabledWithoutKey(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 0, time.Second)
	assert.False(t, c.Enabled())
	_, err := c.TNTGames(context.Background(), "x")
	assert.Error(t, err)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}
