package batepapo

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mateusfaissal/batepapo-api/internal/api"
	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := store.NewMemoryStore()
	logger := zerolog.Nop()
	srv := httptest.NewServer(api.NewRouter(logger, st,
		presence.NewTracker(st, logger), messaging.NewRouter(st)))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	alice := NewClient(srv.URL)
	require.NoError(t, alice.Register("alice"))
	require.Equal(t, "alice", alice.Name)

	bob := NewClient(srv.URL)
	require.NoError(t, bob.Register("bob"))

	participants, err := alice.Participants()
	require.NoError(t, err)
	require.Len(t, participants, 2)

	_, err = alice.Send(Broadcast, "oi pessoal", false)
	require.NoError(t, err)
	private, err := alice.Send("bob", "so pra voce", true)
	require.NoError(t, err)
	require.Equal(t, TypePrivate, private.Type)
	require.Len(t, private.Time, 8)

	// Bob sees both plus the two join announcements, newest first.
	msgs, err := bob.Messages(10)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, "so pra voce", msgs[0].Text)
	require.Equal(t, "oi pessoal", msgs[1].Text)

	require.NoError(t, bob.Heartbeat())
}

func TestClientErrors(t *testing.T) {
	srv := newTestServer(t)

	c := NewClient(srv.URL)
	require.NoError(t, c.Register("alice"))

	// Duplicate registration surfaces the server's message.
	err := NewClient(srv.URL).Register("alice")
	require.Error(t, err)
	require.Contains(t, err.Error(), "409")

	// Sending without a registered name is rejected.
	ghost := NewClient(srv.URL)
	ghost.Name = "ghost"
	_, err = ghost.Send(Broadcast, "boo", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "422")

	// Heartbeat for an evicted/unknown name is a 404.
	require.Error(t, ghost.Heartbeat())
}
