package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mateusfaissal/batepapo-api/internal/api"
	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/models"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

type fixture struct {
	srv   *httptest.Server
	store *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	logger := zerolog.Nop()
	tracker := presence.NewTracker(st, logger)
	router := messaging.NewRouter(st)

	srv := httptest.NewServer(api.NewRouter(logger, st, tracker, router))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, store: st}
}

func (f *fixture) post(t *testing.T, path string, body any, user string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("User", user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path, user string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("User", user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func register(t *testing.T, f *fixture, name string) {
	t.Helper()
	resp := f.post(t, "/participants", map[string]string{"name": name}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAddParticipant(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, "/participants", map[string]string{"name": "alice"}, "")
	body := decode[map[string]any](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "alice", body["name"])

	// Duplicate name conflicts.
	resp = f.post(t, "/participants", map[string]string{"name": "alice"}, "")
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Missing name is a validation error.
	resp = f.post(t, "/participants", map[string]string{}, "")
	errs := decode[map[string][]string](t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, errs["errors"], "name is required")
}

func TestListParticipants(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")
	register(t, f, "bob")

	resp := f.get(t, "/participants", "")
	participants := decode[[]models.Participant](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, participants, 2)
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	resp := f.post(t, "/messages", map[string]string{
		"to": models.BroadcastRecipient, "text": "oi", "type": models.TypeBroadcast,
	}, "alice")
	msg := decode[map[string]any](t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "alice", msg["from"])
	require.NotEmpty(t, msg["time"])

	// Unregistered sender is rejected.
	resp = f.post(t, "/messages", map[string]string{
		"to": models.BroadcastRecipient, "text": "oi", "type": models.TypeBroadcast,
	}, "ghost")
	resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPostMessage_ReportsAllViolations(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	// Empty body: to, text and type all violated, all reported at once.
	resp := f.post(t, "/messages", map[string]string{}, "alice")
	errs := decode[map[string][]string](t, resp)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Len(t, errs["errors"], 3)

	// Clients may never submit status messages.
	resp = f.post(t, "/messages", map[string]string{
		"to": models.BroadcastRecipient, "text": "oi", "type": models.TypeStatus,
	}, "alice")
	resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetMessages(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")
	register(t, f, "bob")

	for _, text := range []string{"um", "dois", "tres"} {
		resp := f.post(t, "/messages", map[string]string{
			"to": models.BroadcastRecipient, "text": text, "type": models.TypeBroadcast,
		}, "alice")
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := f.get(t, "/messages?limit=2", "bob")
	msgs := decode[[]models.Message](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, msgs, 2)
	require.Equal(t, "tres", msgs[0].Text)
	require.Equal(t, "dois", msgs[1].Text)
}

func TestGetMessages_StrictLimit(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	for _, path := range []string{"/messages", "/messages?limit=0", "/messages?limit=-1", "/messages?limit=abc"} {
		resp := f.get(t, path, "alice")
		resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, path)
	}

	// Viewer identity is mandatory too.
	resp := f.get(t, "/messages?limit=5", "")
	resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	resp := f.post(t, "/status", nil, "alice")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.post(t, "/status", nil, "ghost")
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.post(t, "/status", nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice")

	resp := f.get(t, "/stats", "")
	stats := decode[map[string]any](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, stats["active_participants"])
	require.EqualValues(t, 1, stats["total_messages"]) // join announcement

	at, err := time.Parse(time.RFC3339, stats["last_message_at"].(string))
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/health", "")
	health := decode[map[string]any](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "healthy", health["status"])
}
