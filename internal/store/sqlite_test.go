package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteStore_RegistrationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	p := participant("alice", 100)
	require.NoError(t, s.CreateParticipant(ctx, p, announcement("alice", 100)))

	got, err := s.GetParticipant(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, int64(100), got.LastStatus)

	missing, err := s.GetParticipant(ctx, "bob")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSQLiteStore_UniqueNameConstraint(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.CreateParticipant(ctx, participant("alice", 100), announcement("alice", 100)))

	err := s.CreateParticipant(ctx, participant("alice", 200), &models.Message{
		ID: "other", From: "alice", To: models.BroadcastRecipient,
		Text: "entra na sala...", Type: models.TypeStatus, CreatedAt: 200,
	})
	require.ErrorIs(t, err, ErrDuplicate)

	// The rolled-back transaction must not leave the announcement behind.
	count, err := s.CountMessages(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSQLiteStore_TouchParticipant(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.CreateParticipant(ctx, participant("alice", 100), announcement("alice", 100)))

	ok, err := s.TouchParticipant(ctx, "alice", 500)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetParticipant(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(500), got.LastStatus)

	ok, err = s.TouchParticipant(ctx, "nobody", 500)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteStore_StaleScanAndRemoval(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	require.NoError(t, s.CreateParticipant(ctx, participant("old", 50), announcement("old", 50)))
	require.NoError(t, s.CreateParticipant(ctx, participant("fresh", 150), announcement("fresh", 150)))

	stale, err := s.ListStaleParticipants(ctx, 100)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "old", stale[0].Name)

	farewell := &models.Message{
		ID: "m-left", From: "old", To: models.BroadcastRecipient,
		Text: "sai da sala...", Type: models.TypeStatus, CreatedAt: 300,
	}
	require.NoError(t, s.RemoveParticipant(ctx, "old", farewell))

	remaining, err := s.ListParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].Name)

	last, err := s.LastMessageAt(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(300), last)
}

func TestSQLiteStore_VisibleMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	insert := func(id, from, to string, at int64) {
		require.NoError(t, s.InsertMessage(ctx, &models.Message{
			ID: id, From: from, To: to, Text: "oi", Type: models.TypeBroadcast, CreatedAt: at,
		}))
	}

	insert("m1", "y", models.BroadcastRecipient, 1)
	insert("m2", "y", "x", 2)
	insert("m3", "x", "y", 3)
	insert("m4", "y", "w", 4) // private between others, invisible to x

	forX, err := s.ListVisibleMessages(ctx, "x", 2)
	require.NoError(t, err)
	require.Len(t, forX, 2)
	require.Equal(t, "m3", forX[0].ID)
	require.Equal(t, "m2", forX[1].ID)

	forZ, err := s.ListVisibleMessages(ctx, "z", 10)
	require.NoError(t, err)
	require.Len(t, forZ, 1)
	require.Equal(t, "m1", forZ[0].ID)
}
