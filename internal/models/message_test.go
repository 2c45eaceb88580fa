package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_VisibleTo(t *testing.T) {
	broadcast := Message{From: "y", To: BroadcastRecipient}
	require.True(t, broadcast.VisibleTo("x"))
	require.True(t, broadcast.VisibleTo("z"))

	private := Message{From: "y", To: "x", Type: TypePrivate}
	require.True(t, private.VisibleTo("x"), "addressee sees it")
	require.True(t, private.VisibleTo("y"), "sender sees own outgoing traffic")
	require.False(t, private.VisibleTo("z"))
}

func TestMessage_MarshalDerivesClockTime(t *testing.T) {
	at := time.Date(2024, 6, 1, 13, 45, 9, 0, time.Local)
	m := Message{
		ID: "m1", From: "alice", To: BroadcastRecipient,
		Text: "oi", Type: TypeBroadcast, CreatedAt: at.UnixMilli(),
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	require.Equal(t, "13:45:09", wire["time"])
	require.EqualValues(t, at.UnixMilli(), wire["ts"])
}
