package models

import (
	"encoding/json"
	"time"
)

// BroadcastRecipient is the reserved "to" value meaning a message is visible
// to every participant. The token comes from the original wire contract.
const BroadcastRecipient = "Todos"

// Message type wire values. Status messages are system-generated only;
// clients may never submit them.
const (
	TypeBroadcast = "message"
	TypePrivate   = "private_message"
	TypeStatus    = "status"
)

// Message is a chat message. Messages are immutable once created and are
// never deleted. From weakly references a Participant by name at creation
// time; the participant may be evicted later without affecting the message.
type Message struct {
	ID        string `json:"id"` // ULID
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	CreatedAt int64  `json:"ts"` // Unix ms
}

// MarshalJSON adds the clock-time "time" field the external contract expects.
// The full timestamp is what gets stored; the HH:MM:SS string is derived at
// this boundary only.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(struct {
		alias
		Time string `json:"time"`
	}{
		alias: alias(m),
		Time:  m.ClockTime(),
	})
}

// ClockTime renders CreatedAt as HH:MM:SS in local time.
func (m Message) ClockTime() string {
	return time.UnixMilli(m.CreatedAt).Format("15:04:05")
}

// VisibleTo reports whether viewer may see this message: broadcasts are
// visible to everyone, private traffic only to its sender and addressee.
func (m Message) VisibleTo(viewer string) bool {
	return m.To == BroadcastRecipient || m.To == viewer || m.From == viewer
}
