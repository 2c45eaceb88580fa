package models

import (
	"github.com/google/uuid"
)

// Participant represents an active chat user. Name is unique across all
// active participants (case-sensitive). LastStatus is refreshed on every
// heartbeat and decides eviction during sweeps.
type Participant struct {
	ID         uuid.UUID `json:"-"`
	Name       string    `json:"name"`
	LastStatus int64     `json:"lastStatus"` // Unix ms
}
