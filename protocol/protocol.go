package protocol

import (
	"encoding/json"
)

// Message types carried in the envelope's t field.
const (
	MsgState    = "state"    // post-tick race snapshot
	MsgFinished = "finished" // final frozen race state, sent once per race
)

// SimTickHz is the logical simulation rate: one in-game second per tick.
// Snapshots are pushed at the same rate, there is no separate broadcast
// cadence.
const SimTickHz = 1

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
