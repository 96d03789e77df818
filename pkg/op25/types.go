package op25

import "time"

type SystemType string

const (
	SystemTypeP25 SystemType = "p25"
)

// OSWPacket carries one decoded message from a channel decoder to the
// processors.
type OSWPacket struct {
	SystemID   int
	SystemType SystemType
	Packet     interface{}
	Timestamp  time.Time
}
