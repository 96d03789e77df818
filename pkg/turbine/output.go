package turbine

import (
	"context"

	"github.com/norasector/turbine-p25/pkg/op25"
)

// MessageOutput handles decoded messages.
type MessageOutput interface {
	// Start receives a context and should run in a loop, terminating upon ctx closing or on any errors.
	Start(ctx context.Context) error
	// Receive returns a channel that receives decoded packets.
	Receive() chan<- op25.OSWPacket
}
