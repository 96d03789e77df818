package device

import (
	"context"

	"github.com/norasector/turbine-common/types"
)

// Segment is one read from a symbol source.  Exactly one of Float and Dibits
// is set.
type Segment struct {
	Float  *types.SegmentFloat32
	Dibits *types.SegmentBinaryBytes
}

func (s Segment) Len() int {
	switch {
	case s.Float != nil:
		return len(s.Float.Data)
	case s.Dibits != nil:
		return len(s.Dibits.Data)
	default:
		return 0
	}
}

// Device produces a channel's symbols.  Start blocks until the input is
// exhausted (returning nil) or ctx is done, and closes segments on return.
type Device interface {
	Start(ctx context.Context, segments chan<- Segment) error
	Stop() error
	SymbolRate() int
}
