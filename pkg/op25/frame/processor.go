package frame

import "context"

// Processor consumes assembled messages until its context is cancelled or
// its input runs dry.
type Processor interface {
	Start(context.Context) error
}
