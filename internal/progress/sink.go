package progress

import "context"

// Sink consumes progress events. Implementations must be safe for
// concurrent use and should return quickly; slow sinks delay fan-out.
type Sink interface {
	Consume(ctx context.Context, events []Event) error
	Close(ctx context.Context) error
}
