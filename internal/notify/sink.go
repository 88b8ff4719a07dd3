package notify

import (
	"context"
	"fmt"
)

// Sink opens a publishing session. One session carries every event of a run.
type Sink interface {
	Open(ctx context.Context) (Batch, error)
}

// Batch buffers events until Close delivers them. Discard drops everything
// buffered so far; the batch must not be used afterwards.
type Batch interface {
	Emit(ctx context.Context, e Event) error
	Close(ctx context.Context) error
	Discard()
}

// Publish sends events through a single batch of sink.
// Invalid events abort the batch before anything is delivered.
func Publish(ctx context.Context, sink Sink, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("emit %s: %w", e, err)
		}
	}
	batch, err := sink.Open(ctx)
	if err != nil {
		return fmt.Errorf("open batch: %w", err)
	}
	for _, e := range events {
		if err := batch.Emit(ctx, e); err != nil {
			batch.Discard()
			return fmt.Errorf("emit %s: %w", e, err)
		}
	}
	if err := batch.Close(ctx); err != nil {
		return fmt.Errorf("deliver %d events: %w", len(events), err)
	}
	return nil
}
