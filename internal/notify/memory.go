package notify

import (
	"context"
	"log/slog"
	"sync"
)

// MemorySink keeps delivered events in memory
type MemorySink struct {
	mu      sync.Mutex
	events  []Event
	batches int
	// Err, when set, is returned from Close instead of delivering.
	Err error
}

func (s *MemorySink) Open(ctx context.Context) (Batch, error) {
	return &memoryBatch{sink: s}, nil
}

// Events returns a copy of every delivered event in order
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Batches returns how many batches were delivered
func (s *MemorySink) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Reset drops recorded events
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.batches = 0
}

type memoryBatch struct {
	sink    *MemorySink
	pending []Event
}

func (b *memoryBatch) Emit(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	b.pending = append(b.pending, e)
	return nil
}

func (b *memoryBatch) Discard() {
	b.pending = nil
}

func (b *memoryBatch) Close(ctx context.Context) error {
	b.sink.mu.Lock()
	defer b.sink.mu.Unlock()
	if b.sink.Err != nil {
		return b.sink.Err
	}
	b.sink.events = append(b.sink.events, b.pending...)
	b.sink.batches++
	b.pending = nil
	return nil
}

// LogSink writes events to a logger. Used when no Redis is configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Open(ctx context.Context) (Batch, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logBatch{logger: logger}, nil
}

type logBatch struct {
	logger  *slog.Logger
	pending []Event
}

func (b *logBatch) Emit(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	b.pending = append(b.pending, e)
	return nil
}

func (b *logBatch) Discard() {
	b.pending = nil
}

func (b *logBatch) Close(ctx context.Context) error {
	for _, e := range b.pending {
		b.logger.DebugContext(ctx, "change event",
			"event", string(e.Event), "type", string(e.Type), "id", e.ID, "parent", e.Parent)
	}
	if len(b.pending) > 0 {
		b.logger.DebugContext(ctx, "change batch delivered", "events", len(b.pending))
	}
	b.pending = nil
	return nil
}
