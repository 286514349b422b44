package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"cnpjd/pkg/requestcontext"
)

// Publisher captures structured audit events. In sync mode Emit writes
// straight to the store; with an async buffer it enqueues for a Worker and
// drops events when the queue is full.
type Publisher struct {
	store  Store
	logger *slog.Logger

	queue   chan Event
	done    chan struct{}
	closeMu sync.RWMutex
	closed  bool
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async mode with a queue of size n.
func WithAsyncBuffer(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan Event, n)
		}
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done = make(chan struct{})
		w := NewWorker(store, p.queue, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records event, filling ID, Timestamp and RequestID when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.queue == nil {
		return p.store.Append(ctx, event)
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
	return nil
}

// Close stops accepting queued events and waits for the queue to drain.
func (p *Publisher) Close() {
	if p.queue == nil {
		return
	}
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.closeMu.Unlock()
	<-p.done
}
