package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Stamp is the provider identity copied onto every event.
type Stamp struct {
	Target    string
	Algorithm string
	KeyID     string
}

// Options sizes the queue.
type Options struct {
	Size       int
	DropIfFull bool
	Now        func() time.Time
}

// Queue delivers events to a sink in publish order. A nil Queue records nothing.
type Queue struct {
	sink       Sink
	stamp      Stamp
	now        func() time.Time
	dropIfFull bool

	mu      sync.RWMutex
	closed  bool
	events  chan Event
	stopped chan struct{}
	dropped atomic.Uint64
}

// NewQueue starts the delivery goroutine. It returns nil for a nil sink.
func NewQueue(sink Sink, stamp Stamp, opts Options) *Queue {
	if sink == nil {
		return nil
	}
	if opts.Size < 1 {
		opts.Size = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	q := &Queue{
		sink:       sink,
		stamp:      stamp,
		now:        opts.Now,
		dropIfFull: opts.DropIfFull,
		events:     make(chan Event, opts.Size),
		stopped:    make(chan struct{}),
	}
	go q.deliver()
	return q
}

func (q *Queue) deliver() {
	defer close(q.stopped)
	ctx := context.Background()
	for event := range q.events {
		q.sink.Record(ctx, event)
	}
}

// Publish stamps event and queues it. An event that cannot be queued, because the buffer is
// full under drop-if-full or ctx ends first, is counted as dropped.
func (q *Queue) Publish(ctx context.Context, event Event) {
	if q == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Time = q.now().UTC()
	event.Target = q.stamp.Target
	event.Algorithm = q.stamp.Algorithm
	event.KeyID = q.stamp.KeyID

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}

	if q.dropIfFull {
		select {
		case q.events <- event:
		default:
			q.dropped.Add(1)
		}
		return
	}
	select {
	case q.events <- event:
	case <-ctx.Done():
		q.dropped.Add(1)
	}
}

// Close stops accepting events and returns once every queued event reached the sink.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	<-q.stopped
}

// Dropped returns the number of events that never reached the queue.
func (q *Queue) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}
