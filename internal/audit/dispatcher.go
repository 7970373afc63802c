package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher behavior.
type Config struct {
	Enabled    bool
	BufferSize int

	// DropIfFull drops events when the queue is full instead of blocking
	// the emitting flow.
	DropIfFull bool

	// Enrich, when set, runs on the caller's goroutine before the event is
	// queued. It is the hook for stamping request-scoped metadata (request
	// id, device label) that would be lost once the event crosses into the
	// dispatch goroutine.
	Enrich func(ctx context.Context, event *Event)
}

// Dispatcher relays events to a Sink from a dedicated goroutine so flow
// methods never block on sink latency. A nil *Dispatcher is valid and inert.
type Dispatcher struct {
	sink        Sink
	enrich      func(ctx context.Context, event *Event)
	blockOnFull bool

	queue chan Event
	quit  chan struct{}
	wg    sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once

	dropped atomic.Uint64

	mu            sync.Mutex
	droppedByType map[string]uint64
}

// NewDispatcher returns nil when the config disables auditing. A nil sink
// falls back to NoOpSink.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &Dispatcher{
		sink:          sink,
		enrich:        cfg.Enrich,
		blockOnFull:   !cfg.DropIfFull,
		queue:         make(chan Event, size),
		quit:          make(chan struct{}),
		droppedByType: make(map[string]uint64),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

// Emit queues one event for async delivery. When the queue is full the
// event is either dropped (with per-type accounting) or, under the blocking
// policy, Emit waits for space. Emit after Close is ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}

	if d.enrich != nil {
		d.enrich(ctx, &event)
	}

	if d.blockOnFull {
		select {
		case d.queue <- event:
		case <-d.quit:
		}
		return
	}

	select {
	case d.queue <- event:
	default:
		d.recordDrop(event.EventType)
	}
}

// Dropped reports the total number of events discarded under backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedFor reports how many events of one type were discarded. Useful for
// telling a noisy refresh loop apart from lost security-relevant events.
func (d *Dispatcher) DroppedFor(eventType string) uint64 {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.droppedByType[eventType]
}

// Close stops intake, waits for the dispatch goroutine, and drains any
// events still queued. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.quit)
		d.wg.Wait()
		d.drain()
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

func (d *Dispatcher) recordDrop(eventType string) {
	d.dropped.Add(1)
	d.mu.Lock()
	d.droppedByType[eventType]++
	d.mu.Unlock()
}
