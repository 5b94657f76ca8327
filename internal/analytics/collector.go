package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Collector fans tracked events out to its sinks on a background goroutine
// so request handlers never block on analytics.
type Collector struct {
	eventCh chan Event
	sinks   []Sink
	onDrop  func()
	logger  *slog.Logger
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
}

func NewCollector(bufferSize int, sinks ...Sink) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		sinks:   sinks,
		logger:  slog.Default().With("component", "analytics-collector"),
		done:    make(chan struct{}),
	}
}

// OnDrop registers a callback invoked whenever an event is dropped.
func (c *Collector) OnDrop(fn func()) {
	c.onDrop = fn
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.dispatch(event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh), "sinks", len(c.sinks))
}

// Track enqueues an event. It never blocks; when the buffer is full the
// event is dropped.
func (c *Collector) Track(event Event) {
	if event.ID == "" {
		event.ID = newEventID(event)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
		if c.onDrop != nil {
			c.onDrop()
		}
	}
}

// Close stops accepting events and waits for the dispatch loop to finish.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) dispatch(event Event) {
	for _, s := range c.sinks {
		s.Record(event)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.dispatch(event)
		default:
			return
		}
	}
}

// newEventID returns a ULID ordered by the event's own timestamp when set.
func newEventID(e Event) string {
	if e.Timestamp.IsZero() {
		return ulid.Make().String()
	}
	id, err := ulid.New(ulid.Timestamp(e.Timestamp), ulid.DefaultEntropy())
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}
