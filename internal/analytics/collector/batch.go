// Package collector provides an analytics sink that buffers events and
// publishes them to Kafka in batches.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vamsi-1234/portfolio-engine/internal/analytics"
	"github.com/vamsi-1234/portfolio-engine/pkg/kafka"
)

// pendingBatches bounds the buffer while the publisher keeps failing.
const pendingBatches = 3

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// BatchCollector publishes when batchSize events are buffered or every
// flushInterval, whichever comes first. Size-triggered flushes run on the
// loop started by Start.
type BatchCollector struct {
	publisher     Publisher
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	buffer  []kafka.Event
	flushMu sync.Mutex
	dropped atomic.Int64

	kick chan struct{}
	done chan struct{}
}

func NewBatchCollector(publisher Publisher, batchSize int, flushInterval time.Duration) *BatchCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &BatchCollector{
		publisher:     publisher,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-batcher"),
		buffer:        make([]kafka.Event, 0, batchSize),
		kick:          make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start runs the flush loop until ctx is cancelled, then flushes once more
// with a fresh deadline.
func (bc *BatchCollector) Start(ctx context.Context) {
	go func() {
		defer close(bc.done)
		ticker := time.NewTicker(bc.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bc.Flush(ctx)
			case <-bc.kick:
				bc.Flush(ctx)
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				bc.Flush(final)
				cancel()
				return
			}
		}
	}()
	bc.logger.Info("analytics batcher started", "batch_size", bc.batchSize, "flush_interval", bc.flushInterval)
}

// Record implements analytics.Sink. The surface is the partition key so a
// surface's events keep their order.
func (bc *BatchCollector) Record(event analytics.Event) {
	bc.mu.Lock()
	bc.buffer = append(bc.buffer, kafka.Event{Key: string(event.Surface), Value: event, Time: event.Timestamp})
	full := len(bc.buffer) >= bc.batchSize
	bc.mu.Unlock()

	if full {
		select {
		case bc.kick <- struct{}{}:
		default:
		}
	}
}

// Close waits for the loop started by Start to exit.
func (bc *BatchCollector) Close() {
	<-bc.done
}

func (bc *BatchCollector) BufferLen() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.buffer)
}

// Dropped counts events discarded because the buffer overflowed.
func (bc *BatchCollector) Dropped() int64 {
	return bc.dropped.Load()
}

// Flush publishes the buffer. On failure the events go back to the front of
// the buffer, keeping only the newest pendingBatches*batchSize.
func (bc *BatchCollector) Flush(ctx context.Context) {
	bc.flushMu.Lock()
	defer bc.flushMu.Unlock()

	bc.mu.Lock()
	batch := bc.buffer
	if len(batch) == 0 {
		bc.mu.Unlock()
		return
	}
	bc.buffer = make([]kafka.Event, 0, bc.batchSize)
	bc.mu.Unlock()

	err := bc.publisher.PublishBatch(ctx, batch)
	if err == nil {
		bc.logger.Debug("batch flushed", "events", len(batch))
		return
	}

	bc.mu.Lock()
	bc.buffer = append(batch, bc.buffer...)
	var overflow int
	if limit := bc.batchSize * pendingBatches; len(bc.buffer) > limit {
		overflow = len(bc.buffer) - limit
		bc.buffer = append([]kafka.Event(nil), bc.buffer[overflow:]...)
	}
	bc.mu.Unlock()

	bc.dropped.Add(int64(overflow))
	bc.logger.Error("batch flush failed", "events", len(batch), "dropped", overflow, "error", err)
}
