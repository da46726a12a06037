// Package analytics streams per-query ranking telemetry to Kafka. Tracking
// is fire-and-forget: a full buffer drops the event rather than delaying the
// query path.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidesearch/tidesearch/pkg/kafka"
)

// QueryEvent is one ranked query as published to the analytics topic.
type QueryEvent struct {
	Query         string    `json:"query"`
	Terms         int       `json:"terms"`
	Strategy      string    `json:"strategy"`
	TotalHits     int       `json:"totalHits"`
	Retries       int       `json:"retries"`
	CutoffReached bool      `json:"cutoffReached"`
	CacheHit      bool      `json:"cacheHit"`
	LatencyMs     int64     `json:"latencyMs"`
	Timestamp     time.Time `json:"timestamp"`
}

// Collector buffers query events and publishes them in the background.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan QueryEvent
	logger   *slog.Logger
	done     chan struct{}
}

func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan QueryEvent, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publishing loop. It runs until Close or ctx
// cancellation; on cancellation the remaining buffer is drained.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues an event without blocking.
func (c *Collector) Track(event QueryEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event QueryEvent) {
	if err := c.producer.Publish(ctx, kafka.Event{
		Key:   "query",
		Value: event,
	}); err != nil {
		c.logger.Error("failed to publish query event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
