package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/metrics"
)

const (
	defaultWorkers = 4
	defaultBuffer  = 256
)

// Dispatcher routes content events to a fixed set of workers using consistent
// hashing on the content id, guaranteeing per-content publish ordering. It
// implements ports.ContentNotifier: the request path never waits on fan-out.
type Dispatcher struct {
	workers   []chan ports.ContentEvent
	publisher ports.ContentPublisher
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each
// with a queue of queueSize events. Non-positive values fall back to defaults.
func NewDispatcher(numWorkers, queueSize int, publisher ports.ContentPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultBuffer
	}
	d := &Dispatcher{
		workers:   make([]chan ports.ContentEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ContentEvent, queueSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) NotifyUpdated(content *domain.Content) {
	if content == nil {
		return
	}
	d.Enqueue(ports.ContentEvent{Kind: ports.ContentUpdated, ContentID: content.ID, Content: content})
}

func (d *Dispatcher) NotifyDeleted(contentID string) {
	d.Enqueue(ports.ContentEvent{Kind: ports.ContentDeleted, ContentID: contentID})
}

// Enqueue hands event to the worker owning its content id. When that worker's
// queue is full the event is dropped and reported false.
func (d *Dispatcher) Enqueue(event ports.ContentEvent) bool {
	idx := d.shardIndex(event.ContentID)
	select {
	case d.workers[idx] <- event:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.RealtimeDroppedTotal.WithLabelValues("dispatch").Inc()
		d.log.Warn().
			Str("content_id", event.ContentID).
			Str("kind", string(event.Kind)).
			Int("worker_id", idx).
			Msg("notification queue full, dropping content event")
		return false
	}
}

// shardIndex maps a content id deterministically to a worker index.
func (d *Dispatcher) shardIndex(contentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(contentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ContentEvent) {
	depth := metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.publisher.Publish(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("content_id", event.ContentID).
					Str("kind", string(event.Kind)).
					Int("worker_id", id).
					Msg("content event publish failed")
			}
		}
	}
}
