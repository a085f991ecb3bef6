package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Elale1984/RoomzIO-API/internal/api/metrics"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// AuditDispatcher routes audit events to a fixed set of workers using
// consistent hashing on the username, so each user's trail is written in order.
// Record never blocks: when a worker's buffer is full the event is dropped and
// counted.
type AuditDispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

var _ ports.AuditSink = (*AuditDispatcher)(nil)

// Start launches all worker goroutines. Workers drain what is already queued
// and stop once ctx is cancelled; Wait blocks until they have.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *AuditDispatcher) Wait() {
	d.wg.Wait()
}

// Record hands the event to the worker responsible for its username.
func (d *AuditDispatcher) Record(event domain.AuditEvent) {
	idx := d.shardIndex(event.Username)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("action", string(event.Action)).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a username deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(context.Background(), id, event)
		}
	}
}

// drain flushes events queued before shutdown.
func (d *AuditDispatcher) drain(id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case event := <-ch:
			d.write(context.Background(), id, event)
		default:
			return
		}
	}
}

func (d *AuditDispatcher) write(ctx context.Context, id int, event domain.AuditEvent) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.InsertEvent(ctx, &event)
	metrics.AuditWriteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("action", string(event.Action)).
			Int("worker_id", id).
			Msg("audit write failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("written").Inc()
}
