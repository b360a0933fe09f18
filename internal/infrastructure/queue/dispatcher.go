package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/infrastructure/mail"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes mail to a fixed set of workers using consistent hashing
// on the recipient, so one recipient's messages are delivered in order.
type Dispatcher struct {
	workers   []chan mail.Message
	transport mail.Transport
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, transport mail.Transport, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan mail.Message, numWorkers),
		transport: transport,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mail.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close once their queue is drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands m to the worker responsible for its recipient. It blocks
// when that worker's buffer is full, or returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Enqueue(ctx context.Context, m mail.Message) error {
	idx := d.shardIndex(m.To)
	select {
	case d.workers[idx] <- m:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan mail.Message) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			err := d.transport.Send(ctx, m)
			result := "sent"
			if err != nil {
				result = "failed"
			}
			metrics.MailDeliveriesTotal.WithLabelValues(m.Kind, result).Inc()
			if err != nil {
				d.log.Error().Err(err).
					Str("to", m.To).
					Str("kind", m.Kind).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
		}
	}
}
