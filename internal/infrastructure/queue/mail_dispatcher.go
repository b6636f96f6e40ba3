package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanflow/origination/internal/core/ports"
	"github.com/loanflow/origination/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// MailDispatcher routes outbound mail to a fixed set of workers using
// consistent hashing on the recipient, so messages to one address are
// delivered in the order they were queued.
type MailDispatcher struct {
	workers []chan ports.Mail
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers: make([]chan ports.Mail, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Mail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands m to the worker responsible for its recipient. A full worker
// channel drops the message rather than blocking the caller.
func (d *MailDispatcher) Enqueue(m ports.Mail) {
	idx := d.shardIndex(m.To)
	select {
	case d.workers[idx] <- m:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MailErrorsTotal.Inc()
		d.log.Warn().Str("to", m.To).Int("worker_id", idx).Msg("mail queue full, message dropped")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Mail) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			start := time.Now()
			err := d.mailer.Send(ctx, m)
			metrics.MailDeliveryDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.MailErrorsTotal.Inc()
				d.log.Error().Err(err).
					Str("to", m.To).
					Int("worker_id", id).
					Msg("mail delivery failed")
			}
		}
	}
}
