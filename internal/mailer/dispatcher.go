package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_messages_total",
			Help: "Emails handled by the dispatcher by outcome",
		},
		[]string{"outcome"},
	)

	mailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailer_queue_depth",
			Help: "Emails waiting in the dispatcher queue",
		},
	)
)

// ErrDispatcherClosed is returned by Enqueue after Shutdown.
var ErrDispatcherClosed = errors.New("mail dispatcher closed")

// ErrQueueFull is returned by Enqueue when the queue has no free slot.
var ErrQueueFull = errors.New("mail queue full")

type job struct {
	ctx context.Context
	msg Message
}

// Dispatcher sends email on a fixed pool of workers fed by a bounded queue.
// Failures are logged and counted, never returned to the enqueuer.
type Dispatcher struct {
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines reading from a queue of size
// queueSize. Each send is bounded by timeout.
func NewDispatcher(sender Sender, workers, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan job, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Enqueue schedules msg without waiting for delivery. The request's context
// values (trace, correlation id) are kept but its cancellation is not.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		mailsTotal.WithLabelValues("dropped").Inc()
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		mailQueueDepth.Inc()
		return nil
	default:
		mailsTotal.WithLabelValues("dropped").Inc()
		d.logger.WarnContext(ctx, "mail queue full, dropping message",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
		)
		return ErrQueueFull
	}
}

// Shutdown stops accepting messages and waits for the queue to drain or ctx
// to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		mailQueueDepth.Dec()
		d.send(j)
	}
}

func (d *Dispatcher) send(j job) {
	ctx := j.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := d.sender.Send(ctx, j.msg); err != nil {
		mailsTotal.WithLabelValues("failed").Inc()
		d.logger.ErrorContext(ctx, "failed to send email",
			slog.String("to", j.msg.To),
			slog.String("subject", j.msg.Subject),
			slog.String("error", err.Error()),
		)
		return
	}

	mailsTotal.WithLabelValues("sent").Inc()
	d.logger.InfoContext(ctx, "email sent",
		slog.String("to", j.msg.To),
		slog.String("subject", j.msg.Subject),
		slog.Duration("duration", time.Since(start)),
	)
}
