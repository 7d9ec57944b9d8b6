package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultQueueSize    = 256
	defaultWorkers      = 2
	defaultWriteTimeout = 5 * time.Second
)

// DispatcherOption applies a configuration option to the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets how many records may wait for a worker.
func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// WithWorkers sets the number of writer goroutines.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithWriteTimeout bounds each store write.
func WithWriteTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.writeTimeout = timeout
		}
	}
}

// WithLogger sets the logger used for write failures and drops.
func WithLogger(logger *logrus.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// Dispatcher writes audit records to a Store on background workers.
// Submit never blocks: when the queue is full the record is dropped and counted.
type Dispatcher struct {
	store        Store
	queueSize    int
	workers      int
	writeTimeout time.Duration
	logger       *logrus.Logger
	metrics      *metrics.Manager

	queue  chan *domain.PredictionRecord
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher and starts its workers.
func NewDispatcher(store Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:        store,
		queueSize:    defaultQueueSize,
		workers:      defaultWorkers,
		writeTimeout: defaultWriteTimeout,
		logger:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.queue = make(chan *domain.PredictionRecord, d.queueSize)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run(i)
	}

	return d
}

// NewDispatcherFromConfig creates a dispatcher from the audit configuration section.
func NewDispatcherFromConfig(store Store, cfg domain.AuditConfig, opts ...DispatcherOption) *Dispatcher {
	base := []DispatcherOption{
		WithQueueSize(cfg.QueueSize),
		WithWorkers(cfg.Workers),
		WithWriteTimeout(cfg.WriteTimeout),
	}
	return NewDispatcher(store, append(base, opts...)...)
}

// Submit enqueues a record for persistence. It reports whether the record was accepted.
func (d *Dispatcher) Submit(rec *domain.PredictionRecord) bool {
	if rec == nil {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(rec, "dispatcher closed")
		return false
	}

	select {
	case d.queue <- rec:
		d.metrics.SetAuditQueueDepth(len(d.queue))
		return true
	default:
		d.drop(rec, "queue full")
		return false
	}
}

// Pending returns the number of records waiting for a worker.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting records and waits for queued records to be written
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
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
		d.logger.WithField("pending", len(d.queue)).Warn("Audit dispatcher shutdown timed out")
		return fmt.Errorf("audit dispatcher shutdown timed out: %w", ctx.Err())
	}
}

func (d *Dispatcher) run(worker int) {
	defer d.wg.Done()

	for rec := range d.queue {
		d.metrics.SetAuditQueueDepth(len(d.queue))
		d.write(worker, rec)
	}
}

func (d *Dispatcher) write(worker int, rec *domain.PredictionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	if err := d.store.Record(ctx, rec); err != nil {
		d.metrics.RecordAudit(metrics.AuditFailed)
		d.logger.WithFields(logrus.Fields{
			"worker":     worker,
			"patient_id": rec.PatientID,
			"model":      rec.ModelName,
			"error":      err,
		}).Error("Failed to persist prediction audit record")
		return
	}

	d.metrics.RecordAudit(metrics.AuditWritten)
	d.logger.WithFields(logrus.Fields{
		"audit_id":   rec.ID,
		"patient_id": rec.PatientID,
		"model":      rec.ModelName,
	}).Debug("Prediction audit record persisted")
}

func (d *Dispatcher) drop(rec *domain.PredictionRecord, reason string) {
	d.metrics.RecordAudit(metrics.AuditDropped)
	d.logger.WithFields(logrus.Fields{
		"patient_id": rec.PatientID,
		"model":      rec.ModelName,
		"reason":     reason,
	}).Warn("Prediction audit record dropped")
}
