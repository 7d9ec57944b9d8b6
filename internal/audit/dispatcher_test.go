package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/metrics"
)

// fakeStore records in memory and can be made to block or fail.
type fakeStore struct {
	mu      sync.Mutex
	records []*domain.PredictionRecord
	err     error
	gate    chan struct{}
}

func (f *fakeStore) Record(ctx context.Context, rec *domain.PredictionRecord) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) ListByPatient(context.Context, int64, int) ([]*domain.PredictionRecord, error) {
	return nil, nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakeStore) ExportJSON(context.Context, io.Writer) error { return nil }

func (f *fakeStore) Close() error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDispatcher_WritesAndDrainsOnClose(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store, WithWorkers(3), WithQueueSize(50), WithLogger(quietLogger()))

	for i := 0; i < 20; i++ {
		assert.True(t, d.Submit(&domain.PredictionRecord{PatientID: int64(i)}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	count, _ := store.Count(context.Background())
	assert.Equal(t, int64(20), count)

	assert.False(t, d.Submit(&domain.PredictionRecord{PatientID: 1}), "closed dispatcher rejects records")
	assert.NoError(t, d.Close(ctx), "close is idempotent")
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	store := &fakeStore{gate: make(chan struct{})}
	d := NewDispatcher(store,
		WithWorkers(1),
		WithQueueSize(1),
		WithLogger(quietLogger()),
		WithMetrics(metrics.NewManager()),
	)

	// the single worker takes the first record and blocks on the gate
	require.True(t, d.Submit(&domain.PredictionRecord{PatientID: 1}))
	require.Eventually(t, func() bool { return d.Pending() == 0 }, time.Second, 5*time.Millisecond)

	assert.True(t, d.Submit(&domain.PredictionRecord{PatientID: 2}))

	start := time.Now()
	accepted := d.Submit(&domain.PredictionRecord{PatientID: 3})
	assert.False(t, accepted)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "submit must not block")

	close(store.gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	count, _ := store.Count(context.Background())
	assert.Equal(t, int64(2), count)
}

func TestDispatcher_StoreFailureIsIsolated(t *testing.T) {
	store := &fakeStore{err: errors.New("database unavailable")}
	d := NewDispatcher(store, WithWorkers(1), WithLogger(quietLogger()))

	assert.True(t, d.Submit(&domain.PredictionRecord{PatientID: 1}))
	assert.False(t, d.Submit(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestDispatcher_WriteTimeout(t *testing.T) {
	store := &fakeStore{gate: make(chan struct{})}
	d := NewDispatcherFromConfig(store, domain.AuditConfig{
		QueueSize:    4,
		Workers:      1,
		WriteTimeout: 20 * time.Millisecond,
	}, WithLogger(quietLogger()))

	d.Submit(&domain.PredictionRecord{PatientID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx), "a hung store is abandoned after the write timeout")
}

func TestDispatcher_CloseTimesOut(t *testing.T) {
	store := &fakeStore{gate: make(chan struct{})}
	d := NewDispatcher(store, WithWorkers(1), WithWriteTimeout(time.Minute), WithLogger(quietLogger()))
	d.Submit(&domain.PredictionRecord{PatientID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.Error(t, d.Close(ctx))

	close(store.gate)
}
