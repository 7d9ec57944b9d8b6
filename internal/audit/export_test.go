package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.closeErr
}

type failingExportStore struct {
	fakeStore
	err error
}

func (f *failingExportStore) ExportJSON(context.Context, io.Writer) error { return f.err }

func TestExportTo(t *testing.T) {
	ctx := context.Background()

	t.Run("closes on success", func(t *testing.T) {
		w := &closeRecorder{}
		require.NoError(t, ExportTo(ctx, &fakeStore{}, w))
		assert.True(t, w.closed)
	})

	t.Run("reports close failure", func(t *testing.T) {
		w := &closeRecorder{closeErr: errors.New("short write")}
		err := ExportTo(ctx, &fakeStore{}, w)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "short write")
	})

	t.Run("export error wins", func(t *testing.T) {
		w := &closeRecorder{closeErr: errors.New("short write")}
		err := ExportTo(ctx, &failingExportStore{err: errors.New("database unavailable")}, w)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database unavailable")
		assert.True(t, w.closed)
	})
}

func TestExportTo_SQLiteFile(t *testing.T) {
	store := createTestStore(t)
	w := &closeRecorder{}
	require.NoError(t, ExportTo(context.Background(), store, w))
	assert.Contains(t, w.String(), `"version": "1.0"`)
}
