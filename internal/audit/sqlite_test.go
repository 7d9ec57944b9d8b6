package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncology-insights-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "predictions.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, model := range []string{"Survival Prediction Model v2.1", "Drug Response Model v1.8", "Survival Prediction Model v2.1"} {
		rec := &domain.PredictionRecord{
			PatientID:       1,
			ModelName:       model,
			PredictionType:  "5-Year Survival Rate",
			PredictedValue:  float64(60 + i),
			ConfidenceScore: 0.9,
			InputFeatures:   json.RawMessage(`{"age":60}`),
			Factors:         []string{"Advanced age"},
			PredictionDate:  base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Record(ctx, rec))
		assert.NotZero(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
	}
	require.NoError(t, store.Record(ctx, &domain.PredictionRecord{PatientID: 2, ModelName: "m", PredictionType: "t"}))

	got, err := store.ListByPatient(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 62.0, got[0].PredictedValue, "newest first")
	assert.Equal(t, 61.0, got[1].PredictedValue)
	assert.Equal(t, []string{"Advanced age"}, got[0].Factors)
	assert.JSONEq(t, `{"age":60}`, string(got[0].InputFeatures))

	none, err := store.ListByPatient(ctx, 99, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	var empty bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &empty))
	var export domain.PredictionExport
	require.NoError(t, json.Unmarshal(empty.Bytes(), &export))
	assert.Equal(t, 0, export.Count)
	assert.NotNil(t, export.Predictions)

	require.NoError(t, store.Record(ctx, &domain.PredictionRecord{
		PatientID: 7, ModelName: "Drug Response Model v1.8", PredictionType: "Treatment Response Rate",
		PredictedValue: 55, ConfidenceScore: 0.85,
	}))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, ExportVersion, export.Version)
	assert.Equal(t, 1, export.Count)
	assert.Equal(t, int64(7), export.Predictions[0].PatientID)
	assert.Equal(t, []string{}, export.Predictions[0].Factors)
}

func TestSQLiteStore_RecordAfterClose(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Record(context.Background(), &domain.PredictionRecord{PatientID: 1})
	assert.Error(t, err)
}
