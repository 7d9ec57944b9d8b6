package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncology-insights-server/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return store, mock
}

var recordColumns = []string{
	"id", "patient_id", "model_name", "prediction_type", "predicted_value",
	"confidence_score", "input_features", "risk_factors", "prediction_date", "created_at",
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestNewPostgresStore_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStore(db)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestPostgresStore_Record(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := &domain.PredictionRecord{
		PatientID:       12,
		ModelName:       "Survival Prediction Model v2.1",
		PredictionType:  "5-Year Survival Rate",
		PredictedValue:  42.5,
		ConfidenceScore: 0.91,
		InputFeatures:   json.RawMessage(`{"age":64}`),
		Factors:         []string{"Advanced age"},
		PredictionDate:  created,
	}

	mock.ExpectQuery("INSERT INTO ai_predictions").
		WithArgs(int64(12), rec.ModelName, rec.PredictionType, 42.5, 0.91, `{"age":64}`, `["Advanced age"]`, created).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	err := store.Record(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordEmptyFactors(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO ai_predictions").
		WithArgs(int64(3), "m", "t", 1.0, 0.5, "{}", "[]", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	rec := &domain.PredictionRecord{PatientID: 3, ModelName: "m", PredictionType: "t", PredictedValue: 1, ConfidenceScore: 0.5}
	require.NoError(t, store.Record(context.Background(), rec))
	assert.False(t, rec.PredictionDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO ai_predictions").WillReturnError(errors.New("foreign key violation"))

	err := store.Record(context.Background(), &domain.PredictionRecord{PatientID: 999})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record prediction")
}

func TestPostgresStore_ListByPatient(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(recordColumns).
		AddRow(int64(2), int64(5), "Drug Response Model v1.8", "Treatment Response Rate", 55.0, 0.88, `{"drugName":"Cisplatin"}`, `["Moderate response expected"]`, now, now).
		AddRow(int64(1), int64(5), "Survival Prediction Model v2.1", "5-Year Survival Rate", 70.0, 0.9, nil, nil, now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT (.+) FROM ai_predictions WHERE patient_id = \\$1").
		WithArgs(int64(5), 100).
		WillReturnRows(rows)

	got, err := store.ListByPatient(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, []string{"Moderate response expected"}, got[0].Factors)
	assert.JSONEq(t, `{"drugName":"Cisplatin"}`, string(got[0].InputFeatures))
	assert.Empty(t, got[1].Factors)
	assert.Nil(t, got[1].InputFeatures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ai_predictions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestPostgresStore_ExportJSON(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM ai_predictions ORDER BY").
		WithArgs(maxExportLimit).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(int64(1), int64(5), "Survival Prediction Model v2.1", "5-Year Survival Rate", 70.0, 0.9, `{}`, `[]`, now, now))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(context.Background(), &buf))

	var export domain.PredictionExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, ExportVersion, export.Version)
	assert.Equal(t, 1, export.Count)
	assert.Equal(t, int64(5), export.Predictions[0].PatientID)
}
