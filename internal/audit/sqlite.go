package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oncology-insights-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
// It backs the standalone tool server, which runs without Postgres.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite audit store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ai_predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL,
		model_name TEXT NOT NULL,
		prediction_type TEXT NOT NULL,
		predicted_value REAL,
		confidence_score REAL,
		input_features TEXT NOT NULL DEFAULT '{}',
		risk_factors TEXT NOT NULL DEFAULT '[]',
		prediction_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ai_predictions_patient ON ai_predictions(patient_id, prediction_date);
	`

	_, err := db.Exec(schema)
	return err
}

// Record inserts one audit record.
func (s *SQLiteStore) Record(ctx context.Context, rec *domain.PredictionRecord) error {
	factors, err := encodeFactors(rec.Factors)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if rec.PredictionDate.IsZero() {
		rec.PredictionDate = now
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_predictions (
			patient_id, model_name, prediction_type, predicted_value,
			confidence_score, input_features, risk_factors, prediction_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PatientID,
		rec.ModelName,
		rec.PredictionType,
		rec.PredictedValue,
		rec.ConfidenceScore,
		inputJSON(rec),
		factors,
		rec.PredictionDate,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now
	return nil
}

const sqliteSelectColumns = `
	SELECT id, patient_id, model_name, prediction_type, predicted_value,
		confidence_score, input_features, risk_factors, prediction_date, created_at
	FROM ai_predictions
`

// ListByPatient returns the most recent predictions for a patient.
func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID int64, limit int) ([]*domain.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		sqliteSelectColumns+` WHERE patient_id = ? ORDER BY prediction_date DESC, id DESC LIMIT ?`,
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return collect(rows)
}

// Count returns the total number of audit records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ai_predictions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// ExportJSON exports all predictions to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		sqliteSelectColumns+` ORDER BY prediction_date DESC, id DESC LIMIT ?`, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to list predictions: %w", err)
	}
	all, err := collect(rows)
	if err != nil {
		return err
	}
	return writeExport(writer, all)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}
