package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/oncology-insights-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL audit store.
// It expects the ai_predictions table to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL audit store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Record inserts one audit record.
func (s *PostgresStore) Record(ctx context.Context, rec *domain.PredictionRecord) error {
	factors, err := encodeFactors(rec.Factors)
	if err != nil {
		return err
	}
	if rec.PredictionDate.IsZero() {
		rec.PredictionDate = time.Now().UTC()
	}

	query := `
		INSERT INTO ai_predictions (
			patient_id, model_name, prediction_type, predicted_value,
			confidence_score, input_features, risk_factors, prediction_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		rec.PatientID,
		rec.ModelName,
		rec.PredictionType,
		rec.PredictedValue,
		rec.ConfidenceScore,
		inputJSON(rec),
		factors,
		rec.PredictionDate,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}

	return nil
}

const pgSelectColumns = `
	SELECT id, patient_id, model_name, prediction_type, predicted_value,
		confidence_score, input_features, risk_factors, prediction_date, created_at
	FROM ai_predictions
`

// ListByPatient returns the most recent predictions for a patient.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID int64, limit int) ([]*domain.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		pgSelectColumns+` WHERE patient_id = $1 ORDER BY prediction_date DESC, id DESC LIMIT $2`,
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return collect(rows)
}

// Count returns the total number of audit records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ai_predictions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return count, nil
}

// ExportJSON exports all predictions to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		pgSelectColumns+` ORDER BY prediction_date DESC, id DESC LIMIT $1`, maxExportLimit)
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func collect(rows *sql.Rows) ([]*domain.PredictionRecord, error) {
	defer rows.Close()

	result := []*domain.PredictionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// scanRecord scans a row into a PredictionRecord.
func scanRecord(s scanner) (*domain.PredictionRecord, error) {
	rec := &domain.PredictionRecord{}
	var input, factors sql.NullString
	var value, confidence sql.NullFloat64

	err := s.Scan(
		&rec.ID, &rec.PatientID, &rec.ModelName, &rec.PredictionType, &value,
		&confidence, &input, &factors, &rec.PredictionDate, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.PredictedValue = value.Float64
	rec.ConfidenceScore = confidence.Float64
	if input.Valid && input.String != "" {
		rec.InputFeatures = []byte(input.String)
	}
	rec.Factors = decodeFactors(factors.String)
	return rec, nil
}
