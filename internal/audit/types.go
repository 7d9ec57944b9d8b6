// Package audit persists the trail of risk-score predictions made for known patients.
// Writes are taken off the request path by the Dispatcher; a failing store never
// affects the prediction returned to the caller.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/oncology-insights-server/internal/domain"
)

// ExportVersion is written into every JSON export
const ExportVersion = "1.0"

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// Store defines the interface for prediction audit storage.
type Store interface {
	// Record inserts one audit record and fills its ID and CreatedAt.
	Record(ctx context.Context, rec *domain.PredictionRecord) error

	// ListByPatient returns the newest records for a patient first.
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]*domain.PredictionRecord, error)

	// Count returns the total number of audit records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes every record to writer as a PredictionExport document.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func encodeFactors(factors []string) (string, error) {
	if factors == nil {
		factors = []string{}
	}
	b, err := json.Marshal(factors)
	if err != nil {
		return "", fmt.Errorf("encoding risk factors: %w", err)
	}
	return string(b), nil
}

func decodeFactors(raw string) []string {
	factors := []string{}
	if raw == "" {
		return factors
	}
	if err := json.Unmarshal([]byte(raw), &factors); err != nil {
		return []string{}
	}
	return factors
}

func inputJSON(rec *domain.PredictionRecord) string {
	if len(rec.InputFeatures) == 0 {
		return "{}"
	}
	return string(rec.InputFeatures)
}

func writeExport(writer io.Writer, all []*domain.PredictionRecord) error {
	if all == nil {
		all = []*domain.PredictionRecord{}
	}
	export := &domain.PredictionExport{
		Version:     ExportVersion,
		ExportedAt:  time.Now().UTC(),
		Count:       len(all),
		Predictions: all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ExportTo writes the export of store to w and closes w.
// A failed close is reported when the export itself succeeded.
func ExportTo(ctx context.Context, store Store, w io.WriteCloser) error {
	err := store.ExportJSON(ctx, w)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing export: %w", cerr)
	}
	return err
}
