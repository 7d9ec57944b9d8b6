package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

const treatmentColumns = `id, patient_id, treatment_type, drug_name, start_date, end_date, dosage, protocol, created_at, updated_at`

// TreatmentRepository handles treatment record persistence
type TreatmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewTreatmentRepository creates a new treatment repository
func NewTreatmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *TreatmentRepository {
	return &TreatmentRepository{
		db:  db,
		log: logger,
	}
}

// ListByPatient returns a patient's treatments, most recent start first
func (r *TreatmentRepository) ListByPatient(ctx context.Context, patientID int64) ([]*domain.TreatmentRecord, error) {
	query := `
		SELECT ` + treatmentColumns + `
		FROM treatment_records
		WHERE patient_id = $1
		ORDER BY start_date DESC NULLS LAST, id DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list treatments")
		return nil, fmt.Errorf("listing treatments: %w", err)
	}
	defer rows.Close()

	result := []*domain.TreatmentRecord{}
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning treatment: %w", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating treatments: %w", err)
	}

	return result, nil
}

// Create inserts a treatment record and returns the stored row
func (r *TreatmentRepository) Create(ctx context.Context, t *domain.TreatmentRecord) (*domain.TreatmentRecord, error) {
	query := `
		INSERT INTO treatment_records (
			patient_id, treatment_type, drug_name, start_date, end_date, dosage, protocol
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + treatmentColumns

	created, err := scanTreatment(r.db.QueryRow(ctx, query,
		t.PatientID,
		t.TreatmentType,
		t.DrugName,
		t.StartDate,
		t.EndDate,
		t.Dosage,
		t.Protocol,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id":     t.PatientID,
			"treatment_type": t.TreatmentType,
			"error":          err,
		}).Error("Failed to create treatment")
		return nil, fmt.Errorf("creating treatment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"treatment_id": created.ID,
		"patient_id":   created.PatientID,
	}).Debug("Treatment created")

	return created, nil
}

func scanTreatment(row pgx.Row) (*domain.TreatmentRecord, error) {
	var t domain.TreatmentRecord
	err := row.Scan(
		&t.ID,
		&t.PatientID,
		&t.TreatmentType,
		&t.DrugName,
		&t.StartDate,
		&t.EndDate,
		&t.Dosage,
		&t.Protocol,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
