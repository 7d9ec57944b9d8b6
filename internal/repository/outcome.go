package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

const outcomeColumns = `o.id, o.patient_id, o.treatment_id, o.outcome_type, o.response_rate,
	o.side_effects, o.evaluation_date, o.notes, o.created_at, o.updated_at`

// OutcomeRepository handles treatment outcome persistence
type OutcomeRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewOutcomeRepository creates a new outcome repository
func NewOutcomeRepository(db *pgxpool.Pool, logger *logrus.Logger) *OutcomeRepository {
	return &OutcomeRepository{
		db:  db,
		log: logger,
	}
}

// ListByPatient returns a patient's outcomes with the evaluated treatment, latest evaluation first
func (r *OutcomeRepository) ListByPatient(ctx context.Context, patientID int64) ([]*domain.OutcomeWithTreatment, error) {
	query := `
		SELECT ` + outcomeColumns + `,
			t.id, t.treatment_type, t.drug_name, t.start_date, t.end_date,
			t.dosage, t.protocol, t.created_at, t.updated_at
		FROM treatment_outcomes o
		LEFT JOIN treatment_records t ON t.id = o.treatment_id
		WHERE o.patient_id = $1
		ORDER BY o.evaluation_date DESC NULLS LAST, o.id DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to list outcomes")
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	defer rows.Close()

	result := []*domain.OutcomeWithTreatment{}
	for rows.Next() {
		var (
			o        domain.TreatmentOutcome
			kind     string
			tID      *int64
			tType    *string
			t        domain.TreatmentRecord
			tCreated *time.Time
			tUpdated *time.Time
		)
		err := rows.Scan(
			&o.ID, &o.PatientID, &o.TreatmentID, &kind, &o.ResponseRate,
			&o.SideEffects, &o.EvaluationDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
			&tID, &tType, &t.DrugName, &t.StartDate, &t.EndDate,
			&t.Dosage, &t.Protocol, &tCreated, &tUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.OutcomeType = domain.OutcomeType(kind)

		item := &domain.OutcomeWithTreatment{Outcome: o}
		if tID != nil {
			t.ID = *tID
			t.PatientID = o.PatientID
			if tType != nil {
				t.TreatmentType = *tType
			}
			if tCreated != nil {
				t.CreatedAt = *tCreated
			}
			if tUpdated != nil {
				t.UpdatedAt = *tUpdated
			}
			item.Treatment = &t
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}

	return result, nil
}

// Create inserts a treatment outcome and returns the stored row
func (r *OutcomeRepository) Create(ctx context.Context, o *domain.TreatmentOutcome) (*domain.TreatmentOutcome, error) {
	if !o.OutcomeType.IsValid() {
		return nil, domain.NewValidationError("outcomeType", "unknown outcome type", string(o.OutcomeType))
	}

	query := `
		INSERT INTO treatment_outcomes AS o (
			patient_id, treatment_id, outcome_type, response_rate,
			side_effects, evaluation_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + outcomeColumns

	created, err := scanOutcome(r.db.QueryRow(ctx, query,
		o.PatientID,
		o.TreatmentID,
		string(o.OutcomeType),
		o.ResponseRate,
		o.SideEffects,
		o.EvaluationDate,
		o.Notes,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id":   o.PatientID,
			"treatment_id": o.TreatmentID,
			"error":        err,
		}).Error("Failed to create outcome")
		return nil, fmt.Errorf("creating outcome: %w", err)
	}

	return created, nil
}

// CountByOutcomeType returns the number of outcomes recorded per outcome type
func (r *OutcomeRepository) CountByOutcomeType(ctx context.Context) ([]*domain.OutcomeCount, error) {
	query := `
		SELECT outcome_type, COUNT(*)
		FROM treatment_outcomes
		GROUP BY outcome_type
		ORDER BY outcome_type`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to count outcomes")
		return nil, fmt.Errorf("counting outcomes: %w", err)
	}
	defer rows.Close()

	result := []*domain.OutcomeCount{}
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		result = append(result, &domain.OutcomeCount{OutcomeType: domain.OutcomeType(kind), Count: count})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcome counts: %w", err)
	}

	return result, nil
}

func scanOutcome(row pgx.Row) (*domain.TreatmentOutcome, error) {
	var o domain.TreatmentOutcome
	var kind string
	err := row.Scan(
		&o.ID,
		&o.PatientID,
		&o.TreatmentID,
		&kind,
		&o.ResponseRate,
		&o.SideEffects,
		&o.EvaluationDate,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.OutcomeType = domain.OutcomeType(kind)
	return &o, nil
}
