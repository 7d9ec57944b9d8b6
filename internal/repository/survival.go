package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

const survivalColumns = `id, patient_id, survival_months, status, last_followup_date,
	cause_of_death, quality_of_life, created_at, updated_at`

// SurvivalRepository handles survival follow-up persistence
type SurvivalRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewSurvivalRepository creates a new survival repository
func NewSurvivalRepository(db *pgxpool.Pool, logger *logrus.Logger) *SurvivalRepository {
	return &SurvivalRepository{
		db:  db,
		log: logger,
	}
}

// GetByPatient retrieves the survival row of a patient
func (r *SurvivalRepository) GetByPatient(ctx context.Context, patientID int64) (*domain.SurvivalData, error) {
	query := `SELECT ` + survivalColumns + ` FROM survival_data WHERE patient_id = $1`

	s, err := scanSurvival(r.db.QueryRow(ctx, query, patientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("survival data not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"patient_id": patientID,
			"error":      err,
		}).Error("Failed to get survival data")
		return nil, fmt.Errorf("getting survival data: %w", err)
	}

	return s, nil
}

// Create inserts the survival row of a patient
func (r *SurvivalRepository) Create(ctx context.Context, s *domain.SurvivalData) (*domain.SurvivalData, error) {
	if !s.Status.IsValid() {
		return nil, domain.NewValidationError("status", "status must be Alive or Deceased", string(s.Status))
	}

	query := `
		INSERT INTO survival_data (
			patient_id, survival_months, status, last_followup_date, cause_of_death, quality_of_life
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + survivalColumns

	created, err := scanSurvival(r.db.QueryRow(ctx, query,
		s.PatientID,
		s.SurvivalMonths,
		string(s.Status),
		s.LastFollowupDate,
		s.CauseOfDeath,
		s.QualityOfLife,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id": s.PatientID,
			"error":      err,
		}).Error("Failed to create survival data")
		return nil, fmt.Errorf("creating survival data: %w", err)
	}

	return created, nil
}

func scanSurvival(row pgx.Row) (*domain.SurvivalData, error) {
	var s domain.SurvivalData
	var status string
	err := row.Scan(
		&s.ID,
		&s.PatientID,
		&s.SurvivalMonths,
		&status,
		&s.LastFollowupDate,
		&s.CauseOfDeath,
		&s.QualityOfLife,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SurvivalStatus(status)
	return &s, nil
}
