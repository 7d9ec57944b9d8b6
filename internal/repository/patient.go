package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

// DefaultPatientLimit bounds List when the caller passes no limit
const DefaultPatientLimit = 100

const patientColumns = `p.id, p.patient_code, p.age, p.gender, p.ethnicity, p.diagnosis_date,
	p.cancer_type_id, p.stage, p.performance_status, p.created_at, p.updated_at`

const patientJoinColumns = patientColumns + `,
	c.id, c.name, c.category, c.description, c.average_survival_rate, c.total_cases, c.created_at, c.updated_at`

// PatientRepository handles patient persistence
type PatientRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *pgxpool.Pool, logger *logrus.Logger) *PatientRepository {
	return &PatientRepository{
		db:  db,
		log: logger,
	}
}

// List returns the newest patients with their cancer type
func (r *PatientRepository) List(ctx context.Context, limit int) ([]*domain.PatientWithCancerType, error) {
	if limit <= 0 {
		limit = DefaultPatientLimit
	}

	query := `
		SELECT ` + patientJoinColumns + `
		FROM patients p
		LEFT JOIN cancer_types c ON c.id = p.cancer_type_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"limit": limit,
			"error": err,
		}).Error("Failed to list patients")
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	result := []*domain.PatientWithCancerType{}
	for rows.Next() {
		p, err := scanPatientWithCancerType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning patient: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patients: %w", err)
	}

	return result, nil
}

// GetByID retrieves a patient and its cancer type
func (r *PatientRepository) GetByID(ctx context.Context, id int64) (*domain.PatientWithCancerType, error) {
	query := `
		SELECT ` + patientJoinColumns + `
		FROM patients p
		LEFT JOIN cancer_types c ON c.id = p.cancer_type_id
		WHERE p.id = $1`

	p, err := scanPatientWithCancerType(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"patient_id": id,
			"error":      err,
		}).Error("Failed to get patient by ID")
		return nil, fmt.Errorf("getting patient by ID: %w", err)
	}

	return p, nil
}

// Create inserts a new patient and returns the stored row
func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	query := `
		INSERT INTO patients AS p (
			patient_code, age, gender, ethnicity, diagnosis_date,
			cancer_type_id, stage, performance_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + patientColumns

	var gender *string
	if p.Gender != nil {
		g := string(*p.Gender)
		gender = &g
	}

	created, err := scanPatient(r.db.QueryRow(ctx, query,
		p.PatientCode,
		p.Age,
		gender,
		p.Ethnicity,
		p.DiagnosisDate,
		p.CancerTypeID,
		p.Stage,
		p.PerformanceStatus,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_code": p.PatientCode,
			"error":        err,
		}).Error("Failed to create patient")
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id":   created.ID,
		"patient_code": created.PatientCode,
	}).Info("Patient created successfully")

	return created, nil
}

// patientDest holds scan targets for the patient columns
type patientDest struct {
	patient domain.Patient
	gender  *string
}

func (d *patientDest) targets() []any {
	return []any{
		&d.patient.ID,
		&d.patient.PatientCode,
		&d.patient.Age,
		&d.gender,
		&d.patient.Ethnicity,
		&d.patient.DiagnosisDate,
		&d.patient.CancerTypeID,
		&d.patient.Stage,
		&d.patient.PerformanceStatus,
		&d.patient.CreatedAt,
		&d.patient.UpdatedAt,
	}
}

func (d *patientDest) result() *domain.Patient {
	p := d.patient
	if d.gender != nil {
		g := domain.Gender(*d.gender)
		p.Gender = &g
	}
	return &p
}

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var d patientDest
	if err := row.Scan(d.targets()...); err != nil {
		return nil, err
	}
	return d.result(), nil
}

func scanPatientWithCancerType(row pgx.Row) (*domain.PatientWithCancerType, error) {
	var d patientDest
	var (
		ctID          *int64
		ctName        *string
		ctCategory    *string
		ctDescription *string
		ctAvgSurvival *float64
		ctTotalCases  *int
		ctCreated     *time.Time
		ctUpdated     *time.Time
	)

	targets := append(d.targets(),
		&ctID, &ctName, &ctCategory, &ctDescription, &ctAvgSurvival, &ctTotalCases, &ctCreated, &ctUpdated)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	out := &domain.PatientWithCancerType{Patient: *d.result()}
	if ctID != nil {
		ct := &domain.CancerType{
			ID:                  *ctID,
			Category:            ctCategory,
			Description:         ctDescription,
			AverageSurvivalRate: ctAvgSurvival,
		}
		if ctName != nil {
			ct.Name = *ctName
		}
		if ctTotalCases != nil {
			ct.TotalCases = *ctTotalCases
		}
		if ctCreated != nil {
			ct.CreatedAt = *ctCreated
		}
		if ctUpdated != nil {
			ct.UpdatedAt = *ctUpdated
		}
		out.CancerType = ct
	}
	return out, nil
}
