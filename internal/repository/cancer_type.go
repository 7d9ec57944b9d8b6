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

const cancerTypeColumns = `id, name, category, description, average_survival_rate, total_cases, created_at, updated_at`

// CancerTypeRepository handles cancer type reference data
type CancerTypeRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewCancerTypeRepository creates a new cancer type repository
func NewCancerTypeRepository(db *pgxpool.Pool, logger *logrus.Logger) *CancerTypeRepository {
	return &CancerTypeRepository{
		db:  db,
		log: logger,
	}
}

// List returns every cancer type, most common first
func (r *CancerTypeRepository) List(ctx context.Context) ([]*domain.CancerType, error) {
	query := `SELECT ` + cancerTypeColumns + ` FROM cancer_types ORDER BY total_cases DESC, id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to list cancer types")
		return nil, fmt.Errorf("listing cancer types: %w", err)
	}
	defer rows.Close()

	result := []*domain.CancerType{}
	for rows.Next() {
		ct, err := scanCancerType(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cancer type: %w", err)
		}
		result = append(result, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cancer types: %w", err)
	}

	return result, nil
}

// GetByID retrieves a cancer type by its ID
func (r *CancerTypeRepository) GetByID(ctx context.Context, id int64) (*domain.CancerType, error) {
	query := `SELECT ` + cancerTypeColumns + ` FROM cancer_types WHERE id = $1`

	ct, err := scanCancerType(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("cancer type not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"cancer_type_id": id,
			"error":          err,
		}).Error("Failed to get cancer type by ID")
		return nil, fmt.Errorf("getting cancer type by ID: %w", err)
	}

	return ct, nil
}

// Create inserts a new cancer type and returns the stored row
func (r *CancerTypeRepository) Create(ctx context.Context, ct *domain.CancerType) (*domain.CancerType, error) {
	query := `
		INSERT INTO cancer_types (name, category, description, average_survival_rate, total_cases)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + cancerTypeColumns

	created, err := scanCancerType(r.db.QueryRow(ctx, query,
		ct.Name,
		ct.Category,
		ct.Description,
		ct.AverageSurvivalRate,
		ct.TotalCases,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"name":  ct.Name,
			"error": err,
		}).Error("Failed to create cancer type")
		return nil, fmt.Errorf("creating cancer type: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"cancer_type_id": created.ID,
		"name":           created.Name,
	}).Info("Cancer type created successfully")

	return created, nil
}

func scanCancerType(row pgx.Row) (*domain.CancerType, error) {
	var ct domain.CancerType
	err := row.Scan(
		&ct.ID,
		&ct.Name,
		&ct.Category,
		&ct.Description,
		&ct.AverageSurvivalRate,
		&ct.TotalCases,
		&ct.CreatedAt,
		&ct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}
