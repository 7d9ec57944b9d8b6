package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

const statisticColumns = `id, stat_type, cancer_type_id, year, month, value, metadata, created_at, updated_at`

// StatisticsRepository handles aggregated statistics
type StatisticsRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db *pgxpool.Pool, logger *logrus.Logger) *StatisticsRepository {
	return &StatisticsRepository{
		db:  db,
		log: logger,
	}
}

// ListByType returns the statistics of one type, newest period first
func (r *StatisticsRepository) ListByType(ctx context.Context, statType string) ([]*domain.Statistic, error) {
	query := `
		SELECT ` + statisticColumns + `
		FROM statistics
		WHERE stat_type = $1
		ORDER BY year DESC NULLS LAST, month DESC NULLS LAST, id DESC`

	rows, err := r.db.Query(ctx, query, statType)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"stat_type": statType,
			"error":     err,
		}).Error("Failed to list statistics")
		return nil, fmt.Errorf("listing statistics: %w", err)
	}
	defer rows.Close()

	result := []*domain.Statistic{}
	for rows.Next() {
		s, err := scanStatistic(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning statistic: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statistics: %w", err)
	}

	return result, nil
}

// Create inserts a statistic and returns the stored row
func (r *StatisticsRepository) Create(ctx context.Context, s *domain.Statistic) (*domain.Statistic, error) {
	query := `
		INSERT INTO statistics (stat_type, cancer_type_id, year, month, value, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + statisticColumns

	var metadata *string
	if len(s.Metadata) > 0 {
		if !json.Valid(s.Metadata) {
			return nil, domain.NewValidationError("metadata", "metadata must be valid JSON", string(s.Metadata))
		}
		m := string(s.Metadata)
		metadata = &m
	}

	created, err := scanStatistic(r.db.QueryRow(ctx, query,
		s.StatType,
		s.CancerTypeID,
		s.Year,
		s.Month,
		s.Value,
		metadata,
	))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"stat_type": s.StatType,
			"error":     err,
		}).Error("Failed to create statistic")
		return nil, fmt.Errorf("creating statistic: %w", err)
	}

	return created, nil
}

func scanStatistic(row pgx.Row) (*domain.Statistic, error) {
	var s domain.Statistic
	var metadata *string
	err := row.Scan(
		&s.ID,
		&s.StatType,
		&s.CancerTypeID,
		&s.Year,
		&s.Month,
		&s.Value,
		&metadata,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if metadata != nil {
		s.Metadata = json.RawMessage(*metadata)
	}
	return &s, nil
}
