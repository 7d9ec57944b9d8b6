package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
)

// DashboardRepository computes the landing dashboard summary
type DashboardRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db *pgxpool.Pool, logger *logrus.Logger) *DashboardRepository {
	return &DashboardRepository{
		db:  db,
		log: logger,
	}
}

// Stats counts patients and cancer types. Model figures are the fixed reported values.
func (r *DashboardRepository) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	stats := domain.DefaultDashboardStats()

	query := `
		SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM cancer_types)`

	if err := r.db.QueryRow(ctx, query).Scan(&stats.TotalPatients, &stats.TotalCancerTypes); err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to compute dashboard stats")
		return nil, fmt.Errorf("computing dashboard stats: %w", err)
	}

	return stats, nil
}
