// Package repository implements the clinical record stores on a pgx connection pool.
// Missing rows are reported as domain.ErrNotFound.
package repository

import "github.com/oncology-insights-server/internal/domain"

var (
	_ domain.CancerTypeRepository = (*CancerTypeRepository)(nil)
	_ domain.PatientRepository    = (*PatientRepository)(nil)
	_ domain.TreatmentRepository  = (*TreatmentRepository)(nil)
	_ domain.OutcomeRepository    = (*OutcomeRepository)(nil)
	_ domain.SurvivalRepository   = (*SurvivalRepository)(nil)
	_ domain.ImageRepository      = (*ImageRepository)(nil)
	_ domain.StatisticsRepository = (*StatisticsRepository)(nil)
	_ domain.DashboardRepository  = (*DashboardRepository)(nil)
)
