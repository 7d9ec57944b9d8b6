package domain

import (
	"context"
)

// CancerTypeRepository defines persistence of cancer type reference data
type CancerTypeRepository interface {
	List(ctx context.Context) ([]*CancerType, error)
	GetByID(ctx context.Context, id int64) (*CancerType, error)
	Create(ctx context.Context, ct *CancerType) (*CancerType, error)
}

// PatientRepository defines persistence of patients
type PatientRepository interface {
	List(ctx context.Context, limit int) ([]*PatientWithCancerType, error)
	GetByID(ctx context.Context, id int64) (*PatientWithCancerType, error)
	Create(ctx context.Context, p *Patient) (*Patient, error)
}

// TreatmentRepository defines persistence of treatment records
type TreatmentRepository interface {
	ListByPatient(ctx context.Context, patientID int64) ([]*TreatmentRecord, error)
	Create(ctx context.Context, t *TreatmentRecord) (*TreatmentRecord, error)
}

// OutcomeRepository defines persistence of treatment outcomes
type OutcomeRepository interface {
	ListByPatient(ctx context.Context, patientID int64) ([]*OutcomeWithTreatment, error)
	Create(ctx context.Context, o *TreatmentOutcome) (*TreatmentOutcome, error)
	CountByOutcomeType(ctx context.Context) ([]*OutcomeCount, error)
}

// SurvivalRepository defines persistence of survival follow-up
type SurvivalRepository interface {
	GetByPatient(ctx context.Context, patientID int64) (*SurvivalData, error)
	Create(ctx context.Context, s *SurvivalData) (*SurvivalData, error)
}

// ImageRepository defines persistence of imaging metadata
type ImageRepository interface {
	ListByPatient(ctx context.Context, patientID int64) ([]*MedicalImage, error)
	Create(ctx context.Context, img *MedicalImage) (*MedicalImage, error)
}

// StatisticsRepository defines persistence of aggregated statistics
type StatisticsRepository interface {
	ListByType(ctx context.Context, statType string) ([]*Statistic, error)
	Create(ctx context.Context, s *Statistic) (*Statistic, error)
}

// DashboardRepository computes the dashboard summary
type DashboardRepository interface {
	Stats(ctx context.Context) (*DashboardStats, error)
}

// PredictionRecorder accepts audit records for asynchronous persistence.
// Submit must not block the caller.
type PredictionRecorder interface {
	Submit(rec *PredictionRecord) bool
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetExternalAPIConfig() *ExternalAPIConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
