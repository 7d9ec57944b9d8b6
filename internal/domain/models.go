package domain

import (
	"encoding/json"
	"time"
)

// Clinical Records

// CancerType represents a cancer type with its aggregate characteristics
type CancerType struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Category            *string   `json:"category"`
	Description         *string   `json:"description"`
	AverageSurvivalRate *float64  `json:"averageSurvivalRate"`
	TotalCases          int       `json:"totalCases"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Patient represents patient demographics and diagnosis information
type Patient struct {
	ID                int64      `json:"id"`
	PatientCode       string     `json:"patientCode"`
	Age               *int       `json:"age"`
	Gender            *Gender    `json:"gender"`
	Ethnicity         *string    `json:"ethnicity"`
	DiagnosisDate     *time.Time `json:"diagnosisDate"`
	CancerTypeID      *int64     `json:"cancerTypeId"`
	Stage             *string    `json:"stage"`
	PerformanceStatus *int       `json:"performanceStatus"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// PatientWithCancerType pairs a patient with the joined cancer type, if any
type PatientWithCancerType struct {
	Patient    Patient     `json:"patient"`
	CancerType *CancerType `json:"cancerType"`
}

// TreatmentRecord represents one line of treatment given to a patient
type TreatmentRecord struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patientId"`
	TreatmentType string     `json:"treatmentType"`
	DrugName      *string    `json:"drugName"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Dosage        *string    `json:"dosage"`
	Protocol      *string    `json:"protocol"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TreatmentOutcome represents the evaluated response to a treatment
type TreatmentOutcome struct {
	ID             int64       `json:"id"`
	PatientID      int64       `json:"patientId"`
	TreatmentID    int64       `json:"treatmentId"`
	OutcomeType    OutcomeType `json:"outcomeType"`
	ResponseRate   *float64    `json:"responseRate"`
	SideEffects    *string     `json:"sideEffects"`
	EvaluationDate *time.Time  `json:"evaluationDate"`
	Notes          *string     `json:"notes"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// OutcomeWithTreatment pairs an outcome with the treatment it evaluates
type OutcomeWithTreatment struct {
	Outcome   TreatmentOutcome `json:"outcome"`
	Treatment *TreatmentRecord `json:"treatment"`
}

// SurvivalData tracks survival and follow-up for a patient (one row per patient)
type SurvivalData struct {
	ID               int64          `json:"id"`
	PatientID        int64          `json:"patientId"`
	SurvivalMonths   *int           `json:"survivalMonths"`
	Status           SurvivalStatus `json:"status"`
	LastFollowupDate *time.Time     `json:"lastFollowupDate"`
	CauseOfDeath     *string        `json:"causeOfDeath"`
	QualityOfLife    *int           `json:"qualityOfLife"` // 1-10
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// MedicalImage holds metadata for an imaging study
type MedicalImage struct {
	ID               int64      `json:"id"`
	PatientID        int64      `json:"patientId"`
	ImageType        ImageType  `json:"imageType"`
	ImageURL         *string    `json:"imageUrl"`
	ThumbnailURL     *string    `json:"thumbnailUrl"`
	AcquisitionDate  *time.Time `json:"acquisitionDate"`
	BodyPart         *string    `json:"bodyPart"`
	Findings         *string    `json:"findings"`
	AIClassification *string    `json:"aiClassification"`
	ConfidenceScore  *float64   `json:"confidenceScore"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Statistic is an aggregated metric value, optionally scoped to a cancer type and month
type Statistic struct {
	ID           int64           `json:"id"`
	StatType     string          `json:"statType"`
	CancerTypeID *int64          `json:"cancerTypeId"`
	Year         *int            `json:"year"`
	Month        *int            `json:"month"`
	Value        float64         `json:"value"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Dashboard Models

// DashboardStats summarises the store for the landing dashboard
type DashboardStats struct {
	TotalPatients    int64   `json:"totalPatients"`
	TotalCancerTypes int64   `json:"totalCancerTypes"`
	ActiveModels     int     `json:"activeModels"`
	AverageAccuracy  float64 `json:"averageAccuracy"`
}

// Reported model figures. These are fixed values shown on the dashboard.
const (
	ActiveModelCount      = 3
	ReportedModelAccuracy = 91.5
)

// DefaultDashboardStats is returned when the store has no data source
func DefaultDashboardStats() *DashboardStats {
	return &DashboardStats{
		ActiveModels:    ActiveModelCount,
		AverageAccuracy: ReportedModelAccuracy,
	}
}

// OutcomeCount is the number of outcomes recorded for one outcome type
type OutcomeCount struct {
	OutcomeType OutcomeType `json:"outcomeType"`
	Count       int64       `json:"count"`
}

// Prediction Audit

// PredictionRecord is the audit entry written for a scored prediction tied to a patient
type PredictionRecord struct {
	ID              int64           `json:"id,omitempty"`
	PatientID       int64           `json:"patientId"`
	ModelName       string          `json:"modelName"`
	PredictionType  string          `json:"predictionType"`
	PredictedValue  float64         `json:"predictedValue"`
	ConfidenceScore float64         `json:"confidenceScore"`
	InputFeatures   json.RawMessage `json:"inputFeatures"`
	Factors         []string        `json:"riskFactors"`
	PredictionDate  time.Time       `json:"predictionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// PredictionExport represents the JSON export format of the audit trail
type PredictionExport struct {
	Version     string              `json:"version"`
	ExportedAt  time.Time           `json:"exportedAt"`
	Count       int                 `json:"count"`
	Predictions []*PredictionRecord `json:"predictions"`
}

// Request Models

// SurvivalPredictionRequest is the input of a survival prediction.
// Age and PerformanceStatus are pointers so that an absent value is told apart from 0.
type SurvivalPredictionRequest struct {
	PatientID         *int64  `json:"patientId,omitempty"`
	Age               *int    `json:"age" binding:"required"`
	Gender            string  `json:"gender" binding:"required"`
	CancerType        string  `json:"cancerType" binding:"required"`
	Stage             string  `json:"stage" binding:"required"`
	PerformanceStatus *int    `json:"performanceStatus" binding:"required"`
	TreatmentType     *string `json:"treatmentType,omitempty"`
}

// DrugResponsePredictionRequest is the input of a drug response prediction
type DrugResponsePredictionRequest struct {
	PatientID       *int64 `json:"patientId,omitempty"`
	Age             *int   `json:"age" binding:"required"`
	CancerType      string `json:"cancerType" binding:"required"`
	Stage           string `json:"stage" binding:"required"`
	DrugName        string `json:"drugName" binding:"required"`
	PriorTreatments *int   `json:"priorTreatments,omitempty"`
}
