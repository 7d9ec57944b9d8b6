package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/internal/metrics"
	"github.com/oncology-insights-server/internal/scoring"
)

// Request bounds checked before scoring
const (
	MaxAge               = 150
	MaxPerformanceStatus = 5
)

// PredictionService validates prediction requests, runs the scorer and hands
// audit records for known patients to the recorder.
type PredictionService struct {
	scorer   *scoring.Scorer
	recorder domain.PredictionRecorder
	metrics  *metrics.Manager
	logger   *logrus.Logger
}

// NewPredictionService creates a new prediction service. recorder may be nil,
// in which case no audit trail is kept.
func NewPredictionService(
	scorer *scoring.Scorer,
	recorder domain.PredictionRecorder,
	m *metrics.Manager,
	logger *logrus.Logger,
) *PredictionService {
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &PredictionService{
		scorer:   scorer,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
	}
}

// PredictSurvival estimates the 5-year survival rate for the request
func (s *PredictionService) PredictSurvival(ctx context.Context, req *domain.SurvivalPredictionRequest) (*scoring.SurvivalEstimate, error) {
	if err := ValidateSurvivalRequest(req); err != nil {
		return nil, err
	}

	gender, _ := domain.ParseGender(req.Gender)
	input := scoring.SurvivalInput{
		Age:               *req.Age,
		Gender:            gender,
		Cancer:            scoring.ParseCancerKind(req.CancerType),
		Stage:             scoring.ParseStage(req.Stage),
		PerformanceStatus: *req.PerformanceStatus,
	}
	if req.TreatmentType != nil {
		input.TreatmentType = *req.TreatmentType
	}

	estimate := s.scorer.EstimateSurvival(input)
	s.metrics.RecordPrediction(scoring.SurvivalModelName)

	logging.Entry(ctx, s.logger).WithFields(logrus.Fields{
		"model":        estimate.ModelUsed,
		"cancer":       input.Cancer,
		"stage":        input.Stage,
		"rate":         estimate.PredictedSurvivalRate,
		"risk_factors": len(estimate.RiskFactors),
	}).Debug("Survival prediction computed")

	if req.PatientID != nil {
		s.record(ctx, *req.PatientID, req, &domain.PredictionRecord{
			ModelName:       estimate.ModelUsed,
			PredictionType:  scoring.SurvivalPredictionType,
			PredictedValue:  estimate.PredictedSurvivalRate,
			ConfidenceScore: estimate.Confidence,
			Factors:         estimate.RiskFactors,
			PredictionDate:  estimate.PredictionDate,
		})
	}

	return &estimate, nil
}

// PredictDrugResponse estimates the treatment response rate for the request
func (s *PredictionService) PredictDrugResponse(ctx context.Context, req *domain.DrugResponsePredictionRequest) (*scoring.DrugResponseEstimate, error) {
	if err := ValidateDrugResponseRequest(req); err != nil {
		return nil, err
	}

	input := scoring.DrugResponseInput{
		Age:             *req.Age,
		Cancer:          scoring.ParseCancerKind(req.CancerType),
		Stage:           scoring.ParseStage(req.Stage),
		DrugName:        req.DrugName,
		PriorTreatments: req.PriorTreatments,
	}

	estimate := s.scorer.EstimateDrugResponse(input)
	s.metrics.RecordPrediction(scoring.DrugModelName)

	logging.Entry(ctx, s.logger).WithFields(logrus.Fields{
		"model": estimate.ModelUsed,
		"drug":  input.DrugName,
		"stage": input.Stage,
		"rate":  estimate.PredictedResponseRate,
	}).Debug("Drug response prediction computed")

	if req.PatientID != nil {
		s.record(ctx, *req.PatientID, req, &domain.PredictionRecord{
			ModelName:       estimate.ModelUsed,
			PredictionType:  scoring.DrugPredictionType,
			PredictedValue:  estimate.PredictedResponseRate,
			ConfidenceScore: estimate.Confidence,
			Factors:         estimate.Recommendations,
			PredictionDate:  estimate.PredictionDate,
		})
	}

	return &estimate, nil
}

// record hands the audit record to the recorder. It never fails the prediction.
func (s *PredictionService) record(ctx context.Context, patientID int64, input interface{}, rec *domain.PredictionRecord) {
	if s.recorder == nil {
		return
	}

	raw, err := json.Marshal(input)
	if err != nil {
		logging.Entry(ctx, s.logger).WithError(err).Warn("Failed to encode prediction input for audit")
		raw = []byte("{}")
	}
	rec.PatientID = patientID
	rec.InputFeatures = raw
	rec.Factors = append([]string{}, rec.Factors...)

	if !s.recorder.Submit(rec) {
		logging.Entry(ctx, s.logger).WithFields(logrus.Fields{
			"patient_id": patientID,
			"model":      rec.ModelName,
		}).Warn("Prediction audit record not accepted")
	}
}

// ValidateSurvivalRequest performs the structural checks of a survival request
func ValidateSurvivalRequest(req *domain.SurvivalPredictionRequest) error {
	if req == nil {
		return domain.NewValidationError("request", "request body is required", nil)
	}
	if err := validatePatientID(req.PatientID); err != nil {
		return err
	}
	if err := validateAge(req.Age); err != nil {
		return err
	}
	if _, err := domain.ParseGender(req.Gender); err != nil {
		return domain.NewValidationError("gender", "gender must be one of Male, Female, Other", req.Gender)
	}
	if err := requireText("cancerType", req.CancerType); err != nil {
		return err
	}
	if err := requireText("stage", req.Stage); err != nil {
		return err
	}
	if req.PerformanceStatus == nil {
		return domain.NewValidationError("performanceStatus", "performance status is required", nil)
	}
	if ps := *req.PerformanceStatus; ps < 0 || ps > MaxPerformanceStatus {
		return domain.NewValidationError("performanceStatus", "performance status must be between 0 and 5", ps)
	}
	return nil
}

// ValidateDrugResponseRequest performs the structural checks of a drug response request
func ValidateDrugResponseRequest(req *domain.DrugResponsePredictionRequest) error {
	if req == nil {
		return domain.NewValidationError("request", "request body is required", nil)
	}
	if err := validatePatientID(req.PatientID); err != nil {
		return err
	}
	if err := validateAge(req.Age); err != nil {
		return err
	}
	if err := requireText("cancerType", req.CancerType); err != nil {
		return err
	}
	if err := requireText("stage", req.Stage); err != nil {
		return err
	}
	if err := requireText("drugName", req.DrugName); err != nil {
		return err
	}
	if req.PriorTreatments != nil && *req.PriorTreatments < 0 {
		return domain.NewValidationError("priorTreatments", "prior treatments cannot be negative", *req.PriorTreatments)
	}
	return nil
}

func validateAge(age *int) error {
	if age == nil {
		return domain.NewValidationError("age", "age is required", nil)
	}
	if *age < 0 || *age > MaxAge {
		return domain.NewValidationError("age", "age must be between 0 and 150", *age)
	}
	return nil
}

// requireText rejects empty and blank labels; their content is never rejected
func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, field+" is required", value)
	}
	return nil
}

func validatePatientID(id *int64) error {
	if id != nil && *id <= 0 {
		return domain.NewValidationError("patientId", "patient id must be positive", *id)
	}
	return nil
}
