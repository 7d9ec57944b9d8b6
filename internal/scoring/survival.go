package scoring

import (
	"time"

	"github.com/oncology-insights-server/internal/domain"
)

// SurvivalInput is the normalized input of the survival estimator
type SurvivalInput struct {
	Age               int
	Gender            domain.Gender
	Cancer            CancerKind
	Stage             Stage
	PerformanceStatus int
	TreatmentType     string
}

// SurvivalEstimate is the result of the survival estimator
type SurvivalEstimate struct {
	PredictedSurvivalRate float64   `json:"predictedSurvivalRate"`
	Confidence            float64   `json:"confidence"`
	RiskFactors           []string  `json:"riskFactors"`
	ModelUsed             string    `json:"modelUsed"`
	PredictionDate        time.Time `json:"predictionDate"`
}

// Risk factor labels
const (
	RiskAdvancedStage      = "Advanced stage disease"
	RiskAdvancedAge        = "Advanced age"
	RiskReducedPerformance = "Reduced performance status"
)

// EstimateSurvival computes the 5-year survival rate estimate
func (s *Scorer) EstimateSurvival(in SurvivalInput) SurvivalEstimate {
	m := s.survival
	stage := in.Stage
	if stage < DefaultStage {
		stage = DefaultStage
	}

	rate := m.Base
	rate += m.Offsets[in.Cancer]
	rate -= float64(stage-1) * m.StagePenalty

	switch {
	case in.Age > 70:
		rate -= 10
	case in.Age > 60:
		rate -= 5
	case in.Age < 50:
		rate += 5
	}

	rate -= float64(in.PerformanceStatus) * m.PerformancePenalty
	rate = clamp(rate, m.MinRate, m.MaxRate)

	factors := make([]string, 0, 4)
	if stage >= m.AdvancedStage {
		factors = append(factors, RiskAdvancedStage)
	}
	if in.Age > m.AdvancedAge {
		factors = append(factors, RiskAdvancedAge)
	}
	if in.PerformanceStatus >= m.ReducedPerformanceAt {
		factors = append(factors, RiskReducedPerformance)
	}
	if m.isHighRisk(in.Cancer) {
		factors = append(factors, in.Cancer.String()+" cancer has lower survival rates")
	}

	return SurvivalEstimate{
		PredictedSurvivalRate: round(rate, 1),
		Confidence:            s.confidence(m.ConfidenceBase, m.ConfidenceSpan),
		RiskFactors:           factors,
		ModelUsed:             SurvivalModelName,
		PredictionDate:        s.now().UTC(),
	}
}

func (m SurvivalModel) isHighRisk(kind CancerKind) bool {
	if kind == CancerOther {
		return false
	}
	for _, k := range m.HighRisk {
		if k == kind {
			return true
		}
	}
	return false
}
