package scoring

import (
	"time"
)

// DrugResponseInput is the normalized input of the drug response estimator
type DrugResponseInput struct {
	Age             int
	Cancer          CancerKind
	Stage           Stage
	DrugName        string
	PriorTreatments *int
}

// DrugResponseEstimate is the result of the drug response estimator
type DrugResponseEstimate struct {
	PredictedResponseRate float64   `json:"predictedResponseRate"`
	Confidence            float64   `json:"confidence"`
	Recommendations       []string  `json:"recommendations"`
	ModelUsed             string    `json:"modelUsed"`
	PredictionDate        time.Time `json:"predictionDate"`
}

var (
	highResponseAdvice     = []string{"High likelihood of positive response", "Standard dosing recommended"}
	moderateResponseAdvice = []string{"Moderate response expected", "Consider combination therapy"}
	lowResponseAdvice      = []string{"Lower response probability", "Alternative treatment options should be considered"}
)

// EstimateDrugResponse computes the treatment response rate estimate.
// The cancer kind and drug name are carried for auditing and do not move the score.
func (s *Scorer) EstimateDrugResponse(in DrugResponseInput) DrugResponseEstimate {
	m := s.drug
	stage := in.Stage
	if stage < DefaultStage {
		stage = DefaultStage
	}

	rate := m.Base
	rate -= float64(stage-1) * m.StagePenalty
	if in.PriorTreatments != nil && *in.PriorTreatments > 0 {
		rate -= float64(*in.PriorTreatments) * m.PriorPenalty
	}

	switch {
	case in.Age > 70:
		rate -= 8
	case in.Age < 50:
		rate += 5
	}

	rate = clamp(rate, m.MinRate, m.MaxRate)

	var advice []string
	switch {
	case rate > m.HighThreshold:
		advice = highResponseAdvice
	case rate > m.ModerateThreshold:
		advice = moderateResponseAdvice
	default:
		advice = lowResponseAdvice
	}

	return DrugResponseEstimate{
		PredictedResponseRate: round(rate, 1),
		Confidence:            s.confidence(m.ConfidenceBase, m.ConfidenceSpan),
		Recommendations:       append([]string(nil), advice...),
		ModelUsed:             DrugModelName,
		PredictionDate:        s.now().UTC(),
	}
}
