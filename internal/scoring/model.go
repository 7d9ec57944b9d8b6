// Package scoring implements the clinical risk scoring function: a survival rate
// estimator and a drug response estimator. Both are linear adjustments over a
// handful of clinical covariates followed by a clamp. The only source of
// variation is the confidence noise, which is injected so tests can pin it.
package scoring

import (
	"math"
	"math/rand"
	"time"

	"github.com/oncology-insights-server/internal/domain"
)

// Model labels reported with each estimate
const (
	SurvivalModelName      = "Survival Prediction Model v2.1"
	SurvivalPredictionType = "5-Year Survival Rate"
	DrugModelName          = "Drug Response Model v1.8"
	DrugPredictionType     = "Treatment Response Rate"
)

// NoiseFunc returns a value in [0,1)
type NoiseFunc func() float64

// SurvivalModel holds the coefficients of the survival estimator
type SurvivalModel struct {
	Base                 float64
	Offsets              map[CancerKind]float64
	StagePenalty         float64
	PerformancePenalty   float64
	MinRate              float64
	MaxRate              float64
	ConfidenceBase       float64
	ConfidenceSpan       float64
	HighRisk             []CancerKind
	AdvancedStage        Stage
	AdvancedAge          int
	ReducedPerformanceAt int
}

// DrugResponseModel holds the coefficients of the drug response estimator
type DrugResponseModel struct {
	Base              float64
	StagePenalty      float64
	PriorPenalty      float64
	MinRate           float64
	MaxRate           float64
	ConfidenceBase    float64
	ConfidenceSpan    float64
	HighThreshold     float64
	ModerateThreshold float64
}

// DefaultCancerOffsets is the built-in survival offset table
func DefaultCancerOffsets() map[CancerKind]float64 {
	return map[CancerKind]float64{
		CancerPancreatic: -55,
		CancerLung:       -45,
		CancerLiver:      -40,
		CancerEsophageal: -35,
		CancerBrain:      -30,
		CancerStomach:    -25,
		CancerColorectal: -5,
		CancerBreast:     15,
		CancerProstate:   25,
		CancerThyroid:    28,
		CancerMelanoma:   20,
	}
}

// DefaultSurvivalModel returns the survival model with its built-in coefficients
func DefaultSurvivalModel() SurvivalModel {
	return SurvivalModel{
		Base:                 70,
		Offsets:              DefaultCancerOffsets(),
		StagePenalty:         15,
		PerformancePenalty:   8,
		MinRate:              5,
		MaxRate:              98,
		ConfidenceBase:       0.85,
		ConfidenceSpan:       0.10,
		HighRisk:             []CancerKind{CancerPancreatic, CancerLung, CancerLiver},
		AdvancedStage:        3,
		AdvancedAge:          65,
		ReducedPerformanceAt: 2,
	}
}

// DefaultDrugResponseModel returns the drug response model with its built-in coefficients
func DefaultDrugResponseModel() DrugResponseModel {
	return DrugResponseModel{
		Base:              65,
		StagePenalty:      10,
		PriorPenalty:      8,
		MinRate:           10,
		MaxRate:           95,
		ConfidenceBase:    0.82,
		ConfidenceSpan:    0.12,
		HighThreshold:     70,
		ModerateThreshold: 50,
	}
}

// Option applies a configuration option to the Scorer
type Option func(*Scorer)

// WithNoise replaces the confidence noise source
func WithNoise(noise NoiseFunc) Option {
	return func(s *Scorer) {
		if noise != nil {
			s.noise = noise
		}
	}
}

// WithClock replaces the clock used to stamp estimates
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCancerOffsets overrides entries of the survival offset table.
// Kinds absent from offsets keep their default.
func WithCancerOffsets(offsets map[CancerKind]float64) Option {
	return func(s *Scorer) {
		merged := make(map[CancerKind]float64, len(s.survival.Offsets)+len(offsets))
		for k, v := range s.survival.Offsets {
			merged[k] = v
		}
		for k, v := range offsets {
			merged[k] = v
		}
		s.survival.Offsets = merged
	}
}

// WithHighRiskCancers replaces the list of cancers flagged as a survival risk factor
func WithHighRiskCancers(kinds []CancerKind) Option {
	return func(s *Scorer) {
		if len(kinds) > 0 {
			s.survival.HighRisk = append([]CancerKind(nil), kinds...)
		}
	}
}

// OptionsFromConfig translates the scoring section of the configuration into options
func OptionsFromConfig(cfg domain.ScoringConfig) ([]Option, error) {
	var opts []Option
	if len(cfg.CancerOffsets) > 0 {
		offsets := make(map[CancerKind]float64, len(cfg.CancerOffsets))
		for label, v := range cfg.CancerOffsets {
			kind, err := ParseKnownCancerKind(label)
			if err != nil {
				return nil, err
			}
			offsets[kind] = v
		}
		opts = append(opts, WithCancerOffsets(offsets))
	}
	if len(cfg.HighRiskCancers) > 0 {
		kinds := make([]CancerKind, 0, len(cfg.HighRiskCancers))
		for _, label := range cfg.HighRiskCancers {
			kind, err := ParseKnownCancerKind(label)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
		opts = append(opts, WithHighRiskCancers(kinds))
	}
	return opts, nil
}

// Scorer evaluates both estimators. It holds no mutable state after
// construction and is safe for concurrent use.
type Scorer struct {
	survival SurvivalModel
	drug     DrugResponseModel
	noise    NoiseFunc
	now      func() time.Time
}

// NewScorer creates a scorer with the default models and options applied
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		survival: DefaultSurvivalModel(),
		drug:     DefaultDrugResponseModel(),
		noise:    rand.Float64,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Survival returns a copy of the survival coefficients in use
func (s *Scorer) Survival() SurvivalModel {
	m := s.survival
	m.Offsets = make(map[CancerKind]float64, len(s.survival.Offsets))
	for k, v := range s.survival.Offsets {
		m.Offsets[k] = v
	}
	m.HighRisk = append([]CancerKind(nil), s.survival.HighRisk...)
	return m
}

func (s *Scorer) draw() float64 {
	u := s.noise()
	switch {
	case u < 0 || math.IsNaN(u):
		return 0
	case u >= 1:
		return math.Nextafter(1, 0)
	}
	return u
}

// confidence returns base + U*span rounded to three decimals, kept strictly below base+span
func (s *Scorer) confidence(base, span float64) float64 {
	upper := round(base+span, 3)
	c := round(base+s.draw()*span, 3)
	if c >= upper {
		c = round(upper-0.001, 3)
	}
	return c
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
