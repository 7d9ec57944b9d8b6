// Package seed fills an empty clinical store with a deterministic synthetic cohort.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
)

// Defaults of the synthetic cohort
const (
	DefaultSeed      int64 = 20240101
	DefaultPatients        = 50
	StatisticsYear         = 2024
	SuccessRateStat        = "treatment_success_rate"
)

// Repositories are the stores written by the seeder
type Repositories struct {
	CancerTypes domain.CancerTypeRepository
	Patients    domain.PatientRepository
	Treatments  domain.TreatmentRepository
	Outcomes    domain.OutcomeRepository
	Survival    domain.SurvivalRepository
	Statistics  domain.StatisticsRepository
}

// Summary counts the rows written by a run
type Summary struct {
	CancerTypes int `json:"cancerTypes"`
	Patients    int `json:"patients"`
	Treatments  int `json:"treatments"`
	Outcomes    int `json:"outcomes"`
	Survival    int `json:"survival"`
	Statistics  int `json:"statistics"`
}

type cancerTypeSeed struct {
	name, category, description string
	survival                    float64
	cases                       int
}

var cancerTypes = []cancerTypeSeed{
	{"Breast Cancer", "Carcinoma", "Most common cancer in women", 89.7, 2300},
	{"Lung Cancer", "Carcinoma", "Leading cause of cancer death", 18.6, 2100},
	{"Prostate Cancer", "Carcinoma", "Most common cancer in men", 98.2, 1900},
	{"Colorectal Cancer", "Carcinoma", "Cancer of colon or rectum", 64.6, 1500},
	{"Melanoma", "Skin Cancer", "Most serious type of skin cancer", 92.7, 900},
	{"Pancreatic Cancer", "Carcinoma", "Highly aggressive cancer", 9.3, 600},
	{"Leukemia", "Blood Cancer", "Cancer of blood-forming tissues", 63.7, 800},
	{"Lymphoma", "Blood Cancer", "Cancer of lymphatic system", 73.2, 750},
}

var (
	genders        = []domain.Gender{domain.GenderMale, domain.GenderFemale}
	ethnicities    = []string{"Caucasian", "African American", "Hispanic", "Asian", "Other"}
	stages         = []string{"I", "II", "III", "IV"}
	treatmentTypes = []string{"Chemotherapy", "Radiation", "Immunotherapy", "Targeted Therapy", "Hormone Therapy", "Surgery"}
	drugNames      = []string{"Cisplatin", "Paclitaxel", "Doxorubicin", "Pembrolizumab", "Trastuzumab", "Tamoxifen"}
	monthNames     = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// outcomeWeights must sum to 1
var outcomeWeights = []struct {
	outcome domain.OutcomeType
	weight  float64
}{
	{domain.OutcomeCompleteResponse, 0.30},
	{domain.OutcomePartialResponse, 0.35},
	{domain.OutcomeStableDisease, 0.25},
	{domain.OutcomeProgressiveDisease, 0.10},
}

// aliveProbability is the share of patients still alive at last follow-up
const aliveProbability = 0.7

// Option configures a Seeder
type Option func(*Seeder)

// WithSeed sets the random seed
func WithSeed(seed int64) Option {
	return func(s *Seeder) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithPatientCount sets the number of synthetic patients
func WithPatientCount(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.patients = n
		}
	}
}

// WithClock sets the follow-up timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// Seeder writes the synthetic cohort
type Seeder struct {
	repos    Repositories
	rng      *rand.Rand
	patients int
	now      func() time.Time
	logger   *logrus.Logger
}

// NewSeeder creates a seeder over the given repositories
func NewSeeder(repos Repositories, logger *logrus.Logger, opts ...Option) *Seeder {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Seeder{
		repos:    repos,
		rng:      rand.New(rand.NewSource(DefaultSeed)),
		patients: DefaultPatients,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run seeds every table in dependency order
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	types, err := s.seedCancerTypes(ctx)
	if err != nil {
		return summary, err
	}
	summary.CancerTypes = len(types)
	s.logger.WithField("count", len(types)).Info("Cancer types seeded")

	patients, err := s.seedPatients(ctx, types)
	if err != nil {
		return summary, err
	}
	summary.Patients = len(patients)
	s.logger.WithField("count", len(patients)).Info("Patients seeded")

	for _, p := range patients {
		n, err := s.seedTreatments(ctx, p)
		if err != nil {
			return summary, err
		}
		summary.Treatments += n
		summary.Outcomes += n
	}
	s.logger.WithField("count", summary.Treatments).Info("Treatment records and outcomes seeded")

	for _, p := range patients {
		if err := s.seedSurvival(ctx, p); err != nil {
			return summary, err
		}
		summary.Survival++
	}
	s.logger.WithField("count", summary.Survival).Info("Survival data seeded")

	n, err := s.seedStatistics(ctx)
	summary.Statistics = n
	if err != nil {
		return summary, err
	}
	s.logger.WithField("count", n).Info("Statistics seeded")

	return summary, nil
}

func (s *Seeder) seedCancerTypes(ctx context.Context) ([]*domain.CancerType, error) {
	out := make([]*domain.CancerType, 0, len(cancerTypes))
	for _, seed := range cancerTypes {
		ct := &domain.CancerType{
			Name:                seed.name,
			Category:            ptr(seed.category),
			Description:         ptr(seed.description),
			AverageSurvivalRate: ptr(seed.survival),
			TotalCases:          seed.cases,
		}
		created, err := s.repos.CancerTypes.Create(ctx, ct)
		if err != nil {
			return nil, fmt.Errorf("failed to seed cancer type %s: %w", seed.name, err)
		}
		out = append(out, created)
	}
	return out, nil
}

func (s *Seeder) seedPatients(ctx context.Context, types []*domain.CancerType) ([]*domain.Patient, error) {
	out := make([]*domain.Patient, 0, s.patients)
	for i := 0; i < s.patients; i++ {
		ct := types[s.rng.Intn(len(types))]
		diagnosis := time.Date(2020+s.rng.Intn(4), time.Month(1+s.rng.Intn(12)), 1+s.rng.Intn(28), 0, 0, 0, 0, time.UTC)

		p := &domain.Patient{
			PatientCode:       fmt.Sprintf("PT%05d", i+1),
			Age:               ptr(35 + s.rng.Intn(50)),
			Gender:            ptr(genders[s.rng.Intn(len(genders))]),
			Ethnicity:         ptr(ethnicities[s.rng.Intn(len(ethnicities))]),
			DiagnosisDate:     &diagnosis,
			CancerTypeID:      ptr(ct.ID),
			Stage:             ptr(stages[s.rng.Intn(len(stages))]),
			PerformanceStatus: ptr(s.rng.Intn(3)),
		}
		created, err := s.repos.Patients.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to seed patient %s: %w", p.PatientCode, err)
		}
		out = append(out, created)
	}
	return out, nil
}

// seedTreatments writes one to three treatment lines, each with its outcome,
// three months apart from the diagnosis date.
func (s *Seeder) seedTreatments(ctx context.Context, p *domain.Patient) (int, error) {
	count := 1 + s.rng.Intn(3)
	for i := 0; i < count; i++ {
		start := p.DiagnosisDate.AddDate(0, i*3, 0)
		end := start.AddDate(0, 2, 0)

		treatment, err := s.repos.Treatments.Create(ctx, &domain.TreatmentRecord{
			PatientID:     p.ID,
			TreatmentType: treatmentTypes[s.rng.Intn(len(treatmentTypes))],
			DrugName:      ptr(drugNames[s.rng.Intn(len(drugNames))]),
			StartDate:     &start,
			EndDate:       &end,
			Dosage:        ptr(fmt.Sprintf("%dmg", 50+s.rng.Intn(150))),
			Protocol:      ptr("Standard protocol"),
		})
		if err != nil {
			return i, fmt.Errorf("failed to seed treatment for %s: %w", p.PatientCode, err)
		}

		evaluation := end
		_, err = s.repos.Outcomes.Create(ctx, &domain.TreatmentOutcome{
			PatientID:      p.ID,
			TreatmentID:    treatment.ID,
			OutcomeType:    s.drawOutcome(),
			ResponseRate:   ptr(round1(20 + s.rng.Float64()*70)),
			SideEffects:    ptr("Mild fatigue, nausea"),
			EvaluationDate: &evaluation,
			Notes:          ptr("Patient tolerated treatment well"),
		})
		if err != nil {
			return i, fmt.Errorf("failed to seed outcome for %s: %w", p.PatientCode, err)
		}
	}
	return count, nil
}

func (s *Seeder) drawOutcome() domain.OutcomeType {
	u := s.rng.Float64()
	for _, w := range outcomeWeights {
		u -= w.weight
		if u <= 0 {
			return w.outcome
		}
	}
	return outcomeWeights[0].outcome
}

func (s *Seeder) seedSurvival(ctx context.Context, p *domain.Patient) error {
	followup := s.now().UTC()
	row := &domain.SurvivalData{
		PatientID:        p.ID,
		LastFollowupDate: &followup,
	}

	if s.rng.Float64() < aliveProbability {
		row.Status = domain.StatusAlive
		row.SurvivalMonths = ptr(12 + s.rng.Intn(48))
		row.QualityOfLife = ptr(6 + s.rng.Intn(4))
	} else {
		row.Status = domain.StatusDeceased
		row.SurvivalMonths = ptr(6 + s.rng.Intn(36))
		row.CauseOfDeath = ptr("Cancer progression")
	}

	if _, err := s.repos.Survival.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to seed survival data for %s: %w", p.PatientCode, err)
	}
	return nil
}

func (s *Seeder) seedStatistics(ctx context.Context) (int, error) {
	for i, name := range monthNames {
		metadata, err := json.Marshal(map[string]string{"monthName": name})
		if err != nil {
			return i, err
		}
		_, err = s.repos.Statistics.Create(ctx, &domain.Statistic{
			StatType: SuccessRateStat,
			Year:     ptr(StatisticsYear),
			Month:    ptr(i + 1),
			Value:    round1(75 + s.rng.Float64()*20),
			Metadata: metadata,
		})
		if err != nil {
			return i, fmt.Errorf("failed to seed statistic for %s: %w", name, err)
		}
	}
	return len(monthNames), nil
}

func ptr[T any](v T) *T { return &v }

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
