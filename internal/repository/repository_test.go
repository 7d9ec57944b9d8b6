package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncology-insights-server/internal/database/dbtest"
	"github.com/oncology-insights-server/internal/domain"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	cancerTypes *CancerTypeRepository
	patients    *PatientRepository
	treatments  *TreatmentRepository
	outcomes    *OutcomeRepository
	survival    *SurvivalRepository
	images      *ImageRepository
	statistics  *StatisticsRepository
	dashboard   *DashboardRepository
}

func setupRepositories(t *testing.T) *fixture {
	pg := dbtest.Start(t)
	pool, logger := pg.DB.Pool, pg.Logger

	return &fixture{
		cancerTypes: NewCancerTypeRepository(pool, logger),
		patients:    NewPatientRepository(pool, logger),
		treatments:  NewTreatmentRepository(pool, logger),
		outcomes:    NewOutcomeRepository(pool, logger),
		survival:    NewSurvivalRepository(pool, logger),
		images:      NewImageRepository(pool, logger),
		statistics:  NewStatisticsRepository(pool, logger),
		dashboard:   NewDashboardRepository(pool, logger),
	}
}

func TestClinicalRepositories(t *testing.T) {
	f := setupRepositories(t)
	ctx := context.Background()

	breast, err := f.cancerTypes.Create(ctx, &domain.CancerType{
		Name:                "Breast Cancer",
		Category:            ptr("Carcinoma"),
		AverageSurvivalRate: ptr(90.0),
		TotalCases:          2300,
	})
	require.NoError(t, err)
	lung, err := f.cancerTypes.Create(ctx, &domain.CancerType{Name: "Lung Cancer", TotalCases: 5200})
	require.NoError(t, err)

	t.Run("cancer types ordered by total cases", func(t *testing.T) {
		list, err := f.cancerTypes.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, lung.ID, list[0].ID)
		assert.Equal(t, "Carcinoma", *list[1].Category)

		_, err = f.cancerTypes.GetByID(ctx, 99999)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	female := domain.GenderFemale
	patient, err := f.patients.Create(ctx, &domain.Patient{
		PatientCode:       "PT00001",
		Age:               ptr(58),
		Gender:            &female,
		DiagnosisDate:     ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		CancerTypeID:      &breast.ID,
		Stage:             ptr("IIA"),
		PerformanceStatus: ptr(1),
	})
	require.NoError(t, err)
	_, err = f.patients.Create(ctx, &domain.Patient{PatientCode: "PT00002"})
	require.NoError(t, err)

	t.Run("patients join their cancer type", func(t *testing.T) {
		got, err := f.patients.GetByID(ctx, patient.ID)
		require.NoError(t, err)
		assert.Equal(t, "PT00001", got.Patient.PatientCode)
		assert.Equal(t, domain.GenderFemale, *got.Patient.Gender)
		require.NotNil(t, got.CancerType)
		assert.Equal(t, "Breast Cancer", got.CancerType.Name)

		list, err := f.patients.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "PT00002", list[0].Patient.PatientCode, "newest first")
		assert.Nil(t, list[0].CancerType)
		assert.Nil(t, list[0].Patient.Gender)

		limited, err := f.patients.List(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		_, err = f.patients.GetByID(ctx, 424242)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("treatments and outcomes", func(t *testing.T) {
		first, err := f.treatments.Create(ctx, &domain.TreatmentRecord{
			PatientID:     patient.ID,
			TreatmentType: "Chemotherapy",
			DrugName:      ptr("Paclitaxel"),
			StartDate:     ptr(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
		second, err := f.treatments.Create(ctx, &domain.TreatmentRecord{
			PatientID:     patient.ID,
			TreatmentType: "Radiation",
			StartDate:     ptr(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)

		treatments, err := f.treatments.ListByPatient(ctx, patient.ID)
		require.NoError(t, err)
		require.Len(t, treatments, 2)
		assert.Equal(t, second.ID, treatments[0].ID)

		_, err = f.outcomes.Create(ctx, &domain.TreatmentOutcome{
			PatientID:      patient.ID,
			TreatmentID:    first.ID,
			OutcomeType:    domain.OutcomePartialResponse,
			ResponseRate:   ptr(62.5),
			EvaluationDate: ptr(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
		_, err = f.outcomes.Create(ctx, &domain.TreatmentOutcome{
			PatientID:      patient.ID,
			TreatmentID:    second.ID,
			OutcomeType:    domain.OutcomeCompleteResponse,
			EvaluationDate: ptr(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)

		_, err = f.outcomes.Create(ctx, &domain.TreatmentOutcome{
			PatientID: patient.ID, TreatmentID: first.ID, OutcomeType: "Cured",
		})
		assert.True(t, domain.IsValidationError(err))

		outcomes, err := f.outcomes.ListByPatient(ctx, patient.ID)
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		assert.Equal(t, domain.OutcomeCompleteResponse, outcomes[0].Outcome.OutcomeType)
		require.NotNil(t, outcomes[1].Treatment)
		assert.Equal(t, "Paclitaxel", *outcomes[1].Treatment.DrugName)

		counts, err := f.outcomes.CountByOutcomeType(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 2)
		for _, c := range counts {
			assert.Equal(t, int64(1), c.Count)
		}
	})

	t.Run("survival is one row per patient", func(t *testing.T) {
		_, err := f.survival.GetByPatient(ctx, patient.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		created, err := f.survival.Create(ctx, &domain.SurvivalData{
			PatientID:      patient.ID,
			SurvivalMonths: ptr(18),
			Status:         domain.StatusAlive,
			QualityOfLife:  ptr(8),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAlive, created.Status)

		got, err := f.survival.GetByPatient(ctx, patient.ID)
		require.NoError(t, err)
		assert.Equal(t, 18, *got.SurvivalMonths)

		_, err = f.survival.Create(ctx, &domain.SurvivalData{PatientID: patient.ID, Status: domain.StatusDeceased})
		assert.Error(t, err, "duplicate survival row is rejected")
	})

	t.Run("images newest first", func(t *testing.T) {
		_, err := f.images.Create(ctx, &domain.MedicalImage{
			PatientID:       patient.ID,
			ImageType:       domain.ImageCT,
			AcquisitionDate: ptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		})
		require.NoError(t, err)
		_, err = f.images.Create(ctx, &domain.MedicalImage{
			PatientID:       patient.ID,
			ImageType:       domain.ImageMRI,
			AcquisitionDate: ptr(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)),
			ConfidenceScore: ptr(0.87),
		})
		require.NoError(t, err)

		images, err := f.images.ListByPatient(ctx, patient.ID)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, domain.ImageMRI, images[0].ImageType)
	})

	t.Run("statistics newest period first", func(t *testing.T) {
		for month := 1; month <= 3; month++ {
			_, err := f.statistics.Create(ctx, &domain.Statistic{
				StatType: "treatment_success_rate",
				Year:     ptr(2024),
				Month:    ptr(month),
				Value:    70 + float64(month),
				Metadata: json.RawMessage(`{"source":"seed"}`),
			})
			require.NoError(t, err)
		}

		stats, err := f.statistics.ListByType(ctx, "treatment_success_rate")
		require.NoError(t, err)
		require.Len(t, stats, 3)
		assert.Equal(t, 3, *stats[0].Month)
		assert.JSONEq(t, `{"source":"seed"}`, string(stats[0].Metadata))

		_, err = f.statistics.Create(ctx, &domain.Statistic{StatType: "x", Metadata: json.RawMessage(`{broken`)})
		assert.True(t, domain.IsValidationError(err))
	})

	t.Run("dashboard counts", func(t *testing.T) {
		stats, err := f.dashboard.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalPatients)
		assert.Equal(t, int64(2), stats.TotalCancerTypes)
		assert.Equal(t, domain.ActiveModelCount, stats.ActiveModels)
		assert.Equal(t, domain.ReportedModelAccuracy, stats.AverageAccuracy)
	})
}
