package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/repository"
)

// Cancer types

func (s *Server) handleListCancerTypes(c *gin.Context) {
	types, err := s.deps.CancerTypes.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch cancer types")
		return
	}
	c.JSON(http.StatusOK, types)
}

func (s *Server) handleGetCancerType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ct, err := s.deps.CancerTypes.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Cancer type not found")
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (s *Server) handleCreateCancerType(c *gin.Context) {
	var in domain.CancerType
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		s.respondError(c, domain.NewValidationError("name", "name is required", in.Name), "", "")
		return
	}
	created, err := s.deps.CancerTypes.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create cancer type")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Patients

func (s *Server) handleListPatients(c *gin.Context) {
	limit, ok := queryInt(c, "limit", repository.DefaultPatientLimit)
	if !ok {
		return
	}
	patients, err := s.deps.Patients.List(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch patients")
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (s *Server) handleGetPatient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.deps.Patients.GetByID(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Patient not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreatePatient(c *gin.Context) {
	var in domain.Patient
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.PatientCode) == "" {
		s.respondError(c, domain.NewValidationError("patientCode", "patient code is required", in.PatientCode), "", "")
		return
	}
	if in.Gender != nil {
		g, err := domain.ParseGender(string(*in.Gender))
		if err != nil {
			s.respondError(c, domain.NewValidationError("gender", "gender must be one of Male, Female, Other", string(*in.Gender)), "", "")
			return
		}
		in.Gender = &g
	}
	created, err := s.deps.Patients.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create patient")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Treatments

func (s *Server) handleListTreatments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	treatments, err := s.deps.Treatments.ListByPatient(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch treatments")
		return
	}
	c.JSON(http.StatusOK, treatments)
}

func (s *Server) handleCreateTreatment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.TreatmentRecord
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.TreatmentType) == "" {
		s.respondError(c, domain.NewValidationError("treatmentType", "treatment type is required", in.TreatmentType), "", "")
		return
	}
	in.PatientID = id
	created, err := s.deps.Treatments.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create treatment record")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Outcomes

func (s *Server) handleListOutcomes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	outcomes, err := s.deps.Outcomes.ListByPatient(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch outcomes")
		return
	}
	c.JSON(http.StatusOK, outcomes)
}

func (s *Server) handleCreateOutcome(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.TreatmentOutcome
	if !bindJSON(c, &in) {
		return
	}
	in.PatientID = id
	created, err := s.deps.Outcomes.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create treatment outcome")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Survival

func (s *Server) handleGetSurvival(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	data, err := s.deps.Survival.GetByPatient(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Survival data not found")
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) handleCreateSurvival(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.SurvivalData
	if !bindJSON(c, &in) {
		return
	}
	in.PatientID = id
	created, err := s.deps.Survival.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create survival data")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Images

func (s *Server) handleListImages(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	images, err := s.deps.Images.ListByPatient(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch medical images")
		return
	}
	c.JSON(http.StatusOK, images)
}

func (s *Server) handleCreateImage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in domain.MedicalImage
	if !bindJSON(c, &in) {
		return
	}
	in.PatientID = id
	created, err := s.deps.Images.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create medical image")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Dashboard and statistics

func (s *Server) handleDashboardStats(c *gin.Context) {
	stats, err := s.deps.Dashboard.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleOutcomeDistribution(c *gin.Context) {
	counts, err := s.deps.Outcomes.CountByOutcomeType(c.Request.Context())
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch treatment outcomes")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handleListStatistics(c *gin.Context) {
	statType := c.Query("type")
	if statType == "" {
		respond(c, http.StatusBadRequest, domain.ErrInvalidInput, "Query parameter type is required", "")
		return
	}
	stats, err := s.deps.Statistics.ListByType(c.Request.Context(), statType)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCreateStatistic(c *gin.Context) {
	var in domain.Statistic
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.StatType) == "" {
		s.respondError(c, domain.NewValidationError("statType", "statistic type is required", in.StatType), "", "")
		return
	}
	created, err := s.deps.Statistics.Create(c.Request.Context(), &in)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to create statistic")
		return
	}
	c.JSON(http.StatusCreated, created)
}
