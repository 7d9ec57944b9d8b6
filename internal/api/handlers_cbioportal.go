package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/pkg/external"
)

func (s *Server) handleCBioCancerTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Cohorts.CancerTypes(c.Request.Context()))
}

func (s *Server) handleCBioCancerTypeDetails(c *gin.Context) {
	details := s.deps.Cohorts.CancerTypeDetails(c.Request.Context(), c.Param("id"))
	if details == nil {
		respond(c, http.StatusBadGateway, domain.ErrExternalAPI, "Failed to fetch cancer type details", "")
		return
	}
	if details.CancerType == nil {
		respond(c, http.StatusNotFound, domain.ErrNotFoundCode, "Cancer type not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) handleCBioStudies(c *gin.Context) {
	pageSize, ok := queryInt(c, "pageSize", external.DefaultStudyPageSize)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.deps.Cohorts.Studies(c.Request.Context(), pageSize))
}

func (s *Server) handleCBioClinicalData(c *gin.Context) {
	dataType, err := domain.ParseClinicalDataType(c.Query("type"))
	if err != nil {
		respond(c, http.StatusBadRequest, domain.ErrInvalidInput, "type must be PATIENT or SAMPLE", c.Query("type"))
		return
	}
	c.JSON(http.StatusOK, s.deps.Cohorts.ClinicalData(c.Request.Context(), c.Param("id"), dataType))
}

func (s *Server) handleCBioPatients(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Cohorts.Patients(c.Request.Context(), c.Param("id")))
}

func (s *Server) handleCBioStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Cohorts.AggregatedStats(c.Request.Context()))
}
