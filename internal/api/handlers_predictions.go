package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oncology-insights-server/internal/domain"
)

// defaultHistoryLimit caps the audit records returned per patient
const defaultHistoryLimit = 50

func (s *Server) handlePredictSurvival(c *gin.Context) {
	var req domain.SurvivalPredictionRequest
	if !bindJSON(c, &req) {
		return
	}
	estimate, err := s.deps.Predictor.PredictSurvival(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err, domain.ErrInternalServer, "Failed to generate survival prediction")
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (s *Server) handlePredictDrugResponse(c *gin.Context) {
	var req domain.DrugResponsePredictionRequest
	if !bindJSON(c, &req) {
		return
	}
	estimate, err := s.deps.Predictor.PredictDrugResponse(c.Request.Context(), &req)
	if err != nil {
		s.respondError(c, err, domain.ErrInternalServer, "Failed to generate drug response prediction")
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (s *Server) handleListPredictions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultHistoryLimit)
	if !ok {
		return
	}
	records, err := s.deps.Predictions.ListByPatient(c.Request.Context(), id, limit)
	if err != nil {
		s.respondError(c, err, domain.ErrDatabaseError, "Failed to fetch AI predictions")
		return
	}
	c.JSON(http.StatusOK, records)
}
