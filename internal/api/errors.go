package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/internal/middleware"
)

// respond writes an APIError envelope with the request's correlation id
func respond(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationKey)))
}

// respondError maps a service or store error onto the API error envelope.
// Validation → 400, not found → 404, everything else → 500 with the
// given code.
func (s *Server) respondError(c *gin.Context, err error, code, message string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respond(c, http.StatusBadRequest, domain.ErrValidation, ve.Message, ve.Field)
		return
	case errors.Is(err, domain.ErrNotFound):
		respond(c, http.StatusNotFound, domain.ErrNotFoundCode, message, err.Error())
		return
	}

	logging.Entry(c.Request.Context(), s.logger).WithFields(logrus.Fields{
		"route": c.FullPath(),
		"error": err,
	}).Error(message)
	respond(c, http.StatusInternalServerError, code, message, "")
}

// bindJSON decodes the request body, writing a 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respond(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err.Error())
		return false
	}
	return true
}

// pathID parses the numeric :id parameter, writing a 400 on failure
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid id", c.Param("id"))
		return 0, false
	}
	return id, true
}

// queryInt reads an optional positive integer query parameter
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		respond(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid "+name+" parameter", raw)
		return 0, false
	}
	return v, true
}
