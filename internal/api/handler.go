package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kurihiro0119/github-org-archive/internal/errors"
	"github.com/kurihiro0119/github-org-archive/internal/report"
)

// Handler handles API requests
type Handler struct {
	report report.Report
}

// NewHandler creates a new API handler
func NewHandler(rep report.Report) *Handler {
	return &Handler{
		report: rep,
	}
}

// ListRuns returns archive runs, most recent first
// GET /api/v1/runs?limit=n
func (h *Handler) ListRuns(c *gin.Context) {
	limit := parseLimit(c)

	runs, err := h.report.ListRuns(c.Request.Context(), "", limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// ListOrgRuns returns archive runs for one organization
// GET /api/v1/orgs/:org/runs?limit=n
func (h *Handler) ListOrgRuns(c *gin.Context) {
	org := c.Param("org")
	limit := parseLimit(c)

	runs, err := h.report.ListRuns(c.Request.Context(), org, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// GetRun returns one run with its repository records
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	detail, err := h.report.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": detail,
	})
}

// GetRunRepos returns the repository records for one run
// GET /api/v1/runs/:id/repos
func (h *Handler) GetRunRepos(c *gin.Context) {
	detail, err := h.report.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": detail.Records,
	})
}

// HealthCheck returns the API health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func parseLimit(c *gin.Context) int {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			limit = val
		}
	}
	return limit
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeForbidden:
			status = http.StatusForbidden
		}
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}
