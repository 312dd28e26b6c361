package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/service"
)

// JobsHandler handles batch job endpoints.
type JobsHandler struct {
	jobService *service.JobService
}

// NewJobsHandler creates a new jobs handler.
// Parameters:
//   - jobService: job intake service instance.
// Returns:
//   - *JobsHandler: initialized handler.
func NewJobsHandler(jobService *service.JobService) *JobsHandler {
	return &JobsHandler{jobService: jobService}
}

// Create handles POST /api/v1/jobs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobsHandler) Create(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	job, err := h.jobService.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidScope), errors.Is(err, domain.ErrNoObjectives):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create job: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Get handles GET /api/v1/jobs/:id.
func (h *JobsHandler) Get(c *gin.Context) {
	job, err := h.jobService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetActive handles GET /api/v1/jobs/active. It returns the newest
// non-terminal job for a workspace, optionally narrowed to one event; the
// response carries a null job when nothing is running.
func (h *JobsHandler) GetActive(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'workspace_id' is required",
		})
		return
	}

	kind := domain.JobKind(c.Query("kind"))
	if kind != domain.JobKindEnrichment && kind != domain.JobKindScoring {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'kind' must be 'enrichment' or 'scoring'",
		})
		return
	}

	job, err := h.jobService.GetActive(c.Request.Context(), workspaceID, c.Query("event_id"), kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get active job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}
