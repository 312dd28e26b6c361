package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/guestrank/internal/service"
)

// SeatingHandler handles seating suggestion endpoints.
type SeatingHandler struct {
	seating *service.SeatingService
}

// NewSeatingHandler creates a new seating handler.
func NewSeatingHandler(seating *service.SeatingService) *SeatingHandler {
	return &SeatingHandler{seating: seating}
}

// Generate handles POST /api/v1/events/:id/seating. It replaces the event's
// previous suggestion set.
func (h *SeatingHandler) Generate(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'workspace_id' is required",
		})
		return
	}

	var cfg service.SeatingConfig
	if err := c.ShouldBindJSON(&cfg); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	suggestions, err := h.seating.Suggest(c.Request.Context(), workspaceID, c.Param("id"), cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate seating: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}

// List handles GET /api/v1/events/:id/seating.
func (h *SeatingHandler) List(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'workspace_id' is required",
		})
		return
	}

	suggestions, err := h.seating.List(c.Request.Context(), workspaceID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list seating: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}
