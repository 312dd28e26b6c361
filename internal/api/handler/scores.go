package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/service"
)

// ScoresHandler handles score query endpoints.
type ScoresHandler struct {
	scores service.ScoreReader
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(scores service.ScoreReader) *ScoresHandler {
	return &ScoresHandler{scores: scores}
}

// List handles GET /api/v1/scores. Results are ordered by relevance score
// descending.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScoresHandler) List(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	eventID := c.Query("event_id")
	if workspaceID == "" || eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameters 'workspace_id' and 'event_id' are required",
		})
		return
	}

	var filters domain.ScoreFilters
	if minScore := c.Query("min_score"); minScore != "" {
		v, err := strconv.Atoi(minScore)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Query parameter 'min_score' must be an integer",
			})
			return
		}
		filters.MinScore = &v
	}
	if contactIDs := c.Query("contact_ids"); contactIDs != "" {
		filters.ContactIDs = strings.Split(contactIDs, ",")
	}
	if limit := c.Query("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			filters.Limit = v
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			filters.Offset = v
		}
	}

	scores, err := h.scores.List(c.Request.Context(), workspaceID, eventID, filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list scores: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scores": scores,
		"total":  len(scores),
	})
}
