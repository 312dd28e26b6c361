package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/guestrank/internal/service"
)

// TriggerHandler exposes a manual processor pass for operators and tests.
// The worker's ticker is the normal driver; both paths share the same
// processor and converge on the same state.
type TriggerHandler struct {
	processor *service.Processor
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(processor *service.Processor) *TriggerHandler {
	return &TriggerHandler{processor: processor}
}

// Trigger handles POST /api/v1/trigger. It runs one processor pass and
// returns the tick counts.
func (h *TriggerHandler) Trigger(c *gin.Context) {
	stats, err := h.processor.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Processor pass failed: " + err.Error(),
			"stats": stats,
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
