package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/guestrank/internal/domain"
	"github.com/timmy/guestrank/internal/service"
)

// InvitationsHandler handles invitation RSVP endpoints.
type InvitationsHandler struct {
	invitations *service.InvitationService
}

// NewInvitationsHandler creates a new invitations handler.
func NewInvitationsHandler(invitations *service.InvitationService) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitations}
}

// Decline handles POST /api/v1/invitations/:id/decline. Declining twice is
// idempotent and still returns 200.
func (h *InvitationsHandler) Decline(c *gin.Context) {
	inv, err := h.invitations.Decline(c.Request.Context(), c.Param("id"))
	if err != nil && !errors.Is(err, domain.ErrStatusNoop) {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to decline invitation: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, inv)
}
