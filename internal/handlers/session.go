package handlers

import (
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	partService *services.PartService
}

func NewSessionHandler(partService *services.PartService) *SessionHandler {
	return &SessionHandler{partService: partService}
}

type UpdateSessionRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=200"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,min=0"`
	Status    *string `json:"status" binding:"omitempty,oneof=planned played"`
}

// UpdateSession godoc
// @Summary      Update a session
// @Description  Rename, reorder or set the status of a session (DM only)
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body UpdateSessionRequest true "Session data"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [patch]
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.partService.UpdateSession(c.Param("id"), userID, req.Name, req.SortOrder, req.Status)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession godoc
// @Summary      Delete a session
// @Description  Delete a session (DM only)
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.partService.DeleteSession(c.Param("id"), userID); err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session deleted"})
}

// UpdateSessionShowcase godoc
// @Summary      Update session showcase
// @Description  Edit a session's showcase document (owner, DM or contributors)
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body UpdateShowcaseRequest true "Showcase data"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/showcase [patch]
func (h *SessionHandler) UpdateSessionShowcase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateShowcaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.partService.UpdateSessionShowcase(c.Param("id"), userID, req.ShowcaseJSON, req.AllowContributions)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
