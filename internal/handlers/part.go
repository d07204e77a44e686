package handlers

import (
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	"github.com/gin-gonic/gin"
)

type PartHandler struct {
	partService *services.PartService
	hub         *ws.Hub
}

func NewPartHandler(partService *services.PartService, hub *ws.Hub) *PartHandler {
	return &PartHandler{partService: partService, hub: hub}
}

type CreatePartRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200" example:"Part I: The Ashen Road"`
	SortOrder int    `json:"sort_order" binding:"min=0"`
}

// CreatePart godoc
// @Summary      Create a part
// @Description  Add a part to the campaign (DM only)
// @Tags         parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        request body CreatePartRequest true "Part data"
// @Success      201 {object} Part
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/parts [post]
func (h *PartHandler) CreatePart(c *gin.Context) {
	userID := c.GetString("user_id")
	campaignID := c.Param("id")

	var req CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	part, err := h.partService.CreatePart(campaignID, userID, req.Name, req.SortOrder)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.hub.Broadcast(campaignID, ws.WSMessage{Type: "parts_updated", Data: part})
	c.JSON(http.StatusCreated, part)
}

type UpdatePartRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=200"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,min=0"`
}

// UpdatePart godoc
// @Summary      Update a part
// @Description  Rename or reorder a part (DM only)
// @Tags         parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Part ID"
// @Param        request body UpdatePartRequest true "Part data"
// @Success      200 {object} Part
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/parts/{id} [patch]
func (h *PartHandler) UpdatePart(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	part, err := h.partService.UpdatePart(c.Param("id"), userID, req.Name, req.SortOrder)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.hub.Broadcast(part.CampaignID, ws.WSMessage{Type: "parts_updated", Data: part})
	c.JSON(http.StatusOK, part)
}

// DeletePart godoc
// @Summary      Delete a part
// @Description  Delete a part and all its sessions (DM only)
// @Tags         parts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Part ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/parts/{id} [delete]
func (h *PartHandler) DeletePart(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.partService.DeletePart(c.Param("id"), userID); err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "part deleted"})
}

// UpdatePartShowcase godoc
// @Summary      Update part showcase
// @Description  Edit a part's showcase document (owner, DM or contributors)
// @Tags         parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Part ID"
// @Param        request body UpdateShowcaseRequest true "Showcase data"
// @Success      200 {object} Part
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/parts/{id}/showcase [patch]
func (h *PartHandler) UpdatePartShowcase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateShowcaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	part, err := h.partService.UpdatePartShowcase(c.Param("id"), userID, req.ShowcaseJSON, req.AllowContributions)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, part)
}

type CreateSessionRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200" example:"Session 1: Embers"`
	SortOrder int    `json:"sort_order" binding:"min=0"`
}

// CreateSession godoc
// @Summary      Create a session
// @Description  Add a session to a part (DM only)
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Part ID"
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} Session
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/parts/{id}/sessions [post]
func (h *PartHandler) CreateSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	session, err := h.partService.CreateSession(c.Param("id"), userID, req.Name, req.SortOrder)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}
