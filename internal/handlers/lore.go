package handlers

import (
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type LoreHandler struct {
	loreService *services.LoreService
}

func NewLoreHandler(loreService *services.LoreService) *LoreHandler {
	return &LoreHandler{loreService: loreService}
}

type CreateLoreRequest struct {
	Title       string         `json:"title" binding:"required,min=1,max=500" example:"The Pale Sigil"`
	ContentJSON datatypes.JSON `json:"content_json"`
	Scope       string         `json:"scope" binding:"omitempty,oneof=story private"`
	Visibility  string         `json:"visibility" binding:"omitempty,oneof=private shared public"`
	PartID      *string        `json:"part_id"`
	SessionID   *string        `json:"session_id"`
	PlayerID    *string        `json:"player_id"`
}

// CreateLore godoc
// @Summary      Create a lore fragment
// @Description  Create a lore fragment, optionally attached to a part, session or player
// @Tags         lore
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        request body CreateLoreRequest true "Fragment data"
// @Success      201 {object} LoreFragment
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/lore [post]
func (h *LoreHandler) CreateLore(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateLoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	scope := req.Scope
	if scope == "" {
		scope = "private"
	}

	fragment, err := h.loreService.Create(c.Param("id"), userID, services.CreateLoreInput{
		Title:       req.Title,
		ContentJSON: req.ContentJSON,
		Scope:       scope,
		Visibility:  req.Visibility,
		PartID:      req.PartID,
		SessionID:   req.SessionID,
		PlayerID:    req.PlayerID,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, fragment)
}

// ListLore godoc
// @Summary      List lore fragments
// @Description  Fragments visible to the caller, annotated with effective visibility. Filter with attachedTo=campaign|part|session|player and attachedId.
// @Tags         lore
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        attachedTo query string false "Attachment filter"
// @Param        attachedId query string false "Attachment target ID"
// @Success      200 {array} LoreFragmentView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/lore [get]
func (h *LoreHandler) ListLore(c *gin.Context) {
	userID := c.GetString("user_id")

	views, err := h.loreService.List(c.Param("id"), userID, c.Query("attachedTo"), c.Query("attachedId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetLore godoc
// @Summary      Get a lore fragment
// @Description  Single fragment with effective visibility; 404 if hidden from the caller
// @Tags         lore
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fragment ID"
// @Success      200 {object} LoreFragmentView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/lore/{id} [get]
func (h *LoreHandler) GetLore(c *gin.Context) {
	userID := c.GetString("user_id")

	view, err := h.loreService.Get(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type UpdateLoreRequest struct {
	Title       *string        `json:"title" binding:"omitempty,min=1,max=500"`
	ContentJSON datatypes.JSON `json:"content_json"`
	Scope       *string        `json:"scope" binding:"omitempty,oneof=story private"`
	Visibility  *string        `json:"visibility" binding:"omitempty,oneof=private shared public"`
}

// UpdateLore godoc
// @Summary      Update a lore fragment
// @Description  Edit a fragment (owner only); story-scope visibility is locked
// @Tags         lore
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fragment ID"
// @Param        request body UpdateLoreRequest true "Fragment data"
// @Success      200 {object} LoreFragment
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/lore/{id} [patch]
func (h *LoreHandler) UpdateLore(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateLoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	fragment, err := h.loreService.Update(c.Param("id"), userID, services.UpdateLoreInput{
		Title:       req.Title,
		ContentJSON: req.ContentJSON,
		Scope:       req.Scope,
		Visibility:  req.Visibility,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, fragment)
}

// DeleteLore godoc
// @Summary      Delete a lore fragment
// @Description  Delete a fragment (owner or DM)
// @Tags         lore
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fragment ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/lore/{id} [delete]
func (h *LoreHandler) DeleteLore(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.loreService.Delete(c.Param("id"), userID); err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "lore fragment deleted"})
}

type ShareLoreRequest struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}

// ShareLore godoc
// @Summary      Share a lore fragment
// @Description  Grant read access to campaign members; private fragments upgrade to shared
// @Tags         lore
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fragment ID"
// @Param        request body ShareLoreRequest true "Target users"
// @Success      200 {object} map[string][]string
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/lore/{id}/share [post]
func (h *LoreHandler) ShareLore(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ShareLoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sharedWith, err := h.loreService.Share(c.Param("id"), userID, req.UserIDs)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fragment_id": c.Param("id"), "shared_with": sharedWith})
}

// UnshareLore godoc
// @Summary      Revoke a lore share
// @Description  Revoke a grant; the last revocation downgrades shared fragments to private
// @Tags         lore
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Fragment ID"
// @Param        userId path string true "Target user ID"
// @Success      200 {object} map[string][]string
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/lore/{id}/share/{userId} [delete]
func (h *LoreHandler) UnshareLore(c *gin.Context) {
	userID := c.GetString("user_id")

	sharedWith, err := h.loreService.Unshare(c.Param("id"), userID, c.Param("userId"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fragment_id": c.Param("id"), "shared_with": sharedWith})
}
