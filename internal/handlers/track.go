package handlers

import (
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	"github.com/gin-gonic/gin"
)

type TrackHandler struct {
	trackService *services.TrackService
	hub          *ws.Hub
}

func NewTrackHandler(trackService *services.TrackService, hub *ws.Hub) *TrackHandler {
	return &TrackHandler{trackService: trackService, hub: hub}
}

type CreateTrackRequest struct {
	Name        string                    `json:"name" binding:"required,min=1,max=200" example:"The Missing Cartographer"`
	Description string                    `json:"description" binding:"max=2000"`
	Milestones  []services.MilestoneInput `json:"milestones" binding:"omitempty,dive"`
}

// CreateTrack godoc
// @Summary      Create an investigation track
// @Description  Create a track with optional milestones (DM only)
// @Tags         tracks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        request body CreateTrackRequest true "Track data"
// @Success      201 {object} InvestigationTrack
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/tracks [post]
func (h *TrackHandler) CreateTrack(c *gin.Context) {
	userID := c.GetString("user_id")
	campaignID := c.Param("id")

	var req CreateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	track, err := h.trackService.Create(campaignID, userID, req.Name, req.Description, req.Milestones)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.hub.Broadcast(campaignID, ws.WSMessage{Type: "tracks_updated", Data: gin.H{"track_id": track.ID}})

	c.JSON(http.StatusCreated, track)
}

// ListTracks godoc
// @Summary      List investigation tracks
// @Description  All tracks of a campaign with milestone counts and per-player progress
// @Tags         tracks
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Success      200 {array} TrackSummary
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/tracks [get]
func (h *TrackHandler) ListTracks(c *gin.Context) {
	userID := c.GetString("user_id")

	tracks, err := h.trackService.ListForCampaign(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, tracks)
}

// GetTrack godoc
// @Summary      Get an investigation track
// @Description  Track with milestones and per-player progress
// @Tags         tracks
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Track ID"
// @Success      200 {object} TrackDetail
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tracks/{id} [get]
func (h *TrackHandler) GetTrack(c *gin.Context) {
	userID := c.GetString("user_id")

	detail, err := h.trackService.Get(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type UpdateProgressRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Progress int    `json:"progress" binding:"min=0"`
}

// UpdateProgress godoc
// @Summary      Set a player's track progress
// @Description  Upsert the progress value for a player on a track (DM only)
// @Tags         tracks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Track ID"
// @Param        request body UpdateProgressRequest true "Progress data"
// @Success      200 {object} PlayerTrackProgress
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/tracks/{id}/progress [post]
func (h *TrackHandler) UpdateProgress(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	progress, err := h.trackService.UpsertProgress(c.Param("id"), userID, req.PlayerID, req.Progress)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
