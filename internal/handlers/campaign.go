package handlers

import (
	"net/http"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CampaignHandler struct {
	campaignService *services.CampaignService
	markerService   *services.MarkerService
	partService     *services.PartService
	hub             *ws.Hub
}

func NewCampaignHandler(campaignService *services.CampaignService, markerService *services.MarkerService, partService *services.PartService, hub *ws.Hub) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		markerService:   markerService,
		partService:     partService,
		hub:             hub,
	}
}

type CreateCampaignRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200" example:"Curse of the Amber Throne"`
	Description string `json:"description" binding:"max=2000"`
}

// CreateCampaign godoc
// @Summary      Create a campaign
// @Description  Create a campaign owned by the authenticated user as DM
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCampaignRequest true "Campaign data"
// @Success      201 {object} CampaignSummary
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	campaign, err := h.campaignService.Create(userID, req.Name, req.Description)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns godoc
// @Summary      List campaigns
// @Description  List campaigns the authenticated user belongs to
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} CampaignSummary
// @Router       /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	userID := c.GetString("user_id")

	campaigns, err := h.campaignService.ListForUser(userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// GetCampaign godoc
// @Summary      Get a campaign
// @Description  Campaign details with member list
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Success      200 {object} CampaignDetail
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	userID := c.GetString("user_id")

	detail, err := h.campaignService.Get(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RegenerateInvite godoc
// @Summary      Generate invite code
// @Description  Generate or replace the campaign invite code (DM only)
// @Tags         campaigns
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Success      200 {object} map[string]string
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/invite [post]
func (h *CampaignHandler) RegenerateInvite(c *gin.Context) {
	userID := c.GetString("user_id")

	code, err := h.campaignService.RegenerateInvite(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invite_code": code})
}

type JoinCampaignRequest struct {
	InviteCode string `json:"invite_code" binding:"required" example:"A1B2C3D4"`
}

// JoinCampaign godoc
// @Summary      Join a campaign
// @Description  Join a campaign as player via invite code
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body JoinCampaignRequest true "Invite code"
// @Success      200 {object} services.JoinResult
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/campaigns/join [post]
func (h *CampaignHandler) JoinCampaign(c *gin.Context) {
	userID := c.GetString("user_id")

	var req JoinCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.campaignService.Join(userID, req.InviteCode)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type UpdateShowcaseRequest struct {
	ShowcaseJSON       datatypes.JSON `json:"showcase_json"`
	AllowContributions *bool          `json:"allow_contributions"`
}

// UpdateShowcase godoc
// @Summary      Update campaign showcase
// @Description  Edit the campaign landing document (DM or contributors)
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        request body UpdateShowcaseRequest true "Showcase data"
// @Success      200 {object} Campaign
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/showcase [patch]
func (h *CampaignHandler) UpdateShowcase(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateShowcaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	campaign, err := h.campaignService.UpdateShowcase(c.Param("id"), userID, req.ShowcaseJSON, req.AllowContributions)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

type SetMarkerRequest struct {
	SessionID *string `json:"session_id"`
	Between   bool    `json:"between"`
}

// SetMarker godoc
// @Summary      Move the campaign marker
// @Description  Move, rest or clear the narrative progress marker (DM only). Sessions before the marker are marked played.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Param        request body SetMarkerRequest true "Marker position"
// @Success      200 {object} Campaign
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/marker [patch]
func (h *CampaignHandler) SetMarker(c *gin.Context) {
	userID := c.GetString("user_id")
	campaignID := c.Param("id")

	var req SetMarkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	campaign, err := h.markerService.SetMarker(campaignID, userID, req.SessionID, req.Between)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	h.hub.Broadcast(campaignID, ws.WSMessage{Type: "marker_updated", Data: campaign})
	c.JSON(http.StatusOK, campaign)
}

// GetPartsTree godoc
// @Summary      List parts with sessions
// @Description  The campaign tree, filtered by marker visibility for players
// @Tags         parts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Campaign ID"
// @Success      200 {array} Part
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/campaigns/{id}/parts [get]
func (h *CampaignHandler) GetPartsTree(c *gin.Context) {
	userID := c.GetString("user_id")

	parts, err := h.partService.Tree(c.Param("id"), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, parts)
}
