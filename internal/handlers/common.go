package handlers

import (
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error apperrors.APIError `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type aliases so swag can resolve models in annotations.
type User = models.User
type Campaign = models.Campaign
type Part = models.Part
type Session = models.Session
type LoreFragment = models.LoreFragment
type InvestigationTrack = models.InvestigationTrack
type CampaignSummary = services.CampaignSummary
type CampaignDetail = services.CampaignDetail
type LoreFragmentView = services.LoreFragmentView
type TrackSummary = services.TrackSummary
type TrackDetail = services.TrackDetail
type PlayerTrackProgress = models.PlayerTrackProgress

func bindError(c *gin.Context, err error) {
	apperrors.Respond(c, apperrors.BadRequest("VALIDATION_ERROR", err.Error()))
}
