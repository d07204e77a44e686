package services

import (
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/gorm"
)

// requireMembership returns the caller's membership row for a campaign.
// Non-members get the same 404 as a missing campaign so they cannot probe
// which campaigns exist.
func requireMembership(db *gorm.DB, campaignID, userID string) (*models.CampaignMember, error) {
	var membership models.CampaignMember
	err := db.Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		First(&membership).Error
	if err != nil {
		return nil, apperrors.NotFound("CAMPAIGN_NOT_FOUND", "Campaign not found or you are not a member")
	}
	return &membership, nil
}

func requireDM(db *gorm.DB, campaignID, userID string) (*models.CampaignMember, error) {
	membership, err := requireMembership(db, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if membership.Role != models.RoleDM {
		return nil, apperrors.Forbidden("NOT_DM", "Only the DM can perform this action")
	}
	return membership, nil
}

// campaignForPart resolves the campaign owning a part.
func campaignForPart(db *gorm.DB, partID string) (*models.Part, *models.Campaign, error) {
	var part models.Part
	if err := db.First(&part, "id = ?", partID).Error; err != nil {
		return nil, nil, apperrors.NotFound("PART_NOT_FOUND", "Part not found")
	}

	var campaign models.Campaign
	if err := db.First(&campaign, "id = ?", part.CampaignID).Error; err != nil {
		return nil, nil, apperrors.NotFound("CAMPAIGN_NOT_FOUND", "Campaign not found")
	}
	return &part, &campaign, nil
}

// campaignForSession resolves the campaign owning a session, via its part.
func campaignForSession(db *gorm.DB, sessionID string) (*models.Session, *models.Campaign, error) {
	var session models.Session
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, nil, apperrors.NotFound("SESSION_NOT_FOUND", "Session not found")
	}

	_, campaign, err := campaignForPart(db, session.PartID)
	if err != nil {
		return nil, nil, err
	}
	return &session, campaign, nil
}
