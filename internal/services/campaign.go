package services

import (
	"strings"
	"time"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CampaignService struct {
	db *gorm.DB
}

func NewCampaignService(db *gorm.DB) *CampaignService {
	return &CampaignService{db: db}
}

type CampaignSummary struct {
	models.Campaign
	Role          string `json:"role"`
	MemberCount   int64  `json:"member_count"`
	DMDisplayName string `json:"dm_display_name"`
}

type MemberInfo struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

type CampaignDetail struct {
	models.Campaign
	Role    string       `json:"role"`
	Members []MemberInfo `json:"members"`
}

func (s *CampaignService) Create(userID, name, description string) (*CampaignSummary, error) {
	campaign := models.Campaign{
		Name:        name,
		Description: description,
		DMID:        userID,
		InviteCode:  strings.ToUpper(uuid.NewString()[:8]),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&campaign).Error; err != nil {
			return err
		}
		member := models.CampaignMember{
			CampaignID: campaign.ID,
			UserID:     userID,
			Role:       models.RoleDM,
			JoinedAt:   time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return &CampaignSummary{Campaign: campaign, Role: models.RoleDM, MemberCount: 1}, nil
}

func (s *CampaignService) ListForUser(userID string) ([]CampaignSummary, error) {
	var memberships []models.CampaignMember
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}

	summaries := make([]CampaignSummary, 0, len(memberships))
	for _, m := range memberships {
		var campaign models.Campaign
		if err := s.db.First(&campaign, "id = ?", m.CampaignID).Error; err != nil {
			continue
		}

		var memberCount int64
		s.db.Model(&models.CampaignMember{}).Where("campaign_id = ?", campaign.ID).Count(&memberCount)

		var dm models.User
		s.db.First(&dm, "id = ?", campaign.DMID)

		summaries = append(summaries, CampaignSummary{
			Campaign:      campaign,
			Role:          m.Role,
			MemberCount:   memberCount,
			DMDisplayName: dm.DisplayName,
		})
	}

	return summaries, nil
}

func (s *CampaignService) Get(campaignID, userID string) (*CampaignDetail, error) {
	membership, err := requireMembership(s.db, campaignID, userID)
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, apperrors.NotFound("CAMPAIGN_NOT_FOUND", "Campaign not found")
	}

	var members []models.CampaignMember
	if err := s.db.Preload("User").Where("campaign_id = ?", campaignID).Find(&members).Error; err != nil {
		return nil, err
	}

	detail := &CampaignDetail{Campaign: campaign, Role: membership.Role}
	for _, m := range members {
		detail.Members = append(detail.Members, MemberInfo{
			UserID:      m.UserID,
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
			DisplayName: m.User.DisplayName,
		})
	}

	return detail, nil
}

// RegenerateInvite issues a fresh 8-character invite code, replacing any
// previous one.
func (s *CampaignService) RegenerateInvite(campaignID, userID string) (string, error) {
	if _, err := requireDM(s.db, campaignID, userID); err != nil {
		return "", err
	}

	code := strings.ToUpper(uuid.NewString()[:8])
	err := s.db.Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Update("invite_code", code).Error
	if err != nil {
		return "", err
	}
	return code, nil
}

type JoinResult struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Role         string `json:"role"`
}

func (s *CampaignService) Join(userID, inviteCode string) (*JoinResult, error) {
	var campaign models.Campaign
	err := s.db.Where("invite_code = ?", strings.ToUpper(inviteCode)).First(&campaign).Error
	if err != nil {
		return nil, apperrors.NotFound("INVALID_INVITE_CODE", "No campaign found with that invite code")
	}

	var existing models.CampaignMember
	err = s.db.Where("campaign_id = ? AND user_id = ?", campaign.ID, userID).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("ALREADY_MEMBER", "You are already a member of this campaign")
	}

	member := models.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     userID,
		Role:       models.RolePlayer,
		JoinedAt:   time.Now(),
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}

	return &JoinResult{
		CampaignID:   campaign.ID,
		CampaignName: campaign.Name,
		Role:         models.RolePlayer,
	}, nil
}

// UpdateShowcase edits the campaign landing document. Players may contribute
// only when the DM has opened contributions.
func (s *CampaignService) UpdateShowcase(campaignID, userID string, showcase datatypes.JSON, allowContributions *bool) (*models.Campaign, error) {
	membership, err := requireMembership(s.db, campaignID, userID)
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, apperrors.NotFound("CAMPAIGN_NOT_FOUND", "Campaign not found")
	}

	isDM := membership.Role == models.RoleDM
	if !isDM && !campaign.AllowContributions {
		return nil, apperrors.Forbidden("NOT_AUTHORIZED", "Only the DM or contributors can edit this showcase")
	}

	updates := map[string]interface{}{}
	if showcase != nil {
		updates["showcase_json"] = showcase
	}
	if allowContributions != nil && isDM {
		updates["allow_contributions"] = *allowContributions
	}
	if len(updates) > 0 {
		if err := s.db.Model(&campaign).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return &campaign, nil
}
