package services

import (
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PartService struct {
	db     *gorm.DB
	marker *MarkerService
}

func NewPartService(db *gorm.DB, marker *MarkerService) *PartService {
	return &PartService{db: db, marker: marker}
}

// Tree returns the campaign's parts with their sessions, ordered by sort
// keys. The DM gets the full tree. Players get only visible sessions, and
// parts with no visible session are omitted entirely rather than shown
// empty.
func (s *PartService) Tree(campaignID, userID string) ([]models.Part, error) {
	membership, err := requireMembership(s.db, campaignID, userID)
	if err != nil {
		return nil, err
	}

	var parts []models.Part
	err = s.db.Where("campaign_id = ?", campaignID).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC, id ASC")
		}).
		Order("sort_order ASC, created_at ASC, id ASC").
		Find(&parts).Error
	if err != nil {
		return nil, err
	}

	if membership.Role == models.RoleDM {
		return parts, nil
	}

	visible, err := s.marker.VisibleSessionIDs(campaignID)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Part, 0, len(parts))
	for _, part := range parts {
		sessions := make([]models.Session, 0, len(part.Sessions))
		for _, session := range part.Sessions {
			if visible[session.ID] {
				sessions = append(sessions, session)
			}
		}
		if len(sessions) == 0 {
			continue
		}
		part.Sessions = sessions
		filtered = append(filtered, part)
	}

	return filtered, nil
}

func (s *PartService) CreatePart(campaignID, userID, name string, sortOrder int) (*models.Part, error) {
	if _, err := requireDM(s.db, campaignID, userID); err != nil {
		return nil, err
	}

	part := models.Part{
		CampaignID: campaignID,
		Name:       name,
		SortOrder:  sortOrder,
	}
	if err := s.db.Create(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (s *PartService) UpdatePart(partID, userID string, name *string, sortOrder *int) (*models.Part, error) {
	part, campaign, err := campaignForPart(s.db, partID)
	if err != nil {
		return nil, err
	}
	if _, err := requireDM(s.db, campaign.ID, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if sortOrder != nil {
		updates["sort_order"] = *sortOrder
	}
	if len(updates) > 0 {
		if err := s.db.Model(part).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return part, nil
}

// DeletePart removes a part and all its sessions.
func (s *PartService) DeletePart(partID, userID string) error {
	part, campaign, err := campaignForPart(s.db, partID)
	if err != nil {
		return err
	}
	if _, err := requireDM(s.db, campaign.ID, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("part_id = ?", partID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(part).Error
	})
}

func (s *PartService) UpdatePartShowcase(partID, userID string, showcase datatypes.JSON, allowContributions *bool) (*models.Part, error) {
	part, campaign, err := campaignForPart(s.db, partID)
	if err != nil {
		return nil, err
	}
	membership, err := requireMembership(s.db, campaign.ID, userID)
	if err != nil {
		return nil, err
	}

	isDM := membership.Role == models.RoleDM
	isOwner := part.ShowcaseOwnerID != nil && *part.ShowcaseOwnerID == userID
	if !isDM && !isOwner && !part.AllowContributions {
		return nil, apperrors.Forbidden("NOT_AUTHORIZED", "Only the owner, DM, or contributors can edit this showcase")
	}

	updates := map[string]interface{}{}
	if showcase != nil {
		updates["showcase_json"] = showcase
	}
	if allowContributions != nil && isDM {
		updates["allow_contributions"] = *allowContributions
	}
	if len(updates) > 0 {
		if err := s.db.Model(part).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return part, nil
}

func (s *PartService) CreateSession(partID, userID, name string, sortOrder int) (*models.Session, error) {
	_, campaign, err := campaignForPart(s.db, partID)
	if err != nil {
		return nil, err
	}
	if _, err := requireDM(s.db, campaign.ID, userID); err != nil {
		return nil, err
	}

	session := models.Session{
		PartID:          partID,
		Name:            name,
		Status:          models.SessionStatusPlanned,
		SortOrder:       sortOrder,
		ShowcaseOwnerID: &userID,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PartService) UpdateSession(sessionID, userID string, name *string, sortOrder *int, status *string) (*models.Session, error) {
	session, campaign, err := campaignForSession(s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := requireDM(s.db, campaign.ID, userID); err != nil {
		return nil, err
	}

	if status != nil && *status != models.SessionStatusPlanned && *status != models.SessionStatusPlayed {
		return nil, apperrors.BadRequest("VALIDATION_ERROR", "Status must be planned or played")
	}

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if sortOrder != nil {
		updates["sort_order"] = *sortOrder
	}
	if status != nil {
		updates["status"] = *status
	}
	if len(updates) > 0 {
		if err := s.db.Model(session).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *PartService) DeleteSession(sessionID, userID string) error {
	session, campaign, err := campaignForSession(s.db, sessionID)
	if err != nil {
		return err
	}
	if _, err := requireDM(s.db, campaign.ID, userID); err != nil {
		return err
	}
	return s.db.Delete(session).Error
}

func (s *PartService) UpdateSessionShowcase(sessionID, userID string, showcase datatypes.JSON, allowContributions *bool) (*models.Session, error) {
	session, campaign, err := campaignForSession(s.db, sessionID)
	if err != nil {
		return nil, err
	}
	membership, err := requireMembership(s.db, campaign.ID, userID)
	if err != nil {
		return nil, err
	}

	isDM := membership.Role == models.RoleDM
	isOwner := session.ShowcaseOwnerID != nil && *session.ShowcaseOwnerID == userID
	if !isDM && !isOwner && !session.AllowContributions {
		return nil, apperrors.Forbidden("NOT_AUTHORIZED", "Only the owner, DM, or contributors can edit this showcase")
	}

	updates := map[string]interface{}{}
	if showcase != nil {
		updates["showcase_json"] = showcase
	}
	if allowContributions != nil && isDM {
		updates["allow_contributions"] = *allowContributions
	}
	if len(updates) > 0 {
		if err := s.db.Model(session).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return session, nil
}
