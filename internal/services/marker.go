package services

import (
	"time"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/gorm"
)

// MarkerService owns the campaign timeline: the total session order, the
// narrative marker and the player-visible subsets derived from it. All state
// is read fresh from the store on every call; nothing is cached between
// requests.
type MarkerService struct {
	db *gorm.DB
}

func NewMarkerService(db *gorm.DB) *MarkerService {
	return &MarkerService{db: db}
}

// SessionRef is one entry of a campaign's total session order.
type SessionRef struct {
	SessionID string `json:"session_id"`
	PartID    string `json:"part_id"`
	Status    string `json:"status"`
}

// TotalOrder returns every session of the campaign ordered by
// (part sort_order, session sort_order). Sessions sharing identical sort
// keys are ordered by creation time then id, which keeps the order total
// and deterministic.
func (s *MarkerService) TotalOrder(campaignID string) ([]SessionRef, error) {
	var refs []SessionRef
	err := s.db.Model(&models.Session{}).
		Select("sessions.id AS session_id, sessions.part_id AS part_id, sessions.status AS status").
		Joins("JOIN parts ON parts.id = sessions.part_id").
		Where("parts.campaign_id = ?", campaignID).
		Order("parts.sort_order ASC, sessions.sort_order ASC, sessions.created_at ASC, sessions.id ASC").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// reachedPrefix returns the prefix of order up to and including the marker
// session. An unknown marker id yields an empty prefix.
func reachedPrefix(order []SessionRef, markerSessionID string) []SessionRef {
	for i, ref := range order {
		if ref.SessionID == markerSessionID {
			return order[:i+1]
		}
	}
	return nil
}

// visibleRefs returns the sessions a player may see: the reached prefix,
// plus the single upcoming session while the campaign is between sessions.
func visibleRefs(order []SessionRef, markerSessionID string, between bool) []SessionRef {
	prefix := reachedPrefix(order, markerSessionID)
	if prefix == nil {
		return nil
	}
	if between && len(prefix) < len(order) {
		return order[:len(prefix)+1]
	}
	return prefix
}

func (s *MarkerService) campaign(campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, apperrors.NotFound("CAMPAIGN_NOT_FOUND", "Campaign not found")
	}
	return &campaign, nil
}

// ReachedSessionIDs is the set of sessions at or before the marker. It
// drives story-scope lore publication and never includes the upcoming
// session of the between-state.
func (s *MarkerService) ReachedSessionIDs(campaignID string) (map[string]bool, error) {
	campaign, err := s.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.MarkerSessionID == nil {
		return map[string]bool{}, nil
	}

	order, err := s.TotalOrder(campaignID)
	if err != nil {
		return nil, err
	}

	reached := map[string]bool{}
	for _, ref := range reachedPrefix(order, *campaign.MarkerSessionID) {
		reached[ref.SessionID] = true
	}
	return reached, nil
}

// ReachedPartIDs is the set of parts owning at least one reached session.
func (s *MarkerService) ReachedPartIDs(campaignID string) (map[string]bool, error) {
	campaign, err := s.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.MarkerSessionID == nil {
		return map[string]bool{}, nil
	}

	order, err := s.TotalOrder(campaignID)
	if err != nil {
		return nil, err
	}

	parts := map[string]bool{}
	for _, ref := range reachedPrefix(order, *campaign.MarkerSessionID) {
		parts[ref.PartID] = true
	}
	return parts, nil
}

// VisibleSessionIDs is the player-facing set: reached sessions, plus the
// single upcoming session while between sessions. The DM never goes through
// this filter.
func (s *MarkerService) VisibleSessionIDs(campaignID string) (map[string]bool, error) {
	campaign, err := s.campaign(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.MarkerSessionID == nil {
		return map[string]bool{}, nil
	}

	order, err := s.TotalOrder(campaignID)
	if err != nil {
		return nil, err
	}

	visible := map[string]bool{}
	for _, ref := range visibleRefs(order, *campaign.MarkerSessionID, campaign.MarkerBetween) {
		visible[ref.SessionID] = true
	}
	return visible, nil
}

// SetMarker moves the campaign marker. A nil sessionID clears it back to
// preparation. Otherwise the target must belong to the campaign; with
// between=true it must already be played, with between=false it is marked
// played. Every session ordered strictly before the target is also marked
// played, so the reached set is always a prefix of played sessions. All
// validation happens before any write, and the cascade plus the campaign
// update run in a single transaction.
func (s *MarkerService) SetMarker(campaignID, userID string, sessionID *string, between bool) (*models.Campaign, error) {
	if _, err := requireDM(s.db, campaignID, userID); err != nil {
		return nil, err
	}

	campaign, err := s.campaign(campaignID)
	if err != nil {
		return nil, err
	}

	if sessionID == nil {
		err := s.db.Model(campaign).Updates(map[string]interface{}{
			"marker_session_id": nil,
			"marker_between":    false,
			"updated_at":        time.Now(),
		}).Error
		if err != nil {
			return nil, err
		}
		return s.campaign(campaignID)
	}

	order, err := s.TotalOrder(campaignID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, ref := range order {
		if ref.SessionID == *sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, apperrors.BadRequest("SESSION_NOT_IN_CAMPAIGN", "Session does not belong to this campaign")
	}

	if between && order[idx].Status != models.SessionStatusPlayed {
		return nil, apperrors.BadRequest("SESSION_NOT_PLAYED", "Cannot rest between sessions on a session that has not been played")
	}

	// Everything up to the target must end up played. With between=true the
	// target already is; with between=false it is included in the sweep.
	var toPlay []string
	for i := 0; i < idx; i++ {
		if order[i].Status != models.SessionStatusPlayed {
			toPlay = append(toPlay, order[i].SessionID)
		}
	}
	if !between && order[idx].Status != models.SessionStatusPlayed {
		toPlay = append(toPlay, order[idx].SessionID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(toPlay) > 0 {
			err := tx.Model(&models.Session{}).
				Where("id IN ?", toPlay).
				Update("status", models.SessionStatusPlayed).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(campaign).Updates(map[string]interface{}{
			"marker_session_id": *sessionID,
			"marker_between":    between,
			"updated_at":        time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.campaign(campaignID)
}
