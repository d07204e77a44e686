package services

import (
	"time"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoreService struct {
	db     *gorm.DB
	marker *MarkerService
}

func NewLoreService(db *gorm.DB, marker *MarkerService) *LoreService {
	return &LoreService{db: db, marker: marker}
}

type CreateLoreInput struct {
	Title       string
	ContentJSON datatypes.JSON
	Scope       string
	Visibility  string
	PartID      *string
	SessionID   *string
	PlayerID    *string
}

// LoreFragmentView is a fragment annotated with its computed effective
// visibility. SharedWith is only populated for the owner and the DM.
type LoreFragmentView struct {
	models.LoreFragment
	EffectiveVisibility string   `json:"effective_visibility"`
	SharedWith          []string `json:"shared_with,omitempty"`
}

func (s *LoreService) fragment(fragmentID string) (*models.LoreFragment, error) {
	var fragment models.LoreFragment
	if err := s.db.First(&fragment, "id = ?", fragmentID).Error; err != nil {
		return nil, apperrors.NotFound("LORE_NOT_FOUND", "Lore fragment not found")
	}
	return &fragment, nil
}

func (s *LoreService) shareUserIDs(fragmentID string) (map[string]bool, error) {
	var shares []models.LoreFragmentShare
	if err := s.db.Where("fragment_id = ?", fragmentID).Find(&shares).Error; err != nil {
		return nil, err
	}
	ids := map[string]bool{}
	for _, share := range shares {
		ids[share.UserID] = true
	}
	return ids, nil
}

func (s *LoreService) Create(campaignID, userID string, input CreateLoreInput) (*models.LoreFragment, error) {
	membership, err := requireMembership(s.db, campaignID, userID)
	if err != nil {
		return nil, err
	}
	isDM := membership.Role == models.RoleDM

	attachments := 0
	for _, id := range []*string{input.PartID, input.SessionID, input.PlayerID} {
		if id != nil && *id != "" {
			attachments++
		}
	}
	if attachments > 1 {
		return nil, apperrors.BadRequest("INVALID_ATTACHMENT",
			"A lore fragment can only be attached to one node (part, session, or player)")
	}

	if input.Scope == models.LoreScopeStory && input.SessionID == nil && input.PartID == nil {
		return nil, apperrors.BadRequest("INVALID_SCOPE",
			"Story scope is only allowed on fragments attached to sessions or parts")
	}

	// Players may only attach lore to content they can currently see.
	if !isDM && (input.SessionID != nil || input.PartID != nil) {
		visible, err := s.marker.VisibleSessionIDs(campaignID)
		if err != nil {
			return nil, err
		}
		if input.SessionID != nil && !visible[*input.SessionID] {
			return nil, apperrors.Forbidden("SESSION_NOT_VISIBLE",
				"You cannot add lore to a session that is not visible to you")
		}
		if input.PartID != nil {
			var sessions []models.Session
			if err := s.db.Where("part_id = ?", *input.PartID).Find(&sessions).Error; err != nil {
				return nil, err
			}
			hasVisible := false
			for _, session := range sessions {
				if visible[session.ID] {
					hasVisible = true
					break
				}
			}
			if !hasVisible {
				return nil, apperrors.Forbidden("PART_NOT_VISIBLE",
					"You cannot add lore to a part that is not visible to you")
			}
		}
	}

	if input.SessionID != nil {
		_, campaign, err := campaignForSession(s.db, *input.SessionID)
		if err != nil {
			return nil, err
		}
		if campaign.ID != campaignID {
			return nil, apperrors.BadRequest("SESSION_NOT_IN_CAMPAIGN", "Session does not belong to this campaign")
		}
	}

	if input.PartID != nil {
		_, campaign, err := campaignForPart(s.db, *input.PartID)
		if err != nil {
			return nil, err
		}
		if campaign.ID != campaignID {
			return nil, apperrors.BadRequest("PART_NOT_IN_CAMPAIGN", "Part does not belong to this campaign")
		}
	}

	if input.PlayerID != nil {
		if _, err := requireMembership(s.db, campaignID, *input.PlayerID); err != nil {
			return nil, apperrors.BadRequest("PLAYER_NOT_IN_CAMPAIGN", "Player is not a member of this campaign")
		}
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.LoreVisibilityPrivate
	}
	if input.Scope == models.LoreScopeStory {
		// Stored visibility is meaningless for story scope; the marker
		// decides what players see.
		visibility = models.LoreVisibilityPrivate
	}

	fragment := models.LoreFragment{
		CampaignID:  campaignID,
		OwnerID:     userID,
		Title:       input.Title,
		ContentJSON: input.ContentJSON,
		Scope:       input.Scope,
		Visibility:  visibility,
		PartID:      input.PartID,
		SessionID:   input.SessionID,
		PlayerID:    input.PlayerID,
	}
	if err := s.db.Create(&fragment).Error; err != nil {
		return nil, err
	}
	return &fragment, nil
}

// List returns the fragments the caller may see, optionally filtered by
// attachment target, each annotated with its effective visibility.
func (s *LoreService) List(campaignID, userID, attachedTo, attachedID string) ([]LoreFragmentView, error) {
	membership, err := requireMembership(s.db, campaignID, userID)
	if err != nil {
		return nil, err
	}
	isDM := membership.Role == models.RoleDM

	query := s.db.Where("campaign_id = ?", campaignID)
	switch {
	case attachedTo == "campaign":
		query = query.Where("part_id IS NULL AND session_id IS NULL AND player_id IS NULL")
	case attachedTo == "part" && attachedID != "":
		query = query.Where("part_id = ?", attachedID)
	case attachedTo == "session" && attachedID != "":
		query = query.Where("session_id = ?", attachedID)
	case attachedTo == "player" && attachedID != "":
		query = query.Where("player_id = ?", attachedID)
	}

	var fragments []models.LoreFragment
	if err := query.Find(&fragments).Error; err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return []LoreFragmentView{}, nil
	}

	reachedSessions, err := s.marker.ReachedSessionIDs(campaignID)
	if err != nil {
		return nil, err
	}
	reachedParts, err := s.marker.ReachedPartIDs(campaignID)
	if err != nil {
		return nil, err
	}

	var visibleSessions map[string]bool
	if !isDM {
		visibleSessions, err = s.marker.VisibleSessionIDs(campaignID)
		if err != nil {
			return nil, err
		}
	}

	fragmentIDs := make([]string, len(fragments))
	for i, f := range fragments {
		fragmentIDs[i] = f.ID
	}
	var allShares []models.LoreFragmentShare
	if err := s.db.Where("fragment_id IN ?", fragmentIDs).Find(&allShares).Error; err != nil {
		return nil, err
	}
	sharesByFragment := map[string]map[string]bool{}
	for _, share := range allShares {
		if sharesByFragment[share.FragmentID] == nil {
			sharesByFragment[share.FragmentID] = map[string]bool{}
		}
		sharesByFragment[share.FragmentID][share.UserID] = true
	}

	views := make([]LoreFragmentView, 0, len(fragments))
	for i := range fragments {
		f := fragments[i]

		// Players never see fragments hanging off sessions hidden from them,
		// regardless of fragment-level visibility.
		if !isDM && f.SessionID != nil && !visibleSessions[*f.SessionID] {
			continue
		}

		effVis := EffectiveVisibility(&f, reachedSessions, reachedParts)
		if !CanViewFragment(&f, userID, isDM, effVis, sharesByFragment[f.ID]) {
			continue
		}

		views = append(views, LoreFragmentView{
			LoreFragment:        f,
			EffectiveVisibility: effVis,
		})
	}

	return views, nil
}

func (s *LoreService) Get(fragmentID, userID string) (*LoreFragmentView, error) {
	fragment, err := s.fragment(fragmentID)
	if err != nil {
		return nil, err
	}
	membership, err := requireMembership(s.db, fragment.CampaignID, userID)
	if err != nil {
		return nil, err
	}
	isDM := membership.Role == models.RoleDM

	reachedSessions, err := s.marker.ReachedSessionIDs(fragment.CampaignID)
	if err != nil {
		return nil, err
	}
	reachedParts, err := s.marker.ReachedPartIDs(fragment.CampaignID)
	if err != nil {
		return nil, err
	}
	effVis := EffectiveVisibility(fragment, reachedSessions, reachedParts)

	if !isDM && fragment.SessionID != nil {
		visible, err := s.marker.VisibleSessionIDs(fragment.CampaignID)
		if err != nil {
			return nil, err
		}
		if !visible[*fragment.SessionID] {
			return nil, apperrors.NotFound("LORE_NOT_FOUND", "Lore fragment not found")
		}
	}

	shareIDs, err := s.shareUserIDs(fragmentID)
	if err != nil {
		return nil, err
	}

	if !CanViewFragment(fragment, userID, isDM, effVis, shareIDs) {
		return nil, apperrors.NotFound("LORE_NOT_FOUND", "Lore fragment not found")
	}

	view := &LoreFragmentView{LoreFragment: *fragment, EffectiveVisibility: effVis}
	if fragment.OwnerID == userID || isDM {
		view.SharedWith = make([]string, 0, len(shareIDs))
		for id := range shareIDs {
			view.SharedWith = append(view.SharedWith, id)
		}
	}
	return view, nil
}

type UpdateLoreInput struct {
	Title       *string
	ContentJSON datatypes.JSON
	Scope       *string
	Visibility  *string
}

func (s *LoreService) Update(fragmentID, userID string, input UpdateLoreInput) (*models.LoreFragment, error) {
	fragment, err := s.fragment(fragmentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(s.db, fragment.CampaignID, userID); err != nil {
		return nil, err
	}
	if fragment.OwnerID != userID {
		return nil, apperrors.Forbidden("NOT_OWNER", "Only the owner can edit this lore fragment")
	}

	if input.Scope != nil && *input.Scope == models.LoreScopeStory &&
		fragment.SessionID == nil && fragment.PartID == nil {
		return nil, apperrors.BadRequest("INVALID_SCOPE",
			"Story scope is only allowed on fragments attached to sessions or parts")
	}

	effectiveScope := fragment.Scope
	if input.Scope != nil {
		effectiveScope = *input.Scope
	}
	if effectiveScope == models.LoreScopeStory && input.Visibility != nil {
		return nil, apperrors.BadRequest("VISIBILITY_LOCKED",
			"Visibility cannot be manually set for story-scope fragments")
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.ContentJSON != nil {
		updates["content_json"] = input.ContentJSON
	}
	if input.Scope != nil {
		updates["scope"] = *input.Scope
		if *input.Scope == models.LoreScopeStory {
			updates["visibility"] = models.LoreVisibilityPrivate
		}
	}
	if input.Visibility != nil {
		updates["visibility"] = *input.Visibility
	}

	if err := s.db.Model(fragment).Updates(updates).Error; err != nil {
		return nil, err
	}
	return fragment, nil
}

func (s *LoreService) Delete(fragmentID, userID string) error {
	fragment, err := s.fragment(fragmentID)
	if err != nil {
		return err
	}
	membership, err := requireMembership(s.db, fragment.CampaignID, userID)
	if err != nil {
		return err
	}

	if fragment.OwnerID != userID && membership.Role != models.RoleDM {
		return apperrors.Forbidden("NOT_OWNER", "Only the owner or DM can delete this lore fragment")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fragment_id = ?", fragmentID).Delete(&models.LoreFragmentShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(fragment).Error
	})
}

// Share grants read access to the given campaign members. Granting a share
// on a private, non-story fragment upgrades its visibility to shared.
// Re-granting an existing share is a no-op.
func (s *LoreService) Share(fragmentID, userID string, targetUserIDs []string) ([]string, error) {
	fragment, err := s.fragment(fragmentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(s.db, fragment.CampaignID, userID); err != nil {
		return nil, err
	}
	if fragment.OwnerID != userID {
		return nil, apperrors.Forbidden("NOT_OWNER", "Only the owner can share this lore fragment")
	}

	for _, targetID := range targetUserIDs {
		if _, err := requireMembership(s.db, fragment.CampaignID, targetID); err != nil {
			return nil, apperrors.BadRequest("USER_NOT_IN_CAMPAIGN", "User "+targetID+" is not a member of this campaign")
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, targetID := range targetUserIDs {
			share := models.LoreFragmentShare{FragmentID: fragmentID, UserID: targetID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&share).Error; err != nil {
				return err
			}
		}

		if fragment.Visibility == models.LoreVisibilityPrivate && fragment.Scope != models.LoreScopeStory {
			return tx.Model(fragment).Updates(map[string]interface{}{
				"visibility": models.LoreVisibilityShared,
				"updated_at": time.Now(),
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.sharedWith(fragmentID)
}

// Unshare revokes a single grant. Revoking the last share on a shared,
// non-story fragment downgrades its visibility back to private.
func (s *LoreService) Unshare(fragmentID, userID, targetUserID string) ([]string, error) {
	fragment, err := s.fragment(fragmentID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMembership(s.db, fragment.CampaignID, userID); err != nil {
		return nil, err
	}
	if fragment.OwnerID != userID {
		return nil, apperrors.Forbidden("NOT_OWNER", "Only the owner can manage shares for this lore fragment")
	}

	err = s.db.Where("fragment_id = ? AND user_id = ?", fragmentID, targetUserID).
		Delete(&models.LoreFragmentShare{}).Error
	if err != nil {
		return nil, err
	}

	remaining, err := s.sharedWith(fragmentID)
	if err != nil {
		return nil, err
	}

	if len(remaining) == 0 && fragment.Visibility == models.LoreVisibilityShared &&
		fragment.Scope != models.LoreScopeStory {
		err := s.db.Model(fragment).Updates(map[string]interface{}{
			"visibility": models.LoreVisibilityPrivate,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return nil, err
		}
	}

	return remaining, nil
}

func (s *LoreService) sharedWith(fragmentID string) ([]string, error) {
	var shares []models.LoreFragmentShare
	if err := s.db.Where("fragment_id = ?", fragmentID).Find(&shares).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(shares))
	for i, share := range shares {
		ids[i] = share.UserID
	}
	return ids, nil
}
