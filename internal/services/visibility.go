package services

import (
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"
)

// EffectiveVisibility computes what a lore fragment's visibility currently
// is. Non-story fragments keep their stored, manually managed visibility.
// Story fragments become public the moment the marker reaches their session
// or part, and stay private until then; their stored visibility is ignored.
func EffectiveVisibility(fragment *models.LoreFragment, reachedSessionIDs, reachedPartIDs map[string]bool) string {
	if fragment.Scope != models.LoreScopeStory {
		return fragment.Visibility
	}

	if fragment.SessionID != nil && reachedSessionIDs[*fragment.SessionID] {
		return models.LoreVisibilityPublic
	}
	if fragment.PartID != nil && reachedPartIDs[*fragment.PartID] {
		return models.LoreVisibilityPublic
	}

	return models.LoreVisibilityPrivate
}

// CanViewFragment reports whether a user may read a fragment given its
// effective visibility. The DM and the owner always can.
func CanViewFragment(fragment *models.LoreFragment, userID string, isDM bool, effectiveVisibility string, shareUserIDs map[string]bool) bool {
	if isDM {
		return true
	}
	if fragment.OwnerID == userID {
		return true
	}
	if effectiveVisibility == models.LoreVisibilityPublic {
		return true
	}
	if effectiveVisibility == models.LoreVisibilityShared && shareUserIDs[userID] {
		return true
	}
	return false
}
