package services

import (
	"testing"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestEffectiveVisibilityNonStoryKeepsStored(t *testing.T) {
	fragment := &models.LoreFragment{
		Scope:      models.LoreScopePrivate,
		Visibility: models.LoreVisibilityShared,
		SessionID:  strptr("s1"),
	}

	// Stored visibility wins even when the session is reached.
	got := EffectiveVisibility(fragment, map[string]bool{"s1": true}, nil)
	assert.Equal(t, models.LoreVisibilityShared, got)
}

func TestEffectiveVisibilityStoryFollowsMarker(t *testing.T) {
	onSession := &models.LoreFragment{
		Scope:     models.LoreScopeStory,
		SessionID: strptr("s1"),
	}
	onPart := &models.LoreFragment{
		Scope:  models.LoreScopeStory,
		PartID: strptr("p1"),
	}

	assert.Equal(t, models.LoreVisibilityPrivate,
		EffectiveVisibility(onSession, map[string]bool{}, map[string]bool{}))
	assert.Equal(t, models.LoreVisibilityPublic,
		EffectiveVisibility(onSession, map[string]bool{"s1": true}, map[string]bool{}))

	assert.Equal(t, models.LoreVisibilityPrivate,
		EffectiveVisibility(onPart, map[string]bool{}, map[string]bool{}))
	assert.Equal(t, models.LoreVisibilityPublic,
		EffectiveVisibility(onPart, map[string]bool{}, map[string]bool{"p1": true}))
}

func TestEffectiveVisibilityStoryIgnoresStoredValue(t *testing.T) {
	fragment := &models.LoreFragment{
		Scope:      models.LoreScopeStory,
		Visibility: models.LoreVisibilityPublic,
		SessionID:  strptr("s1"),
	}

	got := EffectiveVisibility(fragment, map[string]bool{}, map[string]bool{})
	assert.Equal(t, models.LoreVisibilityPrivate, got)
}

func TestCanViewFragment(t *testing.T) {
	fragment := &models.LoreFragment{OwnerID: "owner"}

	tests := []struct {
		name   string
		userID string
		isDM   bool
		effVis string
		shares map[string]bool
		want   bool
	}{
		{"dm always views", "dm", true, models.LoreVisibilityPrivate, nil, true},
		{"owner always views", "owner", false, models.LoreVisibilityPrivate, nil, true},
		{"public open to members", "stranger", false, models.LoreVisibilityPublic, nil, true},
		{"shared with grant", "friend", false, models.LoreVisibilityShared, map[string]bool{"friend": true}, true},
		{"shared without grant", "stranger", false, models.LoreVisibilityShared, map[string]bool{"friend": true}, false},
		{"private hidden", "stranger", false, models.LoreVisibilityPrivate, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanViewFragment(fragment, tt.userID, tt.isDM, tt.effVis, tt.shares)
			assert.Equal(t, tt.want, got)
		})
	}
}
