package services

import (
	"testing"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type loreFixture struct {
	db       *gorm.DB
	svc      *LoreService
	marker   *MarkerService
	dm       *models.User
	player   *models.User
	player2  *models.User
	campaign *models.Campaign
	part     *models.Part
	s1, s2   *models.Session
}

func newLoreFixture(t *testing.T) *loreFixture {
	t.Helper()

	db := testDB(t)
	marker := NewMarkerService(db)
	svc := NewLoreService(db, marker)

	dm := createUser(t, db, "dm")
	campaign := createCampaign(t, db, dm)
	player := createUser(t, db, "player")
	player2 := createUser(t, db, "player2")
	addPlayer(t, db, campaign, player)
	addPlayer(t, db, campaign, player2)

	part := createPart(t, db, campaign, "Part A", 1)
	s1 := createSession(t, db, part, "Session 1", 1)
	s2 := createSession(t, db, part, "Session 2", 2)

	return &loreFixture{
		db: db, svc: svc, marker: marker,
		dm: dm, player: player, player2: player2,
		campaign: campaign, part: part, s1: s1, s2: s2,
	}
}

func TestCreateLoreRejectsMultipleAttachments(t *testing.T) {
	fx := newLoreFixture(t)

	_, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:     "Bad",
		Scope:     models.LoreScopePrivate,
		PartID:    &fx.part.ID,
		SessionID: &fx.s1.ID,
	})
	requireAPIError(t, err, "INVALID_ATTACHMENT", 400)
}

func TestCreateLoreStoryRequiresTreeAttachment(t *testing.T) {
	fx := newLoreFixture(t)

	_, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "Floating story",
		Scope: models.LoreScopeStory,
	})
	requireAPIError(t, err, "INVALID_SCOPE", 400)

	// A player attachment does not satisfy story scope either.
	_, err = fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:    "On a player",
		Scope:    models.LoreScopeStory,
		PlayerID: &fx.player.ID,
	})
	requireAPIError(t, err, "INVALID_SCOPE", 400)
}

func TestCreateLoreStoryForcesPrivateStorage(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:      "Chronicle",
		Scope:      models.LoreScopeStory,
		Visibility: models.LoreVisibilityPublic,
		SessionID:  &fx.s1.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LoreVisibilityPrivate, fragment.Visibility)
}

func TestCreateLorePlayerCannotAttachToHiddenSession(t *testing.T) {
	fx := newLoreFixture(t)

	// No marker set, nothing is visible to players yet.
	_, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title:     "Sneaky",
		Scope:     models.LoreScopePrivate,
		SessionID: &fx.s1.ID,
	})
	requireAPIError(t, err, "SESSION_NOT_VISIBLE", 403)

	_, err = fx.marker.SetMarker(fx.campaign.ID, fx.dm.ID, &fx.s1.ID, false)
	require.NoError(t, err)

	_, err = fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title:     "Now fine",
		Scope:     models.LoreScopePrivate,
		SessionID: &fx.s1.ID,
	})
	require.NoError(t, err)
}

func TestCreateLoreRejectsForeignAttachment(t *testing.T) {
	fx := newLoreFixture(t)

	otherDM := createUser(t, fx.db, "other-dm")
	otherCampaign := createCampaign(t, fx.db, otherDM)
	otherPart := createPart(t, fx.db, otherCampaign, "Elsewhere", 1)
	foreign := createSession(t, fx.db, otherPart, "Foreign", 1)

	_, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:     "Cross-campaign",
		Scope:     models.LoreScopePrivate,
		SessionID: &foreign.ID,
	})
	requireAPIError(t, err, "SESSION_NOT_IN_CAMPAIGN", 400)
}

func TestStoryLoreBecomesPublicWhenReached(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:     "What happened in session one",
		Scope:     models.LoreScopeStory,
		SessionID: &fx.s1.ID,
	})
	require.NoError(t, err)

	// Before the marker arrives the player cannot see it at all.
	_, err = fx.svc.Get(fragment.ID, fx.player.ID)
	requireAPIError(t, err, "LORE_NOT_FOUND", 404)

	_, err = fx.marker.SetMarker(fx.campaign.ID, fx.dm.ID, &fx.s1.ID, false)
	require.NoError(t, err)

	view, err := fx.svc.Get(fragment.ID, fx.player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoreVisibilityPublic, view.EffectiveVisibility)
}

func TestStoryLoreOnUpcomingSessionStaysPrivate(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:     "Spoilers for session two",
		Scope:     models.LoreScopeStory,
		SessionID: &fx.s2.ID,
	})
	require.NoError(t, err)

	// Downtime after session 1 previews session 2 in the tree, but the
	// fragment attached to it is not published yet.
	_, err = fx.marker.SetMarker(fx.campaign.ID, fx.dm.ID, &fx.s1.ID, false)
	require.NoError(t, err)
	_, err = fx.marker.SetMarker(fx.campaign.ID, fx.dm.ID, &fx.s1.ID, true)
	require.NoError(t, err)

	// Previewed is not reached: the fragment stays private, so the player
	// still cannot read it even though the session title is visible.
	_, err = fx.svc.Get(fragment.ID, fx.player.ID)
	requireAPIError(t, err, "LORE_NOT_FOUND", 404)

	dmView, err := fx.svc.Get(fragment.ID, fx.dm.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoreVisibilityPrivate, dmView.EffectiveVisibility)
}

func TestShareUpgradesPrivateToShared(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "My notes",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LoreVisibilityPrivate, fragment.Visibility)

	sharedWith, err := fx.svc.Share(fragment.ID, fx.player.ID, []string{fx.player2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{fx.player2.ID}, sharedWith)

	var fresh models.LoreFragment
	require.NoError(t, fx.db.First(&fresh, "id = ?", fragment.ID).Error)
	assert.Equal(t, models.LoreVisibilityShared, fresh.Visibility)

	// The grantee can now read it.
	view, err := fx.svc.Get(fragment.ID, fx.player2.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoreVisibilityShared, view.EffectiveVisibility)
}

func TestShareIsIdempotent(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "My notes",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	_, err = fx.svc.Share(fragment.ID, fx.player.ID, []string{fx.player2.ID})
	require.NoError(t, err)
	sharedWith, err := fx.svc.Share(fragment.ID, fx.player.ID, []string{fx.player2.ID})
	require.NoError(t, err)
	assert.Len(t, sharedWith, 1)
}

func TestUnshareLastGrantDowngradesToPrivate(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "My notes",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	_, err = fx.svc.Share(fragment.ID, fx.player.ID, []string{fx.player2.ID, fx.dm.ID})
	require.NoError(t, err)

	remaining, err := fx.svc.Unshare(fragment.ID, fx.player.ID, fx.dm.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	var fresh models.LoreFragment
	require.NoError(t, fx.db.First(&fresh, "id = ?", fragment.ID).Error)
	assert.Equal(t, models.LoreVisibilityShared, fresh.Visibility)

	remaining, err = fx.svc.Unshare(fragment.ID, fx.player.ID, fx.player2.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.NoError(t, fx.db.First(&fresh, "id = ?", fragment.ID).Error)
	assert.Equal(t, models.LoreVisibilityPrivate, fresh.Visibility)
}

func TestShareRequiresOwner(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "My notes",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	_, err = fx.svc.Share(fragment.ID, fx.player2.ID, []string{fx.dm.ID})
	requireAPIError(t, err, "NOT_OWNER", 403)
}

func TestShareRejectsNonMember(t *testing.T) {
	fx := newLoreFixture(t)
	outsider := createUser(t, fx.db, "outsider")

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "My notes",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	_, err = fx.svc.Share(fragment.ID, fx.player.ID, []string{outsider.ID})
	requireAPIError(t, err, "USER_NOT_IN_CAMPAIGN", 400)
}

func TestUpdateLoreVisibilityLockedForStory(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:     "Chronicle",
		Scope:     models.LoreScopeStory,
		SessionID: &fx.s1.ID,
	})
	require.NoError(t, err)

	public := models.LoreVisibilityPublic
	_, err = fx.svc.Update(fragment.ID, fx.dm.ID, UpdateLoreInput{Visibility: &public})
	requireAPIError(t, err, "VISIBILITY_LOCKED", 400)
}

func TestUpdateLoreScopeToStoryResetsVisibility(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title:      "Notes",
		Scope:      models.LoreScopePrivate,
		Visibility: models.LoreVisibilityPublic,
		SessionID:  &fx.s1.ID,
	})
	require.NoError(t, err)

	story := models.LoreScopeStory
	_, err = fx.svc.Update(fragment.ID, fx.dm.ID, UpdateLoreInput{Scope: &story})
	require.NoError(t, err)

	var fresh models.LoreFragment
	require.NoError(t, fx.db.First(&fresh, "id = ?", fragment.ID).Error)
	assert.Equal(t, models.LoreScopeStory, fresh.Scope)
	assert.Equal(t, models.LoreVisibilityPrivate, fresh.Visibility)
}

func TestUpdateLoreOnlyOwner(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "Mine",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	title := "Taken over"
	_, err = fx.svc.Update(fragment.ID, fx.dm.ID, UpdateLoreInput{Title: &title})
	requireAPIError(t, err, "NOT_OWNER", 403)
}

func TestDeleteLoreByOwnerOrDM(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "Mine",
		Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)

	err = fx.svc.Delete(fragment.ID, fx.player2.ID)
	requireAPIError(t, err, "NOT_OWNER", 403)

	require.NoError(t, fx.svc.Delete(fragment.ID, fx.dm.ID))

	_, err = fx.svc.Get(fragment.ID, fx.dm.ID)
	requireAPIError(t, err, "LORE_NOT_FOUND", 404)
}

func TestListLoreFiltersByViewer(t *testing.T) {
	fx := newLoreFixture(t)

	_, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "DM secret", Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)
	_, err = fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "Public handout", Scope: models.LoreScopePrivate, Visibility: models.LoreVisibilityPublic,
	})
	require.NoError(t, err)
	_, err = fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "Unreached chronicle", Scope: models.LoreScopeStory, SessionID: &fx.s2.ID,
	})
	require.NoError(t, err)

	dmViews, err := fx.svc.List(fx.campaign.ID, fx.dm.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, dmViews, 3)

	playerViews, err := fx.svc.List(fx.campaign.ID, fx.player.ID, "", "")
	require.NoError(t, err)
	require.Len(t, playerViews, 1)
	assert.Equal(t, "Public handout", playerViews[0].Title)
}

func TestListLoreAttachmentFilters(t *testing.T) {
	fx := newLoreFixture(t)

	_, err := fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "Campaign level", Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)
	_, err = fx.svc.Create(fx.campaign.ID, fx.dm.ID, CreateLoreInput{
		Title: "On part", Scope: models.LoreScopePrivate, PartID: &fx.part.ID,
	})
	require.NoError(t, err)

	views, err := fx.svc.List(fx.campaign.ID, fx.dm.ID, "campaign", "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Campaign level", views[0].Title)

	views, err = fx.svc.List(fx.campaign.ID, fx.dm.ID, "part", fx.part.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "On part", views[0].Title)
}

func TestGetLoreSharedWithOnlyForOwnerAndDM(t *testing.T) {
	fx := newLoreFixture(t)

	fragment, err := fx.svc.Create(fx.campaign.ID, fx.player.ID, CreateLoreInput{
		Title: "Mine", Scope: models.LoreScopePrivate,
	})
	require.NoError(t, err)
	_, err = fx.svc.Share(fragment.ID, fx.player.ID, []string{fx.player2.ID})
	require.NoError(t, err)

	ownerView, err := fx.svc.Get(fragment.ID, fx.player.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fx.player2.ID}, ownerView.SharedWith)

	granteeView, err := fx.svc.Get(fragment.ID, fx.player2.ID)
	require.NoError(t, err)
	assert.Nil(t, granteeView.SharedWith)
}
