package services

import (
	"testing"
	"time"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.Part{},
		&models.Session{},
		&models.LoreFragment{},
		&models.LoreFragmentShare{},
		&models.InvestigationTrack{},
		&models.TrackMilestone{},
		&models.PlayerTrackProgress{},
	)
	require.NoError(t, err)

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createCampaign(t *testing.T, db *gorm.DB, dm *models.User) *models.Campaign {
	t.Helper()

	campaign := models.Campaign{
		Name:       "The Sunken Citadel",
		DMID:       dm.ID,
		InviteCode: "TEST" + dm.ID[:4],
	}
	require.NoError(t, db.Create(&campaign).Error)
	require.NoError(t, db.Create(&models.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     dm.ID,
		Role:       models.RoleDM,
		JoinedAt:   time.Now(),
	}).Error)
	return &campaign
}

func addPlayer(t *testing.T, db *gorm.DB, campaign *models.Campaign, user *models.User) {
	t.Helper()

	require.NoError(t, db.Create(&models.CampaignMember{
		CampaignID: campaign.ID,
		UserID:     user.ID,
		Role:       models.RolePlayer,
		JoinedAt:   time.Now(),
	}).Error)
}

func createPart(t *testing.T, db *gorm.DB, campaign *models.Campaign, name string, sortOrder int) *models.Part {
	t.Helper()

	part := models.Part{
		CampaignID: campaign.ID,
		Name:       name,
		SortOrder:  sortOrder,
	}
	require.NoError(t, db.Create(&part).Error)
	return &part
}

func createSession(t *testing.T, db *gorm.DB, part *models.Part, name string, sortOrder int) *models.Session {
	t.Helper()

	session := models.Session{
		PartID:    part.ID,
		Name:      name,
		Status:    models.SessionStatusPlanned,
		SortOrder: sortOrder,
	}
	require.NoError(t, db.Create(&session).Error)
	return &session
}
