package database

import (
	"fmt"
	"log"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/config"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
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
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}
