package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvestigationTrack struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	CampaignID  string `gorm:"size:36;not null;index" json:"campaign_id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"size:2000" json:"description"`

	Milestones []TrackMilestone `gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE" json:"milestones,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (t *InvestigationTrack) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type TrackMilestone struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	TrackID     string `gorm:"size:36;not null;index" json:"track_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Threshold   int    `gorm:"not null" json:"threshold"`
	Description string `gorm:"size:2000" json:"description"`
}

func (m *TrackMilestone) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type PlayerTrackProgress struct {
	PlayerID  string    `gorm:"primaryKey;size:36" json:"player_id"`
	TrackID   string    `gorm:"primaryKey;size:36" json:"track_id"`
	Progress  int       `gorm:"not null;default:0" json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}
