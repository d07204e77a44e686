package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Campaign struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"size:2000" json:"description"`
	DMID        string `gorm:"column:dm_id;size:36;not null;index" json:"dm_id"`
	DM          User   `gorm:"foreignKey:DMID;constraint:OnDelete:CASCADE" json:"-"`
	InviteCode  string `gorm:"size:8;uniqueIndex" json:"invite_code,omitempty"`

	// Marker state. MarkerBetween is only meaningful while MarkerSessionID
	// is set and that session has been played.
	MarkerSessionID *string `gorm:"size:36" json:"marker_session_id"`
	MarkerBetween   bool    `gorm:"not null;default:false" json:"marker_between"`

	ShowcaseJSON       datatypes.JSON `gorm:"column:showcase_json" json:"showcase_json,omitempty"`
	AllowContributions bool           `gorm:"not null;default:false" json:"allow_contributions"`

	Members   []CampaignMember `gorm:"foreignKey:CampaignID" json:"members,omitempty"`
	Parts     []Part           `gorm:"foreignKey:CampaignID" json:"parts,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

const (
	RoleDM     = "dm"
	RolePlayer = "player"
)

type CampaignMember struct {
	CampaignID string    `gorm:"primaryKey;size:36" json:"campaign_id"`
	UserID     string    `gorm:"primaryKey;size:36" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Role       string    `gorm:"size:10;not null" json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
}
