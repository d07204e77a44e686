package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Part struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	CampaignID string `gorm:"size:36;not null;index" json:"campaign_id"`
	Name       string `gorm:"size:200;not null" json:"name"`
	SortOrder  int    `gorm:"not null" json:"sort_order"`

	ShowcaseJSON       datatypes.JSON `gorm:"column:showcase_json" json:"showcase_json,omitempty"`
	ShowcaseOwnerID    *string        `gorm:"size:36" json:"showcase_owner_id,omitempty"`
	AllowContributions bool           `gorm:"not null;default:false" json:"allow_contributions"`

	Sessions  []Session `gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE" json:"sessions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Part) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
