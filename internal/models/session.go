package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	PartID    string `gorm:"size:36;not null;index" json:"part_id"`
	Name      string `gorm:"size:200;not null" json:"name"`
	Status    string `gorm:"size:10;not null;default:'planned'" json:"status"`
	SortOrder int    `gorm:"not null" json:"sort_order"`

	ShowcaseJSON       datatypes.JSON `gorm:"column:showcase_json" json:"showcase_json,omitempty"`
	ShowcaseOwnerID    *string        `gorm:"size:36" json:"showcase_owner_id,omitempty"`
	AllowContributions bool           `gorm:"not null;default:false" json:"allow_contributions"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

const (
	SessionStatusPlanned = "planned"
	SessionStatusPlayed  = "played"
)
