package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LoreFragment is a rich-text note scoped to a campaign. It may be attached
// to at most one of a part, a session, or a player; unattached fragments are
// campaign-level. Story-scope fragments always store visibility=private; the
// visibility players actually see is derived from the marker position.
type LoreFragment struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CampaignID  string         `gorm:"size:36;not null;index" json:"campaign_id"`
	OwnerID     string         `gorm:"size:36;not null;index" json:"owner_id"`
	Title       string         `gorm:"size:500;not null" json:"title"`
	ContentJSON datatypes.JSON `gorm:"column:content_json" json:"content_json,omitempty"`
	Scope       string         `gorm:"size:10;not null;default:'private'" json:"scope"`
	Visibility  string         `gorm:"size:10;not null;default:'private'" json:"visibility"`

	PartID    *string `gorm:"size:36;index" json:"part_id,omitempty"`
	SessionID *string `gorm:"size:36;index" json:"session_id,omitempty"`
	PlayerID  *string `gorm:"size:36;index" json:"player_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *LoreFragment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

const (
	LoreScopeStory   = "story"
	LoreScopePrivate = "private"

	LoreVisibilityPrivate = "private"
	LoreVisibilityShared  = "shared"
	LoreVisibilityPublic  = "public"
)

type LoreFragmentShare struct {
	FragmentID string `gorm:"primaryKey;size:36" json:"fragment_id"`
	UserID     string `gorm:"primaryKey;size:36" json:"user_id"`
}
