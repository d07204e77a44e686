package services

import (
	"time"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/apperrors"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrackService struct {
	db *gorm.DB
}

func NewTrackService(db *gorm.DB) *TrackService {
	return &TrackService{db: db}
}

type MilestoneInput struct {
	Title       string `json:"title" binding:"required,min=1,max=200"`
	Threshold   int    `json:"threshold" binding:"required,min=1"`
	Description string `json:"description" binding:"max=2000"`
}

type PlayerProgress struct {
	PlayerID    string    `json:"player_id"`
	Progress    int       `json:"progress"`
	UpdatedAt   time.Time `json:"updated_at"`
	DisplayName string    `json:"display_name"`
}

type TrackSummary struct {
	models.InvestigationTrack
	MilestoneCount int              `json:"milestone_count"`
	MaxThreshold   int              `json:"max_threshold"`
	PlayerProgress []PlayerProgress `json:"player_progress"`
}

type TrackDetail struct {
	models.InvestigationTrack
	Role           string           `json:"role"`
	PlayerProgress []PlayerProgress `json:"player_progress"`
}

func (s *TrackService) Create(campaignID, userID, name, description string, milestones []MilestoneInput) (*models.InvestigationTrack, error) {
	if _, err := requireDM(s.db, campaignID, userID); err != nil {
		return nil, err
	}

	track := models.InvestigationTrack{
		CampaignID:  campaignID,
		Name:        name,
		Description: description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&track).Error; err != nil {
			return err
		}
		for _, m := range milestones {
			milestone := models.TrackMilestone{
				TrackID:     track.ID,
				Title:       m.Title,
				Threshold:   m.Threshold,
				Description: m.Description,
			}
			if err := tx.Create(&milestone).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("threshold ASC")
	}).First(&track, "id = ?", track.ID)
	return &track, nil
}

func (s *TrackService) ListForCampaign(campaignID, userID string) ([]TrackSummary, error) {
	if _, err := requireMembership(s.db, campaignID, userID); err != nil {
		return nil, err
	}

	var tracks []models.InvestigationTrack
	err := s.db.Where("campaign_id = ?", campaignID).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("threshold ASC")
		}).
		Order("created_at ASC").
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]TrackSummary, 0, len(tracks))
	for _, track := range tracks {
		maxThreshold := 0
		for _, m := range track.Milestones {
			if m.Threshold > maxThreshold {
				maxThreshold = m.Threshold
			}
		}

		progress, err := s.progressForTrack(track.ID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, TrackSummary{
			InvestigationTrack: track,
			MilestoneCount:     len(track.Milestones),
			MaxThreshold:       maxThreshold,
			PlayerProgress:     progress,
		})
	}

	return summaries, nil
}

func (s *TrackService) Get(trackID, userID string) (*TrackDetail, error) {
	var track models.InvestigationTrack
	err := s.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("threshold ASC")
	}).First(&track, "id = ?", trackID).Error
	if err != nil {
		return nil, apperrors.NotFound("TRACK_NOT_FOUND", "Investigation track not found")
	}

	membership, err := requireMembership(s.db, track.CampaignID, userID)
	if err != nil {
		// Same response as a missing track so non-members learn nothing.
		return nil, apperrors.NotFound("TRACK_NOT_FOUND", "Investigation track not found")
	}

	progress, err := s.progressForTrack(trackID)
	if err != nil {
		return nil, err
	}

	return &TrackDetail{
		InvestigationTrack: track,
		Role:               membership.Role,
		PlayerProgress:     progress,
	}, nil
}

// UpsertProgress records a player's progress on a track, inserting or
// overwriting the single row keyed by (player, track).
func (s *TrackService) UpsertProgress(trackID, userID, playerID string, progress int) (*models.PlayerTrackProgress, error) {
	var track models.InvestigationTrack
	if err := s.db.First(&track, "id = ?", trackID).Error; err != nil {
		return nil, apperrors.NotFound("TRACK_NOT_FOUND", "Investigation track not found")
	}

	if _, err := requireDM(s.db, track.CampaignID, userID); err != nil {
		return nil, err
	}

	if _, err := requireMembership(s.db, track.CampaignID, playerID); err != nil {
		return nil, apperrors.NotFound("PLAYER_NOT_FOUND", "Player is not a member of this campaign")
	}

	row := models.PlayerTrackProgress{
		PlayerID:  playerID,
		TrackID:   trackID,
		Progress:  progress,
		UpdatedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (s *TrackService) progressForTrack(trackID string) ([]PlayerProgress, error) {
	var rows []PlayerProgress
	err := s.db.Model(&models.PlayerTrackProgress{}).
		Select("player_track_progresses.player_id, player_track_progresses.progress, player_track_progresses.updated_at, users.display_name").
		Joins("JOIN users ON users.id = player_track_progresses.player_id").
		Where("player_track_progresses.track_id = ?", trackID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []PlayerProgress{}
	}
	return rows, nil
}
