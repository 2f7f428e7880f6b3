package repositories

import (
	"context"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrackerRepository persists the notification cursor of each user
type TrackerRepository interface {
	// GetOrCreate returns the user's tracker, creating an unseen one on first access.
	GetOrCreate(ctx context.Context, userID uint) (*models.NotificationTracker, error)
	// Find returns the user's tracker or nil when none exists yet.
	Find(ctx context.Context, userID uint) (*models.NotificationTracker, error)
	// MarkSeen moves the cursor to at with a single-column write.
	MarkSeen(ctx context.Context, userID uint, at time.Time) error
}

type postgresTrackerRepository struct {
	db *gorm.DB
}

func NewPostgresTrackerRepository(db *gorm.DB) TrackerRepository {
	return &postgresTrackerRepository{db: db}
}

func (r *postgresTrackerRepository) GetOrCreate(ctx context.Context, userID uint) (*models.NotificationTracker, error) {
	// ON CONFLICT DO NOTHING keeps concurrent first visits from failing on the unique index
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.NotificationTracker{UserID: userID}).Error
	if err != nil {
		return nil, errors.Wrap(err, "trackerRepo.GetOrCreate.Create")
	}

	var tracker models.NotificationTracker
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tracker).Error; err != nil {
		return nil, errors.Wrap(err, "trackerRepo.GetOrCreate.First")
	}
	return &tracker, nil
}

func (r *postgresTrackerRepository) Find(ctx context.Context, userID uint) (*models.NotificationTracker, error) {
	var trackers []models.NotificationTracker
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&trackers).Error
	if err != nil {
		return nil, errors.Wrap(err, "trackerRepo.Find")
	}
	if len(trackers) == 0 {
		return nil, nil
	}
	return &trackers[0], nil
}

func (r *postgresTrackerRepository) MarkSeen(ctx context.Context, userID uint, at time.Time) error {
	tracker := models.NotificationTracker{UserID: userID, ActivityLastSeen: &at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"activity_last_seen"}),
		}).
		Create(&tracker).Error
	if err != nil {
		return errors.Wrap(err, "trackerRepo.MarkSeen")
	}
	return nil
}
