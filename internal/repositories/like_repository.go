package repositories

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for post like operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.PostLike) error
	DeleteLike(ctx context.Context, postID, userID uint) error
	HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.PostLike) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(like).Error, "likeRepo.CreateLike")
}

func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID, userID uint) error {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "likeRepo.DeleteLike")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLikeNotFound
	}
	return nil
}

func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "likeRepo.HasUserLikedPost")
	}
	return count > 0, nil
}
