package repositories

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CommentLikeRepository defines the interface for comment like operations
type CommentLikeRepository interface {
	CreateCommentLike(ctx context.Context, like *models.CommentLike) error
	DeleteCommentLike(ctx context.Context, commentID, userID uint) error
	HasUserLikedComment(ctx context.Context, commentID, userID uint) (bool, error)
}

type postgresCommentLikeRepository struct {
	db *gorm.DB
}

func NewPostgresCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &postgresCommentLikeRepository{db: db}
}

func (r *postgresCommentLikeRepository) CreateCommentLike(ctx context.Context, like *models.CommentLike) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(like).Error, "commentLikeRepo.CreateCommentLike")
}

func (r *postgresCommentLikeRepository) DeleteCommentLike(ctx context.Context, commentID, userID uint) error {
	res := r.db.WithContext(ctx).Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "commentLikeRepo.DeleteCommentLike")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrLikeNotFound
	}
	return nil
}

func (r *postgresCommentLikeRepository) HasUserLikedComment(ctx context.Context, commentID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "commentLikeRepo.HasUserLikedComment")
	}
	return count > 0, nil
}
