package repositories

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(comment).Error, "commentRepo.CreateComment")
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCommentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "commentRepo.GetCommentByID")
	}
	return &comment, nil
}

// DeleteComment removes a comment, the replies pointing at it and their likes
func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{id}
		var replyIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_comment_id = ? OR parent_reply_id = ?", id, id).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids = append(ids, replyIDs...)

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCommentNotFound
		}
		return nil
	})
	if errors.Is(err, apperrors.ErrCommentNotFound) {
		return err
	}
	return errors.Wrap(err, "commentRepo.DeleteComment")
}
