package repositories

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post and repost data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
	CreateRepost(ctx context.Context, repost *models.Repost) error
	HasUserReposted(ctx context.Context, postID, userID uint) (bool, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(post).Error, "postRepo.CreatePost")
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPostNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postRepo.GetPostByID")
	}
	return &post, nil
}

// DeletePost removes the post together with every row derived from it, so
// the notifications built on those rows disappear as well
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Repost{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrPostNotFound
		}
		return nil
	})
	if errors.Is(err, apperrors.ErrPostNotFound) {
		return err
	}
	return errors.Wrap(err, "postRepo.DeletePost")
}

func (r *PostgresPostRepository) CreateRepost(ctx context.Context, repost *models.Repost) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(repost).Error, "postRepo.CreateRepost")
}

func (r *PostgresPostRepository) HasUserReposted(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Repost{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "postRepo.HasUserReposted")
	}
	return count > 0, nil
}
