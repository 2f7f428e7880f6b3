package repositories

import (
	"context"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ActivitySource reads one kind of notification event for a recipient.
// Every query excludes events the recipient performed on their own objects.
type ActivitySource interface {
	Kind() models.EventKind
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, recipientID uint, limit int) ([]models.Event, error)
	// ExistsSince reports whether at least one event is newer than since.
	ExistsSince(ctx context.Context, recipientID uint, since time.Time) (bool, error)
	// CountSince counts the events newer than since.
	CountSince(ctx context.Context, recipientID uint, since time.Time) (int64, error)
}

// eventRow is the common projection every source selects into
type eventRow struct {
	ActorID   uint
	CreatedAt time.Time
	PostID    uint
	CommentID uint
	ReplyID   uint
}

// postgresActivitySource implements ActivitySource over a single relation.
// base builds the FROM/JOIN/WHERE part; createdAt names the ordering column.
type postgresActivitySource struct {
	db        *gorm.DB
	kind      models.EventKind
	createdAt string
	columns   string
	base      func(tx *gorm.DB, recipientID uint) *gorm.DB
}

// NewPostgresActivitySources returns the six notification sources in feed
// tie-break order: follows, post likes, comment likes, comments, replies, reposts.
func NewPostgresActivitySources(db *gorm.DB) []ActivitySource {
	return []ActivitySource{
		NewFollowSource(db),
		NewPostLikeSource(db),
		NewCommentLikeSource(db),
		NewCommentSource(db),
		NewReplySource(db),
		NewRepostSource(db),
	}
}

// NewFollowSource yields new followers of the recipient
func NewFollowSource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventFollow,
		createdAt: "f.created_at",
		columns:   "f.follower_id AS actor_id, f.created_at AS created_at",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("follows AS f").
				Where("f.following_id = ? AND f.follower_id <> ?", recipientID, recipientID)
		},
	}
}

// NewPostLikeSource yields likes on posts authored by the recipient
func NewPostLikeSource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventPostLike,
		createdAt: "pl.created_at",
		columns:   "pl.user_id AS actor_id, pl.created_at AS created_at, pl.post_id AS post_id",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("post_likes AS pl").
				Joins("JOIN posts p ON p.id = pl.post_id").
				Where("p.author_id = ? AND pl.user_id <> ?", recipientID, recipientID)
		},
	}
}

// NewCommentLikeSource yields likes on comments authored by the recipient
func NewCommentLikeSource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventCommentLike,
		createdAt: "cl.created_at",
		columns:   "cl.user_id AS actor_id, cl.created_at AS created_at, c.post_id AS post_id, cl.comment_id AS comment_id",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("comment_likes AS cl").
				Joins("JOIN comments c ON c.id = cl.comment_id").
				Where("c.author_id = ? AND cl.user_id <> ?", recipientID, recipientID)
		},
	}
}

// NewCommentSource yields top-level comments on posts authored by the recipient
func NewCommentSource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventComment,
		createdAt: "c.created_at",
		columns:   "c.author_id AS actor_id, c.created_at AS created_at, c.post_id AS post_id, c.id AS comment_id",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("comments AS c").
				Joins("JOIN posts p ON p.id = c.post_id").
				Where("p.author_id = ? AND c.parent_comment_id IS NULL AND c.author_id <> ?", recipientID, recipientID)
		},
	}
}

// NewReplySource yields replies whose parent comment or parent reply is
// authored by the recipient. A reply matching both parents is returned once.
func NewReplySource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventReply,
		createdAt: "c.created_at",
		columns:   "c.author_id AS actor_id, c.created_at AS created_at, c.post_id AS post_id, COALESCE(c.parent_comment_id, 0) AS comment_id, c.id AS reply_id",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("comments AS c").
				Joins("LEFT JOIN comments pc ON pc.id = c.parent_comment_id").
				Joins("LEFT JOIN comments pr ON pr.id = c.parent_reply_id").
				Where("(pc.author_id = ? OR pr.author_id = ?) AND c.author_id <> ?", recipientID, recipientID, recipientID)
		},
	}
}

// NewRepostSource yields reposts of posts authored by the recipient
func NewRepostSource(db *gorm.DB) ActivitySource {
	return &postgresActivitySource{
		db:        db,
		kind:      models.EventRepost,
		createdAt: "r.created_at",
		columns:   "r.user_id AS actor_id, r.created_at AS created_at, r.post_id AS post_id",
		base: func(tx *gorm.DB, recipientID uint) *gorm.DB {
			return tx.Table("reposts AS r").
				Joins("JOIN posts p ON p.id = r.post_id").
				Where("p.author_id = ? AND r.user_id <> ?", recipientID, recipientID)
		},
	}
}

func (s *postgresActivitySource) Kind() models.EventKind {
	return s.kind
}

func (s *postgresActivitySource) Recent(ctx context.Context, recipientID uint, limit int) ([]models.Event, error) {
	if limit <= 0 {
		return nil, nil
	}

	var rows []eventRow
	err := s.base(s.db.WithContext(ctx), recipientID).
		Select(s.columns).
		Order(s.createdAt + " DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "activitySource.Recent(%s)", s.kind)
	}

	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, models.Event{
			Kind:        s.kind,
			ActorID:     row.ActorID,
			RecipientID: recipientID,
			CreatedAt:   row.CreatedAt,
			Target: models.EventTarget{
				PostID:    row.PostID,
				CommentID: row.CommentID,
				ReplyID:   row.ReplyID,
			},
		})
	}
	return events, nil
}

func (s *postgresActivitySource) ExistsSince(ctx context.Context, recipientID uint, since time.Time) (bool, error) {
	var hits []int
	err := s.base(s.db.WithContext(ctx), recipientID).
		Where(s.createdAt+" > ?", since).
		Select("1").
		Limit(1).
		Scan(&hits).Error
	if err != nil {
		return false, errors.Wrapf(err, "activitySource.ExistsSince(%s)", s.kind)
	}
	return len(hits) > 0, nil
}

func (s *postgresActivitySource) CountSince(ctx context.Context, recipientID uint, since time.Time) (int64, error) {
	var count int64
	err := s.base(s.db.WithContext(ctx), recipientID).
		Where(s.createdAt+" > ?", since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrapf(err, "activitySource.CountSince(%s)", s.kind)
	}
	return count, nil
}
