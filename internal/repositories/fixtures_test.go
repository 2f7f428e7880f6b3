package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// fixture inserts rows with explicit timestamps
type fixture struct {
	t  *testing.T
	db *gorm.DB
}

func (f fixture) create(v interface{}) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(v).Error)
}

func (f fixture) user(name string) uint {
	u := &models.User{Username: name, Name: strings.ToUpper(name[:1]) + name[1:], Email: name + "@example.com", CreatedAt: t0}
	f.create(u)
	return u.ID
}

func (f fixture) post(author uint, ts time.Time) uint {
	p := &models.Post{AuthorID: author, Body: "post", CreatedAt: ts}
	f.create(p)
	return p.ID
}

func (f fixture) comment(post, author uint, ts time.Time) uint {
	c := &models.Comment{PostID: post, AuthorID: author, Body: "comment", CreatedAt: ts}
	f.create(c)
	return c.ID
}

// reply answers parentComment, and parentReply when it is non-zero
func (f fixture) reply(post, author, parentComment, parentReply uint, ts time.Time) uint {
	c := &models.Comment{PostID: post, AuthorID: author, ParentCommentID: &parentComment, Body: "reply", CreatedAt: ts}
	if parentReply != 0 {
		c.ParentReplyID = &parentReply
	}
	f.create(c)
	return c.ID
}

func (f fixture) follow(follower, following uint, ts time.Time) {
	f.create(&models.Follow{FollowerID: follower, FollowingID: following, CreatedAt: ts})
}

func (f fixture) likePost(post, user uint, ts time.Time) {
	f.create(&models.PostLike{PostID: post, UserID: user, CreatedAt: ts})
}

func (f fixture) likeComment(comment, user uint, ts time.Time) {
	f.create(&models.CommentLike{CommentID: comment, UserID: user, CreatedAt: ts})
}

func (f fixture) repost(post, user uint, ts time.Time) {
	f.create(&models.Repost{PostID: post, UserID: user, CreatedAt: ts})
}
