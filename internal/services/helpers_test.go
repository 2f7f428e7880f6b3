package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/anonto42/pulse/backend/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sec(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Second)
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

// env wires the services against one sqlite database
type env struct {
	t             *testing.T
	db            *gorm.DB
	users         *repositories.PostgresUserRepository
	trackers      repositories.TrackerRepository
	conversations repositories.ConversationRepository
	messages      *memoryMessages
	notifications *NotificationService
	convs         *ConversationService
	activity      *ActivityService
	now           time.Time
}

func newEnv(t *testing.T) *env {
	db := newTestDB(t)
	e := &env{
		t:             t,
		db:            db,
		users:         repositories.NewPostgresUserRepository(db),
		trackers:      repositories.NewPostgresTrackerRepository(db),
		conversations: repositories.NewPostgresConversationRepository(db),
		messages:      &memoryMessages{},
		now:           sec(1000),
	}
	clock := func() time.Time { return e.now }
	log := zerolog.Nop()

	e.convs = NewConversationService(e.conversations, e.messages, e.users, log).WithClock(clock)
	e.notifications = NewNotificationService(repositories.NewPostgresActivitySources(db), e.trackers, e.users, e.convs, log).WithClock(clock)
	e.activity = NewActivityService(
		e.users,
		repositories.NewPostgresFollowRepository(db),
		repositories.NewPostgresPostRepository(db),
		repositories.NewPostgresLikeRepository(db),
		repositories.NewPostgresCommentRepository(db),
		repositories.NewPostgresCommentLikeRepository(db),
		log,
	)
	return e
}

func (e *env) create(v interface{}) {
	e.t.Helper()
	require.NoError(e.t, e.db.Create(v).Error)
}

func (e *env) user(name string) uint {
	u := &models.User{Username: name, Name: name, Email: name + "@example.com", CreatedAt: t0}
	e.create(u)
	return u.ID
}

func (e *env) post(author uint, ts time.Time) uint {
	p := &models.Post{AuthorID: author, Body: "post", CreatedAt: ts}
	e.create(p)
	return p.ID
}

func (e *env) follow(follower, following uint, ts time.Time) {
	e.create(&models.Follow{FollowerID: follower, FollowingID: following, CreatedAt: ts})
}

func (e *env) likePost(post, user uint, ts time.Time) {
	e.create(&models.PostLike{PostID: post, UserID: user, CreatedAt: ts})
}

func (e *env) comment(post, author uint, ts time.Time) uint {
	c := &models.Comment{PostID: post, AuthorID: author, Body: "comment", CreatedAt: ts}
	e.create(c)
	return c.ID
}

func (e *env) repost(post, user uint, ts time.Time) {
	e.create(&models.Repost{PostID: post, UserID: user, CreatedAt: ts})
}

// memoryMessages is an in-process MessageStore
type memoryMessages struct {
	mu   sync.Mutex
	msgs []models.Message
	err  error
}

func (m *memoryMessages) CreateMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	msg.ID = primitive.NewObjectID()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memoryMessages) GetRecentMessages(_ context.Context, conversationID uint, limit int64) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (m *memoryMessages) GetMessage(_ context.Context, id primitive.ObjectID) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			found := msg
			return &found, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (m *memoryMessages) DeleteMessage(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.msgs {
		if msg.ID == id {
			m.msgs = append(m.msgs[:i], m.msgs[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

// mockSource is an ActivitySource driven by testify/mock
type mockSource struct {
	mock.Mock
	kind models.EventKind
}

func (m *mockSource) Kind() models.EventKind { return m.kind }

func (m *mockSource) Recent(ctx context.Context, recipientID uint, limit int) ([]models.Event, error) {
	args := m.Called(ctx, recipientID, limit)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func (m *mockSource) ExistsSince(ctx context.Context, recipientID uint, since time.Time) (bool, error) {
	args := m.Called(ctx, recipientID, since)
	return args.Bool(0), args.Error(1)
}

func (m *mockSource) CountSince(ctx context.Context, recipientID uint, since time.Time) (int64, error) {
	args := m.Called(ctx, recipientID, since)
	return args.Get(0).(int64), args.Error(1)
}

// failingMarkSeen wraps a tracker repository whose cursor writes fail
type failingMarkSeen struct {
	repositories.TrackerRepository
}

func (failingMarkSeen) MarkSeen(context.Context, uint, time.Time) error {
	return fmt.Errorf("disk full")
}

// beforeMarkSeen runs hook after the feed was read and before the cursor moves
type beforeMarkSeen struct {
	repositories.TrackerRepository
	hook func()
}

func (b beforeMarkSeen) MarkSeen(ctx context.Context, userID uint, at time.Time) error {
	b.hook()
	return b.TrackerRepository.MarkSeen(ctx, userID, at)
}

// failingIncrement wraps a conversation repository whose counter updates fail
type failingIncrement struct {
	repositories.ConversationRepository
}

func (failingIncrement) IncrementUnread(context.Context, uint, uint) (int64, error) {
	return 0, fmt.Errorf("connection reset")
}
