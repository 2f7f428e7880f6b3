package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func kinds(items []NotificationItem) []models.EventKind {
	out := make([]models.EventKind, len(items))
	for i, item := range items {
		out[i] = item.Kind
	}
	return out
}

func TestFirstVisitShowsWelcomeAndAdvancesCursor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")
	e.follow(bob, alice, sec(1))

	hasNew, err := e.notifications.HasNew(ctx, alice)
	require.NoError(t, err)
	assert.True(t, hasNew)

	tracker, err := e.trackers.Find(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, tracker, "probing never creates a cursor")

	page, err := e.notifications.ViewNotifications(ctx, alice)
	require.NoError(t, err)
	assert.True(t, page.Welcome)
	assert.Nil(t, page.PreviousSeen)
	require.Len(t, page.Notifications, 1)
	assert.True(t, page.Notifications[0].Unseen)

	tracker, err = e.trackers.Find(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, tracker)
	assert.True(t, tracker.ActivityLastSeen.Equal(e.now))

	e.now = sec(2000)
	page, err = e.notifications.ViewNotifications(ctx, alice)
	require.NoError(t, err)
	assert.False(t, page.Welcome)
	require.NotNil(t, page.PreviousSeen)
	assert.True(t, page.PreviousSeen.Equal(sec(1000)))
	require.Len(t, page.Notifications, 1)
	assert.False(t, page.Notifications[0].Unseen)
}

func TestCursorSuppressesSeenActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b, c := e.user("a"), e.user("b"), e.user("c")
	post := e.post(a, sec(-60))
	require.NoError(t, e.trackers.MarkSeen(ctx, a, sec(0)))

	e.follow(b, a, sec(1))
	e.likePost(post, c, sec(2))

	hasNew, err := e.notifications.HasNew(ctx, a)
	require.NoError(t, err)
	assert.True(t, hasNew)

	e.now = sec(10)
	page, err := e.notifications.ViewNotifications(ctx, a)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)

	first, second := page.Notifications[0], page.Notifications[1]
	assert.Equal(t, models.EventPostLike, first.Kind)
	assert.Equal(t, c, first.ActorID)
	assert.Equal(t, post, first.Target.PostID)
	assert.True(t, first.CreatedAt.Equal(sec(2)))
	assert.Equal(t, models.EventFollow, second.Kind)
	assert.Equal(t, b, second.ActorID)
	assert.True(t, second.CreatedAt.Equal(sec(1)))
	assert.True(t, first.Unseen)
	assert.True(t, second.Unseen)

	hasNew, err = e.notifications.HasNew(ctx, a)
	require.NoError(t, err)
	assert.False(t, hasNew)

	// activity before the new cursor stays suppressed
	e.follow(e.user("d"), a, sec(5))
	hasNew, err = e.notifications.HasNew(ctx, a)
	require.NoError(t, err)
	assert.False(t, hasNew)

	e.repost(post, b, sec(11))
	hasNew, err = e.notifications.HasNew(ctx, a)
	require.NoError(t, err)
	assert.True(t, hasNew)
}

func TestAggregateIsSortedAndBounded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user("alice")
	post := e.post(alice, sec(0))

	ts := 1
	for i := 0; i < 12; i++ {
		e.follow(e.user("follower"+string(rune('a'+i))), alice, sec(ts))
		ts++
	}
	for i := 0; i < 8; i++ {
		e.likePost(post, e.user("liker"+string(rune('a'+i))), sec(ts))
		ts++
	}
	for i := 0; i < 5; i++ {
		e.comment(post, e.user("commenter"+string(rune('a'+i))), sec(ts))
		ts++
	}

	events := e.notifications.Aggregate(ctx, alice)
	require.Len(t, events, FeedLimit)
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i-1].CreatedAt.After(events[i].CreatedAt), "position %d", i)
	}
	for _, ev := range events {
		assert.NotEqual(t, alice, ev.ActorID)
	}

	follows := 0
	for _, ev := range events {
		if ev.Kind == models.EventFollow {
			follows++
		}
	}
	// 5 comments and 8 likes are newer than every follow; the follow window fills the rest
	assert.Equal(t, FeedLimit-13, follows)
}

func TestAggregateReturnsAllWhenUnderLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")
	post := e.post(alice, sec(0))
	e.likePost(post, bob, sec(3))
	e.repost(post, bob, sec(1))
	e.comment(post, bob, sec(2))

	events := e.notifications.Aggregate(ctx, alice)
	require.Len(t, events, 3)
	assert.Equal(t, []models.EventKind{models.EventPostLike, models.EventComment, models.EventRepost},
		[]models.EventKind{events[0].Kind, events[1].Kind, events[2].Kind})
}

func TestEqualTimestampsKeepSourceOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")
	post := e.post(alice, sec(0))
	e.repost(post, bob, sec(5))
	e.likePost(post, bob, sec(5))
	e.follow(bob, alice, sec(5))

	page, err := e.notifications.ViewNotifications(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []models.EventKind{models.EventFollow, models.EventPostLike, models.EventRepost}, kinds(page.Notifications))
}

func TestFailingSourceIsIsolated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")
	e.follow(bob, alice, sec(1))

	broken := &mockSource{kind: models.EventPostLike}
	broken.On("Recent", mock.Anything, alice, SourceWindow).Return(nil, errors.New("relation does not exist"))
	broken.On("ExistsSince", mock.Anything, alice, mock.Anything).Return(false, errors.New("relation does not exist"))

	sources := []repositories.ActivitySource{broken, repositories.NewFollowSource(e.db)}
	svc := NewNotificationService(sources, e.trackers, e.users, e.convs, zerolog.Nop()).
		WithClock(func() time.Time { return sec(100) })

	page, err := svc.ViewNotifications(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []models.EventKind{models.EventFollow}, kinds(page.Notifications))

	// a failing existence check errs towards showing the badge
	hasNew, err := svc.HasNew(ctx, alice)
	require.NoError(t, err)
	assert.True(t, hasNew)

	broken.AssertExpectations(t)
}

func TestHasNewShortCircuits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user("alice")
	require.NoError(t, e.trackers.MarkSeen(ctx, alice, sec(0)))

	first := &mockSource{kind: models.EventFollow}
	first.On("ExistsSince", mock.Anything, alice, mock.Anything).Return(true, nil).Once()
	second := &mockSource{kind: models.EventPostLike}

	svc := NewNotificationService([]repositories.ActivitySource{first, second}, e.trackers, e.users, e.convs, zerolog.Nop())
	hasNew, err := svc.HasNew(ctx, alice)
	require.NoError(t, err)
	assert.True(t, hasNew)

	first.AssertExpectations(t)
	second.AssertNotCalled(t, "ExistsSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestCursorWriteFailureStillRendersPage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")
	e.follow(bob, alice, sec(1))

	svc := NewNotificationService(repositories.NewPostgresActivitySources(e.db), failingMarkSeen{e.trackers}, e.users, e.convs, zerolog.Nop())
	page, err := svc.ViewNotifications(ctx, alice)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.True(t, page.Welcome)

	hasNew, err := svc.HasNew(ctx, alice)
	require.NoError(t, err)
	assert.True(t, hasNew, "a failed write leaves the activity new")
}

func TestActivityDuringViewStaysNew(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a, b := e.user("a"), e.user("b")
	require.NoError(t, e.trackers.MarkSeen(ctx, a, sec(0)))

	e.now = sec(10)
	trackers := beforeMarkSeen{
		TrackerRepository: e.trackers,
		hook: func() {
			e.follow(b, a, sec(11))
			e.now = sec(12)
		},
	}
	svc := NewNotificationService(repositories.NewPostgresActivitySources(e.db), trackers, e.users, e.convs, zerolog.Nop()).
		WithClock(func() time.Time { return e.now })

	page, err := svc.ViewNotifications(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)

	tracker, err := e.trackers.Find(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, tracker)
	assert.True(t, tracker.ActivityLastSeen.Equal(sec(10)), "cursor moves to when the view started")

	hasNew, err := e.notifications.HasNew(ctx, a)
	require.NoError(t, err)
	assert.True(t, hasNew, "a follow that missed the page is still reported")

	page, err = e.notifications.ViewNotifications(ctx, a)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, models.EventFollow, page.Notifications[0].Kind)
	assert.True(t, page.Notifications[0].Unseen)
}

func TestUnknownUserFailsFast(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.notifications.ViewNotifications(ctx, 4242)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = e.notifications.HasNew(ctx, 4242)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = e.notifications.Badge(ctx, 4242)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = e.notifications.Summary(ctx, 4242)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	tracker, err := e.trackers.Find(ctx, 4242)
	require.NoError(t, err)
	assert.Nil(t, tracker)
}

func TestBadgeFlagsAreIndependent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.user("alice"), e.user("bob")

	badge, err := e.notifications.Badge(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, &Badge{HasNewNotifications: true, HasNewMessages: false}, badge)

	_, err = e.notifications.ViewNotifications(ctx, alice)
	require.NoError(t, err)

	conv, err := e.convs.StartConversation(ctx, bob, alice)
	require.NoError(t, err)
	_, err = e.convs.SendMessage(ctx, conv.ID, bob, "hi")
	require.NoError(t, err)

	badge, err = e.notifications.Badge(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, &Badge{HasNewNotifications: false, HasNewMessages: true}, badge)
}

func TestSummaryCountsPendingByKind(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.user("alice"), e.user("bob"), e.user("carol")
	post := e.post(alice, sec(0))

	summary, err := e.notifications.Summary(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, summary.LastSeen)
	assert.Zero(t, summary.Total)

	require.NoError(t, e.trackers.MarkSeen(ctx, alice, sec(10)))
	e.follow(bob, alice, sec(5))
	e.follow(carol, alice, sec(11))
	e.likePost(post, bob, sec(12))
	e.likePost(post, carol, sec(13))
	e.likePost(post, alice, sec(14))

	summary, err = e.notifications.Summary(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, summary.LastSeen)
	assert.EqualValues(t, 1, summary.Counts[models.EventFollow])
	assert.EqualValues(t, 2, summary.Counts[models.EventPostLike])
	assert.EqualValues(t, 0, summary.Counts[models.EventRepost])
	assert.EqualValues(t, 3, summary.Total)
}

func TestMergeEvents(t *testing.T) {
	ev := func(kind models.EventKind, s int) models.Event {
		return models.Event{Kind: kind, CreatedAt: sec(s)}
	}
	batches := [][]models.Event{
		{ev(models.EventFollow, 5), ev(models.EventFollow, 1)},
		nil,
		{ev(models.EventComment, 5), ev(models.EventComment, 3)},
	}

	merged := mergeEvents(batches, 3)
	require.Len(t, merged, 3)
	assert.Equal(t, models.EventFollow, merged[0].Kind)
	assert.Equal(t, models.EventComment, merged[1].Kind)
	assert.True(t, merged[2].CreatedAt.Equal(sec(3)))

	assert.Empty(t, mergeEvents(nil, FeedLimit))
}
