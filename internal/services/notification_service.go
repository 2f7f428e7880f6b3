package services

import (
	"context"
	"slices"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// SourceWindow bounds how many events each source contributes to a feed.
	SourceWindow = 10
	// FeedLimit bounds the merged feed.
	FeedLimit = 20
)

// UserChecker resolves whether an identity exists
type UserChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// UnreadChecker reports whether a user has unread direct messages
type UnreadChecker interface {
	HasAnyUnread(ctx context.Context, userID uint) (bool, error)
}

// NotificationItem is a feed entry; Unseen is relative to the cursor the
// user had before opening the page
type NotificationItem struct {
	models.Event
	Unseen bool `json:"unseen"`
}

// NotificationPage is what the notifications view renders
type NotificationPage struct {
	Notifications []NotificationItem `json:"notifications"`
	Welcome       bool               `json:"welcome"`
	PreviousSeen  *time.Time         `json:"previous_seen,omitempty"`
}

// Badge carries the two independent UI dots
type Badge struct {
	HasNewNotifications bool `json:"has_new_notifications"`
	HasNewMessages      bool `json:"has_new_messages"`
}

// Summary counts pending events per kind since the cursor
type Summary struct {
	LastSeen *time.Time                 `json:"last_seen"`
	Counts   map[models.EventKind]int64 `json:"counts"`
	Total    int64                      `json:"total"`
}

// NotificationService merges the activity sources into the notifications
// feed and owns the read cursor lifecycle
type NotificationService struct {
	sources  []repositories.ActivitySource
	trackers repositories.TrackerRepository
	users    UserChecker
	unread   UnreadChecker
	logger   zerolog.Logger
	now      func() time.Time
}

func NewNotificationService(
	sources []repositories.ActivitySource,
	trackers repositories.TrackerRepository,
	users UserChecker,
	unread UnreadChecker,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		sources:  sources,
		trackers: trackers,
		users:    users,
		unread:   unread,
		logger:   logger.With().Str("component", "notification_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used to advance the cursor
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Aggregate returns the recipient's feed: the newest SourceWindow events of
// every source merged newest first and cut to FeedLimit. A failing source
// contributes nothing instead of failing the feed.
func (s *NotificationService) Aggregate(ctx context.Context, recipientID uint) []models.Event {
	batches := make([][]models.Event, len(s.sources))

	var g errgroup.Group
	for i, source := range s.sources {
		g.Go(func() error {
			events, err := source.Recent(ctx, recipientID, SourceWindow)
			if err != nil {
				s.logger.Warn().Err(err).
					Uint("user_id", recipientID).
					Str("source", string(source.Kind())).
					Msg("activity source unavailable, skipping")
				return nil
			}
			batches[i] = events
			return nil
		})
	}
	_ = g.Wait()

	return mergeEvents(batches, FeedLimit)
}

// mergeEvents concatenates the batches in source order and stable-sorts them
// newest first, so equal timestamps keep source order
func mergeEvents(batches [][]models.Event, limit int) []models.Event {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	merged := make([]models.Event, 0, total)
	for _, batch := range batches {
		merged = append(merged, batch...)
	}

	slices.SortStableFunc(merged, func(a, b models.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// ViewNotifications builds the notifications page and then advances the
// recipient's cursor to the time the view started. The feed and the unseen
// flags use the cursor value read before the advance. Activity recorded while
// the sources are being read stays newer than the cursor.
func (s *NotificationService) ViewNotifications(ctx context.Context, recipientID uint) (*NotificationPage, error) {
	if err := s.ensureUser(ctx, recipientID); err != nil {
		return nil, err
	}
	seenAt := s.now()

	tracker, err := s.trackers.GetOrCreate(ctx, recipientID)
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", recipientID).Msg("failed to load notification tracker")
	}

	events := s.Aggregate(ctx, recipientID)
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "notificationService.ViewNotifications")
	}

	page := &NotificationPage{
		Notifications: make([]NotificationItem, 0, len(events)),
	}
	if tracker != nil {
		page.Welcome = tracker.NeverSeen()
		page.PreviousSeen = tracker.ActivityLastSeen
	}
	for _, event := range events {
		page.Notifications = append(page.Notifications, NotificationItem{
			Event:  event,
			Unseen: tracker != nil && tracker.IsNewer(event.CreatedAt),
		})
	}

	if err := s.trackers.MarkSeen(ctx, recipientID, seenAt); err != nil {
		s.logger.Error().Err(err).Uint("user_id", recipientID).Msg("failed to advance notification cursor")
	}
	return page, nil
}

// HasNew reports whether anything arrived after the recipient's cursor. It
// never writes; a user without a cursor always has something new.
func (s *NotificationService) HasNew(ctx context.Context, recipientID uint) (bool, error) {
	if err := s.ensureUser(ctx, recipientID); err != nil {
		return false, err
	}
	return s.hasNew(ctx, recipientID), nil
}

// Badge answers the polled badge probe with two independent flags
func (s *NotificationService) Badge(ctx context.Context, recipientID uint) (*Badge, error) {
	if err := s.ensureUser(ctx, recipientID); err != nil {
		return nil, err
	}

	badge := &Badge{HasNewNotifications: s.hasNew(ctx, recipientID)}

	hasUnread, err := s.unread.HasAnyUnread(ctx, recipientID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", recipientID).Msg("unread check failed, reporting new messages")
		hasUnread = true
	}
	badge.HasNewMessages = hasUnread
	return badge, nil
}

// hasNew errs on the side of true: a failed lookup shows a badge rather
// than hiding one
func (s *NotificationService) hasNew(ctx context.Context, recipientID uint) bool {
	tracker, err := s.trackers.Find(ctx, recipientID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", recipientID).Msg("tracker lookup failed, reporting new activity")
		return true
	}
	if tracker.NeverSeen() {
		return true
	}

	since := *tracker.ActivityLastSeen
	for _, source := range s.sources {
		found, err := source.ExistsSince(ctx, recipientID, since)
		if err != nil {
			s.logger.Warn().Err(err).
				Uint("user_id", recipientID).
				Str("source", string(source.Kind())).
				Msg("activity probe failed, reporting new activity")
			return true
		}
		if found {
			return true
		}
	}
	return false
}

// Summary counts, per kind, the events newer than the cursor. Users that never
// opened their notifications get an empty summary.
func (s *NotificationService) Summary(ctx context.Context, recipientID uint) (*Summary, error) {
	if err := s.ensureUser(ctx, recipientID); err != nil {
		return nil, err
	}

	tracker, err := s.trackers.Find(ctx, recipientID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load notification tracker", err)
	}

	summary := &Summary{Counts: make(map[models.EventKind]int64, len(s.sources))}
	if tracker.NeverSeen() {
		return summary, nil
	}
	summary.LastSeen = tracker.ActivityLastSeen

	for _, source := range s.sources {
		count, err := source.CountSince(ctx, recipientID, *tracker.ActivityLastSeen)
		if err != nil {
			s.logger.Warn().Err(err).
				Uint("user_id", recipientID).
				Str("source", string(source.Kind())).
				Msg("activity count failed, skipping")
			continue
		}
		summary.Counts[source.Kind()] = count
		summary.Total += count
	}
	return summary, nil
}

func (s *NotificationService) ensureUser(ctx context.Context, userID uint) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to resolve user", err)
	}
	if !exists {
		return apperrors.ErrUserNotFound
	}
	return nil
}
