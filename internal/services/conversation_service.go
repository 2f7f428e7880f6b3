package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationHistoryLimit bounds the messages returned when a conversation is opened
const ConversationHistoryLimit = 100

// MessageStore persists message bodies
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetRecentMessages(ctx context.Context, conversationID uint, limit int64) ([]models.Message, error)
	GetMessage(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// ConversationView is an opened conversation as seen by one participant
type ConversationView struct {
	Conversation *models.Conversation `json:"conversation"`
	Participants []uint               `json:"participants"`
	Messages     []models.Message     `json:"messages"`
}

// ConversationService handles direct messages and keeps the per-participant
// unread counters in step with them
type ConversationService struct {
	conversations repositories.ConversationRepository
	messages      MessageStore
	users         UserChecker
	logger        zerolog.Logger
	now           func() time.Time
}

func NewConversationService(
	conversations repositories.ConversationRepository,
	messages MessageStore,
	users UserChecker,
	logger zerolog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		logger:        logger.With().Str("component", "conversation_service").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *ConversationService) WithClock(now func() time.Time) *ConversationService {
	s.now = now
	return s
}

// StartConversation returns the direct conversation between userID and
// otherID, creating it when missing. Equal ids give the self thread.
func (s *ConversationService) StartConversation(ctx context.Context, userID, otherID uint) (*models.Conversation, error) {
	exists, err := s.users.Exists(ctx, otherID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to resolve user", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	conversation, err := s.conversations.FindDirect(ctx, userID, otherID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to look up conversation", err)
	}
	if conversation != nil {
		return conversation, nil
	}

	conversation, err = s.conversations.Create(ctx, []uint{userID, otherID})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create conversation", err)
	}
	s.logger.Info().Uint("conversation_id", conversation.ID).Uint("user_id", userID).Msg("conversation created")
	return conversation, nil
}

// SendMessage bumps the unread counter of every other participant and then
// stores the message. A failed store leaves the counters raised, so a
// recipient may open a thread with nothing new but never misses a message.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, senderID uint, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.ErrEmptyMessage
	}
	if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return nil, internal(err, "failed to load conversation")
	}
	if err := s.ensureParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	if err := s.OnMessageSent(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      s.now(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).
			Uint("conversation_id", conversationID).
			Uint("sender_id", senderID).
			Msg("message not stored after unread counters were raised")
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to store message", err)
	}
	return msg, nil
}

// OnMessageSent increments the unread counter of every participant except the sender
func (s *ConversationService) OnMessageSent(ctx context.Context, conversationID, senderID uint) error {
	touched, err := s.conversations.IncrementUnread(ctx, conversationID, senderID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to update unread counters", err)
	}
	s.logger.Debug().
		Uint("conversation_id", conversationID).
		Uint("sender_id", senderID).
		Int64("recipients", touched).
		Msg("unread counters incremented")
	return nil
}

// DeleteMessage removes a message sent by userID. Unread counters are left
// as they are.
func (s *ConversationService) DeleteMessage(ctx context.Context, messageID string, userID uint) error {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return apperrors.ErrMessageNotFound
	}
	msg, err := s.messages.GetMessage(ctx, id)
	if err != nil {
		return internal(err, "failed to load message")
	}
	if msg.SenderID != userID {
		return apperrors.ErrNotMessageSender
	}
	if err := s.messages.DeleteMessage(ctx, id); err != nil {
		return internal(err, "failed to delete message")
	}
	s.logger.Info().Str("message_id", messageID).Uint("user_id", userID).Msg("message deleted")
	return nil
}

// OpenConversation returns the latest messages and clears the caller's unread counter
func (s *ConversationService) OpenConversation(ctx context.Context, conversationID, userID uint) (*ConversationView, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, internal(err, "failed to load conversation")
	}
	if err := s.ensureParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	participants, err := s.conversations.GetParticipantIDs(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load participants", err)
	}
	messages, err := s.messages.GetRecentMessages(ctx, conversationID, ConversationHistoryLimit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load messages", err)
	}

	if err := s.OnConversationOpened(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return &ConversationView{
		Conversation: conversation,
		Participants: participants,
		Messages:     messages,
	}, nil
}

// OnConversationOpened resets the participant's unread counter to zero. It
// is idempotent.
func (s *ConversationService) OnConversationOpened(ctx context.Context, conversationID, userID uint) error {
	return internal(s.conversations.ResetUnread(ctx, conversationID, userID, s.now()), "failed to reset unread counter")
}

func (s *ConversationService) ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	summaries, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list conversations", err)
	}
	return summaries, nil
}

// HasAnyUnread reports whether any of the user's conversations has unread messages
func (s *ConversationService) HasAnyUnread(ctx context.Context, userID uint) (bool, error) {
	return s.conversations.HasAnyUnread(ctx, userID)
}

func (s *ConversationService) ensureParticipant(ctx context.Context, conversationID, userID uint) error {
	ok, err := s.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to check membership", err)
	}
	if !ok {
		return apperrors.ErrNotParticipant
	}
	return nil
}
