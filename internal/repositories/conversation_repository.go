package repositories

import (
	"context"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConversationRepository manages conversations, their memberships and the
// per-member unread counters
type ConversationRepository interface {
	// FindDirect returns the conversation whose participants are exactly the
	// given users, or nil when there is none. userA == userB finds the self thread.
	FindDirect(ctx context.Context, userA, userB uint) (*models.Conversation, error)
	Create(ctx context.Context, participantIDs []uint) (*models.Conversation, error)
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
	GetParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error)
	GetMembership(ctx context.Context, conversationID, userID uint) (*models.ConvUser, error)
	ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error)

	// IncrementUnread adds one unread message for every participant except
	// senderID and returns the number of counters touched.
	IncrementUnread(ctx context.Context, conversationID, senderID uint) (int64, error)
	// ResetUnread sets the participant's counter to zero and stamps last_seen_at.
	ResetUnread(ctx context.Context, conversationID, userID uint, at time.Time) error
	HasAnyUnread(ctx context.Context, userID uint) (bool, error)
}

type postgresConversationRepository struct {
	db *gorm.DB
}

func NewPostgresConversationRepository(db *gorm.DB) ConversationRepository {
	return &postgresConversationRepository{db: db}
}

func (r *postgresConversationRepository) FindDirect(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	members := 2
	if userA == userB {
		members = 1
	}

	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conv_users a ON a.conversation_id = conversations.id AND a.user_id = ?", userA).
		Joins("JOIN conv_users b ON b.conversation_id = conversations.id AND b.user_id = ?", userB).
		Where("(SELECT COUNT(*) FROM conv_users m WHERE m.conversation_id = conversations.id) = ?", members).
		Order("conversations.id ASC").
		Limit(1).
		Find(&conversations).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.FindDirect")
	}
	if len(conversations) == 0 {
		return nil, nil
	}
	return &conversations[0], nil
}

func (r *postgresConversationRepository) Create(ctx context.Context, participantIDs []uint) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}
		seen := make(map[uint]bool, len(participantIDs))
		for _, userID := range participantIDs {
			if seen[userID] {
				continue
			}
			seen[userID] = true
			if err := tx.Create(&models.ConvUser{ConversationID: conversation.ID, UserID: userID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.Create")
	}
	return conversation, nil
}

func (r *postgresConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).First(&conversation, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrConversationNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.GetByID")
	}
	return &conversation, nil
}

func (r *postgresConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConvUser{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "conversationRepo.IsParticipant")
	}
	return count > 0, nil
}

func (r *postgresConversationRepository) GetParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ConvUser{}).
		Where("conversation_id = ?", conversationID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.GetParticipantIDs")
	}
	return ids, nil
}

func (r *postgresConversationRepository) GetMembership(ctx context.Context, conversationID, userID uint) (*models.ConvUser, error) {
	var membership models.ConvUser
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotParticipant
	}
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.GetMembership")
	}
	return &membership, nil
}

func (r *postgresConversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	var rows []struct {
		ConversationID uint
		UnreadCount    int
		LastSeenAt     *time.Time
		UpdatedAt      time.Time
	}
	err := r.db.WithContext(ctx).
		Table("conv_users AS cu").
		Joins("JOIN conversations c ON c.id = cu.conversation_id").
		Where("cu.user_id = ?", userID).
		Select("cu.conversation_id AS conversation_id, cu.unread_count AS unread_count, cu.last_seen_at AS last_seen_at, c.updated_at AS updated_at").
		Order("c.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "conversationRepo.ListForUser")
	}

	summaries := make([]models.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		participants, err := r.GetParticipantIDs(ctx, row.ConversationID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.ConversationSummary{
			ConversationID: row.ConversationID,
			Participants:   participants,
			UnreadCount:    row.UnreadCount,
			LastSeenAt:     row.LastSeenAt,
			UpdatedAt:      row.UpdatedAt,
		})
	}
	return summaries, nil
}

func (r *postgresConversationRepository) IncrementUnread(ctx context.Context, conversationID, senderID uint) (int64, error) {
	var touched int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// relative update, so concurrent senders never lose an increment
		res := tx.Model(&models.ConvUser{}).
			Where("conversation_id = ? AND user_id <> ?", conversationID, senderID).
			UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		touched = res.RowsAffected
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("updated_at", tx.NowFunc()).Error
	})
	if err != nil {
		return 0, errors.Wrap(err, "conversationRepo.IncrementUnread")
	}
	return touched, nil
}

func (r *postgresConversationRepository) ResetUnread(ctx context.Context, conversationID, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.ConvUser{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		UpdateColumns(map[string]interface{}{
			"unread_count": 0,
			"last_seen_at": at,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "conversationRepo.ResetUnread")
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotParticipant
	}
	return nil
}

func (r *postgresConversationRepository) HasAnyUnread(ctx context.Context, userID uint) (bool, error) {
	var hits []int
	err := r.db.WithContext(ctx).Model(&models.ConvUser{}).
		Where("user_id = ? AND unread_count > 0", userID).
		Select("1").
		Limit(1).
		Scan(&hits).Error
	if err != nil {
		return false, errors.Wrap(err, "conversationRepo.HasAnyUnread")
	}
	return len(hits) > 0, nil
}
