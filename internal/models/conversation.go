package models

import "time"

// Conversation is a direct message thread. A conversation with a single
// participant is the user's notes-to-self thread.
type Conversation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// ConvUser is a participant's membership in a conversation and owns the
// unread counter. UnreadCount is only ever incremented on message receipt and
// reset to zero when the participant opens the conversation.
type ConvUser struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	ConversationID uint       `json:"conversation_id" gorm:"uniqueIndex:idx_conv_user;not null"`
	UserID         uint       `json:"user_id" gorm:"uniqueIndex:idx_conv_user;index;not null"`
	UnreadCount    int        `json:"unread_count" gorm:"not null;default:0;check:unread_count >= 0"`
	LastSeenAt     *time.Time `json:"last_seen_at"`
}

// ConversationSummary is a conversation as listed for one participant
type ConversationSummary struct {
	ConversationID uint       `json:"conversation_id"`
	Participants   []uint     `json:"participants"`
	UnreadCount    int        `json:"unread_count"`
	LastSeenAt     *time.Time `json:"last_seen_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// StartConversationRequest defines the request body for opening a direct conversation
type StartConversationRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// SendMessageRequest defines the request body for posting a message
type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}
