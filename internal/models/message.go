package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message stored in MongoDB
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID uint               `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	Body           string             `json:"body" bson:"body"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}
