package repositories

import (
	"context"
	"slices"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/pkg/apperrors"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository stores direct message bodies
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	// GetRecentMessages returns the newest limit messages in chronological order.
	GetRecentMessages(ctx context.Context, conversationID uint, limit int64) ([]models.Message, error)
	GetMessage(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoMessageRepository
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

// EnsureIndexes creates the conversation/time index used by GetRecentMessages
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return errors.Wrap(err, "messageRepo.EnsureIndexes")
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, msg)
	return errors.Wrap(err, "messageRepo.CreateMessage")
}

func (r *MongoMessageRepository) GetRecentMessages(ctx context.Context, conversationID uint, limit int64) ([]models.Message, error) {
	findOptions := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetRecentMessages.Find")
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetRecentMessages.All")
	}

	// newest-first from the index, callers render oldest-first
	slices.Reverse(messages)
	return messages, nil
}

func (r *MongoMessageRepository) GetMessage(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var msg models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.ErrMessageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.GetMessage")
	}
	return &msg, nil
}

func (r *MongoMessageRepository) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "messageRepo.DeleteMessage")
	}
	if result.DeletedCount == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}
