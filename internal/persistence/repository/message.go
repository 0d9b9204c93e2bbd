package repository

import (
	"context"
	"errors"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(database *mongo.Database) domain.MessageRepository {
	return &messageRepository{
		db: database,
	}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	if message == nil || message.ID == 0 || message.RoomID == 0 {
		return domain.ErrInvalidInput
	}

	collection := r.db.Collection(db.MessagesCollection)

	_, err := collection.InsertOne(ctx, message)
	return err
}

func (r *messageRepository) GetByID(ctx context.Context, roomID, id int64) (*domain.Message, error) {
	collection := r.db.Collection(db.MessagesCollection)

	filter := bson.M{
		"_id":     id,
		"room_id": roomID,
	}

	var message domain.Message
	if err := collection.FindOne(ctx, filter).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}

	return &message, nil
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	collection := r.db.Collection(db.MessagesCollection)

	filter := bson.M{"room_id": roomID}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// Delete targets the row by the exact (id, created_at, room_id) triple.
// The creation timestamp clusters the row in storage, so a partial-key
// delete could remove the wrong record.
func (r *messageRepository) Delete(ctx context.Context, message *domain.Message) error {
	if message == nil || message.ID == 0 || message.RoomID == 0 {
		return domain.ErrInvalidInput
	}

	collection := r.db.Collection(db.MessagesCollection)

	filter := bson.M{
		"_id":        message.ID,
		"created_at": message.CreatedAt,
		"room_id":    message.RoomID,
	}

	result, err := collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrMessageNotFound
	}

	return nil
}

func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.MessagesCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "_id", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
