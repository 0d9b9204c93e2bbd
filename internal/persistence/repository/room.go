package repository

import (
	"context"
	"errors"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type roomRepository struct {
	db *mongo.Database
}

func NewRoomRepository(database *mongo.Database) domain.RoomRepository {
	return &roomRepository{
		db: database,
	}
}

func (r *roomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	collection := r.db.Collection(db.RoomsCollection)

	var room domain.Room
	if err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}

	return &room, nil
}
