package repository

import (
	"context"
	"errors"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// userRepository is the adapter behind the auth boundary: it resolves
// an opaque credential into the caller's profile. Token issuance and
// user provisioning live in a different service.
type userRepository struct {
	db *mongo.Database
}

func NewUserRepository(database *mongo.Database) domain.UserRepository {
	return &userRepository{
		db: database,
	}
}

func (r *userRepository) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	collection := r.db.Collection(db.UsersCollection)

	var user domain.User
	if err := collection.FindOne(ctx, bson.M{"token": token}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	return &user, nil
}
