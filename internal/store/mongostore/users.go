package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser inserts a new user. A duplicate email yields store.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	user.CreatedAt = user.CreatedAt.UTC()
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %s already registered: %w", user.Email, store.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M, what string) (models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, fmt.Errorf("user with %s: %w", what, store.ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id}, "ID "+id)
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.M{"email": email}, "email "+email)
}

// ListGuestsCreatedBefore returns guest accounts older than the given instant.
func (s *Store) ListGuestsCreatedBefore(ctx context.Context, before time.Time) ([]models.User, error) {
	cur, err := s.users.Find(ctx,
		bson.M{"is_guest": true, "created_at": bson.M{"$lt": before.UTC()}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser pulls the user out of every attendee set, then removes the account.
func (s *Store) DeleteUser(ctx context.Context, id string) ([]string, error) {
	cur, err := s.events.Find(ctx, bson.M{"attendees": id}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	if len(docs) > 0 {
		_, err = s.events.UpdateMany(ctx, bson.M{"attendees": id}, bson.M{"$pull": bson.M{"attendees": id}})
		if err != nil {
			return nil, fmt.Errorf("failed to remove attendance: %w", err)
		}
	}

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, fmt.Errorf("user with ID %s: %w", id, store.ErrNotFound)
	}

	eventIDs := make([]string, len(docs))
	for i, d := range docs {
		eventIDs[i] = d.ID
	}
	return eventIDs, nil
}

// CountUsers returns the number of user accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	return int(n), err
}
