package mongodb

import (
	"context"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) interfaces.SessionRepository {
	return &sessionRepository{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, session)
	return translateError(err, "create session")
}

// GetByToken ignores sessions past expiry that the TTL monitor has not removed yet.
func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.collection.FindOne(ctx, bson.M{
		"session_token": token,
		"expires_at":    bson.M{"$gt": time.Now()},
	}).Decode(&session)
	if err != nil {
		return nil, translateError(err, "get session")
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"session_token": token})
	return translateError(err, "delete session")
}
