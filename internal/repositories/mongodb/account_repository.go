package mongodb

import (
	"context"
	"fmt"
	"time"

	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) interfaces.AccountRepository {
	return &accountRepository{
		collection: db.Collection("accounts"),
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	now := time.Now()
	account.ID = primitive.NewObjectID()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, account)
	return translateError(err, "create account")
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&account); err != nil {
		return nil, translateError(err, "get account by email")
	}
	return &account, nil
}

func (r *accountRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&account); err != nil {
		return nil, translateError(err, "get account by user")
	}
	return &account, nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": passwordHash, "updated_at": time.Now()}},
	)
	if err != nil {
		return translateError(err, "update password")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update password: %w", interfaces.ErrNotFound)
	}
	return nil
}
