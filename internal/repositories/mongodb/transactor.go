package mongodb

import (
	"context"

	"oneridetho/internal/repositories/interfaces"
	"oneridetho/pkg/database"

	"go.mongodb.org/mongo-driver/mongo"
)

type transactor struct {
	db *database.MongoDB
}

func NewTransactor(db *database.MongoDB) interfaces.Transactor {
	return &transactor{db: db}
}

// WithTransaction may run fn more than once on transient transaction errors.
func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := t.db.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
