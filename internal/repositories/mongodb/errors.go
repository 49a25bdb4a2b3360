package mongodb

import (
	"errors"
	"fmt"

	"oneridetho/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

// translateError maps driver errors onto the repository sentinels and wraps
// everything else with the failed action.
func translateError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("failed to %s: %w", action, interfaces.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w", action, interfaces.ErrDuplicateKey)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
