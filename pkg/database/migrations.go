package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logf       func(format string, args ...interface{})
}

func NewMigrator(db *mongo.Database, logf func(format string, args ...interface{})) *Migrator {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Migrator{
		db:         db,
		migrations: Migrations(),
		logf:       logf,
	}
}

// Up applies every migration newer than the stored version, in order.
func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logf("Running migration %d: %s", migration.Version, migration.Description)
		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Migrations lists the index migrations in version order.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "users and accounts unique keys",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := createIndexes(ctx, db.Collection("users"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
					{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
				}); err != nil {
					return err
				}
				return createIndexes(ctx, db.Collection("accounts"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
					{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
				})
			},
		},
		{
			Version:     2,
			Description: "sessions token and expiry",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createIndexes(ctx, db.Collection("sessions"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "session_token", Value: 1}}, Options: options.Index().SetUnique(true)},
					{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
				})
			},
		},
		{
			Version:     3,
			Description: "rides lookup, overlap and idempotency keys",
			Up: func(ctx context.Context, db *mongo.Database) error {
				return createIndexes(ctx, db.Collection("rides"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
					{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "pickup_time", Value: 1}}},
					{Keys: bson.D{{Key: "driver_id", Value: 1}}},
					{
						Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
						Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
					},
				})
			},
		},
		{
			Version:     4,
			Description: "drivers, ratings and driver locations",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := createIndexes(ctx, db.Collection("drivers"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "active", Value: 1}}},
				}); err != nil {
					return err
				}
				if err := createIndexes(ctx, db.Collection("ratings"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "driver_id", Value: 1}}},
					{Keys: bson.D{{Key: "ride_id", Value: 1}}, Options: options.Index().SetUnique(true)},
				}); err != nil {
					return err
				}
				return createIndexes(ctx, db.Collection("driver_locations"), []mongo.IndexModel{
					{Keys: bson.D{{Key: "driver_id", Value: 1}}, Options: options.Index().SetUnique(true)},
				})
			},
		},
	}
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", collection.Name(), err)
	}
	return nil
}
