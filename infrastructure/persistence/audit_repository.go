package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"crossposter/domain/model"
	"crossposter/infrastructure/logger"
)

// AuditRepository appends crosspost outcomes to MongoDB. Mongo is optional;
// with a nil client every write is a logged no-op.
type AuditRepository struct {
	mongoDb  *mongo.Client
	database string
}

func NewAuditRepository(mongoDb *mongo.Client, database string) *AuditRepository {
	if database == "" {
		database = "crossposter"
	}
	return &AuditRepository{mongoDb: mongoDb, database: database}
}

func (r *AuditRepository) Append(ctx context.Context, entry *model.CrosspostAudit) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if r.mongoDb == nil {
		logger.GetLogger().WithField("status", entry.Status).Debug("MongoDB client is nil - skipping audit write")
		return nil
	}
	collection := r.mongoDb.Database(r.database).Collection("crosspost_audit")
	if _, err := collection.InsertOne(ctx, entry); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while appending audit entry")
		return err
	}
	return nil
}

// RecentEntries returns the newest audit entries, most recent first.
func (r *AuditRepository) RecentEntries(ctx context.Context, limit int64) ([]model.CrosspostAudit, error) {
	if r.mongoDb == nil {
		return nil, nil
	}
	collection := r.mongoDb.Database(r.database).Collection("crosspost_audit")
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	var entries []model.CrosspostAudit
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
