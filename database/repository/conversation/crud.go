package conversationRepo

import (
	"context"
	"fmt"

	"tsunagu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Append records one interaction row.
func (r *MongoConversationRepo) Append(ctx context.Context, entry models.InteractionLog) error {
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append interaction log: %w", err)
	}
	return nil
}

// ListRecentByUser returns up to limit of the user's most recent rows, newest first.
func (r *MongoConversationRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.InteractionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve interaction logs for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var rows []models.InteractionLog
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode interaction logs: %w", err)
	}
	return rows, nil
}
