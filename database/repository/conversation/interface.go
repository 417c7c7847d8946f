package conversationRepo

import (
	"context"
	"fmt"
	"time"

	"tsunagu/database"
	"tsunagu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ConversationRepository defines data access for the interaction audit log.
type ConversationRepository interface {
	// Append records one interaction row.
	Append(ctx context.Context, entry models.InteractionLog) error
	// ListRecentByUser returns up to limit of the user's most recent rows,
	// newest first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.InteractionLog, error)
}

// MongoConversationRepo implements ConversationRepository using MongoDB.
type MongoConversationRepo struct {
	coll *mongo.Collection
}

// NewMongoConversationRepo creates a new instance of ConversationRepository using MongoDB.
func NewMongoConversationRepo() ConversationRepository {
	coll := database.MongoClient.Database("tsunagu").Collection("interaction_logs")
	repo := &MongoConversationRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoConversationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
