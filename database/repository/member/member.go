package memberRepo

import (
	"context"
	"fmt"
	"time"

	"tsunagu/database"
	"tsunagu/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemberRepository defines data access for the membership roster.
type MemberRepository interface {
	// Add registers a user on the roster; re-adding is a no-op.
	Add(ctx context.Context, userID string) error
	// ListUserIDs returns every roster user ID.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// MongoMemberRepo implements MemberRepository using MongoDB.
type MongoMemberRepo struct {
	coll *mongo.Collection
}

// NewMongoMemberRepo creates a new instance of MemberRepository using MongoDB.
func NewMongoMemberRepo() MemberRepository {
	coll := database.MongoClient.Database("tsunagu").Collection("members")
	repo := &MongoMemberRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoMemberRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Add registers a user on the roster; re-adding is a no-op.
func (r *MongoMemberRepo) Add(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{"$setOnInsert": models.Member{
		UserID:  userID,
		AddedAt: time.Now().UTC().Format(time.RFC3339),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to add member %s: %w", userID, err)
	}
	return nil
}

// ListUserIDs returns every roster user ID.
func (r *MongoMemberRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve members: %w", err)
	}
	defer cursor.Close(ctx)

	var members []models.Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}
