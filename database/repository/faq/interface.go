package faqRepo

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

// FaqRepository defines data access for the knowledge base.
type FaqRepository interface {
	// ListAll returns every knowledge-base entry. Entries whose stored
	// embedding is absent or unparsable come back with a nil Embedding.
	ListAll(ctx context.Context) ([]models.FaqEntry, error)
	// Create inserts a new entry without an embedding.
	Create(ctx context.Context, entry *models.FaqEntry) error
	// UpdateEmbedding stores the embedding vector for an entry.
	UpdateEmbedding(ctx context.Context, id string, vector []float64) error
}

// MongoFaqRepo implements FaqRepository using MongoDB.
type MongoFaqRepo struct {
	coll *mongo.Collection
}

// NewMongoFaqRepo creates a new instance of FaqRepository using MongoDB.
func NewMongoFaqRepo() FaqRepository {
	coll := database.MongoClient.Database("tsunagu").Collection("faqs")
	repo := &MongoFaqRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoFaqRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
