package faqRepo

import (
	"context"
	"encoding/json"
	"fmt"

	"tsunagu/models"
	"tsunagu/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// faqDoc is the stored shape of a knowledge-base entry. The embedding is
// persisted as a JSON string so operators can inspect and edit rows directly;
// parsing is tolerant and a bad vector only disables matching for that row.
type faqDoc struct {
	ID        string `bson:"id"`
	Question  string `bson:"question"`
	Answer    string `bson:"answer"`
	Embedding string `bson:"embedding,omitempty"`
}

// ListAll returns every knowledge-base entry, decoding stored embeddings.
func (r *MongoFaqRepo) ListAll(ctx context.Context) ([]models.FaqEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve faq entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []faqDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode faq entries: %w", err)
	}
	return entriesFromDocs(docs), nil
}

// entriesFromDocs converts stored rows into knowledge-base entries. Rows
// missing a question or an answer are dropped; a bad embedding only leaves
// its row unmatched, not unanswered.
func entriesFromDocs(docs []faqDoc) []models.FaqEntry {
	logger := utils.GetLogger()
	entries := make([]models.FaqEntry, 0, len(docs))
	for _, d := range docs {
		if d.Question == "" || d.Answer == "" {
			logger.Warn("Skipping incomplete faq row", zap.String("id", d.ID))
			continue
		}
		entry := models.FaqEntry{ID: d.ID, Question: d.Question, Answer: d.Answer}
		if d.Embedding != "" {
			var vec []float64
			if err := json.Unmarshal([]byte(d.Embedding), &vec); err != nil {
				logger.Warn("Skipping unparsable faq embedding",
					zap.String("id", d.ID), zap.Error(err))
			} else if utils.IsValidVector(vec) {
				entry.Embedding = vec
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// Create inserts a new entry without an embedding.
func (r *MongoFaqRepo) Create(ctx context.Context, entry *models.FaqEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	doc := faqDoc{ID: entry.ID, Question: entry.Question, Answer: entry.Answer}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create faq entry: %w", err)
	}
	return nil
}

// UpdateEmbedding stores the embedding vector for an entry.
func (r *MongoFaqRepo) UpdateEmbedding(ctx context.Context, id string, vector []float64) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding for faq %s: %w", id, err)
	}

	filter := bson.M{"id": id}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"embedding": string(raw)}})
	if err != nil {
		return fmt.Errorf("failed to update embedding for faq %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("faq entry %s not found", id)
	}
	return nil
}
