package participationRepo

import (
	"context"
	"fmt"

	"tsunagu/database"
	"tsunagu/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ParticipationRepository defines data access for the append-only
// participation ledger.
type ParticipationRepository interface {
	// Append records one ledger row and returns its ID.
	Append(ctx context.Context, entry models.ParticipationEntry) (string, error)
	// ListByEvent returns all ledger rows for one event.
	ListByEvent(ctx context.Context, eventRecordID string) ([]models.ParticipationEntry, error)
}

// MongoParticipationRepo implements ParticipationRepository using MongoDB.
type MongoParticipationRepo struct {
	coll *mongo.Collection
}

// NewMongoParticipationRepo creates a new instance of ParticipationRepository using MongoDB.
func NewMongoParticipationRepo() ParticipationRepository {
	coll := database.MongoClient.Database("tsunagu").Collection("participations")
	return &MongoParticipationRepo{coll: coll}
}

// Append records one ledger row and returns its ID.
func (r *MongoParticipationRepo) Append(ctx context.Context, entry models.ParticipationEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to append participation entry: %w", err)
	}
	return entry.ID, nil
}

// ListByEvent returns all ledger rows for one event.
func (r *MongoParticipationRepo) ListByEvent(ctx context.Context, eventRecordID string) ([]models.ParticipationEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"event_record_id": eventRecordID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve participation entries for %s: %w", eventRecordID, err)
	}
	defer cursor.Close(ctx)

	var rows []models.ParticipationEntry
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode participation entries: %w", err)
	}
	return rows, nil
}
