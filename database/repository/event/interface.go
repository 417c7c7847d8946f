package eventRepo

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

// EventRepository defines data access for the scheduled-event master.
type EventRepository interface {
	// GetByRecordID returns the event with the given master record ID, or nil.
	GetByRecordID(ctx context.Context, recordID string) (*models.ScheduledEvent, error)
	// ListActiveByDate returns every non-cancelled event on the given
	// normalized date. Callers decide how to treat zero or multiple matches.
	ListActiveByDate(ctx context.Context, date string) ([]models.ScheduledEvent, error)
	// ListUpcoming returns neither-finished-nor-cancelled events on or after
	// the given date, ordered by date then start time, capped at limit
	// (0 means no cap).
	ListUpcoming(ctx context.Context, from string, limit int) ([]models.ScheduledEvent, error)
	// ListByMonths returns all events whose date falls in any of the given
	// "YYYY/MM" months, regardless of status.
	ListByMonths(ctx context.Context, months []string) ([]models.ScheduledEvent, error)
	// Create inserts a new event row.
	Create(ctx context.Context, event *models.ScheduledEvent) error
	// Update replaces the stored event identified by its record ID.
	Update(ctx context.Context, event *models.ScheduledEvent) error
	// UpdateAttendees persists only the attendee slots of an event.
	UpdateAttendees(ctx context.Context, recordID string, attendees [models.AttendeeSlotCount]string) error
	// UpdateStatus persists only the status of an event.
	UpdateStatus(ctx context.Context, recordID string, status string) error
}

// MongoEventRepo implements EventRepository using MongoDB.
type MongoEventRepo struct {
	coll *mongo.Collection
}

// NewMongoEventRepo creates a new instance of EventRepository using MongoDB.
func NewMongoEventRepo() EventRepository {
	coll := database.MongoClient.Database("tsunagu").Collection("events")
	repo := &MongoEventRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "record_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
