package eventRepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tsunagu/models"
	"tsunagu/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetByRecordID returns the event with the given master record ID, or nil.
func (r *MongoEventRepo) GetByRecordID(ctx context.Context, recordID string) (*models.ScheduledEvent, error) {
	var event models.ScheduledEvent
	err := r.coll.FindOne(ctx, bson.M{"record_id": recordID}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch event %s: %w", recordID, err)
	}
	return &event, nil
}

// ListActiveByDate returns every non-cancelled event on the given date.
// Ongoing and even finished rows stay visible here; only cancellation hides
// an event from date lookups. Stored date strings are re-parsed rather than
// compared textually, so rows with single-digit month or day components
// still match.
func (r *MongoEventRepo) ListActiveByDate(ctx context.Context, date string) ([]models.ScheduledEvent, error) {
	want, err := utils.ParseEventDate(date)
	if err != nil {
		return nil, err
	}

	events, err := r.listExcludingStatuses(ctx, models.EventStatusCancelled)
	if err != nil {
		return nil, err
	}

	var matched []models.ScheduledEvent
	for i := range events {
		t, err := utils.ParseEventDate(events[i].Date)
		if err != nil {
			continue
		}
		if t.Equal(want) {
			matched = append(matched, events[i])
		}
	}
	return matched, nil
}

// ListUpcoming returns neither-finished-nor-cancelled events on or after the
// given date, ordered by date then start time, capped at limit (0 means no
// cap).
func (r *MongoEventRepo) ListUpcoming(ctx context.Context, from string, limit int) ([]models.ScheduledEvent, error) {
	start, err := utils.ParseEventDate(from)
	if err != nil {
		return nil, err
	}

	events, err := r.listExcludingStatuses(ctx, models.EventStatusFinished, models.EventStatusCancelled)
	if err != nil {
		return nil, err
	}

	out := orderUpcoming(events, start)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// orderUpcoming filters out events before start or with unparsable dates and
// sorts the rest by date, then start time.
func orderUpcoming(events []models.ScheduledEvent, start time.Time) []models.ScheduledEvent {
	type dated struct {
		event models.ScheduledEvent
		when  int64
	}
	var upcoming []dated
	for _, e := range events {
		t, err := utils.ParseEventDate(e.Date)
		if err != nil || t.Before(start) {
			continue
		}
		upcoming = append(upcoming, dated{event: e, when: t.Unix()})
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].when != upcoming[j].when {
			return upcoming[i].when < upcoming[j].when
		}
		return upcoming[i].event.StartTime < upcoming[j].event.StartTime
	})

	out := make([]models.ScheduledEvent, 0, len(upcoming))
	for _, d := range upcoming {
		out = append(out, d.event)
	}
	return out
}

// ListByMonths returns all events whose date falls in any given "YYYY/MM" month.
func (r *MongoEventRepo) ListByMonths(ctx context.Context, months []string) ([]models.ScheduledEvent, error) {
	if len(months) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}
	defer cursor.Close(ctx)

	var all []models.ScheduledEvent
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	var out []models.ScheduledEvent
	for _, e := range all {
		t, err := utils.ParseEventDate(e.Date)
		if err != nil {
			continue
		}
		if wanted[t.Format("2006/01")] {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create inserts a new event row.
func (r *MongoEventRepo) Create(ctx context.Context, event *models.ScheduledEvent) error {
	if strings.TrimSpace(event.RecordID) == "" {
		return fmt.Errorf("event record ID is required")
	}
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to create event %s: %w", event.RecordID, err)
	}
	return nil
}

// Update replaces the stored event identified by its record ID.
func (r *MongoEventRepo) Update(ctx context.Context, event *models.ScheduledEvent) error {
	filter := bson.M{"record_id": event.RecordID}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": event})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.RecordID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", event.RecordID)
	}
	return nil
}

// UpdateAttendees persists only the attendee slots of an event.
func (r *MongoEventRepo) UpdateAttendees(ctx context.Context, recordID string, attendees [models.AttendeeSlotCount]string) error {
	filter := bson.M{"record_id": recordID}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"attendees": attendees}})
	if err != nil {
		return fmt.Errorf("failed to update attendees of event %s: %w", recordID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", recordID)
	}
	return nil
}

// UpdateStatus persists only the status of an event.
func (r *MongoEventRepo) UpdateStatus(ctx context.Context, recordID string, status string) error {
	filter := bson.M{"record_id": recordID}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update status of event %s: %w", recordID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", recordID)
	}
	return nil
}

func (r *MongoEventRepo) listExcludingStatuses(ctx context.Context, statuses ...string) ([]models.ScheduledEvent, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"status": bson.M{"$nin": statuses}})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.ScheduledEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}
