package kintone

import (
	"context"
	"fmt"
	"time"

	eventRepo "tsunagu/database/repository/event"
	"tsunagu/models"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// Fetcher provides event-master rows; satisfied by Client.
type Fetcher interface {
	FetchNextMonthEvents(ctx context.Context, now time.Time) ([]EventRecord, error)
}

// Syncer reconciles the local event table against the external event master.
type Syncer struct {
	Fetcher Fetcher
	Events  eventRepo.EventRepository

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewSyncer creates a Syncer.
func NewSyncer(fetcher Fetcher, events eventRepo.EventRepository) *Syncer {
	return &Syncer{Fetcher: fetcher, Events: events}
}

func (s *Syncer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sync upserts fetched rows and cancels local rows the master no longer has.
//
// Upserts preserve local status and attendee slots; a locally cancelled row
// that reappears in the master is revived to scheduled. Cancellation only
// touches scheduled rows in the fetched months, and is skipped entirely when
// the fetch comes back empty so a master outage never mass-cancels events.
func (s *Syncer) Sync(ctx context.Context) error {
	logger := utils.GetLogger()

	records, err := s.Fetcher.FetchNextMonthEvents(ctx, s.now())
	if err != nil {
		return fmt.Errorf("event-master fetch failed: %w", err)
	}
	if len(records) == 0 {
		logger.Warn("Event master returned no rows, skipping cancellation pass")
		return nil
	}

	fetched := make(map[string]bool, len(records))
	months := make(map[string]bool)
	var appended, updated, cancelled int

	for _, rec := range records {
		fetched[rec.RecordID] = true
		if t, err := utils.ParseEventDate(rec.Date); err == nil {
			months[t.Format("2006/01")] = true
		}

		existing, err := s.Events.GetByRecordID(ctx, rec.RecordID)
		if err != nil {
			return fmt.Errorf("failed to load event %s: %w", rec.RecordID, err)
		}

		if existing == nil {
			event := &models.ScheduledEvent{
				RecordID:  rec.RecordID,
				Status:    models.EventStatusScheduled,
				Title:     rec.Title,
				Date:      rec.Date,
				StartTime: rec.StartTime,
				EndTime:   rec.EndTime,
				ImageURL:  rec.ImageURL,
			}
			if err := s.Events.Create(ctx, event); err != nil {
				return fmt.Errorf("failed to create event %s: %w", rec.RecordID, err)
			}
			appended++
			continue
		}

		changed := existing.Title != rec.Title ||
			existing.Date != rec.Date ||
			existing.StartTime != rec.StartTime ||
			existing.EndTime != rec.EndTime ||
			existing.ImageURL != rec.ImageURL

		existing.Title = rec.Title
		existing.Date = rec.Date
		existing.StartTime = rec.StartTime
		existing.EndTime = rec.EndTime
		existing.ImageURL = rec.ImageURL

		if existing.Status == models.EventStatusCancelled {
			existing.Status = models.EventStatusScheduled
			changed = true
		}

		if changed {
			if err := s.Events.Update(ctx, existing); err != nil {
				return fmt.Errorf("failed to update event %s: %w", rec.RecordID, err)
			}
			updated++
		}
	}

	monthList := make([]string, 0, len(months))
	for m := range months {
		monthList = append(monthList, m)
	}

	local, err := s.Events.ListByMonths(ctx, monthList)
	if err != nil {
		return fmt.Errorf("failed to list local events: %w", err)
	}
	for _, e := range local {
		if fetched[e.RecordID] || e.Status != models.EventStatusScheduled {
			continue
		}
		if err := s.Events.UpdateStatus(ctx, e.RecordID, models.EventStatusCancelled); err != nil {
			logger.Error("Failed to cancel removed event",
				zap.String("record", e.RecordID), zap.Error(err))
			continue
		}
		cancelled++
	}

	logger.Info("Event sync finished",
		zap.Int("appended", appended), zap.Int("updated", updated), zap.Int("cancelled", cancelled))
	return nil
}
