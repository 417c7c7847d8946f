package kintone

import (
	"context"
	"errors"
	"testing"
	"time"

	"tsunagu/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records []EventRecord
	err     error
}

func (f *fakeFetcher) FetchNextMonthEvents(ctx context.Context, now time.Time) ([]EventRecord, error) {
	return f.records, f.err
}

type fakeEventRepo struct {
	events   map[string]*models.ScheduledEvent
	statuses map[string]string
}

func newFakeEventRepo(events ...*models.ScheduledEvent) *fakeEventRepo {
	r := &fakeEventRepo{
		events:   make(map[string]*models.ScheduledEvent),
		statuses: make(map[string]string),
	}
	for _, e := range events {
		r.events[e.RecordID] = e
	}
	return r
}

func (r *fakeEventRepo) GetByRecordID(ctx context.Context, recordID string) (*models.ScheduledEvent, error) {
	e, ok := r.events[recordID]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEventRepo) ListActiveByDate(ctx context.Context, date string) ([]models.ScheduledEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) ListUpcoming(ctx context.Context, from string, limit int) ([]models.ScheduledEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) ListByMonths(ctx context.Context, months []string) ([]models.ScheduledEvent, error) {
	want := make(map[string]bool, len(months))
	for _, m := range months {
		want[m] = true
	}
	var out []models.ScheduledEvent
	for _, e := range r.events {
		if len(e.Date) >= 7 && want[e.Date[:7]] {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.ScheduledEvent) error {
	r.events[event.RecordID] = event
	return nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *models.ScheduledEvent) error {
	r.events[event.RecordID] = event
	return nil
}

func (r *fakeEventRepo) UpdateAttendees(ctx context.Context, recordID string, attendees [models.AttendeeSlotCount]string) error {
	r.events[recordID].Attendees = attendees
	return nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, recordID string, status string) error {
	r.events[recordID].Status = status
	r.statuses[recordID] = status
	return nil
}

func newSyncer(fetcher Fetcher, events *fakeEventRepo) *Syncer {
	s := NewSyncer(fetcher, events)
	s.Now = func() time.Time {
		return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSyncAppendsNewRecords(t *testing.T) {
	fetcher := &fakeFetcher{records: []EventRecord{
		{RecordID: "101", Title: "清掃活動", Date: "2025/10/04", StartTime: "10:00", EndTime: "12:00"},
	}}
	events := newFakeEventRepo()
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))

	created := events.events["101"]
	require.NotNil(t, created)
	assert.Equal(t, models.EventStatusScheduled, created.Status)
	assert.Equal(t, "清掃活動", created.Title)
}

func TestSyncPreservesStatusAndAttendees(t *testing.T) {
	existing := &models.ScheduledEvent{
		RecordID: "101",
		Status:   models.EventStatusOngoing,
		Title:    "旧タイトル",
		Date:     "2025/10/04",
	}
	existing.Attendees[0] = "U1"
	existing.Attendees[1] = "U2"

	fetcher := &fakeFetcher{records: []EventRecord{
		{RecordID: "101", Title: "新タイトル", Date: "2025/10/04", StartTime: "10:00", EndTime: "12:00"},
	}}
	events := newFakeEventRepo(existing)
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))

	updated := events.events["101"]
	assert.Equal(t, "新タイトル", updated.Title)
	assert.Equal(t, models.EventStatusOngoing, updated.Status, "local status survives the upsert")
	assert.Equal(t, "U1", updated.Attendees[0], "attendee slots survive the upsert")
	assert.Equal(t, "U2", updated.Attendees[1])
}

func TestSyncRevivesCancelledRecord(t *testing.T) {
	existing := &models.ScheduledEvent{
		RecordID: "101",
		Status:   models.EventStatusCancelled,
		Title:    "復活イベント",
		Date:     "2025/10/04",
	}
	fetcher := &fakeFetcher{records: []EventRecord{
		{RecordID: "101", Title: "復活イベント", Date: "2025/10/04"},
	}}
	events := newFakeEventRepo(existing)
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, models.EventStatusScheduled, events.events["101"].Status)
}

func TestSyncCancelsMissingScheduledRecords(t *testing.T) {
	kept := &models.ScheduledEvent{
		RecordID: "101", Status: models.EventStatusScheduled, Date: "2025/10/04",
	}
	dropped := &models.ScheduledEvent{
		RecordID: "102", Status: models.EventStatusScheduled, Date: "2025/10/11",
	}
	finished := &models.ScheduledEvent{
		RecordID: "103", Status: models.EventStatusFinished, Date: "2025/10/18",
	}
	otherMonth := &models.ScheduledEvent{
		RecordID: "104", Status: models.EventStatusScheduled, Date: "2025/11/01",
	}

	fetcher := &fakeFetcher{records: []EventRecord{
		{RecordID: "101", Date: "2025/10/04"},
	}}
	events := newFakeEventRepo(kept, dropped, finished, otherMonth)
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))

	assert.Equal(t, models.EventStatusScheduled, events.events["101"].Status)
	assert.Equal(t, models.EventStatusCancelled, events.events["102"].Status,
		"scheduled rows missing from the master are cancelled")
	assert.Equal(t, models.EventStatusFinished, events.events["103"].Status,
		"only scheduled rows are eligible for cancellation")
	assert.Equal(t, models.EventStatusScheduled, events.events["104"].Status,
		"rows outside the fetched months are untouched")
}

func TestSyncEmptyFetchSkipsCancellation(t *testing.T) {
	existing := &models.ScheduledEvent{
		RecordID: "101", Status: models.EventStatusScheduled, Date: "2025/10/04",
	}
	fetcher := &fakeFetcher{}
	events := newFakeEventRepo(existing)
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, models.EventStatusScheduled, events.events["101"].Status,
		"an empty fetch never mass-cancels local rows")
	assert.Empty(t, events.statuses)
}

func TestSyncPropagatesFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("kintone unreachable")}
	s := newSyncer(fetcher, newFakeEventRepo())

	assert.Error(t, s.Sync(context.Background()))
}

func TestSyncSkipsUnchangedRecords(t *testing.T) {
	existing := &models.ScheduledEvent{
		RecordID: "101", Status: models.EventStatusScheduled,
		Title: "清掃活動", Date: "2025/10/04", StartTime: "10:00", EndTime: "12:00",
	}
	fetcher := &fakeFetcher{records: []EventRecord{
		{RecordID: "101", Title: "清掃活動", Date: "2025/10/04", StartTime: "10:00", EndTime: "12:00"},
	}}
	events := newFakeEventRepo(existing)
	s := newSyncer(fetcher, events)

	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, existing.Title, events.events["101"].Title)
}
