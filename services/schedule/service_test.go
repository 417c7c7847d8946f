package schedule

import (
	"context"
	"os"
	"testing"
	"time"

	"tsunagu/config"
	"tsunagu/models"
	"tsunagu/services/line"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig.OrganizationName = "つなぐ"
	config.AppConfig.ActivityType = "地域"
	config.AppConfig.FallbackImages = "https://example.com/f1.jpg,https://example.com/f2.jpg"
	os.Exit(m.Run())
}

type pushed struct {
	to       string
	messages []any
}

type multicasted struct {
	to       []string
	messages []any
}

type fakeMessenger struct {
	pushes     []pushed
	multicasts []multicasted
}

func (m *fakeMessenger) Push(ctx context.Context, to string, messages ...any) error {
	m.pushes = append(m.pushes, pushed{to: to, messages: messages})
	return nil
}

func (m *fakeMessenger) Multicast(ctx context.Context, to []string, messages ...any) error {
	m.multicasts = append(m.multicasts, multicasted{to: to, messages: messages})
	return nil
}

type fakeEventRepo struct {
	byDate   map[string][]models.ScheduledEvent
	byMonth  []models.ScheduledEvent
	upcoming []models.ScheduledEvent
}

func (r *fakeEventRepo) GetByRecordID(ctx context.Context, recordID string) (*models.ScheduledEvent, error) {
	return nil, nil
}

func (r *fakeEventRepo) ListActiveByDate(ctx context.Context, date string) ([]models.ScheduledEvent, error) {
	return r.byDate[date], nil
}

func (r *fakeEventRepo) ListUpcoming(ctx context.Context, from string, limit int) ([]models.ScheduledEvent, error) {
	return r.upcoming, nil
}

func (r *fakeEventRepo) ListByMonths(ctx context.Context, months []string) ([]models.ScheduledEvent, error) {
	return r.byMonth, nil
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.ScheduledEvent) error { return nil }
func (r *fakeEventRepo) Update(ctx context.Context, event *models.ScheduledEvent) error { return nil }
func (r *fakeEventRepo) UpdateAttendees(ctx context.Context, recordID string, attendees [models.AttendeeSlotCount]string) error {
	return nil
}
func (r *fakeEventRepo) UpdateStatus(ctx context.Context, recordID string, status string) error {
	return nil
}

type fakeMemberRepo struct {
	ids []string
}

func (r *fakeMemberRepo) Add(ctx context.Context, userID string) error { return nil }
func (r *fakeMemberRepo) ListUserIDs(ctx context.Context) ([]string, error) {
	return r.ids, nil
}

func newTestService(events *fakeEventRepo, members *fakeMemberRepo) (*Service, *fakeMessenger) {
	m := &fakeMessenger{}
	s := NewService(m, events, members)
	// 2025-09-05 21:00 JST.
	s.Now = func() time.Time { return time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC) }
	return s, m
}

func monthEvent(recordID, title, date string) models.ScheduledEvent {
	return models.ScheduledEvent{
		RecordID:  recordID,
		Status:    models.EventStatusScheduled,
		Title:     title,
		Date:      date,
		StartTime: "10:00",
		EndTime:   "12:00",
	}
}

func TestBroadcastMonthlySchedule(t *testing.T) {
	events := &fakeEventRepo{byMonth: []models.ScheduledEvent{
		monthEvent("1", "清掃活動", "2025/09/06"),
		monthEvent("2", "草刈り", "2025/09/13"),
	}}
	cancelled := monthEvent("3", "中止イベント", "2025/09/20")
	cancelled.Status = models.EventStatusCancelled
	events.byMonth = append(events.byMonth, cancelled)

	members := &fakeMemberRepo{ids: []string{"U1", "U2"}}
	s, m := newTestService(events, members)

	require.NoError(t, s.BroadcastMonthlySchedule(context.Background()))

	require.Len(t, m.multicasts, 1)
	mc := m.multicasts[0]
	assert.Equal(t, []string{"U1", "U2"}, mc.to)
	require.Len(t, mc.messages, 2, "one header text plus one carousel")

	header, ok := mc.messages[0].(line.TextMessage)
	require.True(t, ok)
	assert.Contains(t, header.Text, "9月")

	carousel, ok := mc.messages[1].(line.TemplateMessage)
	require.True(t, ok)
	tmpl := carousel.Template.(line.CarouselTemplate)
	require.Len(t, tmpl.Columns, 2, "cancelled events are excluded")

	col := tmpl.Columns[0]
	assert.Equal(t, "📌 清掃活動", col.Title)
	assert.Contains(t, col.Text, "9/6(土)")
	require.Len(t, col.Actions, 2)
	assert.Equal(t, "9/6(土) 参加します", col.Actions[0].Text)
	assert.Equal(t, "9/6(土) 不参加", col.Actions[1].Text)
	assert.NotEmpty(t, col.ThumbnailImageURL, "events without images get a fallback thumbnail")
}

func TestBroadcastCapsColumns(t *testing.T) {
	events := &fakeEventRepo{}
	for i := 0; i < 14; i++ {
		events.byMonth = append(events.byMonth,
			monthEvent(string(rune('a'+i)), "活動", "2025/09/06"))
	}
	s, m := newTestService(events, &fakeMemberRepo{ids: []string{"U1"}})

	require.NoError(t, s.BroadcastMonthlySchedule(context.Background()))

	require.Len(t, m.multicasts, 1)
	carousel := m.multicasts[0].messages[1].(line.TemplateMessage)
	assert.Len(t, carousel.Template.(line.CarouselTemplate).Columns, maxCarouselColumns)
}

func TestBroadcastSkipsWithoutRecipients(t *testing.T) {
	events := &fakeEventRepo{byMonth: []models.ScheduledEvent{monthEvent("1", "活動", "2025/09/06")}}
	s, m := newTestService(events, &fakeMemberRepo{})

	require.NoError(t, s.BroadcastMonthlySchedule(context.Background()))
	assert.Empty(t, m.multicasts)
}

func TestSendEventRemindersSplitsByRegistration(t *testing.T) {
	e := monthEvent("101", "清掃活動", "2025/09/06")
	e.Attendees[0] = "U1"
	events := &fakeEventRepo{byDate: map[string][]models.ScheduledEvent{"2025/09/06": {e}}}
	members := &fakeMemberRepo{ids: []string{"U1", "U2", "U3"}}
	s, m := newTestService(events, members)

	require.NoError(t, s.SendEventReminders(context.Background()))

	byUser := make(map[string]pushed)
	for _, p := range m.pushes {
		byUser[p.to] = p
	}
	require.Len(t, byUser, 3)

	// Registered attendee gets a reminder text.
	reminder, ok := byUser["U1"].messages[0].(line.TextMessage)
	require.True(t, ok)
	assert.Contains(t, reminder.Text, "🔔 リマインダー")
	assert.Contains(t, reminder.Text, "清掃活動")

	// Everyone else gets the confirm template with postback targets.
	for _, uid := range []string{"U2", "U3"} {
		var confirm line.TemplateMessage
		found := false
		for _, msg := range byUser[uid].messages {
			if tm, ok := msg.(line.TemplateMessage); ok {
				confirm = tm
				found = true
			}
		}
		require.True(t, found, "non-attendee %s gets a confirm template", uid)
		tmpl := confirm.Template.(line.ConfirmTemplate)
		assert.Equal(t, "rsvp:yes:101", tmpl.Actions[0].Data)
		assert.Equal(t, "rsvp:no:101", tmpl.Actions[1].Data)
		assert.Contains(t, tmpl.Text, "📝 参加確認")
		assert.Contains(t, tmpl.Text, "9/6(土)")
	}
}

func TestSendEventRemindersSkipsEmptyRecordID(t *testing.T) {
	e := monthEvent("", "壊れた行", "2025/09/06")
	events := &fakeEventRepo{byDate: map[string][]models.ScheduledEvent{"2025/09/06": {e}}}
	members := &fakeMemberRepo{ids: []string{"U1"}}
	s, m := newTestService(events, members)

	require.NoError(t, s.SendEventReminders(context.Background()))
	assert.Empty(t, m.pushes, "no confirm buttons without a postback target")
}

func TestSendThankYouMessages(t *testing.T) {
	today := monthEvent("101", "清掃活動", "2025/09/05")
	today.Attendees[0] = "U1"
	today.Attendees[3] = "U2"
	other := monthEvent("102", "別日", "2025/09/12")
	other.Attendees[0] = "U3"

	events := &fakeEventRepo{byMonth: []models.ScheduledEvent{today, other}}
	s, m := newTestService(events, &fakeMemberRepo{})

	require.NoError(t, s.SendThankYouMessages(context.Background()))

	require.Len(t, m.pushes, 2, "only today's attendees are thanked")
	targets := []string{m.pushes[0].to, m.pushes[1].to}
	assert.ElementsMatch(t, []string{"U1", "U2"}, targets)

	msg := m.pushes[0].messages[0].(line.TextMessage)
	assert.Contains(t, msg.Text, "🙏 活動のお礼")
	assert.Contains(t, msg.Text, "清掃活動")
}

func TestPickFallbackImageIsDeterministic(t *testing.T) {
	first := pickFallbackImage("record-1")
	assert.Equal(t, first, pickFallbackImage("record-1"))
	assert.NotEmpty(t, first)
}

func TestChooseImagePrefersEventImage(t *testing.T) {
	assert.Equal(t, "https://example.com/e.jpg", chooseImage("https://example.com/e.jpg", "r1"))
	assert.NotEqual(t, "", chooseImage("", "r1"))
	assert.NotEqual(t, "not a url", chooseImage("not a url", "r1"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "あいう", truncateRunes("あいうえお", 3))
	assert.Equal(t, "short", truncateRunes("short", 40))
}
