package eventRepo

import (
	"testing"
	"time"

	"tsunagu/models"
	"tsunagu/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upcomingEvent(recordID, date, startTime string) models.ScheduledEvent {
	return models.ScheduledEvent{
		RecordID:  recordID,
		Status:    models.EventStatusScheduled,
		Title:     "清掃活動",
		Date:      date,
		StartTime: startTime,
	}
}

func TestOrderUpcomingSortsByDateThenStartTime(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, utils.JST)
	events := []models.ScheduledEvent{
		upcomingEvent("3", "2025/09/20", "10:00"),
		upcomingEvent("2", "2025/09/06", "13:00"),
		upcomingEvent("1", "2025/09/06", "09:30"),
	}

	out := orderUpcoming(events, start)
	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].RecordID, "same-day events order by start time")
	assert.Equal(t, "2", out[1].RecordID)
	assert.Equal(t, "3", out[2].RecordID)
}

func TestOrderUpcomingDropsPastAndUnparsableDates(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, utils.JST)
	events := []models.ScheduledEvent{
		upcomingEvent("past", "2025/08/31", "10:00"),
		upcomingEvent("bad", "未定", "10:00"),
		upcomingEvent("kept", "2025/09/01", "10:00"),
	}

	out := orderUpcoming(events, start)
	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].RecordID)
}
