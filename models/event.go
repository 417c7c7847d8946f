package models

// AttendeeSlotCount is the fixed number of attendee slots per event.
const AttendeeSlotCount = 15

// Event status values as stored in the events collection. The Japanese
// labels match the community's operational vocabulary and the event-master
// records they are synchronized from.
const (
	EventStatusScheduled = "未開催"
	EventStatusOngoing   = "開催中"
	EventStatusFinished  = "終了"
	EventStatusCancelled = "キャンセル"
)

// ScheduledEvent represents one activity occurrence. Attendees is an ordered
// fixed-capacity slot array; an empty string marks a free slot and a user ID
// occupies at most one slot. RecordID is the stable identifier assigned by
// the external event master and may be empty on broken rows.
type ScheduledEvent struct {
	RecordID  string                    `bson:"record_id" json:"record_id"`
	Status    string                    `bson:"status" json:"status"`
	Title     string                    `bson:"title" json:"title"`
	Date      string                    `bson:"date" json:"date"`             // "YYYY/MM/DD", re-parsed on read
	StartTime string                    `bson:"start_time" json:"start_time"` // "HH:MM"
	EndTime   string                    `bson:"end_time" json:"end_time"`     // "HH:MM"
	Attendees [AttendeeSlotCount]string `bson:"attendees" json:"attendees"`
	ImageURL  string                    `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// SlotOf returns the slot index occupied by userID, or -1.
func (e *ScheduledEvent) SlotOf(userID string) int {
	for i, id := range e.Attendees {
		if id != "" && id == userID {
			return i
		}
	}
	return -1
}

// FreeSlot returns the lowest empty slot index, or -1 when the event is full.
func (e *ScheduledEvent) FreeSlot() int {
	for i, id := range e.Attendees {
		if id == "" {
			return i
		}
	}
	return -1
}

// AttendeeCount returns the number of occupied slots.
func (e *ScheduledEvent) AttendeeCount() int {
	n := 0
	for _, id := range e.Attendees {
		if id != "" {
			n++
		}
	}
	return n
}
