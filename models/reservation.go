package models

// RsvpStatus is the desired attendance state expressed by a user.
type RsvpStatus string

const (
	RsvpYes RsvpStatus = "yes"
	RsvpNo  RsvpStatus = "no"
)

// ReservationResult is the contract boundary between the reservation engine
// and the intent router; the router never inspects attendee slots directly.
type ReservationResult string

const (
	ReservationAdded             ReservationResult = "added"
	ReservationRemoved           ReservationResult = "removed"
	ReservationAlreadyRegistered ReservationResult = "already_registered"
	ReservationNotRegistered     ReservationResult = "not_registered"
	ReservationFull              ReservationResult = "full"
	ReservationEventNotFound     ReservationResult = "event_not_found"
	ReservationInvalidStatus     ReservationResult = "invalid_status"
)

// ParticipationEntry is one append-only row of the participation ledger,
// distinct from the general interaction audit log.
type ParticipationEntry struct {
	ID            string `bson:"id" json:"id"`
	Timestamp     string `bson:"timestamp" json:"timestamp"` // ISO-8601
	EventRecordID string `bson:"event_record_id" json:"event_record_id"`
	UserID        string `bson:"user_id" json:"user_id"`
	Action        string `bson:"action" json:"action"` // yes | no
	Source        string `bson:"source" json:"source"` // text | postback | admin | rsvp
	Note          string `bson:"note,omitempty" json:"note,omitempty"`
}
