package reservation

import (
	"context"
	"fmt"
	"time"

	eventRepo "tsunagu/database/repository/event"
	participationRepo "tsunagu/database/repository/participation"
	"tsunagu/models"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// Service applies attendance changes against the capacity-bounded slot array.
// All slot reads and writes happen under a per-event lock.
type Service struct {
	Events        eventRepo.EventRepository
	Participation participationRepo.ParticipationRepository
	Locker        Locker
}

// NewService creates a reservation Service.
func NewService(events eventRepo.EventRepository, part participationRepo.ParticipationRepository, locker Locker) *Service {
	return &Service{Events: events, Participation: part, Locker: locker}
}

func lockKey(eventRecordID string) string {
	return fmt.Sprintf("rsvp:lock:%s", eventRecordID)
}

// Reserve applies one RSVP for userID against the event identified by
// eventRecordID. The returned event reflects the post-change slot state and
// is nil only for event_not_found and invalid_status outcomes.
//
// A lock that cannot be acquired is logged and the change proceeds anyway:
// losing an occasional race is preferable to silently dropping an RSVP.
func (s *Service) Reserve(ctx context.Context, eventRecordID, userID string, status models.RsvpStatus, source string) (models.ReservationResult, *models.ScheduledEvent, error) {
	logger := utils.GetLogger()

	if status != models.RsvpYes && status != models.RsvpNo {
		return models.ReservationInvalidStatus, nil, nil
	}

	release, err := s.Locker.Acquire(ctx, lockKey(eventRecordID))
	if err != nil {
		logger.Warn("Proceeding without reservation lock",
			zap.String("event", eventRecordID), zap.Error(err))
	} else {
		defer release()
	}

	event, err := s.Events.GetByRecordID(ctx, eventRecordID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load event %s: %w", eventRecordID, err)
	}
	// Only cancellation hides an event; RSVPs against ongoing or even
	// finished events still apply (late cancels after a session started).
	if event == nil || event.Status == models.EventStatusCancelled {
		return models.ReservationEventNotFound, nil, nil
	}

	switch status {
	case models.RsvpYes:
		if event.SlotOf(userID) >= 0 {
			return models.ReservationAlreadyRegistered, event, nil
		}
		slot := event.FreeSlot()
		if slot < 0 {
			return models.ReservationFull, event, nil
		}
		event.Attendees[slot] = userID
		if err := s.Events.UpdateAttendees(ctx, event.RecordID, event.Attendees); err != nil {
			return "", nil, fmt.Errorf("failed to persist attendee slots: %w", err)
		}
		s.appendLedger(ctx, event.RecordID, userID, "yes", source)
		return models.ReservationAdded, event, nil

	default: // RsvpNo
		slot := event.SlotOf(userID)
		if slot < 0 {
			return models.ReservationNotRegistered, event, nil
		}
		event.Attendees[slot] = ""
		if err := s.Events.UpdateAttendees(ctx, event.RecordID, event.Attendees); err != nil {
			return "", nil, fmt.Errorf("failed to persist attendee slots: %w", err)
		}
		s.appendLedger(ctx, event.RecordID, userID, "no", source)
		return models.ReservationRemoved, event, nil
	}
}

// appendLedger records the change in the participation ledger. Ledger writes
// are best-effort: the slot update already succeeded and must not be rolled
// back over an audit failure.
func (s *Service) appendLedger(ctx context.Context, eventRecordID, userID, action, source string) {
	entry := models.ParticipationEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EventRecordID: eventRecordID,
		UserID:        userID,
		Action:        action,
		Source:        source,
	}
	if _, err := s.Participation.Append(ctx, entry); err != nil {
		utils.GetLogger().Error("Failed to append participation ledger entry",
			zap.String("event", eventRecordID), zap.String("user", userID), zap.Error(err))
	}
}
