package schedule

import (
	"context"
	"fmt"

	"tsunagu/services/line"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// SendEventReminders notifies tomorrow's registered attendees and asks
// everyone else on the roster to confirm.
func (s *Service) SendEventReminders(ctx context.Context) error {
	logger := utils.GetLogger()

	events, err := s.Events.ListActiveByDate(ctx, utils.Tomorrow(s.now()))
	if err != nil {
		return fmt.Errorf("failed to load tomorrow's events: %w", err)
	}
	if len(events) == 0 {
		logger.Info("No events tomorrow, skipping reminders")
		return nil
	}

	roster, err := s.Members.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load member roster: %w", err)
	}
	if len(roster) == 0 {
		logger.Info("Member roster is empty, skipping reminders")
		return nil
	}

	for _, e := range events {
		image := chooseImage(e.ImageURL, e.RecordID)
		timeRange := e.StartTime + "〜" + e.EndTime

		registered := make(map[string]bool)
		for _, uid := range e.Attendees {
			if uid != "" {
				registered[uid] = true
			}
		}

		if len(registered) > 0 {
			reminder := "🔔 リマインダー\n📅 明日は「" + e.Title + "」の活動日です！\n\n" +
				"🕒 時間: " + timeRange + "\n\n😊 お会いできるのを楽しみにしています！"
			for uid := range registered {
				if err := s.Line.Push(ctx, uid, withOptionalImage(reminder, image)...); err != nil {
					logger.Error("Failed to send reminder",
						zap.String("user", uid), zap.Error(err))
				}
			}
		}

		// Confirmation requests need a postback target; skip when the
		// record ID is missing rather than sending a dead button.
		if e.RecordID == "" {
			logger.Warn("Skipping confirmations for event with empty record ID",
				zap.String("title", e.Title))
			continue
		}

		displayDate := e.Date
		if t, err := utils.ParseEventDate(e.Date); err == nil {
			displayDate = utils.FormatDateJP(t)
		}
		confirmText := "📝 参加確認\n📅 " + displayDate + "、イベント「" + e.Title + "」（" + timeRange + "）があります。\nご参加されますか？"
		confirm := line.NewRsvpConfirm(confirmText, e.RecordID)

		for _, uid := range roster {
			if registered[uid] {
				continue
			}
			messages := []any{confirm}
			if image != "" {
				messages = append([]any{line.NewImageMessage(image)}, messages...)
			}
			if err := s.Line.Push(ctx, uid, messages...); err != nil {
				logger.Error("Failed to send confirmation request",
					zap.String("user", uid), zap.Error(err))
			}
		}
	}

	logger.Info("Reminder pass finished", zap.Int("events", len(events)))
	return nil
}
