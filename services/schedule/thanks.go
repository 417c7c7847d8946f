package schedule

import (
	"context"
	"fmt"

	"tsunagu/models"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// SendThankYouMessages thanks everyone who attended one of today's events.
func (s *Service) SendThankYouMessages(ctx context.Context) error {
	logger := utils.GetLogger()
	today := utils.Today(s.now())

	todayDate, err := utils.ParseEventDate(today)
	if err != nil {
		return err
	}

	events, err := s.Events.ListByMonths(ctx, []string{todayDate.Format("2006/01")})
	if err != nil {
		return fmt.Errorf("failed to load this month's events: %w", err)
	}

	sentFor := 0
	for _, e := range events {
		if e.Status == models.EventStatusCancelled {
			continue
		}
		t, err := utils.ParseEventDate(e.Date)
		if err != nil || !t.Equal(todayDate) {
			continue
		}

		var participants []string
		for _, uid := range e.Attendees {
			if uid != "" {
				participants = append(participants, uid)
			}
		}
		if len(participants) == 0 {
			logger.Info("No attendees to thank", zap.String("title", e.Title))
			continue
		}

		image := chooseImage(e.ImageURL, e.RecordID)
		message := "🙏 活動のお礼\n本日は「" + e.Title + "」にご参加いただき、誠にありがとうございました！\n\n" +
			"✨ 皆さまのご協力のおかげで、素晴らしい活動になりました。\n😊 また次回お会いできるのを楽しみにしています！"

		for _, uid := range participants {
			if err := s.Line.Push(ctx, uid, withOptionalImage(message, image)...); err != nil {
				logger.Error("Failed to send thank-you message",
					zap.String("user", uid), zap.Error(err))
			}
		}
		sentFor++
	}

	logger.Info("Thank-you pass finished", zap.Int("events", sentFor))
	return nil
}
