package schedule

import (
	"context"
	"fmt"

	"tsunagu/models"
	"tsunagu/services/line"
	openaisvc "tsunagu/services/openai"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// maxCarouselColumns is the messaging API's per-carousel column cap.
const maxCarouselColumns = 10

// BroadcastMonthlySchedule multicasts this month's events as a carousel.
// Each column's buttons send the compact "M/D(曜) 参加します / 不参加" texts
// that the router resolves by display date.
func (s *Service) BroadcastMonthlySchedule(ctx context.Context) error {
	logger := utils.GetLogger()
	now := s.now().In(utils.JST)

	userIDs, err := s.Members.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load member roster: %w", err)
	}
	if len(userIDs) == 0 {
		logger.Info("No broadcast recipients, skipping monthly schedule")
		return nil
	}

	month := now.Format("2006/01")
	events, err := s.Events.ListByMonths(ctx, []string{month})
	if err != nil {
		return fmt.Errorf("failed to load events for %s: %w", month, err)
	}

	var columns []line.CarouselColumn
	for _, e := range events {
		if e.Status == models.EventStatusCancelled {
			continue
		}
		if len(columns) >= maxCarouselColumns {
			break
		}
		if e.RecordID == "" {
			logger.Warn("Event row has an empty record ID", zap.String("title", e.Title))
		}

		displayDate := e.Date
		if t, err := utils.ParseEventDate(e.Date); err == nil {
			displayDate = utils.FormatDateJP(t)
		}
		timeRange := e.StartTime
		if e.StartTime != "" && e.EndTime != "" {
			timeRange = e.StartTime + " - " + e.EndTime
		}

		text := displayDate
		if timeRange != "" {
			text += " 🕒 " + timeRange
		}

		columns = append(columns, line.CarouselColumn{
			ThumbnailImageURL: chooseImage(e.ImageURL, e.RecordID),
			Title:             truncateRunes("📌 "+e.Title, 40),
			Text:              truncateRunes(text, 60),
			Actions: []line.Action{
				line.NewMessageAction("参加する", displayDate+" 参加します"),
				line.NewMessageAction("不参加", displayDate+" 不参加"),
			},
		})
	}

	if len(columns) == 0 {
		logger.Info("No events to broadcast this month", zap.String("month", month))
		return nil
	}

	header := line.NewTextMessage(openaisvc.MonthlyScheduleHeader(int(now.Month())))
	carousel := line.TemplateMessage{
		Type:     "template",
		AltText:  "月次スケジュールのご案内",
		Template: line.CarouselTemplate{Type: "carousel", Columns: columns},
	}

	logger.Info("Broadcasting monthly schedule",
		zap.Int("recipients", len(userIDs)), zap.Int("events", len(columns)))
	return s.Line.Multicast(ctx, userIDs, header, carousel)
}
