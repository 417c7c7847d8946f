package router

import (
	"context"
	"regexp"
	"strings"
	"time"

	"tsunagu/config"
	conversationRepo "tsunagu/database/repository/conversation"
	eventRepo "tsunagu/database/repository/event"
	memberRepo "tsunagu/database/repository/member"
	"tsunagu/models"
	"tsunagu/services/line"
	openaisvc "tsunagu/services/openai"
	"tsunagu/utils"

	"go.uber.org/zap"
)

var (
	postbackRsvpPattern = regexp.MustCompile(`^rsvp:(yes|no):(.+)$`)
	weekdayAnnotation   = regexp.MustCompile(`\([日月火水木金土]\)`)
)

func lineText(text string) line.TextMessage {
	return line.NewTextMessage(text)
}

// Messenger is the outbound chat transport the router needs.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, messages ...any) error
	ReplyText(ctx context.Context, replyToken, text string) error
	Push(ctx context.Context, to string, messages ...any) error
}

// Reserver applies attendance changes.
type Reserver interface {
	Reserve(ctx context.Context, eventRecordID, userID string, status models.RsvpStatus, source string) (models.ReservationResult, *models.ScheduledEvent, error)
}

// FaqAnswerer handles question answering and general chat.
type FaqAnswerer interface {
	Answer(ctx context.Context, userID, question string, send func(text string))
	Chat(ctx context.Context, userID, message string, send func(text string))
}

// Router consumes one inbound event, applies the priority cascade, and
// produces exactly one side-effecting action.
type Router struct {
	Line        Messenger
	Reservation Reserver
	Faq         FaqAnswerer
	Events      eventRepo.EventRepository
	Members     memberRepo.MemberRepository
	Logs        conversationRepo.ConversationRepository

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewRouter wires a router from its collaborators.
func NewRouter(line Messenger, reservation Reserver, faq FaqAnswerer, events eventRepo.EventRepository, members memberRepo.MemberRepository, logs conversationRepo.ConversationRepository) *Router {
	return &Router{
		Line:        line,
		Reservation: reservation,
		Faq:         faq,
		Events:      events,
		Members:     members,
		Logs:        logs,
	}
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// reply sends a single text reply, logging delivery failures.
func (r *Router) reply(ctx context.Context, replyToken, text string) {
	if err := r.Line.ReplyText(ctx, replyToken, text); err != nil {
		utils.GetLogger().Error("Failed to send reply", zap.Error(err))
	}
}

// sender adapts reply into the send callback the FAQ service expects.
func (r *Router) sender(ctx context.Context, replyToken string) func(text string) {
	return func(text string) { r.reply(ctx, replyToken, text) }
}

// HandleEvent dispatches one inbound event by type.
func (r *Router) HandleEvent(ctx context.Context, event *models.InboundEvent) {
	logger := utils.GetLogger()
	logger.Info("Routing inbound event", zap.String("type", event.Type))

	switch event.Type {
	case models.EventTypeMessage:
		r.handleMessageEvent(ctx, event)
	case models.EventTypeFollow:
		r.handleFollowEvent(ctx, event)
	case models.EventTypePostback:
		r.handlePostbackEvent(ctx, event)
	default:
		logger.Info("Ignoring unsupported event type", zap.String("type", event.Type))
	}
}

func (r *Router) handleMessageEvent(ctx context.Context, event *models.InboundEvent) {
	if event.Message == nil || event.Message.Type != "text" || event.Message.Text == "" {
		r.reply(ctx, event.ReplyToken, "テキストメッセージ以外はまだ対応していません。ごめんなさい！")
		return
	}

	text := event.Message.Text
	userID := event.Source.UserID

	for _, s := range textStages() {
		if s.match(r, text) {
			s.handle(r, ctx, event.ReplyToken, userID, text)
			return
		}
	}
}

func (r *Router) handleFollowEvent(ctx context.Context, event *models.InboundEvent) {
	r.reply(ctx, event.ReplyToken, openaisvc.WelcomeMessage())

	// Group and room sources have no user ID; skip only the roster write.
	if event.Source.UserID != "" {
		if err := r.Members.Add(ctx, event.Source.UserID); err != nil {
			utils.GetLogger().Error("Failed to register new member",
				zap.String("user", event.Source.UserID), zap.Error(err))
		}
	}
}

func (r *Router) handlePostbackEvent(ctx context.Context, event *models.InboundEvent) {
	if event.Postback == nil {
		return
	}

	m := postbackRsvpPattern.FindStringSubmatch(event.Postback.Data)
	if m == nil {
		r.reply(ctx, event.ReplyToken, "不明なアクションです。")
		return
	}

	status := models.RsvpStatus(m[1])
	eventRecordID := m[2]
	if strings.TrimSpace(eventRecordID) == "" {
		utils.GetLogger().Error("Postback carried an empty event record ID")
		r.reply(ctx, event.ReplyToken, "イベントIDが無効です。")
		return
	}

	result, _, err := r.Reservation.Reserve(ctx, eventRecordID, event.Source.UserID, status, "postback")
	if err != nil {
		utils.GetLogger().Error("Postback reservation failed",
			zap.String("event", eventRecordID), zap.Error(err))
		r.reply(ctx, event.ReplyToken, "処理中に問題が発生しました。")
		return
	}

	switch result {
	case models.ReservationAdded:
		r.reply(ctx, event.ReplyToken, "参加ありがとうございます！当日お待ちしています。")
	case models.ReservationAlreadyRegistered:
		r.reply(ctx, event.ReplyToken, "すでに参加登録されています。変更が必要な場合は「不参加」と返信してください。")
	case models.ReservationRemoved:
		r.reply(ctx, event.ReplyToken, "不参加として承知しました。次の機会にぜひ！")
	case models.ReservationNotRegistered:
		r.reply(ctx, event.ReplyToken, "現在参加登録はありません。参加をご希望の場合は「参加する」とお知らせください。")
	case models.ReservationFull:
		r.reply(ctx, event.ReplyToken, "申し訳ありません、このイベントは満席です。")
	case models.ReservationEventNotFound:
		r.reply(ctx, event.ReplyToken, "対象のイベントが見つかりませんでした。")
	default:
		r.reply(ctx, event.ReplyToken, "不明なアクションです。")
	}
}

// handleRsvpBySpecifiedDate applies an RSVP against the single scheduled
// event on a resolved "YYYY/MM/DD" date.
func (r *Router) handleRsvpBySpecifiedDate(ctx context.Context, replyToken, userID, date string, status models.RsvpStatus) {
	logger := utils.GetLogger()

	friendly := date
	if t, err := utils.ParseEventDate(date); err == nil {
		friendly = utils.FormatDateJP(t)
	}

	matched, err := r.Events.ListActiveByDate(ctx, date)
	if err != nil {
		logger.Error("Failed to look up events by date", zap.String("date", date), zap.Error(err))
		r.reply(ctx, replyToken, "処理中に問題が発生しました。")
		return
	}
	if len(matched) == 0 {
		r.reply(ctx, replyToken, friendly+"のイベントが見つかりませんでした")
		return
	}
	if len(matched) > 1 {
		r.reply(ctx, replyToken, "同日のイベントが複数あります。確認ボタンから対象を選択してください。")
		return
	}

	target := matched[0]
	if strings.TrimSpace(target.RecordID) == "" {
		logger.Error("Event row has an empty record ID", zap.String("date", date))
		r.reply(ctx, replyToken, "イベントIDが不明です。")
		return
	}

	result, _, err := r.Reservation.Reserve(ctx, target.RecordID, userID, status, "text")
	if err != nil {
		logger.Error("Dated reservation failed", zap.String("event", target.RecordID), zap.Error(err))
		r.reply(ctx, replyToken, "処理中に問題が発生しました。")
		return
	}

	if status == models.RsvpYes {
		switch result {
		case models.ReservationAdded:
			r.reply(ctx, replyToken, "✅ "+friendly+"「"+target.Title+"」への参加を承りました！")
			return
		case models.ReservationAlreadyRegistered:
			r.reply(ctx, replyToken, "📌 "+friendly+"「"+target.Title+"」にはすでに参加登録済みです")
			return
		case models.ReservationFull:
			r.reply(ctx, replyToken, "申し訳ありません、このイベントは満席です。")
			return
		}
	} else {
		switch result {
		case models.ReservationRemoved:
			r.reply(ctx, replyToken, "📝 "+friendly+"「"+target.Title+"」への不参加を承りました。")
			return
		case models.ReservationNotRegistered:
			r.reply(ctx, replyToken, "現在参加登録はありません。参加をご希望の場合は「参加する」とお知らせください。")
			return
		}
	}
	r.reply(ctx, replyToken, "処理中に問題が発生しました。")
}

// handleRsvpTomorrow resolves fixed RSVP words against tomorrow's single
// event; zero or multiple candidates are reported, never guessed.
func (r *Router) handleRsvpTomorrow(ctx context.Context, replyToken, userID string, status models.RsvpStatus) {
	logger := utils.GetLogger()
	tomorrow := utils.Tomorrow(r.now())

	events, err := r.Events.ListActiveByDate(ctx, tomorrow)
	if err != nil {
		logger.Error("Failed to look up tomorrow's events", zap.Error(err))
		r.reply(ctx, replyToken, "処理中に問題が発生しました。")
		return
	}
	if len(events) == 0 {
		r.reply(ctx, replyToken, "対象イベントが見つかりません。直近のリマインドの確認ボタンから回答してください。")
		return
	}
	if len(events) > 1 {
		r.reply(ctx, replyToken, "対象イベントが複数あります。直近のリマインドの確認ボタンから選択してください。")
		return
	}

	result, _, err := r.Reservation.Reserve(ctx, events[0].RecordID, userID, status, "text")
	if err != nil {
		logger.Error("Implicit-date reservation failed", zap.Error(err))
		r.reply(ctx, replyToken, "処理中に問題が発生しました。")
		return
	}

	switch result {
	case models.ReservationAdded:
		r.reply(ctx, replyToken, "参加ありがとうございます！当日お待ちしています。")
	case models.ReservationAlreadyRegistered:
		r.reply(ctx, replyToken, "すでに参加登録されています。")
	case models.ReservationRemoved:
		r.reply(ctx, replyToken, "不参加として承知しました。次の機会にぜひ！")
	case models.ReservationNotRegistered:
		r.reply(ctx, replyToken, "現在参加登録はありません。参加をご希望の場合は「参加する」とお知らせください。")
	case models.ReservationFull:
		r.reply(ctx, replyToken, "申し訳ありません、このイベントは満席です。")
	case models.ReservationEventNotFound:
		r.reply(ctx, replyToken, "対象のイベントが見つかりませんでした。")
	default:
		r.reply(ctx, replyToken, "処理中に問題が発生しました。")
	}
}

// handleRsvpByDisplayDate resolves the compact "M/D(曜) 参加します" form by
// matching the typed date against display dates of the upcoming horizon.
func (r *Router) handleRsvpByDisplayDate(ctx context.Context, replyToken, userID, displayDate string, status models.RsvpStatus) {
	logger := utils.GetLogger()

	target := r.findEventByDisplayDate(ctx, displayDate)
	if target == nil {
		logger.Warn("No event matches display date", zap.String("date", displayDate))
		r.reply(ctx, replyToken, displayDate+"のイベントが見つかりませんでした。現在参加受付中のイベントをご確認ください。")
		return
	}

	result, _, err := r.Reservation.Reserve(ctx, target.RecordID, userID, status, "text")
	if err != nil {
		logger.Error("Display-date reservation failed", zap.String("event", target.RecordID), zap.Error(err))
		r.reply(ctx, replyToken, "⚠️ 処理中にエラーが発生しました。しばらく時間をおいて再度お試しください。")
		return
	}

	var response string
	switch result {
	case models.ReservationAdded:
		if status == models.RsvpYes {
			response = "✅ " + displayDate + "「" + target.Title + "」への参加を承りました！当日お待ちしております。"
		} else {
			response = "📝 " + displayDate + "「" + target.Title + "」への不参加を承りました。"
		}
	case models.ReservationRemoved:
		response = "🔄 " + displayDate + "「" + target.Title + "」の参加を取り消しました。"
	case models.ReservationAlreadyRegistered:
		response = "📌 " + displayDate + "「" + target.Title + "」にはすでに参加登録済みです。"
	case models.ReservationNotRegistered:
		response = "❓ " + displayDate + "「" + target.Title + "」には参加登録されていないため、取り消しできませんでした。"
	case models.ReservationFull:
		response = "😔 申し訳ありません。" + displayDate + "「" + target.Title + "」は満席です。"
	case models.ReservationEventNotFound:
		response = "❌ " + displayDate + "のイベントが見つかりませんでした。"
	default:
		response = "⚠️ 処理中にエラーが発生しました。しばらく時間をおいて再度お試しください。"
	}
	r.reply(ctx, replyToken, response)

	action := "不参加"
	if status == models.RsvpYes {
		action = "参加します"
	}
	r.writeLog(ctx, userID, displayDate+" "+action, response)
}

// findEventByDisplayDate compares the typed date against each upcoming
// event's display date, with and without the weekday annotation.
func (r *Router) findEventByDisplayDate(ctx context.Context, displayDate string) *models.ScheduledEvent {
	events, err := r.Events.ListUpcoming(ctx, utils.Today(r.now()), 30)
	if err != nil {
		utils.GetLogger().Error("Failed to load upcoming events", zap.Error(err))
		return nil
	}

	bare := weekdayAnnotation.ReplaceAllString(displayDate, "")
	for i := range events {
		t, err := utils.ParseEventDate(events[i].Date)
		if err != nil {
			continue
		}
		shown := utils.FormatDateJP(t)
		if shown == displayDate || weekdayAnnotation.ReplaceAllString(shown, "") == bare {
			return &events[i]
		}
	}
	return nil
}

// handleScheduleInquiry lists the next few scheduled events. Lookup failures
// collapse to a generic failure message, never a missing reply.
func (r *Router) handleScheduleInquiry(ctx context.Context, replyToken string) {
	events, err := r.Events.ListUpcoming(ctx, utils.Today(r.now()), 3)
	if err != nil {
		utils.GetLogger().Error("Schedule inquiry failed", zap.Error(err))
		r.reply(ctx, replyToken, "予定の取得中にエラーが発生しました。")
		return
	}
	if len(events) == 0 {
		r.reply(ctx, replyToken, "📅 直近の活動予定は未登録です。\nしばらくお待ちください！")
		return
	}

	lines := []string{"📅 直近の活動予定"}
	for _, e := range events {
		formattedDate := e.Date
		if t, err := utils.ParseEventDate(e.Date); err == nil {
			formattedDate = utils.FormatDateJP(t)
		}
		timeRange := e.StartTime
		if e.StartTime != "" && e.EndTime != "" {
			timeRange = e.StartTime + " - " + e.EndTime
		}
		lines = append(lines, "🔸 "+formattedDate+" "+timeRange+" "+e.Title)
	}
	lines = append(lines, "", "📝 参加希望は「参加する」と送信してくださいね！")

	r.reply(ctx, replyToken, strings.Join(lines, "\n"))
}

// handleKeywordAlert pushes an urgent notice to every staff member and
// acknowledges the user. An empty roster skips only the escalation.
func (r *Router) handleKeywordAlert(ctx context.Context, replyToken, userID, message string) {
	logger := utils.GetLogger()
	logger.Warn("Alert keyword detected",
		zap.String("user", userID), zap.String("message", message))

	staffIDs := config.StaffIDs()
	if len(staffIDs) == 0 {
		logger.Error("STAFF_USER_IDS is not configured, skipping staff notification")
	} else {
		notification := "【緊急通知】\n" +
			"ユーザーID: " + userID + "\n" +
			"ユーザーメッセージ: " + message + "\n" +
			"上記メッセージにアラートキーワードが含まれていました。"
		for _, staffID := range staffIDs {
			if err := r.Line.Push(ctx, staffID, lineText(notification)); err != nil {
				logger.Error("Failed to notify staff",
					zap.String("staff", staffID), zap.Error(err))
			}
		}
	}

	r.reply(ctx, replyToken, "お疲れさまです。お話を聞かせていただき、ありがとうございます。\n"+
		"スタッフが確認いたしますので、少々お待ちください。\n"+
		"必要でしたら直接お電話でもお話しできます。\n"+
		"一人で抱え込まず、いつでもお声かけくださいね。")
}

func (r *Router) writeLog(ctx context.Context, userID, message, response string) {
	entry := models.InteractionLog{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserID:    userID,
		Message:   message,
		Response:  response,
	}
	if err := r.Logs.Append(ctx, entry); err != nil {
		utils.GetLogger().Error("Failed to append interaction log", zap.Error(err))
	}
}
