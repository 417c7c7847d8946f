package router

import (
	"context"
	"regexp"
	"strings"

	"tsunagu/config"
	"tsunagu/models"
	"tsunagu/utils"
)

// The cascade is an ordered list of (predicate, handler) pairs with
// first-match-wins semantics. The order is normative: reordering stages
// changes observable behavior. Keeping it as data lets each stage be
// exercised in isolation.
type stage struct {
	intent models.Intent
	match  func(r *Router, text string) bool
	handle func(r *Router, ctx context.Context, replyToken, userID, text string)
}

func textStages() []stage {
	return []stage{
		{
			// Date plus an RSVP word anywhere in the text, e.g. "9/19 参加します".
			// Evaluated before the FAQ trigger so dated RSVPs never land in FAQ.
			intent: models.IntentRsvpByExplicitDate,
			match: func(r *Router, text string) bool {
				if _, ok := utils.ResolveDate(text, r.now()); !ok {
					return false
				}
				return containsRsvpYes(text) || containsRsvpNo(text)
			},
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				date, _ := utils.ResolveDate(text, r.now())
				status := models.RsvpNo
				if containsRsvpYes(text) {
					status = models.RsvpYes
				}
				r.handleRsvpBySpecifiedDate(ctx, replyToken, userID, date, status)
			},
		},
		{
			intent: models.IntentFaqTrigger,
			match:  func(r *Router, text string) bool { return isFaqTrigger(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				if isScheduleInquiry(text) {
					r.handleScheduleInquiry(ctx, replyToken)
					return
				}
				r.Faq.Answer(ctx, userID, text, r.sender(ctx, replyToken))
			},
		},
		{
			// Compact form: the date and RSVP word are the entire message,
			// matched against the display dates of the upcoming horizon.
			intent: models.IntentRsvpByExplicitDate,
			match:  func(r *Router, text string) bool { return parseCompactRsvp(text) != nil },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				m := parseCompactRsvp(text)
				r.handleRsvpByDisplayDate(ctx, replyToken, userID, m.date, m.status)
			},
		},
		{
			intent: models.IntentRsvpCancel,
			match:  func(r *Router, text string) bool { return isRsvpCancel(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.handleRsvpTomorrow(ctx, replyToken, userID, models.RsvpNo)
			},
		},
		{
			intent: models.IntentRsvpByImplicitDate,
			match:  func(r *Router, text string) bool { return isRsvpYes(text) || isRsvpNo(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				status := models.RsvpNo
				if isRsvpYes(text) {
					status = models.RsvpYes
				}
				r.handleRsvpTomorrow(ctx, replyToken, userID, status)
			},
		},
		{
			intent: models.IntentFixedReply,
			match:  func(r *Router, text string) bool { return fixedReplyFor(text) != "" },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.reply(ctx, replyToken, fixedReplyFor(text))
			},
		},
		{
			intent: models.IntentScheduleInquiry,
			match:  func(r *Router, text string) bool { return isScheduleInquiry(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.handleScheduleInquiry(ctx, replyToken)
			},
		},
		{
			intent: models.IntentAlertEscalation,
			match:  func(r *Router, text string) bool { return hasAlertKeywords(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.handleKeywordAlert(ctx, replyToken, userID, text)
			},
		},
		{
			intent: models.IntentSingleWordFaq,
			match:  func(r *Router, text string) bool { return isSingleWordFaqTrigger(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.Faq.Answer(ctx, userID, text, r.sender(ctx, replyToken))
			},
		},
		{
			// Wellbeing chatter goes to general chat even when interrogative.
			intent: models.IntentSmalltalkQuestion,
			match:  func(r *Router, text string) bool { return isSmalltalkQuestion(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.Faq.Chat(ctx, userID, text, r.sender(ctx, replyToken))
			},
		},
		{
			intent: models.IntentQuestionForFaq,
			match:  func(r *Router, text string) bool { return isQuestionMessage(text) },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.Faq.Answer(ctx, userID, text, r.sender(ctx, replyToken))
			},
		},
		{
			intent: models.IntentGeneralChat,
			match:  func(r *Router, text string) bool { return true },
			handle: func(r *Router, ctx context.Context, replyToken, userID, text string) {
				r.Faq.Chat(ctx, userID, text, r.sender(ctx, replyToken))
			},
		},
	}
}

// Classify returns the intent the cascade assigns to one text message.
// Classification is total: the final stage matches everything.
func (r *Router) Classify(text string) models.Intent {
	for _, s := range textStages() {
		if s.match(r, text) {
			return s.intent
		}
	}
	return models.IntentGeneralChat
}

var (
	fixedYesPattern      = regexp.MustCompile(`(?i)^(はい|yes|ok|了解|わかりました)$`)
	fixedNoPattern       = regexp.MustCompile(`(?i)^(いいえ|no|いえ|違います)$`)
	fixedGreetingPattern = regexp.MustCompile(`^(こんにちは|こんばんは|おはよう)$`)

	rsvpYesPattern    = regexp.MustCompile(`^参加(する|します)?$`)
	rsvpNoPattern     = regexp.MustCompile(`^(不参加|参加しない|参加しません|欠席)$`)
	rsvpCancelPattern = regexp.MustCompile(`^(参加取り消し|キャンセル)$`)

	rsvpNoContains  = regexp.MustCompile(`不参加|参加しない|参加しません|欠席`)
	rsvpYesContains = regexp.MustCompile(`参加します|参加する`)

	compactRsvpPattern = regexp.MustCompile(`^(\d{1,2}/\d{1,2}(?:\([日月火水木金土]\))?)\s+(参加します|参加する|不参加|参加しない)$`)

	scheduleKeywords = regexp.MustCompile(`活動日|活動予定|開催日|日程|スケジュール`)
	timeKeywords     = regexp.MustCompile(`いつ|何時|何日`)

	smalltalkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`元気|ご機嫌|調子`),
		regexp.MustCompile(`気分|気持ち|落ち込|励ま|勇気|癒や|癒し`),
		regexp.MustCompile(`やる気|モチベ|モチベーション`),
		regexp.MustCompile(`元気が出|元気出|気合|テンション`),
	}

	questionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[？?]$`),
		regexp.MustCompile(`^(いつ|どこ|何|誰|どう|どのよう|なぜ|どうして)`),
		regexp.MustCompile(`^(教えて|知りたい|わからない|分からない)`),
		regexp.MustCompile(`方法|やり方|手順|流れ`),
		regexp.MustCompile(`時間|場所|日程|スケジュール`),
		regexp.MustCompile(`について|に関して|関連|詳細`),
	}

	trailingPunctuation = regexp.MustCompile(`[。．.!！？、，\s]+$`)
	internalWhitespace  = regexp.MustCompile(`\s`)
)

func fixedReplyFor(text string) string {
	t := strings.TrimSpace(text)
	switch {
	case fixedYesPattern.MatchString(t):
		return "ありがとうございます！何かご質問があればお気軽にどうぞ。"
	case fixedNoPattern.MatchString(t):
		return "承知いたしました。他にご質問があればお聞かせください。"
	case fixedGreetingPattern.MatchString(t):
		return "こんにちは！今日もお疲れさまです。何かお手伝いできることはありませんか？"
	}
	return ""
}

func isFaqTrigger(text string) bool {
	name := regexp.QuoteMeta(config.AppConfig.OrganizationName)
	trigger := regexp.QuoteMeta(config.AppConfig.FaqTriggerPhrase)
	pattern := regexp.MustCompile(`^(?i:` + name + `[\s　]*` + trigger + `)`)
	return pattern.MatchString(strings.TrimSpace(text))
}

func isRsvpYes(text string) bool    { return rsvpYesPattern.MatchString(strings.TrimSpace(text)) }
func isRsvpNo(text string) bool     { return rsvpNoPattern.MatchString(strings.TrimSpace(text)) }
func isRsvpCancel(text string) bool { return rsvpCancelPattern.MatchString(strings.TrimSpace(text)) }

// containsRsvpYes treats negated phrasings as non-yes so "不参加" never reads
// as an affirmative.
func containsRsvpYes(text string) bool {
	t := strings.TrimSpace(text)
	if rsvpNoContains.MatchString(t) {
		return false
	}
	return rsvpYesContains.MatchString(t)
}

func containsRsvpNo(text string) bool {
	return rsvpNoContains.MatchString(strings.TrimSpace(text))
}

type compactRsvp struct {
	date   string
	status models.RsvpStatus
}

func parseCompactRsvp(text string) *compactRsvp {
	m := compactRsvpPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil
	}
	status := models.RsvpNo
	if strings.Contains(m[2], "参加します") || strings.Contains(m[2], "参加する") {
		status = models.RsvpYes
	}
	return &compactRsvp{date: m[1], status: status}
}

func isScheduleInquiry(text string) bool {
	t := strings.TrimSpace(text)
	return scheduleKeywords.MatchString(t) || timeKeywords.MatchString(t)
}

var alertKeywords = []string{
	"やめたい", "辞めたい", "もう無理", "疲れた", "つらい", "しんどい",
	"不安", "心配", "助けて", "困った", "問題", "トラブル",
	"体調", "具合", "病気", "けが", "怪我",
}

func hasAlertKeywords(text string) bool {
	for _, kw := range alertKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// isSingleWordFaqTrigger requires the whole message, after trailing
// punctuation is stripped, to equal one configured trigger word.
func isSingleWordFaqTrigger(text string) bool {
	triggers := config.SingleWordFaqTriggers()
	if len(triggers) == 0 {
		return false
	}
	normalized := normalizeSingleWord(text)
	if normalized == "" {
		return false
	}
	for _, w := range triggers {
		if w == normalized {
			return true
		}
	}
	return false
}

func normalizeSingleWord(text string) string {
	s := strings.TrimSpace(trailingPunctuation.ReplaceAllString(strings.TrimSpace(text), ""))
	if internalWhitespace.MatchString(s) {
		return ""
	}
	return s
}

func isSmalltalkQuestion(text string) bool {
	for _, p := range smalltalkPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func isQuestionMessage(text string) bool {
	for _, p := range questionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
