package schedule

import (
	"context"
	"time"

	"tsunagu/config"
	eventRepo "tsunagu/database/repository/event"
	memberRepo "tsunagu/database/repository/member"
	"tsunagu/services/line"
)

// Messenger is the outbound transport the scheduled jobs need.
type Messenger interface {
	Push(ctx context.Context, to string, messages ...any) error
	Multicast(ctx context.Context, to []string, messages ...any) error
}

// Service runs the recurring outreach jobs: monthly broadcast, day-before
// reminders, and same-day thank-you messages.
type Service struct {
	Line    Messenger
	Events  eventRepo.EventRepository
	Members memberRepo.MemberRepository

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a schedule Service.
func NewService(messenger Messenger, events eventRepo.EventRepository, members memberRepo.MemberRepository) *Service {
	return &Service{Line: messenger, Events: events, Members: members}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// pickFallbackImage deterministically assigns one pool image per record ID so
// repeated sends show the same thumbnail.
func pickFallbackImage(key string) string {
	pool := config.FallbackImageList()
	if len(pool) == 0 {
		return ""
	}
	var hash int32
	for _, c := range key {
		hash = (hash << 5) - hash + int32(c)
	}
	if hash < 0 {
		hash = -hash
	}
	return pool[int(hash)%len(pool)]
}

func chooseImage(eventImageURL, recordID string) string {
	if isValidImageURL(eventImageURL) {
		return eventImageURL
	}
	return pickFallbackImage(recordID)
}

func isValidImageURL(url string) bool {
	return len(url) > 8 && (url[:7] == "http://" || url[:8] == "https://")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func withOptionalImage(text string, imageURL string) []any {
	messages := []any{line.NewTextMessage(text)}
	if imageURL != "" {
		messages = append(messages, line.NewImageMessage(imageURL))
	}
	return messages
}
