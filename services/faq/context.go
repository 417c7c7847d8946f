package faq

import (
	"context"
	"time"

	conversationRepo "tsunagu/database/repository/conversation"
	"tsunagu/models"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// historyFetchCap bounds how many audit rows one assembly may scan.
const historyFetchCap = 200

// ContextAssembler rebuilds a user's recent conversation from the audit log.
// Any failure degrades to an empty history so the generative path still runs.
type ContextAssembler struct {
	Logs     conversationRepo.ConversationRepository
	MaxPairs int
	MaxAge   time.Duration
}

// NewContextAssembler creates an assembler with the given bounds.
func NewContextAssembler(logs conversationRepo.ConversationRepository, maxPairs, maxHours int) *ContextAssembler {
	return &ContextAssembler{
		Logs:     logs,
		MaxPairs: maxPairs,
		MaxAge:   time.Duration(maxHours) * time.Hour,
	}
}

// Assemble returns the user's bounded history, oldest turn first. A row
// contributes a user turn for its message and an assistant turn for its
// response; empty sides are skipped individually.
func (a *ContextAssembler) Assemble(ctx context.Context, userID string) []models.ConversationTurn {
	rows, err := a.Logs.ListRecentByUser(ctx, userID, historyFetchCap)
	if err != nil {
		utils.GetLogger().Warn("Context assembly degraded to empty history",
			zap.String("user", userID), zap.Error(err))
		return nil
	}

	cutoff := time.Now().Add(-a.MaxAge)
	var kept []models.InteractionLog
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, row.Timestamp)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		kept = append(kept, row)
	}

	// kept is newest first; emit oldest first.
	turns := make([]models.ConversationTurn, 0, len(kept)*2)
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i].Message != "" {
			turns = append(turns, models.ConversationTurn{Role: models.RoleUser, Content: kept[i].Message})
		}
		if kept[i].Response != "" {
			turns = append(turns, models.ConversationTurn{Role: models.RoleAssistant, Content: kept[i].Response})
		}
	}

	// The bound counts turns, not rows, so rows with one empty side do not
	// shrink the window.
	if max := a.MaxPairs * 2; len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	return turns
}
