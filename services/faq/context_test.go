package faq

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tsunagu/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logRow(userID, message, response string, age time.Duration) models.InteractionLog {
	return models.InteractionLog{
		Timestamp: time.Now().Add(-age).UTC().Format(time.RFC3339),
		UserID:    userID,
		Message:   message,
		Response:  response,
	}
}

func TestAssembleOrdersOldestFirst(t *testing.T) {
	logs := &fakeLogRepo{}
	logs.rows = []models.InteractionLog{
		logRow("U1", "最初の質問", "最初の回答", 2*time.Hour),
		logRow("U1", "次の質問", "次の回答", 1*time.Hour),
	}
	assembler := NewContextAssembler(logs, 7, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 4)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "最初の質問", turns[0].Content)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	assert.Equal(t, "次の質問", turns[2].Content)
	assert.Equal(t, "次の回答", turns[3].Content)
}

func TestAssembleCapsPairCount(t *testing.T) {
	logs := &fakeLogRepo{}
	for i := 0; i < 20; i++ {
		logs.rows = append(logs.rows, logRow("U1",
			fmt.Sprintf("質問%d", i), fmt.Sprintf("回答%d", i), time.Duration(20-i)*time.Minute))
	}
	assembler := NewContextAssembler(logs, 3, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 6)
	// The newest three pairs survive, oldest of them first.
	assert.Equal(t, "質問17", turns[0].Content)
	assert.Equal(t, "質問19", turns[4].Content)
}

func TestAssembleBoundsTurnsNotRows(t *testing.T) {
	logs := &fakeLogRepo{}
	for i := 0; i < 6; i++ {
		// Unanswered rows carry only a user turn each.
		logs.rows = append(logs.rows, logRow("U1",
			fmt.Sprintf("質問%d", i), "", time.Duration(6-i)*time.Minute))
	}
	assembler := NewContextAssembler(logs, 2, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 4, "the window holds max pairs times two turns")
	assert.Equal(t, "質問2", turns[0].Content)
	assert.Equal(t, "質問5", turns[3].Content)
}

func TestAssembleDropsStaleRows(t *testing.T) {
	logs := &fakeLogRepo{}
	logs.rows = []models.InteractionLog{
		logRow("U1", "古い質問", "古い回答", 30*time.Hour),
		logRow("U1", "新しい質問", "新しい回答", 1*time.Hour),
	}
	assembler := NewContextAssembler(logs, 7, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 2)
	assert.Equal(t, "新しい質問", turns[0].Content)
}

func TestAssembleSkipsEmptySidesIndividually(t *testing.T) {
	logs := &fakeLogRepo{}
	logs.rows = []models.InteractionLog{
		logRow("U1", "質問だけ", "", time.Hour),
		logRow("U1", "", "回答だけ", time.Hour),
	}
	assembler := NewContextAssembler(logs, 7, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "質問だけ", turns[0].Content)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	assert.Equal(t, "回答だけ", turns[1].Content)
}

func TestAssembleSkipsUnparsableTimestamps(t *testing.T) {
	logs := &fakeLogRepo{}
	logs.rows = []models.InteractionLog{
		{Timestamp: "not-a-timestamp", UserID: "U1", Message: "壊れた行", Response: "x"},
		logRow("U1", "正常な行", "回答", time.Hour),
	}
	assembler := NewContextAssembler(logs, 7, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	require.Len(t, turns, 2)
	assert.Equal(t, "正常な行", turns[0].Content)
}

func TestAssembleDegradesToEmptyOnError(t *testing.T) {
	logs := &fakeLogRepo{listErr: errors.New("read failed")}
	assembler := NewContextAssembler(logs, 7, 24)

	turns := assembler.Assemble(context.Background(), "U1")
	assert.Empty(t, turns)
}
