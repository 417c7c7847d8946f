package faq

import (
	"context"
	"errors"
	"os"
	"testing"

	"tsunagu/config"
	"tsunagu/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig.OrganizationName = "つなぐ"
	config.AppConfig.FaqTriggerPhrase = "教えて"
	os.Exit(m.Run())
}

type fakeFaqRepo struct {
	entries []models.FaqEntry
	listErr error
	updated map[string][]float64
}

func (r *fakeFaqRepo) ListAll(ctx context.Context) ([]models.FaqEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.entries, nil
}

func (r *fakeFaqRepo) Create(ctx context.Context, entry *models.FaqEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeFaqRepo) UpdateEmbedding(ctx context.Context, id string, vector []float64) error {
	if r.updated == nil {
		r.updated = make(map[string][]float64)
	}
	r.updated[id] = vector
	return nil
}

type fakeLogRepo struct {
	rows    []models.InteractionLog
	listErr error
}

func (r *fakeLogRepo) Append(ctx context.Context, entry models.InteractionLog) error {
	r.rows = append(r.rows, entry)
	return nil
}

func (r *fakeLogRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]models.InteractionLog, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	// Stored rows are appended oldest first; serve them newest first.
	var out []models.InteractionLog
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

type fakeAI struct {
	embedding  []float64
	embedErr   error
	embedCalls int

	answer    string
	answerErr error

	chatReply   string
	chatErr     error
	chatHistory []models.ConversationTurn
}

func (a *fakeAI) Embed(ctx context.Context, text string) ([]float64, error) {
	a.embedCalls++
	return a.embedding, a.embedErr
}

func (a *fakeAI) GenerateAnswer(ctx context.Context, question, matchedQuestion, matchedAnswer string) (string, error) {
	return a.answer, a.answerErr
}

func (a *fakeAI) ChatWithHistory(ctx context.Context, history []models.ConversationTurn, message string) (string, error) {
	a.chatHistory = history
	return a.chatReply, a.chatErr
}

func newTestService(faqs *fakeFaqRepo, logs *fakeLogRepo, ai *fakeAI) *Service {
	assembler := NewContextAssembler(logs, 7, 24)
	return NewService(faqs, logs, assembler, ai, 0.75)
}

func collect(sent *[]string) func(string) {
	return func(text string) { *sent = append(*sent, text) }
}

func TestAnswerUsesKnowledgeBaseAboveThreshold(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "活動場所はどこですか", Answer: "市民センターです", Embedding: []float64{1, 0}},
		{ID: "2", Question: "持ち物は何ですか", Answer: "軍手をお持ちください", Embedding: []float64{0, 1}},
	}}
	logs := &fakeLogRepo{}
	// Embedding aligned with entry 1: similarity 0.8 against {1,0}.
	ai := &fakeAI{embedding: []float64{0.8, 0.6}, answer: "市民センターで活動しています。"}
	svc := newTestService(faqs, logs, ai)

	var sent []string
	svc.Answer(context.Background(), "U1", "つなぐ 教えて 活動場所は？", collect(&sent))

	require.Equal(t, []string{"市民センターで活動しています。"}, sent)
	require.Len(t, logs.rows, 1)
	assert.Equal(t, "つなぐ 教えて 活動場所は？", logs.rows[0].Message,
		"the audit row keeps the original uncleaned question")
	require.NotNil(t, logs.rows[0].Similarity)
	assert.InDelta(t, 0.8, *logs.rows[0].Similarity, 1e-9)
}

func TestAnswerEmptyKnowledgeBaseSkipsEmbedding(t *testing.T) {
	faqs := &fakeFaqRepo{}
	logs := &fakeLogRepo{}
	ai := &fakeAI{chatReply: "こんにちは！"}
	svc := newTestService(faqs, logs, ai)

	var sent []string
	svc.Answer(context.Background(), "U1", "活動場所は？", collect(&sent))

	assert.Equal(t, 0, ai.embedCalls, "an empty knowledge base never reaches the embedder")
	require.Equal(t, []string{"こんにちは！"}, sent)
	require.Len(t, logs.rows, 1)
	assert.Nil(t, logs.rows[0].Similarity, "fallback rows carry no similarity")
}

func TestAnswerExactThresholdFallsBack(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "q", Answer: "a", Embedding: []float64{1, 0}},
	}}
	logs := &fakeLogRepo{}
	// cos({0.75, 0.6614...}, {1,0}) would not be exactly 0.75; use a
	// collinear setup instead: identical vectors give exactly 1.0, so pin
	// the threshold to 1.0 and verify the strict comparison rejects it.
	ai := &fakeAI{embedding: []float64{1, 0}, chatReply: "fallback"}
	assembler := NewContextAssembler(logs, 7, 24)
	svc := NewService(faqs, logs, assembler, ai, 1.0)

	var sent []string
	svc.Answer(context.Background(), "U1", "q", collect(&sent))

	assert.Equal(t, []string{"fallback"}, sent, "similarity equal to the threshold is not a match")
}

func TestAnswerEmbedFailureFallsBackSilently(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "q", Answer: "a", Embedding: []float64{1, 0}},
	}}
	logs := &fakeLogRepo{}
	ai := &fakeAI{embedErr: errors.New("quota exceeded"), chatReply: "通常回答"}
	svc := newTestService(faqs, logs, ai)

	var sent []string
	svc.Answer(context.Background(), "U1", "q", collect(&sent))

	assert.Equal(t, []string{"通常回答"}, sent, "embedding failure degrades to chat, not an apology")
}

func TestAnswerGenerationFailureApologizes(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "q", Answer: "a", Embedding: []float64{1, 0}},
	}}
	logs := &fakeLogRepo{}
	ai := &fakeAI{embedding: []float64{1, 0}, answerErr: errors.New("model unavailable")}
	svc := newTestService(faqs, logs, ai)

	var sent []string
	svc.Answer(context.Background(), "U1", "q", collect(&sent))

	require.Equal(t, []string{apologyReply}, sent)
	require.Len(t, logs.rows, 1)
	assert.Contains(t, logs.rows[0].Response, "ERROR: ")
	assert.Nil(t, logs.rows[0].Similarity)
}

func TestAnswerTiesKeepFirstSeen(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "first", Answer: "a1", Embedding: []float64{1, 0}},
		{ID: "2", Question: "second", Answer: "a2", Embedding: []float64{2, 0}},
	}}
	svc := newTestService(faqs, &fakeLogRepo{}, &fakeAI{embedding: []float64{1, 0}})

	best := svc.bestMatch(context.Background(), "q")
	require.NotNil(t, best)
	assert.Equal(t, "first", best.Question)
}

func TestAnswerSkipsEntriesWithoutEmbedding(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "unembedded", Answer: "a1"},
		{ID: "2", Question: "embedded", Answer: "a2", Embedding: []float64{1, 0}},
	}}
	svc := newTestService(faqs, &fakeLogRepo{}, &fakeAI{embedding: []float64{1, 0}})

	best := svc.bestMatch(context.Background(), "q")
	require.NotNil(t, best)
	assert.Equal(t, "embedded", best.Question)
}

func TestChatRecordsAuditRow(t *testing.T) {
	logs := &fakeLogRepo{}
	ai := &fakeAI{chatReply: "お元気そうで何よりです！"}
	svc := newTestService(&fakeFaqRepo{}, logs, ai)

	var sent []string
	svc.Chat(context.Background(), "U1", "今日は元気です", collect(&sent))

	require.Equal(t, []string{"お元気そうで何よりです！"}, sent)
	require.Len(t, logs.rows, 1)
	assert.Equal(t, "今日は元気です", logs.rows[0].Message)
	assert.Nil(t, logs.rows[0].Similarity)
}

func TestStripTriggerPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"つなぐ 教えて 活動場所は？", "活動場所は？"},
		{"つなぐ教えて活動場所は？", "活動場所は？"},
		{"つなぐ　教えて　活動場所は？", "活動場所は？"},
		{"活動場所は？", "活動場所は？"},
		{"つなぐ 教えて", "つなぐ 教えて"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripTriggerPrefix(tt.in), tt.in)
	}
}

func TestBackfillEmbeddings(t *testing.T) {
	faqs := &fakeFaqRepo{entries: []models.FaqEntry{
		{ID: "1", Question: "q1", Answer: "a1"},
		{ID: "2", Question: "q2", Answer: "a2", Embedding: []float64{1, 0}},
		{ID: "3", Question: "q3", Answer: "a3"},
	}}
	ai := &fakeAI{embedding: []float64{0.5, 0.5}}
	svc := newTestService(faqs, &fakeLogRepo{}, ai)

	n, err := svc.BackfillEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, faqs.updated, "1")
	assert.Contains(t, faqs.updated, "3")
	assert.NotContains(t, faqs.updated, "2", "already embedded entries are left alone")
}
