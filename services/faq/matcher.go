package faq

import (
	"context"
	"regexp"
	"strings"
	"time"

	"tsunagu/config"
	conversationRepo "tsunagu/database/repository/conversation"
	faqRepo "tsunagu/database/repository/faq"
	"tsunagu/models"
	"tsunagu/utils"

	"go.uber.org/zap"
)

// apologyReply is sent when generation itself fails. The failure detail stays
// in the audit log, never in chat.
const apologyReply = "申し訳ありません、システムエラーが発生しました。しばらく時間をおいてから再度お試しください。"

// Embedder produces embedding vectors for question text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces grounded and free-form replies.
type Generator interface {
	GenerateAnswer(ctx context.Context, question, matchedQuestion, matchedAnswer string) (string, error)
	ChatWithHistory(ctx context.Context, history []models.ConversationTurn, message string) (string, error)
}

// AI combines the provider capabilities the matcher needs.
type AI interface {
	Embedder
	Generator
}

// Service answers questions by semantic match against the knowledge base,
// falling back to history-grounded generation below the threshold.
type Service struct {
	Faqs      faqRepo.FaqRepository
	Logs      conversationRepo.ConversationRepository
	Context   *ContextAssembler
	AI        AI
	Threshold float64
}

// NewService creates a matcher with the given similarity threshold.
func NewService(faqs faqRepo.FaqRepository, logs conversationRepo.ConversationRepository, assembler *ContextAssembler, ai AI, threshold float64) *Service {
	return &Service{Faqs: faqs, Logs: logs, Context: assembler, AI: ai, Threshold: threshold}
}

// Answer resolves a question against the knowledge base and dispatches the
// reply through send before writing the audit row. The audit row keeps the
// original uncleaned question; trigger stripping only affects matching.
func (s *Service) Answer(ctx context.Context, userID, question string, send func(text string)) {
	logger := utils.GetLogger()

	cleaned := stripTriggerPrefix(question)

	best := s.bestMatch(ctx, cleaned)

	// Only a strict threshold crossing counts as a match.
	if best != nil && best.Similarity > s.Threshold {
		reply, err := s.AI.GenerateAnswer(ctx, cleaned, best.Question, best.Answer)
		if err != nil {
			logger.Error("Grounded answer generation failed", zap.String("user", userID), zap.Error(err))
			send(apologyReply)
			s.audit(ctx, userID, question, "ERROR: "+err.Error(), nil)
			return
		}
		send(reply)
		sim := best.Similarity
		s.audit(ctx, userID, question, reply, &sim)
		return
	}

	s.chat(ctx, userID, question, cleaned, send)
}

// Chat produces a free-form generative reply grounded in recent history.
func (s *Service) Chat(ctx context.Context, userID, message string, send func(text string)) {
	s.chat(ctx, userID, message, message, send)
}

func (s *Service) chat(ctx context.Context, userID, original, message string, send func(text string)) {
	history := s.Context.Assemble(ctx, userID)
	reply, err := s.AI.ChatWithHistory(ctx, history, message)
	if err != nil {
		utils.GetLogger().Error("Chat generation failed", zap.String("user", userID), zap.Error(err))
		send(apologyReply)
		s.audit(ctx, userID, original, "ERROR: "+err.Error(), nil)
		return
	}
	send(reply)
	s.audit(ctx, userID, original, reply, nil)
}

// bestMatch embeds the question and scans every embeddable entry, keeping the
// highest similarity. Ties keep the first-seen entry. Any failure here means
// "no match" so the generative fallback still answers the user.
func (s *Service) bestMatch(ctx context.Context, question string) *models.SearchResult {
	logger := utils.GetLogger()

	entries, err := s.Faqs.ListAll(ctx)
	if err != nil {
		logger.Error("Failed to load knowledge base", zap.Error(err))
		return nil
	}
	if len(entries) == 0 {
		logger.Warn("Knowledge base is empty")
		return nil
	}

	vec, err := s.AI.Embed(ctx, question)
	if err != nil || !utils.IsValidVector(vec) {
		logger.Error("Failed to embed user question", zap.Error(err))
		return nil
	}

	var best *models.SearchResult
	for _, entry := range entries {
		if entry.Embedding == nil {
			continue
		}
		sim, err := utils.CosineSimilarity(vec, entry.Embedding)
		if err != nil {
			logger.Warn("Skipping incomparable faq embedding",
				zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &models.SearchResult{Question: entry.Question, Answer: entry.Answer, Similarity: sim}
		}
	}
	return best
}

// stripTriggerPrefix removes the "<org name> <trigger phrase>" prefix,
// tolerating ASCII and full-width spaces between and after the two parts.
func stripTriggerPrefix(text string) string {
	text = strings.TrimSpace(text)
	name := regexp.QuoteMeta(config.AppConfig.OrganizationName)
	trigger := regexp.QuoteMeta(config.AppConfig.FaqTriggerPhrase)
	pattern := regexp.MustCompile(`^(?i:` + name + `[\s　]*` + trigger + `)[\s　]*`)
	cleaned := pattern.ReplaceAllString(text, "")
	if cleaned == "" {
		return text
	}
	return cleaned
}

// audit appends one row to the interaction log. Audit failures are logged and
// swallowed so a bad log write never blocks anything else.
func (s *Service) audit(ctx context.Context, userID, message, response string, similarity *float64) {
	entry := models.InteractionLog{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		UserID:     userID,
		Message:    message,
		Response:   response,
		Similarity: similarity,
	}
	if err := s.Logs.Append(ctx, entry); err != nil {
		utils.GetLogger().Error("Failed to append interaction log",
			zap.String("user", userID), zap.Error(err))
	}
}
