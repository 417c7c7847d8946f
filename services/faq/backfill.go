package faq

import (
	"context"
	"fmt"

	"tsunagu/utils"

	"go.uber.org/zap"
)

// BackfillEmbeddings computes and stores embeddings for entries that lack a
// usable vector. Individual failures are logged and skipped so one bad entry
// never stalls the rest; the number of entries updated is returned.
func (s *Service) BackfillEmbeddings(ctx context.Context) (int, error) {
	entries, err := s.Faqs.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list faq entries: %w", err)
	}

	logger := utils.GetLogger()
	updated := 0
	for _, entry := range entries {
		if entry.Embedding != nil {
			continue
		}
		vec, err := s.AI.Embed(ctx, entry.Question)
		if err != nil {
			logger.Warn("Failed to embed faq question",
				zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		if err := s.Faqs.UpdateEmbedding(ctx, entry.ID, vec); err != nil {
			logger.Warn("Failed to store faq embedding",
				zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		updated++
	}

	logger.Info("Embedding backfill finished", zap.Int("updated", updated))
	return updated, nil
}
