package journal

import (
	"context"
	"time"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// AddReview creates a write-up referencing a set of trades. Every
// referenced trade must exist.
func (j *Journal) AddReview(ctx context.Context, title, text string, tradeIDs []models.TradeID) (int64, error) {
	if title == "" {
		return 0, apperrors.NewValidationError("title", title, "must not be empty")
	}

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		for _, tradeID := range tradeIDs {
			if _, err := tx.GetTrade(tradeID); err != nil {
				return 0, err
			}
		}
		now := utils.TruncateToSecond(time.Now())
		return tx.InsertReview(models.Review{
			Title:     title,
			Text:      text,
			TradeIDs:  tradeIDs,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return 0, err
	}

	j.store.Hub().Publish(stream.TopicReviews)
	return id, nil
}

// EditReview replaces a review's title, text and trade references.
func (j *Journal) EditReview(ctx context.Context, id int64, title, text string, tradeIDs []models.TradeID) error {
	if title == "" {
		return apperrors.NewValidationError("title", title, "must not be empty")
	}

	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		for _, tradeID := range tradeIDs {
			if _, err := tx.GetTrade(tradeID); err != nil {
				return err
			}
		}
		return tx.UpdateReview(models.Review{
			ID:        id,
			Title:     title,
			Text:      text,
			TradeIDs:  tradeIDs,
			UpdatedAt: utils.TruncateToSecond(time.Now()),
		})
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicReviews)
	return nil
}

// RemoveReview deletes a review. The referenced trades are untouched.
func (j *Journal) RemoveReview(ctx context.Context, id int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteReview(id)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicReviews)
	return nil
}

// Review fetches a review with its trade references.
func (j *Journal) Review(ctx context.Context, id int64) (models.Review, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (models.Review, error) {
		return tx.GetReview(id)
	})
}
