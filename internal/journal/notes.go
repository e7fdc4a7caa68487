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

// AddNote attaches a free-text note to a trade.
func (j *Journal) AddNote(ctx context.Context, tradeID models.TradeID, text string, markdown bool) (int64, error) {
	if text == "" {
		return 0, apperrors.NewValidationError("text", text, "must not be empty")
	}

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		// Trade must exist; note rows cascade on trade deletion.
		if _, err := tx.GetTrade(tradeID); err != nil {
			return 0, err
		}
		return tx.InsertNote(models.TradeNote{
			TradeID:  tradeID,
			Text:     text,
			Markdown: markdown,
			AddedAt:  utils.TruncateToSecond(time.Now()),
		})
	})
	if err != nil {
		return 0, err
	}

	j.store.Hub().Publish(stream.TopicNotes)
	return id, nil
}

// EditNote replaces a note's text and stamps the edit time. AddedAt is
// preserved.
func (j *Journal) EditNote(ctx context.Context, id int64, text string, markdown bool) error {
	if text == "" {
		return apperrors.NewValidationError("text", text, "must not be empty")
	}

	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		editedAt := utils.TruncateToSecond(time.Now())
		return tx.UpdateNote(models.TradeNote{
			ID:       id,
			Text:     text,
			Markdown: markdown,
			EditedAt: &editedAt,
		})
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicNotes)
	return nil
}

// RemoveNote deletes a note.
func (j *Journal) RemoveNote(ctx context.Context, id int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteNote(id)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicNotes)
	return nil
}

// Notes lists a trade's notes in the order they were added.
func (j *Journal) Notes(ctx context.Context, tradeID models.TradeID) ([]models.TradeNote, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.TradeNote, error) {
		return tx.NotesForTrade(tradeID)
	})
}
