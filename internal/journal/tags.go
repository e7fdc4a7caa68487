package journal

import (
	"context"
	"strings"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
)

func normalizeTagName(name string) string {
	return strings.TrimSpace(name)
}

// CreateTag creates a globally named tag. Names are unique; a duplicate
// is refused with ErrTagExists.
func (j *Journal) CreateTag(ctx context.Context, name string) (int64, error) {
	name = normalizeTagName(name)
	if name == "" {
		return 0, apperrors.NewValidationError("name", name, "must not be empty")
	}

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		existing, err := tx.GetTagByName(name)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return 0, apperrors.Wrapf(apperrors.ErrTagExists, "tag %q", name)
		}
		return tx.InsertTag(name)
	})
	if err != nil {
		return 0, err
	}

	j.store.Hub().Publish(stream.TopicTags)
	return id, nil
}

// RenameTag changes a tag's name everywhere it is applied. Renaming onto
// an existing name is refused with ErrTagExists.
func (j *Journal) RenameTag(ctx context.Context, id int64, name string) error {
	name = normalizeTagName(name)
	if name == "" {
		return apperrors.NewValidationError("name", name, "must not be empty")
	}

	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		existing, err := tx.GetTagByName(name)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != id {
			return apperrors.Wrapf(apperrors.ErrTagExists, "tag %q", name)
		}
		return tx.RenameTag(id, name)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicTags)
	return nil
}

// DeleteTag removes a tag and, by cascade, its application to every trade.
func (j *Journal) DeleteTag(ctx context.Context, id int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteTag(id)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicTags)
	return nil
}

// TagTrade applies a tag to a trade by name, creating the tag if it does
// not exist yet. Applying a tag twice is a no-op.
func (j *Journal) TagTrade(ctx context.Context, tradeID models.TradeID, name string) error {
	name = normalizeTagName(name)
	if name == "" {
		return apperrors.NewValidationError("name", name, "must not be empty")
	}

	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetTrade(tradeID); err != nil {
			return err
		}
		tag, err := tx.GetTagByName(name)
		if err != nil {
			return err
		}
		var tagID int64
		if tag != nil {
			tagID = tag.ID
		} else {
			tagID, err = tx.InsertTag(name)
			if err != nil {
				return err
			}
		}
		return tx.TagTrade(tradeID, tagID)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicTags)
	return nil
}

// UntagTrade removes a tag from a trade. The tag itself survives.
func (j *Journal) UntagTrade(ctx context.Context, tradeID models.TradeID, tagID int64) error {
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.UntagTrade(tradeID, tagID)
	})
	if err != nil {
		return err
	}

	j.store.Hub().Publish(stream.TopicTags)
	return nil
}

// Tags lists the tags applied to a trade.
func (j *Journal) Tags(ctx context.Context, tradeID models.TradeID) ([]models.Tag, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.Tag, error) {
		return tx.TagsForTrade(tradeID)
	})
}
