package journal

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/stream"
	"github.com/SaurabhSandav/TradingCompanion-sub000/pkg/utils"
)

// AttachmentChecksum returns the SHA-1 hex digest that addresses a piece
// of attachment content.
func AttachmentChecksum(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// attachmentPath is where a stored file's bytes live on disk, addressed
// by checksum so identical content occupies the disk once.
func (j *Journal) attachmentPath(checksum string) string {
	return filepath.Join(j.attachmentsDir, checksum)
}

// AddAttachment stores content on disk under its SHA-1 checksum and links
// it to a trade. Re-attaching identical content reuses the stored file.
func (j *Journal) AddAttachment(ctx context.Context, tradeID models.TradeID, name, title string, content []byte) (int64, error) {
	if name == "" {
		return 0, apperrors.NewValidationError("name", name, "must not be empty")
	}
	if len(content) == 0 {
		return 0, apperrors.NewValidationError("content", nil, "must not be empty")
	}

	checksum := AttachmentChecksum(content)

	id, err := store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) (int64, error) {
		if _, err := tx.GetTrade(tradeID); err != nil {
			return 0, err
		}

		file, err := tx.GetAttachmentFile(checksum)
		if err != nil {
			return 0, err
		}
		if file == nil {
			if err := os.MkdirAll(j.attachmentsDir, 0o755); err != nil {
				return 0, apperrors.Wrap(err, "failed to create attachments dir")
			}
			if err := os.WriteFile(j.attachmentPath(checksum), content, 0o644); err != nil {
				return 0, apperrors.Wrap(err, "failed to write attachment file")
			}
			err = tx.InsertAttachmentFile(models.AttachmentFile{
				Checksum: checksum,
				Name:     name,
				Size:     int64(len(content)),
				AddedAt:  utils.TruncateToSecond(time.Now()),
			})
			if err != nil {
				return 0, err
			}
		}

		return tx.InsertAttachment(models.TradeAttachment{
			TradeID:  tradeID,
			Checksum: checksum,
			Title:    title,
		})
	})
	if err != nil {
		return 0, err
	}

	j.log.Info().
		Int64("trade_id", int64(tradeID)).
		Str("checksum", checksum).
		Int("size", len(content)).
		Msg("Attachment added")

	j.store.Hub().Publish(stream.TopicAttachments)
	return id, nil
}

// RemoveAttachment unlinks an attachment from its trade. When the last
// link to a stored file goes, the file row and its bytes on disk go too.
func (j *Journal) RemoveAttachment(ctx context.Context, id int64) error {
	var removedFile string
	err := j.store.Transaction(ctx, func(tx *store.Tx) error {
		checksum, err := tx.DeleteAttachment(id)
		if err != nil {
			return err
		}
		refs, err := tx.AttachmentRefCount(checksum)
		if err != nil {
			return err
		}
		if refs == 0 {
			if err := tx.DeleteAttachmentFile(checksum); err != nil {
				return err
			}
			removedFile = checksum
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removedFile != "" {
		j.removeAttachmentFiles([]string{removedFile})
	}
	j.store.Hub().Publish(stream.TopicAttachments)
	return nil
}

// Attachments lists a trade's attachment links.
func (j *Journal) Attachments(ctx context.Context, tradeID models.TradeID) ([]models.TradeAttachment, error) {
	return store.TransactionWithResult(ctx, j.store, func(tx *store.Tx) ([]models.TradeAttachment, error) {
		return tx.AttachmentsForTrade(tradeID)
	})
}

// AttachmentContent reads a stored file's bytes from disk.
func (j *Journal) AttachmentContent(checksum string) ([]byte, error) {
	content, err := os.ReadFile(j.attachmentPath(checksum))
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read attachment %s", checksum)
	}
	return content, nil
}

// removeAttachmentFiles deletes stored files from disk after their rows
// committed away. A missing file is not an error; disk state is repaired
// lazily rather than rolled back with the transaction.
func (j *Journal) removeAttachmentFiles(checksums []string) {
	for _, checksum := range checksums {
		err := os.Remove(j.attachmentPath(checksum))
		if err != nil && !os.IsNotExist(err) {
			j.log.Warn().Err(err).Str("checksum", checksum).Msg("Failed to remove attachment file")
		}
	}
}
