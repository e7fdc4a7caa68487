package store

import (
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

// --- Stops & Targets ---

// InsertStop inserts a stop for a trade.
func (t *Tx) InsertStop(stop models.TradeStop) (int64, error) {
	isPrimary := 0
	if stop.IsPrimary {
		isPrimary = 1
	}
	result, err := t.tx.Exec(`
		INSERT INTO trade_stops (trade_id, price, is_primary) VALUES (?, ?, ?)
	`, stop.TradeID, stop.Price.String(), isPrimary)
	if err != nil {
		return 0, fmt.Errorf("failed to insert stop: %w", err)
	}
	return t.lastInsertID(result, "stop")
}

// DeleteStop removes a stop by id.
func (t *Tx) DeleteStop(id int64) error {
	result, err := t.tx.Exec(`DELETE FROM trade_stops WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stop: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "stop %d", id)
	}
	return nil
}

// StopsForTrade returns the trade's stops, primary first.
func (t *Tx) StopsForTrade(tradeID models.TradeID) ([]models.TradeStop, error) {
	rows, err := t.tx.Query(`
		SELECT id, trade_id, price, is_primary FROM trade_stops
		WHERE trade_id = ? ORDER BY is_primary DESC, id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	var stops []models.TradeStop
	for rows.Next() {
		var (
			stop      models.TradeStop
			price     string
			isPrimary int
		)
		if err := rows.Scan(&stop.ID, &stop.TradeID, &price, &isPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		if stop.Price, err = parseDecimal(price, "price"); err != nil {
			return nil, err
		}
		stop.IsPrimary = isPrimary == 1
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

// InsertTarget inserts a target for a trade.
func (t *Tx) InsertTarget(target models.TradeTarget) (int64, error) {
	isPrimary := 0
	if target.IsPrimary {
		isPrimary = 1
	}
	result, err := t.tx.Exec(`
		INSERT INTO trade_targets (trade_id, price, is_primary) VALUES (?, ?, ?)
	`, target.TradeID, target.Price.String(), isPrimary)
	if err != nil {
		return 0, fmt.Errorf("failed to insert target: %w", err)
	}
	return t.lastInsertID(result, "target")
}

// DeleteTarget removes a target by id, returning the owning trade id so
// the caller can invalidate the excursion cache.
func (t *Tx) DeleteTarget(id int64) (models.TradeID, error) {
	var tradeID models.TradeID
	err := t.tx.QueryRow(`SELECT trade_id FROM trade_targets WHERE id = ?`, id).Scan(&tradeID)
	if err == sql.ErrNoRows {
		return 0, apperrors.Wrapf(apperrors.ErrNotFound, "target %d", id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get target: %w", err)
	}
	if _, err := t.tx.Exec(`DELETE FROM trade_targets WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to delete target: %w", err)
	}
	return tradeID, nil
}

// TargetsForTrade returns the trade's targets, primary first.
func (t *Tx) TargetsForTrade(tradeID models.TradeID) ([]models.TradeTarget, error) {
	rows, err := t.tx.Query(`
		SELECT id, trade_id, price, is_primary FROM trade_targets
		WHERE trade_id = ? ORDER BY is_primary DESC, id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []models.TradeTarget
	for rows.Next() {
		var (
			target    models.TradeTarget
			price     string
			isPrimary int
		)
		if err := rows.Scan(&target.ID, &target.TradeID, &price, &isPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		if target.Price, err = parseDecimal(price, "price"); err != nil {
			return nil, err
		}
		target.IsPrimary = isPrimary == 1
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

// --- Notes ---

// InsertNote inserts a note for a trade.
func (t *Tx) InsertNote(note models.TradeNote) (int64, error) {
	markdown := 0
	if note.Markdown {
		markdown = 1
	}
	result, err := t.tx.Exec(`
		INSERT INTO trade_notes (trade_id, text, markdown, added_at, edited_at)
		VALUES (?, ?, ?, ?, ?)
	`, note.TradeID, note.Text, markdown, note.AddedAt.Unix(), nullUnix(note.EditedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}
	return t.lastInsertID(result, "note")
}

// UpdateNote rewrites a note's text, markdown flag and edited timestamp.
func (t *Tx) UpdateNote(note models.TradeNote) error {
	markdown := 0
	if note.Markdown {
		markdown = 1
	}
	result, err := t.tx.Exec(`
		UPDATE trade_notes SET text = ?, markdown = ?, edited_at = ? WHERE id = ?
	`, note.Text, markdown, nullUnix(note.EditedAt), note.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "note %d", note.ID)
	}
	return nil
}

// DeleteNote removes a note by id.
func (t *Tx) DeleteNote(id int64) error {
	result, err := t.tx.Exec(`DELETE FROM trade_notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "note %d", id)
	}
	return nil
}

// NotesForTrade returns the trade's notes in insertion order.
func (t *Tx) NotesForTrade(tradeID models.TradeID) ([]models.TradeNote, error) {
	rows, err := t.tx.Query(`
		SELECT id, trade_id, text, markdown, added_at, edited_at FROM trade_notes
		WHERE trade_id = ? ORDER BY id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.TradeNote
	for rows.Next() {
		var (
			note     models.TradeNote
			markdown int
			addedAt  int64
			editedAt sql.NullInt64
		)
		if err := rows.Scan(&note.ID, &note.TradeID, &note.Text, &markdown, &addedAt, &editedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.Markdown = markdown == 1
		note.AddedAt = time.Unix(addedAt, 0).UTC()
		if editedAt.Valid {
			v := time.Unix(editedAt.Int64, 0).UTC()
			note.EditedAt = &v
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// --- Tags ---

// GetTagByName returns a tag by its unique name, or nil if absent.
func (t *Tx) GetTagByName(name string) (*models.Tag, error) {
	var tag models.Tag
	err := t.tx.QueryRow(`SELECT id, name FROM tags WHERE name = ?`, name).Scan(&tag.ID, &tag.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// InsertTag creates a new globally named tag.
func (t *Tx) InsertTag(name string) (int64, error) {
	result, err := t.tx.Exec(`INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tag: %w", err)
	}
	return t.lastInsertID(result, "tag")
}

// RenameTag renames a tag in place.
func (t *Tx) RenameTag(id int64, name string) error {
	result, err := t.tx.Exec(`UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename tag: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "tag %d", id)
	}
	return nil
}

// DeleteTag removes a tag; trade links cascade.
func (t *Tx) DeleteTag(id int64) error {
	result, err := t.tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "tag %d", id)
	}
	return nil
}

// TagTrade links a tag to a trade; duplicate links are ignored.
func (t *Tx) TagTrade(tradeID models.TradeID, tagID int64) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO trade_tags (trade_id, tag_id) VALUES (?, ?)
	`, tradeID, tagID)
	if err != nil {
		return fmt.Errorf("failed to tag trade: %w", err)
	}
	return nil
}

// UntagTrade removes a tag link from a trade.
func (t *Tx) UntagTrade(tradeID models.TradeID, tagID int64) error {
	_, err := t.tx.Exec(`
		DELETE FROM trade_tags WHERE trade_id = ? AND tag_id = ?
	`, tradeID, tagID)
	if err != nil {
		return fmt.Errorf("failed to untag trade: %w", err)
	}
	return nil
}

// TagsForTrade returns the trade's tags sorted by name.
func (t *Tx) TagsForTrade(tradeID models.TradeID) ([]models.Tag, error) {
	rows, err := t.tx.Query(`
		SELECT tg.id, tg.name FROM trade_tags tt
		JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.trade_id = ? ORDER BY tg.name ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// --- Attachments ---

// GetAttachmentFile returns a stored file row by checksum, or nil.
func (t *Tx) GetAttachmentFile(checksum string) (*models.AttachmentFile, error) {
	var (
		file    models.AttachmentFile
		addedAt int64
	)
	err := t.tx.QueryRow(`
		SELECT checksum, name, size, added_at FROM attachment_files WHERE checksum = ?
	`, checksum).Scan(&file.Checksum, &file.Name, &file.Size, &addedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment file: %w", err)
	}
	file.AddedAt = time.Unix(addedAt, 0).UTC()
	return &file, nil
}

// InsertAttachmentFile stores a content-addressed file row.
func (t *Tx) InsertAttachmentFile(file models.AttachmentFile) error {
	_, err := t.tx.Exec(`
		INSERT INTO attachment_files (checksum, name, size, added_at) VALUES (?, ?, ?, ?)
	`, file.Checksum, file.Name, file.Size, file.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert attachment file: %w", err)
	}
	return nil
}

// DeleteAttachmentFile removes a file row by checksum.
func (t *Tx) DeleteAttachmentFile(checksum string) error {
	_, err := t.tx.Exec(`DELETE FROM attachment_files WHERE checksum = ?`, checksum)
	if err != nil {
		return fmt.Errorf("failed to delete attachment file: %w", err)
	}
	return nil
}

// InsertAttachment links a trade to a stored file.
func (t *Tx) InsertAttachment(att models.TradeAttachment) (int64, error) {
	result, err := t.tx.Exec(`
		INSERT INTO trade_attachments (trade_id, checksum, title) VALUES (?, ?, ?)
	`, att.TradeID, att.Checksum, att.Title)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attachment: %w", err)
	}
	return t.lastInsertID(result, "attachment")
}

// DeleteAttachment removes an attachment link, returning its checksum so
// the caller can sweep the file if it became orphaned.
func (t *Tx) DeleteAttachment(id int64) (string, error) {
	var checksum string
	err := t.tx.QueryRow(`SELECT checksum FROM trade_attachments WHERE id = ?`, id).Scan(&checksum)
	if err == sql.ErrNoRows {
		return "", apperrors.Wrapf(apperrors.ErrNotFound, "attachment %d", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get attachment: %w", err)
	}
	if _, err := t.tx.Exec(`DELETE FROM trade_attachments WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("failed to delete attachment: %w", err)
	}
	return checksum, nil
}

// AttachmentsForTrade returns the trade's attachment links.
func (t *Tx) AttachmentsForTrade(tradeID models.TradeID) ([]models.TradeAttachment, error) {
	rows, err := t.tx.Query(`
		SELECT id, trade_id, checksum, title FROM trade_attachments
		WHERE trade_id = ? ORDER BY id ASC
	`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.TradeAttachment
	for rows.Next() {
		var att models.TradeAttachment
		if err := rows.Scan(&att.ID, &att.TradeID, &att.Checksum, &att.Title); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

// AttachmentRefCount returns how many trade links reference a checksum.
func (t *Tx) AttachmentRefCount(checksum string) (int, error) {
	var count int
	err := t.tx.QueryRow(`
		SELECT COUNT(*) FROM trade_attachments WHERE checksum = ?
	`, checksum).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachment refs: %w", err)
	}
	return count, nil
}

// OrphanedAttachmentFiles returns checksums of file rows no trade links.
func (t *Tx) OrphanedAttachmentFiles() ([]string, error) {
	rows, err := t.tx.Query(`
		SELECT f.checksum FROM attachment_files f
		LEFT JOIN trade_attachments a ON a.checksum = f.checksum
		WHERE a.id IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned files: %w", err)
	}
	defer rows.Close()

	var checksums []string
	for rows.Next() {
		var checksum string
		if err := rows.Scan(&checksum); err != nil {
			return nil, fmt.Errorf("failed to scan checksum: %w", err)
		}
		checksums = append(checksums, checksum)
	}
	return checksums, rows.Err()
}

// --- Excursions ---

// PutExcursions upserts the excursion cache row for a trade.
func (t *Tx) PutExcursions(exc models.TradeExcursions) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO trade_excursions (trade_id,
			trade_mfe_price, trade_mfe_pnl, trade_mae_price, trade_mae_pnl,
			session_mfe_price, session_mfe_pnl, session_mae_price, session_mae_pnl,
			computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, exc.TradeID,
		exc.TradeMFEPrice.String(), exc.TradeMFEPnL.String(),
		exc.TradeMAEPrice.String(), exc.TradeMAEPnL.String(),
		exc.SessionMFEPrice.String(), exc.SessionMFEPnL.String(),
		exc.SessionMAEPrice.String(), exc.SessionMAEPnL.String(),
		exc.ComputedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to put excursions: %w", err)
	}
	return nil
}

// GetExcursions returns the cached excursions for a trade, or nil if the
// cache is cold.
func (t *Tx) GetExcursions(tradeID models.TradeID) (*models.TradeExcursions, error) {
	var (
		exc                     models.TradeExcursions
		tMFEP, tMFEL, tMAEP     string
		tMAEL                   string
		sMFEP, sMFEL, sMAEP     string
		sMAEL                   string
		computedAt              int64
	)
	err := t.tx.QueryRow(`
		SELECT trade_id, trade_mfe_price, trade_mfe_pnl, trade_mae_price, trade_mae_pnl,
			session_mfe_price, session_mfe_pnl, session_mae_price, session_mae_pnl, computed_at
		FROM trade_excursions WHERE trade_id = ?
	`, tradeID).Scan(&exc.TradeID, &tMFEP, &tMFEL, &tMAEP, &tMAEL, &sMFEP, &sMFEL, &sMAEP, &sMAEL, &computedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get excursions: %w", err)
	}
	if exc.TradeMFEPrice, err = parseDecimal(tMFEP, "trade_mfe_price"); err != nil {
		return nil, err
	}
	if exc.TradeMFEPnL, err = parseDecimal(tMFEL, "trade_mfe_pnl"); err != nil {
		return nil, err
	}
	if exc.TradeMAEPrice, err = parseDecimal(tMAEP, "trade_mae_price"); err != nil {
		return nil, err
	}
	if exc.TradeMAEPnL, err = parseDecimal(tMAEL, "trade_mae_pnl"); err != nil {
		return nil, err
	}
	if exc.SessionMFEPrice, err = parseDecimal(sMFEP, "session_mfe_price"); err != nil {
		return nil, err
	}
	if exc.SessionMFEPnL, err = parseDecimal(sMFEL, "session_mfe_pnl"); err != nil {
		return nil, err
	}
	if exc.SessionMAEPrice, err = parseDecimal(sMAEP, "session_mae_price"); err != nil {
		return nil, err
	}
	if exc.SessionMAEPnL, err = parseDecimal(sMAEL, "session_mae_pnl"); err != nil {
		return nil, err
	}
	exc.ComputedAt = time.Unix(computedAt, 0).UTC()
	return &exc, nil
}

// DeleteExcursions drops the excursion cache for a trade. Called on every
// trade regeneration; a missing row is not an error.
func (t *Tx) DeleteExcursions(tradeID models.TradeID) error {
	_, err := t.tx.Exec(`DELETE FROM trade_excursions WHERE trade_id = ?`, tradeID)
	if err != nil {
		return fmt.Errorf("failed to delete excursions: %w", err)
	}
	return nil
}

// --- Reviews ---

// InsertReview stores a review and its trade references.
func (t *Tx) InsertReview(review models.Review) (int64, error) {
	result, err := t.tx.Exec(`
		INSERT INTO reviews (title, text, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, review.Title, review.Text, review.CreatedAt.Unix(), review.UpdatedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert review: %w", err)
	}
	id, err := t.lastInsertID(result, "review")
	if err != nil {
		return 0, err
	}
	for _, tradeID := range review.TradeIDs {
		if _, err := t.tx.Exec(`
			INSERT OR IGNORE INTO review_trades (review_id, trade_id) VALUES (?, ?)
		`, id, tradeID); err != nil {
			return 0, fmt.Errorf("failed to link review trade: %w", err)
		}
	}
	return id, nil
}

// UpdateReview rewrites a review's text and trade references.
func (t *Tx) UpdateReview(review models.Review) error {
	result, err := t.tx.Exec(`
		UPDATE reviews SET title = ?, text = ?, updated_at = ? WHERE id = ?
	`, review.Title, review.Text, review.UpdatedAt.Unix(), review.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "review %d", review.ID)
	}
	if _, err := t.tx.Exec(`DELETE FROM review_trades WHERE review_id = ?`, review.ID); err != nil {
		return fmt.Errorf("failed to clear review trades: %w", err)
	}
	for _, tradeID := range review.TradeIDs {
		if _, err := t.tx.Exec(`
			INSERT OR IGNORE INTO review_trades (review_id, trade_id) VALUES (?, ?)
		`, review.ID, tradeID); err != nil {
			return fmt.Errorf("failed to link review trade: %w", err)
		}
	}
	return nil
}

// DeleteReview removes a review; trade links cascade.
func (t *Tx) DeleteReview(id int64) error {
	result, err := t.tx.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "review %d", id)
	}
	return nil
}

// GetReview returns a review with its trade references.
func (t *Tx) GetReview(id int64) (models.Review, error) {
	var (
		review    models.Review
		createdAt int64
		updatedAt int64
	)
	err := t.tx.QueryRow(`
		SELECT id, title, text, created_at, updated_at FROM reviews WHERE id = ?
	`, id).Scan(&review.ID, &review.Title, &review.Text, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return models.Review{}, apperrors.Wrapf(apperrors.ErrNotFound, "review %d", id)
	}
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to get review: %w", err)
	}
	review.CreatedAt = time.Unix(createdAt, 0).UTC()
	review.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	rows, err := t.tx.Query(`
		SELECT trade_id FROM review_trades WHERE review_id = ? ORDER BY trade_id ASC
	`, id)
	if err != nil {
		return models.Review{}, fmt.Errorf("failed to query review trades: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tradeID models.TradeID
		if err := rows.Scan(&tradeID); err != nil {
			return models.Review{}, fmt.Errorf("failed to scan review trade: %w", err)
		}
		review.TradeIDs = append(review.TradeIDs, tradeID)
	}
	return review, rows.Err()
}
