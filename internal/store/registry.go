package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
)

// Registry is the profile index: a small sqlite database mapping profile
// ids to names. Profile trade data lives in separate per-profile stores.
type Registry struct {
	db *sql.DB
}

// ProfileRow is one profile index entry.
type ProfileRow struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// OpenRegistry opens (creating if necessary) the profile index at dbPath.
func OpenRegistry(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}

	return &Registry{db: db}, nil
}

// Close closes the registry database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// InsertProfile adds a profile index entry. A duplicate name is refused
// with ErrProfileExists.
func (r *Registry) InsertProfile(ctx context.Context, id, name string, createdAt time.Time) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE name = ?", name,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check profile name: %w", err)
	}
	if count > 0 {
		return apperrors.Wrapf(apperrors.ErrProfileExists, "profile %q", name)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO profiles (id, name, created_at) VALUES (?, ?, ?)",
		id, name, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfile fetches one profile index entry by id.
func (r *Registry) GetProfile(ctx context.Context, id string) (ProfileRow, error) {
	var row ProfileRow
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM profiles WHERE id = ?", id,
	).Scan(&row.ID, &row.Name, &createdAt)
	if err == sql.ErrNoRows {
		return ProfileRow{}, apperrors.Wrapf(apperrors.ErrNotFound, "profile %s", id)
	}
	if err != nil {
		return ProfileRow{}, fmt.Errorf("failed to get profile: %w", err)
	}
	row.CreatedAt = time.Unix(createdAt, 0)
	return row, nil
}

// ListProfiles returns all profile index entries in creation order.
func (r *Registry) ListProfiles(ctx context.Context) ([]ProfileRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM profiles ORDER BY created_at ASC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []ProfileRow
	for rows.Next() {
		var row ProfileRow
		var createdAt int64
		if err := rows.Scan(&row.ID, &row.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		row.CreatedAt = time.Unix(createdAt, 0)
		profiles = append(profiles, row)
	}
	return profiles, rows.Err()
}

// DeleteProfile removes a profile index entry.
func (r *Registry) DeleteProfile(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if affected == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "profile %s", id)
	}
	return nil
}
