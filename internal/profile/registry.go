// Package profile manages trading profiles and the per-profile record
// cache. Each profile owns an isolated sqlite database file named by the
// profile's UUID; records are opened lazily and cached so concurrent
// callers share one open store per profile.
package profile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/brokerage"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/engine"
	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/journal"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/logging"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/store"
)

// Profile identifies one trading profile.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Record is an opened profile: its journal and the store under it.
type Record struct {
	Profile Profile
	Journal *journal.Journal
}

// Store exposes the record's store for the read layer and live queries.
func (r *Record) Store() *store.Store {
	return r.Journal.Store()
}

// RegistryConfig holds the registry's collaborators and directories.
type RegistryConfig struct {
	// Dir holds the registry index and one <uuid>.db file per profile.
	Dir string
	// AttachmentsDir is the base for per-profile attachment file stores.
	AttachmentsDir string
	// PricePrecision is passed through to each record's engine.
	PricePrecision int32
	Logger         zerolog.Logger
}

// recordEntry is the in-flight or completed construction of a record.
// Waiters block on ready; exactly one goroutine builds.
type recordEntry struct {
	ready  chan struct{}
	record *Record
	err    error
}

// Registry tracks profiles and caches one open record per profile.
// It is an explicit dependency: construct once, inject where needed.
type Registry struct {
	dir            string
	attachmentsDir string
	precision      int32
	log            zerolog.Logger

	index *store.Registry

	mu      sync.Mutex
	records map[string]*recordEntry
	closed  bool
}

// NewRegistry opens the profile index under cfg.Dir, creating it if
// needed.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, apperrors.Wrap(err, "failed to create profiles dir")
	}

	index, err := store.OpenRegistry(filepath.Join(cfg.Dir, "registry.db"))
	if err != nil {
		return nil, err
	}

	precision := cfg.PricePrecision
	if precision == 0 {
		precision = engine.DefaultPricePrecision
	}

	return &Registry{
		dir:            cfg.Dir,
		attachmentsDir: cfg.AttachmentsDir,
		precision:      precision,
		log:            cfg.Logger,
		index:          index,
		records:        make(map[string]*recordEntry),
	}, nil
}

// Create registers a new profile. Names are unique; a duplicate is
// refused with ErrProfileExists.
func (r *Registry) Create(ctx context.Context, name string) (Profile, error) {
	if name == "" {
		return Profile{}, apperrors.NewValidationError("name", name, "must not be empty")
	}

	profile := Profile{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().Truncate(time.Second),
	}
	if err := r.index.InsertProfile(ctx, profile.ID, profile.Name, profile.CreatedAt); err != nil {
		return Profile{}, err
	}

	r.log.Info().Str("profile_id", profile.ID).Str("name", name).Msg("Profile created")
	return profile, nil
}

// List returns all registered profiles in creation order.
func (r *Registry) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.index.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, Profile{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt})
	}
	return profiles, nil
}

// Get returns one profile by id.
func (r *Registry) Get(ctx context.Context, id string) (Profile, error) {
	row, err := r.index.GetProfile(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return Profile{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, nil
}

// Record returns the open record for a profile, opening it on first use.
// Concurrent callers for the same profile share a single construction.
func (r *Registry) Record(ctx context.Context, id string) (*Record, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, apperrors.ErrProfileClosed
	}
	if entry, ok := r.records[id]; ok {
		r.mu.Unlock()
		select {
		case <-entry.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return entry.record, entry.err
	}

	entry := &recordEntry{ready: make(chan struct{})}
	r.records[id] = entry
	r.mu.Unlock()

	record, err := r.openRecord(ctx, id)
	entry.record, entry.err = record, err
	close(entry.ready)

	if err != nil {
		// Failed constructions are not cached; the next caller retries.
		r.mu.Lock()
		if r.records[id] == entry {
			delete(r.records, id)
		}
		r.mu.Unlock()
	}
	return record, err
}

func (r *Registry) openRecord(ctx context.Context, id string) (*Record, error) {
	profile, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(r.databasePath(id))
	if err != nil {
		return nil, err
	}

	log := logging.WithProfile(r.log, profile.Name)
	eng := engine.New(r.precision, brokerage.New())
	jrnl := journal.New(journal.Config{
		Store:          st,
		Engine:         eng,
		Logger:         log,
		AttachmentsDir: filepath.Join(r.attachmentsDir, id),
	})

	return &Record{Profile: profile, Journal: jrnl}, nil
}

// Delete removes a profile: its open record is evicted and closed, the
// index row removed, and the database files deleted from disk.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	entry, ok := r.records[id]
	if ok {
		delete(r.records, id)
	}
	r.mu.Unlock()

	if ok {
		<-entry.ready
		if entry.record != nil {
			if err := entry.record.Store().Close(); err != nil {
				r.log.Warn().Err(err).Str("profile_id", id).Msg("Failed to close profile store")
			}
		}
	}

	if err := r.index.DeleteProfile(ctx, id); err != nil {
		return err
	}

	r.removeDatabaseFiles(id)
	if err := os.RemoveAll(filepath.Join(r.attachmentsDir, id)); err != nil {
		r.log.Warn().Err(err).Str("profile_id", id).Msg("Failed to remove profile attachments")
	}

	r.log.Info().Str("profile_id", id).Msg("Profile deleted")
	return nil
}

// Close closes every cached record and the registry index. The registry
// refuses further use afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	records := r.records
	r.records = nil
	r.mu.Unlock()

	var firstErr error
	for id, entry := range records {
		<-entry.ready
		if entry.record == nil {
			continue
		}
		if err := entry.record.Store().Close(); err != nil && firstErr == nil {
			firstErr = apperrors.Wrapf(err, "failed to close profile %s", id)
		}
	}
	if err := r.index.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (r *Registry) databasePath(id string) string {
	return filepath.Join(r.dir, id+".db")
}

// removeDatabaseFiles deletes the sqlite file and its WAL companions.
func (r *Registry) removeDatabaseFiles(id string) {
	base := r.databasePath(id)
	for _, path := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", path).Msg("Failed to remove profile database file")
		}
	}
}
