package profile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "github.com/SaurabhSandav/TradingCompanion-sub000/internal/errors"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/journal"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	base := t.TempDir()
	r, err := NewRegistry(RegistryConfig{
		Dir:            filepath.Join(base, "profiles"),
		AttachmentsDir: filepath.Join(base, "attachments"),
		Logger:         zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestCreateAndListProfiles(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	swing, err := r.Create(ctx, "swing")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if swing.ID == "" {
		t.Fatal("expected generated profile id")
	}
	if _, err := r.Create(ctx, "intraday"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	profiles, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	got, err := r.Get(ctx, swing.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "swing" {
		t.Errorf("expected name swing, got %q", got.Name)
	}
}

func TestDuplicateProfileNameRefused(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if _, err := r.Create(ctx, "swing"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := r.Create(ctx, "swing"); !apperrors.Is(err, apperrors.ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
}

func TestRecordSingleFlight(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	p, err := r.Create(ctx, "swing")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const callers = 8
	records := make([]*Record, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := r.Record(ctx, p.ID)
			if err != nil {
				t.Errorf("Record failed: %v", err)
				return
			}
			records[i] = rec
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if records[i] != records[0] {
			t.Fatal("concurrent Record calls returned different records")
		}
	}
}

func TestRecordUnknownProfile(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Record(context.Background(), "no-such-id"); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesDatabaseFiles(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	p, err := r.Create(ctx, "swing")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rec, err := r.Record(ctx, p.ID)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Write through the journal so the db file exists on disk.
	_, err = rec.Journal.NewExecution(ctx, journal.ExecutionParams{
		Broker:     models.BrokerPaper,
		Instrument: models.InstrumentEquity,
		Ticker:     "RELIANCE",
		Quantity:   decimal.NewFromInt(10),
		Side:       models.ExecutionBuy,
		Price:      decimal.NewFromInt(100),
		Timestamp:  rec.Profile.CreatedAt,
	})
	if err != nil {
		t.Fatalf("NewExecution failed: %v", err)
	}

	dbPath := filepath.Join(r.dir, p.ID+".db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected profile db on disk: %v", err)
	}

	if err := r.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Error("expected profile db to be removed")
	}
	if _, err := r.Get(ctx, p.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestClosedRegistryRefusesRecords(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	p, err := r.Create(ctx, "swing")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := r.Record(ctx, p.ID); !apperrors.Is(err, apperrors.ErrProfileClosed) {
		t.Fatalf("expected ErrProfileClosed, got %v", err)
	}
}
