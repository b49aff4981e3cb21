package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/store"
	"github.com/kingrea/dealdesk/internal/store/storetest"
)

func openTestStore(t *testing.T, fx store.Fixtures) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "dealdesk.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Seed(context.Background(), fx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, fx store.Fixtures) store.Store {
		return openTestStore(t, fx)
	})
}

func TestSeedSkipsPopulatedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dealdesk.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.Seed(ctx, store.DefaultFixtures()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	created, err := s.CreateDeal(ctx, crm.DealInput{Name: "Kept", StageID: "sales-won"})
	if err != nil {
		t.Fatalf("create deal: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := reopened.Seed(ctx, store.DefaultFixtures()); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	deals, err := reopened.Deals(ctx)
	if err != nil {
		t.Fatalf("deals: %v", err)
	}
	if len(deals) != 3 {
		t.Fatalf("len(deals) = %d, want 3 after reopening", len(deals))
	}
	fetched, err := reopened.Deal(ctx, created.ID)
	if err != nil {
		t.Fatalf("deal survived reopen: %v", err)
	}
	if fetched.PipelineID != "sales" {
		t.Fatalf("pipeline = %q, want sales", fetched.PipelineID)
	}
}
