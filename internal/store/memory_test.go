package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/store"
	"github.com/kingrea/dealdesk/internal/store/storetest"
)

func TestMemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, fx store.Fixtures) store.Store {
		s, err := store.NewMemory(fx)
		if err != nil {
			t.Fatalf("new memory store: %v", err)
		}
		return s
	})
}

func TestMemoryUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := store.NewMemory(store.DefaultFixtures(), store.WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	deal, err := s.CreateDeal(context.Background(), crm.DealInput{Name: "Clocked", StageID: "sales-lead"})
	if err != nil {
		t.Fatalf("create deal: %v", err)
	}
	if !deal.CreatedAt.Equal(fixed) || !deal.UpdatedAt.Equal(fixed) {
		t.Fatalf("timestamps = %s/%s, want %s", deal.CreatedAt, deal.UpdatedAt, fixed)
	}
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	s, err := store.NewMemory(store.DefaultFixtures())
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Stages(ctx, "sales"); !errors.Is(err, context.Canceled) {
		t.Fatalf("stages = %v, want context.Canceled", err)
	}
}

func TestWithLatencyDelaysAndCancels(t *testing.T) {
	inner, err := store.NewMemory(store.DefaultFixtures())
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	if got := store.WithLatency(inner, 0); got != store.Store(inner) {
		t.Fatalf("zero latency should return the inner store")
	}
	slow := store.WithLatency(inner, 20*time.Millisecond)
	start := time.Now()
	if _, err := slow.Pipelines(context.Background()); err != nil {
		t.Fatalf("pipelines: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("call returned after %s, want at least 20ms", elapsed)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if _, err := store.WithLatency(inner, time.Second).Stages(ctx, "sales"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("stages = %v, want deadline exceeded", err)
	}
}

func TestLoadFixturesFallsBackToDefaults(t *testing.T) {
	fx, err := store.LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fx.Pipelines) != len(store.DefaultFixtures().Pipelines) {
		t.Fatalf("expected default pipelines, got %d", len(fx.Pipelines))
	}
}

func TestWriteThenLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed", "fixtures.yaml")
	if err := store.WriteFixtures(path, store.DefaultFixtures()); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	fx, err := store.LoadFixtures(path)
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if fx.Pipelines[0].Stages[0].PipelineID != "sales" {
		t.Fatalf("stage pipeline id not restored: %+v", fx.Pipelines[0].Stages[0])
	}
	if fx.Deals[0].Amount == nil || *fx.Deals[0].Amount != 12500 {
		t.Fatalf("deal amount lost: %+v", fx.Deals[0])
	}
	if err := os.WriteFile(path, []byte("pipelines: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteFixtures(path, store.DefaultFixtures()); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pipelines: []\n" {
		t.Fatalf("existing fixtures overwritten")
	}
}

func TestLoadFixturesRejectsDanglingReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	body := strings.TrimSpace(`
pipelines:
  - id: sales
    name: Sales
    stages:
      - id: lead
        name: Lead
        order: 1
deals:
  - id: d1
    name: Orphan
    stage_id: gone
`)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := store.LoadFixtures(path)
	if err == nil || !strings.Contains(err.Error(), "unknown stage") {
		t.Fatalf("expected unknown stage error, got %v", err)
	}
}
