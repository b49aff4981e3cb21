// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/store"
)

// Factory opens a fresh store seeded with fx.
type Factory func(t *testing.T, fx store.Fixtures) store.Store

// Run exercises the store contract against the default fixtures.
func Run(t *testing.T, open Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"pipelines", testPipelines},
		{"stages ordered per pipeline", testStages},
		{"create deal", testCreateDeal},
		{"create deal rejects bad references", testCreateDealErrors},
		{"update deal", testUpdateDeal},
		{"create person", testCreatePerson},
		{"closed store", testClosed},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s := open(t, store.DefaultFixtures())
			tc.fn(t, s)
		})
	}
}

func testPipelines(t *testing.T, s store.Store) {
	pipelines, err := s.Pipelines(context.Background())
	if err != nil {
		t.Fatalf("pipelines: %v", err)
	}
	if len(pipelines) != 3 {
		t.Fatalf("len(pipelines) = %d, want 3", len(pipelines))
	}
	if pipelines[0].ID != "sales" || pipelines[0].Name != "Sales" {
		t.Fatalf("first pipeline = %+v, want sales", pipelines[0])
	}
}

func testStages(t *testing.T, s store.Store) {
	ctx := context.Background()
	stages, err := s.Stages(ctx, "sales")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	want := []string{"sales-lead", "sales-qualified", "sales-proposal", "sales-won"}
	if len(stages) != len(want) {
		t.Fatalf("len(stages) = %d, want %d", len(stages), len(want))
	}
	for i, id := range want {
		if stages[i].ID != id {
			t.Fatalf("stages[%d] = %s, want %s", i, stages[i].ID, id)
		}
		if stages[i].PipelineID != "sales" {
			t.Fatalf("stages[%d] pipeline = %q, want sales", i, stages[i].PipelineID)
		}
	}
	if stages[0].DealProbability == nil || *stages[0].DealProbability != 0.1 {
		t.Fatalf("lead probability = %v, want 0.1", stages[0].DealProbability)
	}
	empty, err := s.Stages(ctx, "partnerships")
	if err != nil {
		t.Fatalf("stages for empty pipeline: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no stages, got %d", len(empty))
	}
	if _, err := s.Stages(ctx, "missing"); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("stages for unknown pipeline = %v, want ErrNotFound", err)
	}
}

func testCreateDeal(t *testing.T, s store.Store) {
	ctx := context.Background()
	amount := 900.5
	created, err := s.CreateDeal(ctx, crm.DealInput{
		Name:     "  Anvil bulk order ",
		StageID:  "sales-lead",
		Amount:   &amount,
		PersonID: crm.StringPtr("person-ada"),
	})
	if err != nil {
		t.Fatalf("create deal: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if created.Name != "Anvil bulk order" {
		t.Fatalf("name = %q, want trimmed", created.Name)
	}
	if created.PipelineID != "sales" {
		t.Fatalf("pipeline = %q, want sales", created.PipelineID)
	}
	fetched, err := s.Deal(ctx, created.ID)
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if fetched.Amount == nil || *fetched.Amount != amount {
		t.Fatalf("amount = %v, want %v", fetched.Amount, amount)
	}
	if fetched.PersonID != "person-ada" || fetched.StageID != "sales-lead" {
		t.Fatalf("fetched = %+v", fetched)
	}
	deals, err := s.Deals(ctx)
	if err != nil {
		t.Fatalf("deals: %v", err)
	}
	if len(deals) != 3 {
		t.Fatalf("len(deals) = %d, want 3", len(deals))
	}
}

func testCreateDealErrors(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.CreateDeal(ctx, crm.DealInput{Name: " ", StageID: "sales-lead"}); !errors.Is(err, crm.ErrInvalidInput) {
		t.Fatalf("blank name = %v, want ErrInvalidInput", err)
	}
	if _, err := s.CreateDeal(ctx, crm.DealInput{Name: "x", StageID: "nope"}); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("unknown stage = %v, want ErrNotFound", err)
	}
	if _, err := s.CreateDeal(ctx, crm.DealInput{Name: "x", StageID: "sales-lead", PersonID: crm.StringPtr("ghost")}); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("unknown person = %v, want ErrNotFound", err)
	}
}

func testUpdateDeal(t *testing.T, s store.Store) {
	ctx := context.Background()
	updated, err := s.UpdateDeal(ctx, "deal-rocket", crm.DealInput{Name: "Rocket skates v2", StageID: "renewals-upcoming"})
	if err != nil {
		t.Fatalf("update deal: %v", err)
	}
	if updated.PipelineID != "renewals" || updated.StageID != "renewals-upcoming" {
		t.Fatalf("updated = %+v, want renewals/renewals-upcoming", updated)
	}
	if updated.PersonID != "" || updated.Amount != nil {
		t.Fatalf("expected person and amount cleared, got %+v", updated)
	}
	fetched, err := s.Deal(ctx, "deal-rocket")
	if err != nil {
		t.Fatalf("deal: %v", err)
	}
	if fetched.Name != "Rocket skates v2" {
		t.Fatalf("name = %q", fetched.Name)
	}
	if _, err := s.UpdateDeal(ctx, "ghost", crm.DealInput{Name: "x", StageID: "sales-lead"}); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("unknown deal = %v, want ErrNotFound", err)
	}
	if _, err := s.Deal(ctx, "ghost"); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("deal lookup = %v, want ErrNotFound", err)
	}
}

func testCreatePerson(t *testing.T, s store.Store) {
	ctx := context.Background()
	person, err := s.CreatePerson(ctx, crm.PersonInput{
		FirstName:      crm.StringPtr(" Katherine "),
		LastName:       crm.StringPtr("Johnson"),
		Phone:          crm.StringPtr(""),
		OrganizationID: crm.StringPtr("org-acme"),
	})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	if person.FirstName != "Katherine" || person.Phone != "" || person.OrganizationID != "org-acme" {
		t.Fatalf("person = %+v", person)
	}
	people, err := s.People(ctx)
	if err != nil {
		t.Fatalf("people: %v", err)
	}
	found := false
	for _, p := range people {
		if p.ID == person.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created person missing from listing")
	}
	if _, err := s.CreatePerson(ctx, crm.PersonInput{Phone: crm.StringPtr("555")}); !errors.Is(err, crm.ErrInvalidInput) {
		t.Fatalf("anonymous person = %v, want ErrInvalidInput", err)
	}
	if _, err := s.CreatePerson(ctx, crm.PersonInput{Email: crm.StringPtr("a@b.c"), OrganizationID: crm.StringPtr("org-ghost")}); !errors.Is(err, crm.ErrNotFound) {
		t.Fatalf("unknown organization = %v, want ErrNotFound", err)
	}
	orgs, err := s.Organizations(ctx)
	if err != nil {
		t.Fatalf("organizations: %v", err)
	}
	if len(orgs) != 2 || orgs[0].Name != "Acme Corp" {
		t.Fatalf("organizations = %+v", orgs)
	}
}

func testClosed(t *testing.T, s store.Store) {
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Pipelines(context.Background()); err == nil {
		t.Fatalf("expected error after close")
	}
}
