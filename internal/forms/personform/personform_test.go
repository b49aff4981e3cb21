package personform

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/forms/formstest"
)

func findPerson(t *testing.T, people []crm.Person, email string) crm.Person {
	t.Helper()
	for _, p := range people {
		if p.Email == email {
			return p
		}
	}
	t.Fatalf("no person with email %s", email)
	return crm.Person{}
}

func TestRequiresIdentity(t *testing.T) {
	ctx, _ := formstest.NewContext(t)
	f := New()
	formstest.Run(t, f, f.Init(ctx))

	f.setFocus(fieldPhone)
	formstest.Type(t, f, "555-0100")
	msgs := formstest.Press(t, f, tea.KeyCtrlS)
	if f.Err() != msgIdentityRequired {
		t.Fatalf("error = %q", f.Err())
	}
	if _, ok := formstest.Find[forms.FormDoneMsg](msgs); ok {
		t.Fatalf("form should not finish without a name or email")
	}
}

func TestCreatesPersonWithOrganization(t *testing.T) {
	ctx, st := formstest.NewContext(t)
	f := New()
	formstest.Run(t, f, f.Init(ctx))
	if len(f.orgs.Items) != 2 {
		t.Fatalf("organizations = %d, want 2", len(f.orgs.Items))
	}

	formstest.Type(t, f, "Katherine")
	f.setFocus(fieldEmail)
	formstest.Type(t, f, "  kj@nasa.test ")
	f.setFocus(fieldOrganization)
	formstest.Press(t, f, tea.KeyEnter)
	if !f.picker.IsOpen() {
		t.Fatalf("enter on the organization row should open the picker")
	}
	formstest.Press(t, f, tea.KeyDown)
	formstest.Press(t, f, tea.KeyEnter)
	if f.orgID != "org-acme" {
		t.Fatalf("organization = %q, want org-acme", f.orgID)
	}

	msgs := formstest.Press(t, f, tea.KeyCtrlS)
	done, ok := formstest.Find[forms.FormDoneMsg](msgs)
	if !ok || done.Message != msgCreated {
		t.Fatalf("expected %q, got %#v (err %q)", msgCreated, msgs, f.Err())
	}

	people, err := st.People(context.Background())
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	p := findPerson(t, people, "kj@nasa.test")
	if p.FirstName != "Katherine" || p.LastName != "" || p.OrganizationID != "org-acme" {
		t.Fatalf("stored person mismatch: %+v", p)
	}
}

func TestNoneClearsOrganization(t *testing.T) {
	ctx, st := formstest.NewContext(t)
	f := New()
	formstest.Run(t, f, f.Init(ctx))

	f.setFocus(fieldEmail)
	formstest.Type(t, f, "solo@example.test")
	f.orgID = "org-globex"
	f.setFocus(fieldOrganization)
	formstest.Press(t, f, tea.KeyEnter)
	for i := 0; i < 5; i++ {
		formstest.Press(t, f, tea.KeyUp)
	}
	formstest.Press(t, f, tea.KeyEnter)
	if f.orgID != "" {
		t.Fatalf("(none) should clear the organization, got %q", f.orgID)
	}
	if f.input().OrganizationID != nil {
		t.Fatalf("empty organization should submit as nil")
	}

	formstest.Press(t, f, tea.KeyCtrlS)
	people, _ := st.People(context.Background())
	if p := findPerson(t, people, "solo@example.test"); p.OrganizationID != "" {
		t.Fatalf("organization should be empty, got %q", p.OrganizationID)
	}
}

func TestSaveFailureKeepsValues(t *testing.T) {
	ctx, st := formstest.NewContext(t)
	ctx.Store = &formstest.FlakyStore{Store: st, SaveErr: errors.New("locked")}
	f := New()
	formstest.Run(t, f, f.Init(ctx))

	formstest.Type(t, f, "Ada")
	msgs := formstest.Press(t, f, tea.KeyCtrlS)
	if _, ok := formstest.Find[forms.FormDoneMsg](msgs); ok {
		t.Fatalf("failed save should keep the form open")
	}
	if !strings.Contains(f.Err(), "locked") || f.IsComplete() {
		t.Fatalf("unexpected state: err=%q complete=%v", f.Err(), f.IsComplete())
	}
	if f.inputs[fieldFirstName].Value() != "Ada" {
		t.Fatalf("first name lost")
	}
}

func TestSaveReplyOnlyReachesItsForm(t *testing.T) {
	ctx, st := formstest.NewContext(t)
	first := New()
	formstest.Run(t, first, first.Init(ctx))
	formstest.Type(t, first, "Lin")
	_, save := first.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if save == nil {
		t.Fatalf("submit should start a save, err %q", first.Err())
	}
	formstest.Press(t, first, tea.KeyEscape)
	late := save()

	second := New()
	formstest.Run(t, second, second.Init(ctx))
	if _, cmd := second.Update(late); cmd != nil || second.IsComplete() {
		t.Fatalf("second form accepted the first form's save")
	}

	ghost := personSavedMsg{Reply: second.Reply(), person: crm.Person{ID: "person-ghost"}}
	if _, cmd := second.Update(ghost); cmd != nil || second.IsComplete() {
		t.Fatalf("idle form accepted a save it never started")
	}

	people, _ := st.People(context.Background())
	if len(people) != 4 {
		t.Fatalf("people = %d, want the one saved record added", len(people))
	}
}

func TestOrganizationsFromAnotherFormAreIgnored(t *testing.T) {
	ctx, _ := formstest.NewContext(t)
	f := New()
	load := f.Init(ctx)
	other := New()

	f.Update(organizationsLoadedMsg{Reply: other.Reply(), items: []crm.Organization{{ID: "org-ghost", Name: "Ghost"}}})
	if !f.orgs.Loading || len(f.orgs.Items) != 0 {
		t.Fatalf("foreign organizations applied: %+v", f.orgs)
	}
	formstest.Run(t, f, load)
	if f.orgs.Contains("org-ghost") || len(f.orgs.Items) == 0 {
		t.Fatalf("organizations = %+v", f.orgs.Items)
	}
}
