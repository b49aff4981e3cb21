// Package personform creates people, optionally linked to an organization.
package personform

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/selection"
)

const (
	fieldFirstName = iota
	fieldLastName
	fieldEmail
	fieldPhone
	fieldNotes
	fieldOrganization
	fieldSubmit
	fieldCount
)

const (
	msgIdentityRequired = "Please provide at least a first name, last name, or email."
	msgCreated          = "Person created."
)

type organizationsLoadedMsg struct {
	forms.Reply
	items []crm.Organization
	err   error
}

type personSavedMsg struct {
	forms.Reply
	person crm.Person
	err    error
}

// Form is the create person form.
type Form struct {
	forms.BaseForm

	inputs []textinput.Model
	orgs   selection.OptionSet[crm.Organization]
	orgID  string
	focus  int
	picker forms.Picker

	err        string
	submitting bool
}

// New returns an empty person form.
func New() *Form {
	f := &Form{
		BaseForm: forms.NewBaseForm("Create Person"),
		inputs: []textinput.Model{
			forms.NewInput("First name", 80),
			forms.NewInput("Last name", 80),
			forms.NewInput("name@example.com", 120),
			forms.NewInput("Phone", 40),
			forms.NewInput("Notes", 500),
		},
		picker: forms.NewPicker(),
	}
	f.setFocus(fieldFirstName)
	return f
}

// Err returns the form-level error shown above the fields.
func (f *Form) Err() string {
	return f.err
}

func (f *Form) Init(ctx *forms.Context) tea.Cmd {
	f.SetContext(ctx)
	f.orgs.Begin(false)
	return f.fetchOrganizations()
}

func (f *Form) Update(msg tea.Msg) (forms.Form, tea.Cmd) {
	if f.Foreign(msg) {
		return f, nil
	}
	switch msg := msg.(type) {
	case organizationsLoadedMsg:
		if msg.err != nil {
			f.orgs.Fail(msg.err)
			f.LogError("Load organizations: %v", msg.err)
			return f, nil
		}
		f.orgs.Apply(msg.items)
		return f, nil

	case personSavedMsg:
		if !f.submitting || f.IsComplete() {
			return f, nil
		}
		f.submitting = false
		if msg.err != nil {
			f.err = fmt.Sprintf("Failed to create person: %v", msg.err)
			f.LogError("Create person: %v", msg.err)
			return f, nil
		}
		f.LogInfo("Created person %s (%s)", msg.person.DisplayName(), msg.person.ID)
		f.SetStatusMsg(msgCreated)
		f.SetComplete(true)
		return f, f.Done(msgCreated)

	case tea.WindowSizeMsg:
		f.picker.SetSize(max(20, msg.Width-4), max(6, msg.Height-8))
		return f, nil

	case tea.KeyMsg:
		if f.picker.IsOpen() {
			res, cmd := f.picker.Update(msg)
			if res.Done {
				f.orgID = res.ID
			}
			return f, cmd
		}
		return f, f.handleKey(msg)
	}
	return f, nil
}

func (f *Form) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return f.Cancel()
	case "tab", "down":
		f.setFocus((f.focus + 1) % fieldCount)
		return nil
	case "shift+tab", "up":
		f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		return nil
	case "ctrl+s":
		return f.submit()
	case "ctrl+r":
		if f.orgs.Err != nil {
			f.orgs.Begin(true)
			return f.fetchOrganizations()
		}
		return nil
	case "enter":
		switch f.focus {
		case fieldOrganization:
			f.openPicker()
			return nil
		case fieldSubmit:
			return f.submit()
		default:
			f.setFocus(f.focus + 1)
			return nil
		}
	}
	if f.focus < len(f.inputs) {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return cmd
	}
	return nil
}

func (f *Form) setFocus(to int) {
	f.focus = to
	ptrs := make([]*textinput.Model, len(f.inputs))
	for i := range f.inputs {
		ptrs[i] = &f.inputs[i]
	}
	forms.Focus(ptrs, to)
}

func (f *Form) openPicker() {
	if !f.orgs.Usable() {
		return
	}
	choices := make([]forms.Choice, 0, len(f.orgs.Items))
	for _, o := range f.orgs.Items {
		choices = append(choices, forms.Choice{ID: o.ID, Label: o.Name, Detail: o.Address})
	}
	f.picker.Open(fieldOrganization, "Organization", choices, f.orgID, true)
}

func (f *Form) input() crm.PersonInput {
	return crm.PersonInput{
		FirstName:      crm.StringPtr(f.inputs[fieldFirstName].Value()),
		LastName:       crm.StringPtr(f.inputs[fieldLastName].Value()),
		Email:          crm.StringPtr(f.inputs[fieldEmail].Value()),
		Phone:          crm.StringPtr(f.inputs[fieldPhone].Value()),
		Notes:          crm.StringPtr(f.inputs[fieldNotes].Value()),
		OrganizationID: crm.StringPtr(f.orgID),
	}
}

func (f *Form) submit() tea.Cmd {
	if f.submitting {
		return nil
	}
	f.err = ""
	input := f.input()
	if err := input.Validate(); err != nil {
		f.err = msgIdentityRequired
		return nil
	}
	f.submitting = true
	st := f.Context().Store
	r := f.Reply()
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		person, err := st.CreatePerson(ctx, input)
		return personSavedMsg{Reply: r, person: person, err: err}
	})
}

func (f *Form) fetchOrganizations() tea.Cmd {
	st := f.Context().Store
	r := f.Reply()
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		items, err := st.Organizations(ctx)
		return organizationsLoadedMsg{Reply: r, items: items, err: err}
	})
}

func (f *Form) View() string {
	if f.picker.IsOpen() {
		return forms.Stack(
			forms.Heading("⬡ CREATE PERSON"),
			f.picker.View(),
			forms.Muted("↑/↓ move • enter choose • esc back"),
		)
	}
	labels := []string{"First name", "Last name", "Email", "Phone", "Notes"}
	rows := make([]string, 0, fieldCount)
	for i, label := range labels {
		rows = append(rows, forms.Row(label, false, f.focus == i, f.inputs[i].View(), ""))
	}
	org, hint := f.organizationValue()
	rows = append(rows, forms.Row("Company", false, f.focus == fieldOrganization, org, hint))

	label := "Create Person"
	if f.submitting {
		label = "Saving..."
	}
	notice := ""
	if f.orgs.Err != nil {
		notice = forms.Warning(fmt.Sprintf("Error loading organizations: %v (ctrl+r to retry)", f.orgs.Err))
	}
	return forms.Stack(
		forms.Heading("⬡ CREATE PERSON"),
		forms.ErrorBlock(f.err),
		strings.Join(rows, "\n"),
		notice,
		forms.Button(label, f.focus == fieldSubmit),
		forms.Muted("tab/↑/↓ move • enter choose • ctrl+s save • esc cancel"),
	)
}

func (f *Form) organizationValue() (string, string) {
	switch f.orgs.Status() {
	case selection.StatusLoading:
		return "", "Loading organizations..."
	case selection.StatusFailed:
		return "", "Organizations unavailable"
	}
	if o, ok := f.orgs.Find(f.orgID); ok {
		return o.Name, ""
	}
	return "", "Select organization (optional)"
}
