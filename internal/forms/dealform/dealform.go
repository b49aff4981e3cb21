// internal/forms/dealform/dealform.go
//
// The deal form creates a new deal or edits an existing one. Pipeline and
// stage are a dependent pair driven by selection.Controller; every fetch runs
// as a tea.Cmd and its result comes back as a message tagged with the
// pipeline it was requested for and the form session that asked.

package dealform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/selection"
)

type field int

const (
	fieldName field = iota
	fieldPipeline
	fieldStage
	fieldAmount
	fieldPerson
	fieldSubmit
	fieldCount
)

const (
	msgNameRequired     = "Deal name is required."
	msgPipelineRequired = "Pipeline selection is required."
	msgStageRequired    = "Stage selection is required."
	msgAmountInvalid    = "Amount must be a number."
)

type pipelinesLoadedMsg struct {
	forms.Reply
	items []crm.Pipeline
	err   error
}

type stagesLoadedMsg struct {
	forms.Reply
	pipelineID string
	items      []crm.Stage
	err        error
}

type peopleLoadedMsg struct {
	forms.Reply
	items []crm.Person
	err   error
}

type dealSavedMsg struct {
	forms.Reply
	deal crm.Deal
	err  error
}

// Form is the create/edit deal form.
type Form struct {
	forms.BaseForm

	deal   *crm.Deal
	queue  *fetchQueue
	ctrl   *selection.Controller[crm.Pipeline, crm.Stage]
	people selection.OptionSet[crm.Person]

	personID string
	name     textinput.Model
	amount   textinput.Model
	focus    field
	picker   forms.Picker

	err        string
	submitting bool
}

// NewCreate returns an empty form that creates a deal.
func NewCreate() *Form {
	return newForm("Create Deal", nil)
}

// NewEdit returns a form pre-filled from deal that updates it in place.
func NewEdit(deal crm.Deal) *Form {
	d := deal
	f := newForm("Edit Deal", &d)
	f.name.SetValue(d.Name)
	if d.Amount != nil {
		f.amount.SetValue(strconv.FormatFloat(*d.Amount, 'f', -1, 64))
	}
	f.personID = d.PersonID
	return f
}

func newForm(title string, deal *crm.Deal) *Form {
	f := &Form{
		BaseForm: forms.NewBaseForm(title),
		deal:     deal,
		name:     forms.NewInput("Deal name", 120),
		amount:   forms.NewInput("0.00", 20),
		picker:   forms.NewPicker(),
	}
	f.queue = &fetchQueue{form: f}
	f.ctrl = selection.New[crm.Pipeline, crm.Stage](f.queue)
	f.setFocus(fieldName)
	return f
}

// Editing reports whether the form updates an existing deal.
func (f *Form) Editing() bool {
	return f.deal != nil
}

// Selection exposes the pipeline/stage state.
func (f *Form) Selection() selection.State {
	return f.ctrl.State()
}

// Err returns the form-level error shown above the fields.
func (f *Form) Err() string {
	return f.err
}

func (f *Form) Init(ctx *forms.Context) tea.Cmd {
	f.SetContext(ctx)
	var target *selection.Target
	if f.deal != nil {
		target = &selection.Target{ParentID: f.deal.PipelineID, ChildID: f.deal.StageID}
		f.LogInfo("Editing deal %s (pipeline %s, stage %s)", f.deal.ID, f.deal.PipelineID, f.deal.StageID)
	}
	f.ctrl.Open(target)
	f.people.Begin(false)
	return tea.Batch(f.queue.drain(), f.fetchPeople())
}

func (f *Form) Update(msg tea.Msg) (forms.Form, tea.Cmd) {
	if f.Foreign(msg) {
		return f, nil
	}
	switch msg := msg.(type) {
	case pipelinesLoadedMsg:
		if msg.err != nil {
			f.ctrl.ParentsFailed(msg.err)
			f.LogError("Load pipelines: %v", msg.err)
			return f, nil
		}
		f.ctrl.ParentsLoaded(msg.items)
		return f, nil

	case stagesLoadedMsg:
		return f, f.handleStages(msg)

	case peopleLoadedMsg:
		if msg.err != nil {
			f.people.Fail(msg.err)
			f.LogError("Load people: %v", msg.err)
			return f, nil
		}
		f.people.Apply(msg.items)
		return f, nil

	case dealSavedMsg:
		return f, f.handleSaved(msg)

	case tea.WindowSizeMsg:
		f.picker.SetSize(max(20, msg.Width-4), max(6, msg.Height-8))
		return f, nil

	case tea.KeyMsg:
		if f.picker.IsOpen() {
			res, cmd := f.picker.Update(msg)
			if res.Done {
				f.applyPick(field(f.picker.Field()), res.ID)
				return f, f.queue.drain()
			}
			return f, cmd
		}
		return f, f.handleKey(msg)
	}
	return f, nil
}

func (f *Form) handleStages(msg stagesLoadedMsg) tea.Cmd {
	if msg.err != nil {
		if f.ctrl.ChildrenFailed(msg.pipelineID, msg.err) {
			f.LogError("Load stages for pipeline %s: %v", msg.pipelineID, msg.err)
		}
		return nil
	}
	pending := f.ctrl.State().PendingChildID
	if !f.ctrl.ChildrenLoaded(msg.pipelineID, msg.items) {
		f.LogInfo("Discarded stale stages for pipeline %s", msg.pipelineID)
		return nil
	}
	if pending != "" && f.ctrl.State().ChildID != pending {
		f.LogWarn("Stage %s not found in pipeline %s; choose a stage", pending, msg.pipelineID)
	}
	return nil
}

func (f *Form) handleSaved(msg dealSavedMsg) tea.Cmd {
	if !f.submitting || f.IsComplete() {
		return nil
	}
	f.submitting = false
	if msg.err != nil {
		f.err = saveError(msg.err)
		f.LogError("Save deal: %v", msg.err)
		return nil
	}
	var message string
	if f.deal != nil {
		message = fmt.Sprintf("Deal %q updated.", msg.deal.Name)
	} else {
		stage := msg.deal.StageID
		if s, ok := f.ctrl.Children().Find(msg.deal.StageID); ok {
			stage = s.Name
		}
		message = fmt.Sprintf("Deal %q created in stage %q.", msg.deal.Name, stage)
	}
	f.LogInfo("%s (id %s)", message, msg.deal.ID)
	f.SetStatusMsg(message)
	f.SetComplete(true)
	return f.Done(message)
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
		return f.retry()
	case "enter":
		switch f.focus {
		case fieldPipeline, fieldStage, fieldPerson:
			f.openPicker(f.focus)
			return nil
		case fieldSubmit:
			return f.submit()
		default:
			f.setFocus(f.focus + 1)
			return nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldAmount:
		f.amount, cmd = f.amount.Update(msg)
	}
	return cmd
}

func (f *Form) setFocus(to field) {
	f.focus = to
	idx := -1
	switch to {
	case fieldName:
		idx = 0
	case fieldAmount:
		idx = 1
	}
	forms.Focus([]*textinput.Model{&f.name, &f.amount}, idx)
}

func (f *Form) openPicker(target field) {
	switch target {
	case fieldPipeline:
		parents := f.ctrl.Parents()
		if !parents.Usable() {
			return
		}
		choices := make([]forms.Choice, 0, len(parents.Items))
		for _, p := range parents.Items {
			choices = append(choices, forms.Choice{ID: p.ID, Label: p.Name})
		}
		f.picker.Open(int(target), "Pipeline", choices, f.ctrl.State().ParentID, true)
	case fieldStage:
		children := f.ctrl.Children()
		if f.ctrl.State().ParentID == "" || !children.Usable() {
			return
		}
		choices := make([]forms.Choice, 0, len(children.Items))
		for _, s := range children.Items {
			desc := ""
			if s.DealProbability != nil {
				desc = fmt.Sprintf("Probability %.0f%%", *s.DealProbability*100)
			}
			choices = append(choices, forms.Choice{ID: s.ID, Label: s.Label(), Detail: desc})
		}
		f.picker.Open(int(target), "Stage", choices, f.ctrl.State().ChildID, false)
	case fieldPerson:
		if !f.people.Usable() {
			return
		}
		choices := make([]forms.Choice, 0, len(f.people.Items))
		for _, p := range f.people.Items {
			choices = append(choices, forms.Choice{ID: p.ID, Label: p.DisplayName(), Detail: p.Email})
		}
		f.picker.Open(int(target), "Person", choices, f.personID, true)
	}
}

func (f *Form) applyPick(target field, id string) {
	switch target {
	case fieldPipeline:
		f.ctrl.ChangeParent(id)
	case fieldStage:
		f.ctrl.ChangeChild(id)
	case fieldPerson:
		f.personID = id
	}
}

func (f *Form) retry() tea.Cmd {
	var cmds []tea.Cmd
	if f.ctrl.Parents().Err != nil {
		f.ctrl.ReloadParents()
	}
	if f.ctrl.Children().Err != nil {
		f.LogInfo("Retrying stages for pipeline %s", f.ctrl.State().ParentID)
		f.ctrl.Retry()
	}
	cmds = append(cmds, f.queue.drain())
	if f.people.Err != nil {
		f.people.Begin(true)
		cmds = append(cmds, f.fetchPeople())
	}
	return tea.Batch(cmds...)
}

func (f *Form) submit() tea.Cmd {
	if f.submitting {
		return nil
	}
	f.err = ""
	name := strings.TrimSpace(f.name.Value())
	if name == "" {
		f.err = msgNameRequired
		return nil
	}
	if err := f.ctrl.Validate(); err != nil {
		if errors.Is(err, selection.ErrMissingParent) {
			f.err = msgPipelineRequired
		} else {
			f.err = msgStageRequired
		}
		return nil
	}
	amount, err := parseAmount(f.amount.Value())
	if err != nil {
		f.err = msgAmountInvalid
		return nil
	}

	input := crm.DealInput{
		Name:     name,
		StageID:  f.ctrl.State().ChildID,
		Amount:   amount,
		PersonID: crm.StringPtr(f.personID),
	}
	f.submitting = true
	st := f.Context().Store
	r := f.Reply()
	if f.deal != nil {
		id := f.deal.ID
		return f.Context().Call(func(ctx context.Context) tea.Msg {
			deal, err := st.UpdateDeal(ctx, id, input)
			return dealSavedMsg{Reply: r, deal: deal, err: err}
		})
	}
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		deal, err := st.CreateDeal(ctx, input)
		return dealSavedMsg{Reply: r, deal: deal, err: err}
	})
}

func (f *Form) fetchPipelines() tea.Cmd {
	st := f.Context().Store
	r := f.Reply()
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		items, err := st.Pipelines(ctx)
		return pipelinesLoadedMsg{Reply: r, items: items, err: err}
	})
}

func (f *Form) fetchStages(pipelineID string) tea.Cmd {
	st := f.Context().Store
	r := f.Reply()
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		items, err := st.Stages(ctx, pipelineID)
		return stagesLoadedMsg{Reply: r, pipelineID: pipelineID, items: items, err: err}
	})
}

func (f *Form) fetchPeople() tea.Cmd {
	st := f.Context().Store
	r := f.Reply()
	return f.Context().Call(func(ctx context.Context) tea.Msg {
		items, err := st.People(ctx)
		return peopleLoadedMsg{Reply: r, items: items, err: err}
	})
}

// fetchQueue turns the controller's loader calls into commands that the
// next Update returns.
type fetchQueue struct {
	form *Form
	cmds []tea.Cmd
}

func (q *fetchQueue) LoadParents() {
	q.cmds = append(q.cmds, q.form.fetchPipelines())
}

func (q *fetchQueue) LoadChildren(parentID string) {
	q.cmds = append(q.cmds, q.form.fetchStages(parentID))
}

func (q *fetchQueue) drain() tea.Cmd {
	cmds := q.cmds
	q.cmds = nil
	return tea.Batch(cmds...)
}

func parseAmount(value string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func saveError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Saving the deal timed out. Try again."
	case errors.Is(err, crm.ErrNotFound):
		return fmt.Sprintf("Could not save deal: %v", err)
	default:
		return fmt.Sprintf("Failed to save deal: %v", err)
	}
}
