package dealform

import (
	"fmt"
	"strings"

	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/selection"
)

func (f *Form) View() string {
	heading := "⬡ CREATE DEAL"
	if f.deal != nil {
		heading = "⬡ EDIT DEAL: " + f.deal.Name
	}
	if f.picker.IsOpen() {
		return forms.Stack(
			forms.Heading(heading),
			f.picker.View(),
			forms.Muted("↑/↓ move • enter choose • esc back"),
		)
	}

	pipeline, pipelineHint := f.pipelineValue()
	stage, stageHint := f.stageValue()
	person, personHint := f.personValue()
	rows := []string{
		forms.Row("Name", true, f.focus == fieldName, f.name.View(), ""),
		forms.Row("Pipeline", true, f.focus == fieldPipeline, pipeline, pipelineHint),
		forms.Row("Stage", true, f.focus == fieldStage, stage, stageHint),
		forms.Row("Amount", false, f.focus == fieldAmount, f.amount.View(), ""),
		forms.Row("Person", false, f.focus == fieldPerson, person, personHint),
	}
	label := "Create Deal"
	if f.deal != nil {
		label = "Save Changes"
	}
	if f.submitting {
		label = "Saving..."
	}

	var notices []string
	if err := f.ctrl.Parents().Err; err != nil {
		notices = append(notices, forms.Warning(fmt.Sprintf("Error loading pipelines: %v", err)))
	}
	if err := f.ctrl.Children().Err; err != nil {
		notices = append(notices, forms.Warning(fmt.Sprintf("Error loading stages: %v (ctrl+r to retry)", err)))
	}
	if f.people.Err != nil {
		notices = append(notices, forms.Warning(fmt.Sprintf("Error loading people: %v", f.people.Err)))
	}

	return forms.Stack(
		forms.Heading(heading),
		forms.ErrorBlock(f.err),
		strings.Join(rows, "\n"),
		strings.Join(notices, "\n"),
		forms.Button(label, f.focus == fieldSubmit),
		forms.Muted("tab/↑/↓ move • enter choose • ctrl+s save • ctrl+r retry • esc cancel"),
	)
}

func (f *Form) pipelineValue() (string, string) {
	parents := f.ctrl.Parents()
	switch parents.Status() {
	case selection.StatusLoading:
		return "", "Loading pipelines..."
	case selection.StatusFailed:
		return "", "Pipelines unavailable"
	}
	if p, ok := f.ctrl.SelectedParent(); ok {
		return p.Name, ""
	}
	if len(parents.Items) == 0 {
		return "", "No pipelines available"
	}
	return "", "Select pipeline"
}

func (f *Form) stageValue() (string, string) {
	if f.ctrl.State().ParentID == "" {
		return "", "Select pipeline first"
	}
	children := f.ctrl.Children()
	switch children.Status() {
	case selection.StatusLoading:
		return "", "Loading stages..."
	case selection.StatusFailed:
		return "", "Stages unavailable"
	}
	if s, ok := f.ctrl.SelectedChild(); ok {
		return s.Label(), ""
	}
	if len(children.Items) == 0 {
		return "", "No stages in this pipeline"
	}
	return "", "Select stage"
}

func (f *Form) personValue() (string, string) {
	switch f.people.Status() {
	case selection.StatusLoading:
		return "", "Loading people..."
	case selection.StatusFailed:
		return "", "People unavailable"
	}
	if p, ok := f.people.Find(f.personID); ok {
		return p.DisplayName(), ""
	}
	return "", "Select person (optional)"
}
