package forms

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// NoneID is the id a picker reports for its "(none)" entry.
const NoneID = ""

// Choice is one entry of a picker.
type Choice struct {
	ID     string
	Label  string
	Detail string
}

func (c Choice) Title() string       { return c.Label }
func (c Choice) Description() string { return c.Detail }
func (c Choice) FilterValue() string { return c.Label }

// PickResult reports what a picker did with a message.
type PickResult struct {
	Done      bool
	Cancelled bool
	ID        string
}

// Picker is a dropdown opened over a form field.
type Picker struct {
	list  list.Model
	field int
	open  bool
}

// NewPicker creates a closed picker.
func NewPicker() Picker {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 40, 12)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return Picker{list: l}
}

// Open shows choices for field, with the cursor on selectedID. When
// allowNone is set a "(none)" entry leads the list.
func (p *Picker) Open(field int, title string, choices []Choice, selectedID string, allowNone bool) {
	items := make([]list.Item, 0, len(choices)+1)
	if allowNone {
		items = append(items, Choice{ID: NoneID, Label: "(none)", Detail: "Clear this field"})
	}
	cursor := 0
	for _, c := range choices {
		if c.ID == selectedID && selectedID != "" {
			cursor = len(items)
		}
		items = append(items, c)
	}
	p.list.Title = title
	p.list.SetItems(items)
	p.list.Select(cursor)
	p.field = field
	p.open = true
}

// Close hides the picker.
func (p *Picker) Close() {
	p.open = false
}

// IsOpen reports whether the picker is showing.
func (p Picker) IsOpen() bool {
	return p.open
}

// Field returns the field the picker was opened for.
func (p Picker) Field() int {
	return p.field
}

// SetSize resizes the underlying list.
func (p *Picker) SetSize(width, height int) {
	p.list.SetSize(width, height)
}

// Update handles a message while the picker is open.
func (p *Picker) Update(msg tea.Msg) (PickResult, tea.Cmd) {
	if !p.open {
		return PickResult{}, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			choice, ok := p.list.SelectedItem().(Choice)
			p.open = false
			if !ok {
				return PickResult{Cancelled: true}, nil
			}
			return PickResult{Done: true, ID: choice.ID}, nil
		case "esc":
			p.open = false
			return PickResult{Cancelled: true}, nil
		}
	}
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return PickResult{}, cmd
}

// View renders the picker list.
func (p Picker) View() string {
	if !p.open {
		return ""
	}
	return pickerStyle.Render(p.list.View())
}
