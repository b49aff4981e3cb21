package forms

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
)

// NewInput builds a single-line text field with a steady cursor.
func NewInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = limit
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// Focus moves focus between text fields, focusing only the one at index.
// An index outside the slice blurs all of them.
func Focus(inputs []*textinput.Model, index int) {
	for i, in := range inputs {
		if i == index {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}
