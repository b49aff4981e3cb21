// internal/forms/form.go
//
// Defines the Form interface every modal form implements. Forms are
// self-contained bubbletea components; they talk to the record store through
// commands and report back to the host with FormDoneMsg / FormCancelledMsg.

package forms

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/dealdesk/internal/logbook"
	"github.com/kingrea/dealdesk/internal/store"
)

const defaultTimeout = 10 * time.Second

var sessions atomic.Uint64

// Context provides shared collaborators for all forms
type Context struct {
	Store   store.Store
	Logbook *logbook.Logbook
	// Timeout bounds each store call. Zero means the default.
	Timeout time.Duration
}

// Call runs fn off the update loop with a bounded context and delivers its
// message back to the program.
func (c *Context) Call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := defaultTimeout
	if c != nil && c.Timeout > 0 {
		timeout = c.Timeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

// Form defines the interface that all forms must implement
type Form interface {
	// Title returns the form's display name
	Title() string

	// Init wires the form to its context and returns the initial fetches
	Init(ctx *Context) tea.Cmd

	// Update handles messages and returns the updated form plus any commands
	Update(msg tea.Msg) (Form, tea.Cmd)

	// View renders the form's current state
	View() string

	// IsComplete returns true once the form has saved its record
	IsComplete() bool
}

// FormDoneMsg signals that a form saved its record and should close
type FormDoneMsg struct {
	Title   string
	Message string
}

// FormCancelledMsg signals that the user dismissed the form
type FormCancelledMsg struct {
	Title string
}

// BaseForm provides common functionality for all forms
type BaseForm struct {
	ctx       *Context
	title     string
	session   uint64
	complete  bool
	statusMsg string
}

// NewBaseForm creates a new BaseForm with the given title. Each form gets a
// session number unique within the process.
func NewBaseForm(title string) BaseForm {
	return BaseForm{title: title, session: sessions.Add(1)}
}

// Session identifies this form instance. Forms stamp it on the messages
// their commands produce and drop messages carrying any other value.
func (f *BaseForm) Session() uint64 {
	return f.session
}

// Reply is embedded in messages produced by a form's commands.
type Reply struct {
	Session uint64
}

func (r Reply) replySession() uint64 { return r.Session }

// Reply returns the stamp for messages this form's commands produce.
func (f *BaseForm) Reply() Reply {
	return Reply{Session: f.session}
}

// Foreign reports whether msg was produced for another form session.
// Unstamped messages are never foreign.
func (f *BaseForm) Foreign(msg tea.Msg) bool {
	r, ok := msg.(interface{ replySession() uint64 })
	return ok && r.replySession() != f.session
}

// Title returns the form's display name
func (f *BaseForm) Title() string {
	return f.title
}

// SetTitle changes the display name
func (f *BaseForm) SetTitle(title string) {
	f.title = title
}

// IsComplete returns true if the form has finished
func (f *BaseForm) IsComplete() bool {
	return f.complete
}

// SetComplete marks the form as complete
func (f *BaseForm) SetComplete(complete bool) {
	f.complete = complete
}

// Context returns the form context
func (f *BaseForm) Context() *Context {
	return f.ctx
}

// SetContext sets the form context
func (f *BaseForm) SetContext(ctx *Context) {
	f.ctx = ctx
}

// StatusMsg returns the current status message
func (f *BaseForm) StatusMsg() string {
	return f.statusMsg
}

// SetStatusMsg sets the status message
func (f *BaseForm) SetStatusMsg(msg string) {
	f.statusMsg = msg
}

func (f *BaseForm) journal() logbook.Scope {
	var book *logbook.Logbook
	if f.ctx != nil {
		book = f.ctx.Logbook
	}
	return book.Scope(fmt.Sprintf("%s #%d", f.title, f.session))
}

func (f *BaseForm) LogInfo(format string, args ...any) {
	f.journal().Info(format, args...)
}

func (f *BaseForm) LogWarn(format string, args ...any) {
	f.journal().Warn(format, args...)
}

func (f *BaseForm) LogError(format string, args ...any) {
	f.journal().Error(format, args...)
}

// Done returns a command reporting completion to the host.
func (f *BaseForm) Done(message string) tea.Cmd {
	title := f.title
	return func() tea.Msg {
		return FormDoneMsg{Title: title, Message: message}
	}
}

// Cancel returns a command reporting dismissal to the host.
func (f *BaseForm) Cancel() tea.Cmd {
	title := f.title
	return func() tea.Msg {
		return FormCancelledMsg{Title: title}
	}
}
