// Package formstest drives forms without a running program: commands are
// executed inline and their messages fed back through Update.
package formstest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/dealdesk/internal/crm"
	"github.com/kingrea/dealdesk/internal/forms"
	"github.com/kingrea/dealdesk/internal/logbook"
	"github.com/kingrea/dealdesk/internal/store"
)

// ErrUnavailable is what FlakyStore returns for injected failures.
var ErrUnavailable = errors.New("store unavailable")

// NewContext returns a form context over the default fixtures with a
// journal in a temp dir.
func NewContext(t *testing.T) (*forms.Context, *store.Memory) {
	t.Helper()
	st, err := store.NewMemory(store.DefaultFixtures())
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	book, err := logbook.New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	return &forms.Context{Store: st, Logbook: book}, st
}

// Run executes cmd and every command it produces, returning the messages
// that were delivered to the form.
func Run(t *testing.T, f forms.Form, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	var delivered []tea.Msg
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatalf("commands did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if msg == nil {
			continue
		}
		delivered = append(delivered, msg)
		var follow tea.Cmd
		_, follow = f.Update(msg)
		queue = append(queue, follow)
	}
	return delivered
}

// Press sends a key to f and runs the resulting commands.
func Press(t *testing.T, f forms.Form, key tea.KeyType) []tea.Msg {
	t.Helper()
	_, cmd := f.Update(tea.KeyMsg{Type: key})
	return Run(t, f, cmd)
}

// Type sends text to f as a single rune key message.
func Type(t *testing.T, f forms.Form, text string) {
	t.Helper()
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	Run(t, f, cmd)
}

// Find returns the first delivered message of type T.
func Find[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// FlakyStore wraps a store and fails selected calls.
type FlakyStore struct {
	store.Store

	// StageFailures is how many Stages calls fail before they succeed.
	StageFailures int
	PeopleErr     error
	SaveErr       error
	StageCalls    []string
}

func (s *FlakyStore) Stages(ctx context.Context, pipelineID string) ([]crm.Stage, error) {
	s.StageCalls = append(s.StageCalls, pipelineID)
	if s.StageFailures > 0 {
		s.StageFailures--
		return nil, ErrUnavailable
	}
	return s.Store.Stages(ctx, pipelineID)
}

func (s *FlakyStore) People(ctx context.Context) ([]crm.Person, error) {
	if s.PeopleErr != nil {
		return nil, s.PeopleErr
	}
	return s.Store.People(ctx)
}

func (s *FlakyStore) CreateDeal(ctx context.Context, input crm.DealInput) (crm.Deal, error) {
	if s.SaveErr != nil {
		return crm.Deal{}, s.SaveErr
	}
	return s.Store.CreateDeal(ctx, input)
}

func (s *FlakyStore) UpdateDeal(ctx context.Context, id string, input crm.DealInput) (crm.Deal, error) {
	if s.SaveErr != nil {
		return crm.Deal{}, s.SaveErr
	}
	return s.Store.UpdateDeal(ctx, id, input)
}

func (s *FlakyStore) CreatePerson(ctx context.Context, input crm.PersonInput) (crm.Person, error) {
	if s.SaveErr != nil {
		return crm.Person{}, s.SaveErr
	}
	return s.Store.CreatePerson(ctx, input)
}
