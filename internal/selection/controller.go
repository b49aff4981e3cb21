// internal/selection/controller.go
//
// Controller drives a two-level dependent selection (pipeline -> stage).
// All state changes go through its methods; fetch results come back as
// explicit calls carrying the parent id they were requested for.

package selection

import (
	"errors"
)

var (
	// ErrMissingParent is returned by Validate when no parent is selected.
	ErrMissingParent = errors.New("selection: parent selection is required")
	// ErrMissingChild is returned by Validate when no child is selected.
	ErrMissingChild = errors.New("selection: child selection is required")

	errUnknownFetch = errors.New("selection: fetch failed")
)

// Loader issues option fetches. Both calls return immediately; results are
// delivered through the controller's Loaded/Failed methods.
type Loader interface {
	LoadParents()
	LoadChildren(parentID string)
}

// Target is the parent/child pair of the record being edited.
type Target struct {
	ParentID string
	ChildID  string
}

// State is the controller's selection. Empty strings mean "nothing selected".
type State struct {
	ParentID       string
	ChildID        string
	PendingChildID string
}

// Controller owns a State and the parent and child option sets.
type Controller[P Item, C Item] struct {
	loader   Loader
	state    State
	original string
	editing  bool
	parents  OptionSet[P]
	children OptionSet[C]
}

// New creates a controller that issues fetches through loader.
func New[P Item, C Item](loader Loader) *Controller[P, C] {
	return &Controller[P, C]{loader: loader}
}

// Open resets the selection for a fresh form. A nil target means create mode.
func (c *Controller[P, C]) Open(target *Target) {
	c.state = State{}
	c.original = ""
	c.editing = target != nil
	c.parents.Reset()
	c.children.Reset()
	if target != nil {
		c.original = target.ParentID
		c.state.ParentID = target.ParentID
		c.state.PendingChildID = target.ChildID
	}
	c.parents.Begin(false)
	c.loadParents()
	if c.state.ParentID != "" {
		c.children.Begin(false)
		c.loadChildren(c.state.ParentID)
	}
}

// ChangeParent selects a new parent. Re-selecting the current parent is a
// no-op; an empty id clears the selection.
func (c *Controller[P, C]) ChangeParent(parentID string) {
	if parentID == "" {
		c.ClearParent()
		return
	}
	if parentID == c.state.ParentID {
		return
	}
	c.state.ParentID = parentID
	c.state.ChildID = ""
	if !c.editing || parentID != c.original {
		c.state.PendingChildID = ""
	}
	c.children.Begin(false)
	c.loadChildren(parentID)
}

// ChildrenLoaded applies a child fetch result. It reports false when the
// result belongs to a parent that is no longer selected. A selected child
// missing from the new items is dropped.
func (c *Controller[P, C]) ChildrenLoaded(parentID string, items []C) bool {
	if parentID == "" || parentID != c.state.ParentID {
		return false
	}
	c.children.Apply(items)
	if c.state.ChildID != "" && !c.children.Contains(c.state.ChildID) {
		c.state.ChildID = ""
	}
	if pending := c.state.PendingChildID; pending != "" {
		if c.children.Contains(pending) {
			c.state.ChildID = pending
		}
		c.state.PendingChildID = ""
	}
	return true
}

// ChildrenFailed records a child fetch error for the current parent. The
// child selection and any pending restore survive so a retry can still
// restore the original child.
func (c *Controller[P, C]) ChildrenFailed(parentID string, err error) bool {
	if parentID == "" || parentID != c.state.ParentID {
		return false
	}
	if err == nil {
		err = errUnknownFetch
	}
	c.children.Fail(err)
	return true
}

// ChangeChild selects a child directly.
func (c *Controller[P, C]) ChangeChild(childID string) {
	c.state.ChildID = childID
}

// ClearParent drops the parent and child selections and empties the child
// options without fetching.
func (c *Controller[P, C]) ClearParent() {
	c.state.ParentID = ""
	c.state.ChildID = ""
	c.state.PendingChildID = ""
	c.children.Reset()
}

// Retry re-fetches the children of the current parent.
func (c *Controller[P, C]) Retry() bool {
	if c.state.ParentID == "" {
		return false
	}
	c.children.Begin(true)
	c.loadChildren(c.state.ParentID)
	return true
}

// ParentsLoaded applies the parent fetch result.
func (c *Controller[P, C]) ParentsLoaded(items []P) {
	c.parents.Apply(items)
}

// ParentsFailed records a parent fetch error.
func (c *Controller[P, C]) ParentsFailed(err error) {
	if err == nil {
		err = errUnknownFetch
	}
	c.parents.Fail(err)
}

// ReloadParents re-fetches the parent options.
func (c *Controller[P, C]) ReloadParents() {
	c.parents.Begin(true)
	c.loadParents()
}

// Validate checks the selection at submit time. The parent is checked first.
func (c *Controller[P, C]) Validate() error {
	if c.state.ParentID == "" {
		return ErrMissingParent
	}
	if c.state.ChildID == "" {
		return ErrMissingChild
	}
	return nil
}

// State returns a copy of the current selection.
func (c *Controller[P, C]) State() State {
	return c.state
}

// Parents returns the parent option set.
func (c *Controller[P, C]) Parents() OptionSet[P] {
	return c.parents
}

// Children returns the child option set for the current parent.
func (c *Controller[P, C]) Children() OptionSet[C] {
	return c.children
}

// SelectedParent returns the selected parent when it is among the loaded options.
func (c *Controller[P, C]) SelectedParent() (P, bool) {
	return c.parents.Find(c.state.ParentID)
}

// SelectedChild returns the selected child when it is among the loaded options.
func (c *Controller[P, C]) SelectedChild() (C, bool) {
	return c.children.Find(c.state.ChildID)
}

// Restoring reports whether an edit-mode child is still waiting for its options.
func (c *Controller[P, C]) Restoring() bool {
	return c.state.PendingChildID != ""
}

func (c *Controller[P, C]) loadParents() {
	if c.loader != nil {
		c.loader.LoadParents()
	}
}

func (c *Controller[P, C]) loadChildren(parentID string) {
	if c.loader != nil {
		c.loader.LoadChildren(parentID)
	}
}
