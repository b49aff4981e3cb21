package selection

import (
	"errors"
	"testing"
)

type option struct {
	id string
}

func (o option) OptionID() string { return o.id }

func options(ids ...string) []option {
	out := make([]option, len(ids))
	for i, id := range ids {
		out[i] = option{id: id}
	}
	return out
}

type recordingLoader struct {
	parentLoads int
	childLoads  []string
}

func (l *recordingLoader) LoadParents() { l.parentLoads++ }

func (l *recordingLoader) LoadChildren(parentID string) {
	l.childLoads = append(l.childLoads, parentID)
}

func newController() (*Controller[option, option], *recordingLoader) {
	loader := &recordingLoader{}
	return New[option, option](loader), loader
}

func TestOpenCreateModeStartsEmpty(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	if got := c.State(); got != (State{}) {
		t.Fatalf("state = %+v, want zero", got)
	}
	if loader.parentLoads != 1 {
		t.Fatalf("parent loads = %d, want 1", loader.parentLoads)
	}
	if len(loader.childLoads) != 0 {
		t.Fatalf("expected no child loads in create mode, got %v", loader.childLoads)
	}
	if got := c.Children().Status(); got != StatusEmpty {
		t.Fatalf("child status = %s, want empty", got)
	}
	if got := c.Parents().Status(); got != StatusLoading {
		t.Fatalf("parent status = %s, want loading", got)
	}
}

func TestOpenEditModeSeedsPendingChild(t *testing.T) {
	c, loader := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	want := State{ParentID: "P1", PendingChildID: "C3"}
	if got := c.State(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if len(loader.childLoads) != 1 || loader.childLoads[0] != "P1" {
		t.Fatalf("child loads = %v, want [P1]", loader.childLoads)
	}
	if got := c.Children().Status(); got != StatusLoading {
		t.Fatalf("child status = %s, want loading", got)
	}
	if !c.Restoring() {
		t.Fatalf("expected restore to be pending")
	}
}

func TestEditModeRestoreHit(t *testing.T) {
	c, _ := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	if !c.ChildrenLoaded("P1", options("C1", "C3")) {
		t.Fatalf("expected load for current parent to apply")
	}
	want := State{ParentID: "P1", ChildID: "C3"}
	if got := c.State(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if child, ok := c.SelectedChild(); !ok || child.id != "C3" {
		t.Fatalf("selected child = %+v (%v), want C3", child, ok)
	}
}

func TestEditModeRestoreMiss(t *testing.T) {
	c, _ := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	c.ChildrenLoaded("P1", options("C1", "C2"))
	want := State{ParentID: "P1"}
	if got := c.State(); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if err := c.Validate(); !errors.Is(err, ErrMissingChild) {
		t.Fatalf("validate = %v, want ErrMissingChild", err)
	}
}

func TestChangeParentClearsChildUntilLoaded(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	for _, parent := range []string{"P1", "P2", "P3", "P1"} {
		c.ChangeParent(parent)
		if got := c.State().ChildID; got != "" {
			t.Fatalf("child after switching to %s = %q, want empty", parent, got)
		}
		c.ChildrenLoaded(parent, options(parent+"-a"))
		c.ChangeChild(parent + "-a")
	}
}

func TestStaleChildResponseIsDiscarded(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	c.ChangeParent("A")
	c.ChangeParent("B")
	c.ChildrenLoaded("B", options("b1"))
	c.ChangeChild("b1")
	before := c.Children()
	if c.ChildrenLoaded("A", options("a1", "a2")) {
		t.Fatalf("late response for A must not apply")
	}
	if c.ChildrenFailed("A", errors.New("boom")) {
		t.Fatalf("late failure for A must not apply")
	}
	after := c.Children()
	if len(after.Items) != len(before.Items) || after.Items[0].id != "b1" || after.Err != nil {
		t.Fatalf("child options mutated by stale response: %+v", after)
	}
	if got := c.State().ChildID; got != "b1" {
		t.Fatalf("child = %q, want b1", got)
	}
}

func TestBothResponsesForReselectedParentApply(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	c.ChangeParent("A")
	c.ChangeParent("B")
	c.ChangeParent("A")
	if len(loader.childLoads) != 3 {
		t.Fatalf("child loads = %v, want three fetches", loader.childLoads)
	}
	if !c.ChildrenLoaded("A", options("a1")) {
		t.Fatalf("first A response should apply")
	}
	if !c.ChildrenLoaded("A", options("a1", "a2")) {
		t.Fatalf("second A response should apply")
	}
	if got := len(c.Children().Items); got != 2 {
		t.Fatalf("items = %d, want 2 from the latest snapshot", got)
	}
}

func TestLaterSnapshotDropsMissingChild(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	c.ChangeParent("A")
	c.ChangeParent("B")
	c.ChangeParent("A")
	c.ChildrenLoaded("A", options("a1", "a2"))
	c.ChangeChild("a2")
	if !c.ChildrenLoaded("A", options("a1")) {
		t.Fatalf("second A response should apply")
	}
	if got := c.State().ChildID; got != "" {
		t.Fatalf("child = %q, want it cleared once absent from the options", got)
	}
	if err := c.Validate(); !errors.Is(err, ErrMissingChild) {
		t.Fatalf("validate = %v, want ErrMissingChild", err)
	}

	c.ChangeChild("a1")
	c.ChildrenLoaded("A", options("a1", "a3"))
	if got := c.State().ChildID; got != "a1" {
		t.Fatalf("child = %q, want a1 kept while still listed", got)
	}
}

func TestChangeParentSameIDIsNoop(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	c.ChangeParent("P1")
	c.ChildrenLoaded("P1", options("C1"))
	c.ChangeChild("C1")
	snapshot := c.State()
	c.ChangeParent("P1")
	if got := c.State(); got != snapshot {
		t.Fatalf("state changed on repeat selection: %+v -> %+v", snapshot, got)
	}
	if len(loader.childLoads) != 1 {
		t.Fatalf("child loads = %v, want a single fetch", loader.childLoads)
	}
	if got := c.Children().Status(); got != StatusLoaded {
		t.Fatalf("child status = %s, want loaded", got)
	}
}

func TestChangeParentAwayFromOriginalDropsRestore(t *testing.T) {
	c, _ := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	c.ChangeParent("P2")
	if c.Restoring() {
		t.Fatalf("switching away from the original parent must clear the pending child")
	}
	c.ChangeParent("P1")
	c.ChildrenLoaded("P1", options("C3"))
	if got := c.State().ChildID; got != "" {
		t.Fatalf("child = %q, want no restore after the pending id was cleared", got)
	}
}

func TestPendingSurvivesStaleLoadForOtherParent(t *testing.T) {
	c, _ := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	c.ChildrenLoaded("P9", options("C3"))
	if !c.Restoring() {
		t.Fatalf("pending child must survive a stale response")
	}
}

func TestParentClearedResetsChildOptions(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	c.ChangeParent("P1")
	c.ChildrenLoaded("P1", options("C1"))
	c.ChangeChild("C1")
	fetches := len(loader.childLoads)
	c.ClearParent()
	if got := c.State(); got != (State{}) {
		t.Fatalf("state = %+v, want zero", got)
	}
	children := c.Children()
	if len(children.Items) != 0 || children.Loading || children.Err != nil {
		t.Fatalf("children = %+v, want empty idle set", children)
	}
	if children.Status() != StatusEmpty {
		t.Fatalf("child status = %s, want empty", children.Status())
	}
	if len(loader.childLoads) != fetches {
		t.Fatalf("clear must not fetch, loads = %v", loader.childLoads)
	}
}

func TestChangeParentEmptyClears(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	c.ChangeParent("P1")
	c.ChangeParent("")
	if got := c.State(); got != (State{}) {
		t.Fatalf("state = %+v, want zero", got)
	}
}

func TestValidateChecksParentFirst(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	if err := c.Validate(); !errors.Is(err, ErrMissingParent) {
		t.Fatalf("validate = %v, want ErrMissingParent", err)
	}
	c.ChangeParent("P1")
	if err := c.Validate(); !errors.Is(err, ErrMissingChild) {
		t.Fatalf("validate = %v, want ErrMissingChild", err)
	}
}

func TestChildFailureKeepsSelectionAndAllowsRetry(t *testing.T) {
	c, loader := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C3"})
	fetchErr := errors.New("network down")
	if !c.ChildrenFailed("P1", fetchErr) {
		t.Fatalf("failure for current parent should apply")
	}
	children := c.Children()
	if children.Status() != StatusFailed || !errors.Is(children.Err, fetchErr) {
		t.Fatalf("children = %+v, want failed with fetch error", children)
	}
	if !c.Restoring() {
		t.Fatalf("pending child must survive a failed fetch")
	}
	if !c.Retry() {
		t.Fatalf("retry with a parent selected should fetch")
	}
	if got := loader.childLoads[len(loader.childLoads)-1]; got != "P1" {
		t.Fatalf("retry fetched %s, want P1", got)
	}
	if c.Children().Status() != StatusLoading {
		t.Fatalf("retry should move children to loading")
	}
	c.ChildrenLoaded("P1", options("C1", "C3"))
	if got := c.State().ChildID; got != "C3" {
		t.Fatalf("child = %q, want C3 restored after retry", got)
	}
}

func TestChildFailureDoesNotClearChosenChild(t *testing.T) {
	c, _ := newController()
	c.Open(nil)
	c.ChangeParent("P1")
	c.ChildrenLoaded("P1", options("C1"))
	c.ChangeChild("C1")
	c.Retry()
	c.ChildrenFailed("P1", errors.New("timeout"))
	if got := c.State().ChildID; got != "C1" {
		t.Fatalf("child = %q, want C1 kept after failure", got)
	}
	if got := len(c.Children().Items); got != 1 {
		t.Fatalf("items = %d, want items from the last successful load", got)
	}
	c.ChangeParent("P2")
	if got := c.Children().Status(); got != StatusLoading {
		t.Fatalf("failure must not block changing the parent, status = %s", got)
	}
}

func TestRetryWithoutParent(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	if c.Retry() {
		t.Fatalf("retry without a parent should do nothing")
	}
	if len(loader.childLoads) != 0 {
		t.Fatalf("unexpected child loads %v", loader.childLoads)
	}
}

func TestParentOptions(t *testing.T) {
	c, loader := newController()
	c.Open(nil)
	c.ParentsFailed(nil)
	if c.Parents().Status() != StatusFailed {
		t.Fatalf("parent status = %s, want failed", c.Parents().Status())
	}
	c.ReloadParents()
	if loader.parentLoads != 2 {
		t.Fatalf("parent loads = %d, want 2", loader.parentLoads)
	}
	c.ParentsLoaded(options("P1", "P2"))
	c.ChangeParent("P2")
	if parent, ok := c.SelectedParent(); !ok || parent.id != "P2" {
		t.Fatalf("selected parent = %+v (%v), want P2", parent, ok)
	}
}

func TestOpenResetsPreviousSession(t *testing.T) {
	c, _ := newController()
	c.Open(&Target{ParentID: "P1", ChildID: "C1"})
	c.ChildrenLoaded("P1", options("C1"))
	c.Open(nil)
	if got := c.State(); got != (State{}) {
		t.Fatalf("state = %+v, want zero after reopening", got)
	}
	if got := len(c.Children().Items); got != 0 {
		t.Fatalf("children carried over between sessions: %d", got)
	}
}
