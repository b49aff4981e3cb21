package selection

// Item is anything that can sit in an option set.
type Item interface {
	OptionID() string
}

// Status is the lifecycle state of an option set.
type Status int

const (
	StatusEmpty   Status = iota // nothing selected upstream, nothing to load
	StatusLoading               // fetch in flight
	StatusLoaded                // items available, possibly none
	StatusFailed                // last fetch for the current parent failed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "empty"
	}
}

// OptionSet is the observable result of one option provider.
type OptionSet[T Item] struct {
	Items   []T
	Loading bool
	Err     error

	loaded bool
}

// Status derives the lifecycle state from the set's fields.
func (s OptionSet[T]) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Err != nil:
		return StatusFailed
	case s.loaded:
		return StatusLoaded
	default:
		return StatusEmpty
	}
}

// Contains reports whether id is one of the loaded items.
func (s OptionSet[T]) Contains(id string) bool {
	_, ok := s.Find(id)
	return ok
}

// Find returns the item with the given id.
func (s OptionSet[T]) Find(id string) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}
	for _, item := range s.Items {
		if item.OptionID() == id {
			return item, true
		}
	}
	return zero, false
}

// Usable reports whether a dropdown backed by this set can be opened.
func (s OptionSet[T]) Usable() bool {
	return !s.Loading && s.Err == nil && len(s.Items) > 0
}

// Begin marks a fetch in flight. Items are kept only when keep is set.
func (s *OptionSet[T]) Begin(keep bool) {
	if !keep {
		s.Items = nil
		s.loaded = false
	}
	s.Loading = true
	s.Err = nil
}

// Apply replaces the set wholesale with a successful result.
func (s *OptionSet[T]) Apply(items []T) {
	s.Items = append([]T(nil), items...)
	s.Loading = false
	s.Err = nil
	s.loaded = true
}

// Fail records a fetch error, retaining whatever items the last load produced.
func (s *OptionSet[T]) Fail(err error) {
	s.Loading = false
	s.Err = err
}

// Reset returns the set to the empty, idle state.
func (s *OptionSet[T]) Reset() {
	*s = OptionSet[T]{}
}
