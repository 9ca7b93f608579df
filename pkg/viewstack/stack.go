package viewstack

import "slices"

// Stack is the navigation history of one container: an ordered list of
// view ids with the current view on top. Only views registered with the
// stack can be pushed; anything else is ignored.
//
// A Stack is owned by a single UI element and is not safe for concurrent
// use.
type Stack struct {
	id          string
	defaultView string
	views       []string
	registered  map[string]bool
	onChange    func(views []string)
}

// NewStack creates a stack that starts on defaultView. The default view
// is registered automatically; pass "" for a stack that starts empty.
func NewStack(id, defaultView string, views ...string) *Stack {
	s := &Stack{
		id:          id,
		defaultView: defaultView,
		registered:  make(map[string]bool),
	}
	s.Register(views...)
	if defaultView != "" {
		s.Register(defaultView)
		s.views = []string{defaultView}
	}
	return s
}

// ID returns the stack id used to address back, clear and reset.
func (s *Stack) ID() string { return s.id }

// Default returns the configured default view.
func (s *Stack) Default() string { return s.defaultView }

// Register marks views as valid push targets for this stack.
func (s *Stack) Register(views ...string) {
	for _, v := range views {
		if v != "" {
			s.registered[v] = true
		}
	}
}

// Registered reports whether view can be pushed onto this stack.
func (s *Stack) Registered(view string) bool {
	return s.registered[view]
}

// OnChange installs a callback invoked with the new history after every
// change.
func (s *Stack) OnChange(fn func(views []string)) {
	s.onChange = fn
}

// Views returns the history, bottom first.
func (s *Stack) Views() []string {
	return slices.Clone(s.views)
}

// Len returns the history depth.
func (s *Stack) Len() int { return len(s.views) }

// Current returns the top view.
func (s *Stack) Current() (string, bool) {
	if len(s.views) == 0 {
		return "", false
	}
	return s.views[len(s.views)-1], true
}

// Push appends view if it is registered. It reports whether the stack
// changed.
func (s *Stack) Push(view string) bool {
	if !s.registered[view] {
		return false
	}
	s.views = append(s.views, view)
	s.changed()
	return true
}

// Back removes the top view. When that would leave the stack empty the
// default view is shown instead.
func (s *Stack) Back() {
	if len(s.views) > 0 {
		s.views = s.views[:len(s.views)-1]
	}
	if len(s.views) == 0 && s.defaultView != "" {
		s.views = []string{s.defaultView}
	}
	s.changed()
}

// Clear empties the stack.
func (s *Stack) Clear() {
	s.views = nil
	s.changed()
}

// Reset restores the stack to its default view.
func (s *Stack) Reset() {
	s.views = nil
	if s.defaultView != "" {
		s.views = []string{s.defaultView}
	}
	s.changed()
}

func (s *Stack) changed() {
	if s.onChange != nil {
		s.onChange(s.Views())
	}
}

// Attach subscribes the stack to bus. Push events are honored when the
// view is registered here; back, clear and reset when they name this
// stack's id. The returned func detaches all subscriptions.
func (s *Stack) Attach(bus *Bus) (detach func()) {
	forMe := func(fn func()) func(Event) {
		return func(e Event) {
			if e.Stack == s.id {
				fn()
			}
		}
	}
	unsubs := []func(){
		bus.Subscribe(TopicPush, func(e Event) { s.Push(e.View) }),
		bus.Subscribe(TopicBack, forMe(s.Back)),
		bus.Subscribe(TopicClear, forMe(s.Clear)),
		bus.Subscribe(TopicReset, forMe(s.Reset)),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
