// Package viewstack coordinates navigation between independently mounted
// views. A Bus carries named commands (push, back, clear, reset for view
// stacks; open, toggle, close for drawers) to whoever subscribed, so the
// element that triggers navigation never holds a reference to the element
// that renders it.
package viewstack

import (
	"slices"
	"sync"
)

// Topic names a navigation command channel.
type Topic string

const (
	TopicPush   Topic = "push"   // Event.View
	TopicBack   Topic = "back"   // Event.Stack
	TopicClear  Topic = "clear"  // Event.Stack
	TopicReset  Topic = "reset"  // Event.Stack
	TopicOpen   Topic = "open"   // Event.View (drawer id)
	TopicToggle Topic = "toggle" // Event.View (drawer id)
	TopicClose  Topic = "close"  // Event.View (drawer id)
)

// Event is the payload of every topic. Stack commands address a stack by
// id; push and the drawer commands address a view id.
type Event struct {
	Stack string `json:"stack,omitempty"`
	View  string `json:"view,omitempty"`
}

type subscription struct {
	id int
	fn func(Event)
}

// Bus is an in-process publish/subscribe registry. Handlers run
// synchronously on the publishing goroutine, in subscription order.
// Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic][]subscription
	nextID int
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers fn for topic and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(topic Topic, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[topic] = slices.DeleteFunc(b.subs[topic], func(s subscription) bool {
			return s.id == id
		})
	}
}

// Publish delivers event to every subscriber of topic.
func (b *Bus) Publish(topic Topic, event Event) {
	// Snapshot under lock, dispatch after release so handlers may
	// publish or unsubscribe.
	b.mu.RLock()
	subs := slices.Clone(b.subs[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(event)
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Push asks the stack that registered view to show it.
func (b *Bus) Push(view string) { b.Publish(TopicPush, Event{View: view}) }

// Back pops the top view of stack.
func (b *Bus) Back(stack string) { b.Publish(TopicBack, Event{Stack: stack}) }

// Clear empties stack.
func (b *Bus) Clear(stack string) { b.Publish(TopicClear, Event{Stack: stack}) }

// Reset restores stack to its default view.
func (b *Bus) Reset(stack string) { b.Publish(TopicReset, Event{Stack: stack}) }

// Open opens the drawer with the given id.
func (b *Bus) Open(drawer string) { b.Publish(TopicOpen, Event{View: drawer}) }

// Toggle flips the drawer with the given id.
func (b *Bus) Toggle(drawer string) { b.Publish(TopicToggle, Event{View: drawer}) }

// Close closes the drawer with the given id.
func (b *Bus) Close(drawer string) { b.Publish(TopicClose, Event{View: drawer}) }
