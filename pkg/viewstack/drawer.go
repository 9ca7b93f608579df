package viewstack

// Drawer is a side container that opens and closes in response to bus
// events addressed to its id. Its content is navigated by its own Stack,
// which shares the drawer's id.
type Drawer struct {
	id       string
	open     bool
	stack    *Stack
	onChange func(open bool)
}

// NewDrawer creates a closed drawer. defaultView and views configure the
// drawer's content stack.
func NewDrawer(id, defaultView string, views ...string) *Drawer {
	return &Drawer{
		id:    id,
		stack: NewStack(id, defaultView, views...),
	}
}

// ID returns the drawer id.
func (d *Drawer) ID() string { return d.id }

// Stack returns the drawer's content stack.
func (d *Drawer) Stack() *Stack { return d.stack }

// IsOpen reports whether the drawer is open.
func (d *Drawer) IsOpen() bool { return d.open }

// OnChange installs a callback fired when the drawer opens or closes.
func (d *Drawer) OnChange(fn func(open bool)) { d.onChange = fn }

// SetOpen opens or closes the drawer.
func (d *Drawer) SetOpen(open bool) {
	if d.open == open {
		return
	}
	d.open = open
	if d.onChange != nil {
		d.onChange(open)
	}
}

// Toggle flips the drawer.
func (d *Drawer) Toggle() { d.SetOpen(!d.open) }

// Attach subscribes the drawer and its stack to bus. Pushing a view the
// drawer's stack knows also opens a closed drawer.
func (d *Drawer) Attach(bus *Bus) (detach func()) {
	forMe := func(fn func()) func(Event) {
		return func(e Event) {
			if e.View == d.id {
				fn()
			}
		}
	}
	unsubs := []func(){
		d.stack.Attach(bus),
		bus.Subscribe(TopicOpen, forMe(func() { d.SetOpen(true) })),
		bus.Subscribe(TopicClose, forMe(func() { d.SetOpen(false) })),
		bus.Subscribe(TopicToggle, forMe(d.Toggle)),
		bus.Subscribe(TopicPush, func(e Event) {
			if d.stack.Registered(e.View) {
				d.SetOpen(true)
			}
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
