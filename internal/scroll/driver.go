package scroll

// Binding is the handle returned by Driver.Bind. Release is mandatory before
// the same section/purpose is bound again.
type Binding struct {
	id       int
	driver   *Driver
	trigger  Trigger
	region   Region
	progress float64
	released bool
}

// Progress is the last scrub progress delivered, 0 after release.
func (b *Binding) Progress() float64 { return b.progress }

// Region is the last region the binding observed.
func (b *Binding) Region() Region { return b.region }

// Active reports whether the binding is still attached to its driver.
func (b *Binding) Active() bool { return b != nil && !b.released }

// Release detaches the listener and drops cached state. Safe to call twice.
func (b *Binding) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.progress = 0
	b.region = Before
	if b.driver != nil {
		delete(b.driver.listeners, b.id)
		b.driver = nil
	}
}

// Driver dispatches scroll offsets to bound triggers in bind order.
// It is not safe for concurrent use; hosts call it from their event loop.
type Driver struct {
	y         float64
	nextID    int
	listeners map[int]*Binding
	order     []int
}

func NewDriver() *Driver {
	return &Driver{listeners: make(map[int]*Binding)}
}

// Offset is the last scroll offset seen.
func (d *Driver) Offset() float64 { return d.y }

// Len is the number of live listeners.
func (d *Driver) Len() int { return len(d.listeners) }

// Bind attaches a trigger at the current offset and returns its handle.
// No toggle callback fires on bind.
func (d *Driver) Bind(t Trigger) *Binding {
	d.nextID++
	b := &Binding{id: d.nextID, driver: d, trigger: t}
	d.listeners[b.id] = b
	d.order = append(d.order, b.id)

	// the initial region is seeded silently; owners reconcile via Region
	b.region = RegionOf(d.y, t.Start, t.End)
	b.scrub(d.y)
	return b
}

// Scroll moves the offset and notifies every live binding.
func (d *Driver) Scroll(y float64) {
	d.y = y
	live := d.order[:0]
	for _, id := range d.order {
		if _, ok := d.listeners[id]; ok {
			live = append(live, id)
		}
	}
	d.order = live

	// copy: callbacks may bind or release
	ids := append([]int(nil), d.order...)
	for _, id := range ids {
		if b, ok := d.listeners[id]; ok {
			b.update(y)
		}
	}
}

func (b *Binding) scrub(y float64) {
	if b.trigger.Scrub == nil {
		return
	}
	b.progress = Progress(y, b.trigger.Start, b.trigger.End)
	b.trigger.Scrub(b.progress)
}

func (b *Binding) update(y float64) {
	b.scrub(y)
	if b.released {
		return
	}

	next := RegionOf(y, b.trigger.Start, b.trigger.End)
	prev := b.region
	b.region = next
	if prev == next {
		return
	}

	t := b.trigger
	switch {
	case prev == Before:
		call(t.OnEnter)
		if next == After {
			call(t.OnLeave)
		}
	case prev == Inside && next == After:
		call(t.OnLeave)
	case prev == Inside && next == Before:
		call(t.OnLeaveBack)
	case prev == After:
		call(t.OnEnterBack)
		if next == Before {
			call(t.OnLeaveBack)
		}
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
