package reveal

import "github.com/tanema/gween"

// State of a timeline.
type State int

const (
	Reset State = iota
	Playing
	Done
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Done:
		return "done"
	default:
		return "reset"
	}
}

// Timeline is a tagged step list driven by a single sequential scheduler.
// Update advances at most one step boundary per iteration and carries any
// leftover time into the next step.
type Timeline struct {
	elements []Element
	steps    []Step
	poses    []Pose
	offset   float64

	state   State
	cursor  int
	holding bool
	elapsed float64
	tween   *gween.Tween
}

// New builds the timeline for elements; every element starts hidden.
func New(elements []Element, o Options) *Timeline {
	o = o.withDefaults()
	t := &Timeline{
		elements: append([]Element(nil), elements...),
		steps:    Steps(elements, o),
		poses:    make([]Pose, len(elements)),
		offset:   o.Offset,
	}
	t.Reset()
	return t
}

func (t *Timeline) Elements() []Element { return t.elements }
func (t *Timeline) Steps() []Step       { return t.steps }
func (t *Timeline) State() State        { return t.state }

// Cursor is the index of the step currently running.
func (t *Timeline) Cursor() int { return t.cursor }

// Duration of a full forward play.
func (t *Timeline) Duration() float64 { return TotalDuration(t.steps) }

// Pose of element i.
func (t *Timeline) Pose(i int) Pose {
	if i < 0 || i >= len(t.poses) {
		return Pose{}
	}
	return t.poses[i]
}

// Poses returns a copy of every element pose.
func (t *Timeline) Poses() []Pose {
	return append([]Pose(nil), t.poses...)
}

// Reset pauses immediately and puts every element back in its hidden pose.
func (t *Timeline) Reset() {
	t.state = Reset
	t.cursor = 0
	t.holding = false
	t.elapsed = 0
	t.tween = nil
	for i := range t.poses {
		t.poses[i] = Hidden(t.offset)
	}
}

// Play restarts from step 0 and runs forward.
func (t *Timeline) Play() {
	t.Reset()
	if len(t.steps) == 0 {
		t.state = Done
		return
	}
	t.state = Playing
	t.begin()
}

// ShowAll skips the timeline and shows every element in its final pose.
func (t *Timeline) ShowAll() {
	t.Reset()
	for i := range t.poses {
		t.poses[i] = Shown
	}
	t.cursor = len(t.steps)
	t.state = Done
}

func (t *Timeline) begin() {
	t.holding = false
	t.elapsed = 0
	t.tween = newRevealTween(t.steps[t.cursor].Reveal)
}

// Update advances the scheduler by dt seconds.
func (t *Timeline) Update(dt float64) {
	for dt > 0 && t.state == Playing {
		step := t.steps[t.cursor]

		if !t.holding {
			remaining := step.Reveal - t.elapsed
			used := min(dt, remaining)
			t.elapsed += used
			dt -= used

			v, finished := t.tween.Set(float32(t.elapsed))
			t.apply(step.Target, float64(v))
			if !finished && t.elapsed < step.Reveal {
				return
			}
			t.apply(step.Target, 1)
			t.holding = true
			t.elapsed = 0
		}

		remaining := step.Hold - t.elapsed
		if dt < remaining {
			t.elapsed += dt
			return
		}
		dt -= max(remaining, 0)
		t.advance()
	}
}

func (t *Timeline) advance() {
	t.cursor++
	if t.cursor >= len(t.steps) {
		t.state = Done
		t.tween = nil
		return
	}
	t.begin()
}

func (t *Timeline) apply(target int, v float64) {
	if v > 1 {
		v = 1
	}
	t.poses[target] = Pose{Opacity: v, OffsetY: t.offset * (1 - v)}
}
