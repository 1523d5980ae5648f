package scroll

import (
	"reflect"
	"testing"
)

type recorder struct {
	events []string
}

func (r *recorder) trigger(start, end float64) Trigger {
	return Trigger{
		Start:       start,
		End:         end,
		OnEnter:     func() { r.events = append(r.events, "enter") },
		OnLeave:     func() { r.events = append(r.events, "leave") },
		OnEnterBack: func() { r.events = append(r.events, "enterBack") },
		OnLeaveBack: func() { r.events = append(r.events, "leaveBack") },
	}
}

func TestDriverToggleSequence(t *testing.T) {
	d := NewDriver()
	rec := &recorder{}
	d.Bind(rec.trigger(100, 200))

	for _, y := range []float64{50, 150, 250, 150, 50, 300, 0} {
		d.Scroll(y)
	}

	want := []string{
		"enter",          // 50 -> 150
		"leave",          // 150 -> 250
		"enterBack",      // 250 -> 150
		"leaveBack",      // 150 -> 50
		"enter", "leave", // 50 -> 300 in one jump
		"enterBack", "leaveBack", // 300 -> 0 in one jump
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("expected %v, got %v", want, rec.events)
	}
}

func TestDriverSeedsSilently(t *testing.T) {
	d := NewDriver()
	d.Scroll(150)
	rec := &recorder{}
	b := d.Bind(rec.trigger(100, 200))

	if len(rec.events) != 0 {
		t.Fatalf("silent bind fired %v", rec.events)
	}
	if b.Region() != Inside {
		t.Errorf("expected seeded region inside, got %v", b.Region())
	}

	d.Scroll(250)
	if !reflect.DeepEqual(rec.events, []string{"leave"}) {
		t.Errorf("expected leave after seeding, got %v", rec.events)
	}
}

func TestDriverScrubIsResumable(t *testing.T) {
	d := NewDriver()
	var last float64
	d.Scroll(175)
	b := d.Bind(Trigger{Start: 100, End: 200, Scrub: func(p float64) { last = p }})

	if last != 0.75 || b.Progress() != 0.75 {
		t.Fatalf("expected progress 0.75 at bind, got %v / %v", last, b.Progress())
	}

	// jumping straight to any offset gives the same value as scrolling there
	d.Scroll(120)
	jumped := last
	d.Scroll(100)
	d.Scroll(110)
	d.Scroll(120)
	if last != jumped {
		t.Errorf("progress depends on path: %v vs %v", jumped, last)
	}
}

func TestBindingReleaseDetaches(t *testing.T) {
	d := NewDriver()
	calls := 0
	b := d.Bind(Trigger{Start: 0, End: 100, Scrub: func(float64) { calls++ }})
	if d.Len() != 1 {
		t.Fatalf("expected 1 listener, got %d", d.Len())
	}
	calls = 0

	b.Release()
	b.Release()

	if d.Len() != 0 {
		t.Errorf("expected listener removed, %d left", d.Len())
	}
	if b.Active() {
		t.Error("binding still active after release")
	}
	if b.Progress() != 0 {
		t.Errorf("cached progress not dropped: %v", b.Progress())
	}

	d.Scroll(50)
	if calls != 0 {
		t.Errorf("released binding still receives scroll: %d calls", calls)
	}
}

func TestReleaseDuringDispatch(t *testing.T) {
	d := NewDriver()
	var second *Binding
	secondCalls := 0
	d.Bind(Trigger{Start: 0, End: 100, OnEnter: func() { second.Release() }})
	d.Scroll(-10)
	second = d.Bind(Trigger{Start: 0, End: 100, Scrub: func(float64) { secondCalls++ }})
	secondCalls = 0

	d.Scroll(50)
	if secondCalls != 0 {
		t.Errorf("binding released mid-dispatch was still notified %d times", secondCalls)
	}
}
