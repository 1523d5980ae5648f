package reveal

import (
	"math"
	"reflect"
	"testing"
)

func sample() []Element {
	return []Element{
		{Kind: Content},
		{Kind: Line, Text: "The first light"},
		{Kind: Line, Text: "over the valley"},
		{Kind: CallToAction, Text: "Watch the film"},
	}
}

func TestNewStartsHidden(t *testing.T) {
	tl := New(sample(), Options{})
	if tl.State() != Reset {
		t.Fatalf("expected reset state, got %v", tl.State())
	}
	for i, p := range tl.Poses() {
		if p != Hidden(28) {
			t.Errorf("element %d not hidden: %+v", i, p)
		}
	}
}

func TestPlayRunsStepsInOrder(t *testing.T) {
	tl := New(sample(), Options{})
	tl.Play()

	// halfway through the content reveal
	tl.Update(0.45)
	if tl.Cursor() != 0 {
		t.Fatalf("expected cursor 0, got %d", tl.Cursor())
	}
	p := tl.Pose(0)
	if p.Opacity <= 0 || p.Opacity >= 1 || p.OffsetY <= 0 || p.OffsetY >= 28 {
		t.Errorf("expected a partial pose, got %+v", p)
	}
	if tl.Pose(1) != Hidden(28) {
		t.Errorf("line revealed before content finished: %+v", tl.Pose(1))
	}

	// content done (0.9), first line revealed (0.6) and now holding
	tl.Update(0.45 + 0.6 + 0.1)
	if tl.Cursor() != 1 {
		t.Fatalf("expected to hold on line 1, cursor %d", tl.Cursor())
	}
	if tl.Pose(0) != Shown || tl.Pose(1) != Shown {
		t.Errorf("expected content and line 1 shown: %+v %+v", tl.Pose(0), tl.Pose(1))
	}
	if tl.Pose(2) != Hidden(28) {
		t.Errorf("line 2 started during the hold: %+v", tl.Pose(2))
	}

	tl.Update(10)
	if tl.State() != Done {
		t.Fatalf("expected done, got %v", tl.State())
	}
	for i, p := range tl.Poses() {
		if p != Shown {
			t.Errorf("element %d not shown at the end: %+v", i, p)
		}
	}
}

func TestUpdateCarriesLeftoverTime(t *testing.T) {
	tl := New(sample(), Options{})
	tl.Play()

	small := New(sample(), Options{})
	small.Play()

	tl.Update(2.0)
	for i := 0; i < 200; i++ {
		small.Update(0.01)
	}

	if tl.Cursor() != small.Cursor() {
		t.Fatalf("cursor differs: one step %d, many steps %d", tl.Cursor(), small.Cursor())
	}
	for i := range tl.Poses() {
		a, b := tl.Pose(i), small.Pose(i)
		if math.Abs(a.Opacity-b.Opacity) > 1e-3 {
			t.Errorf("element %d opacity differs: %v vs %v", i, a.Opacity, b.Opacity)
		}
	}
}

func TestResetIsIdempotent(t *testing.T) {
	tl := New(sample(), Options{})
	tl.Play()
	tl.Update(1.7)

	tl.Reset()
	once := tl.Poses()
	tl.Reset()
	twice := tl.Poses()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second reset changed poses: %v vs %v", once, twice)
	}
	if tl.State() != Reset || tl.Cursor() != 0 {
		t.Errorf("expected reset at step 0, got %v at %d", tl.State(), tl.Cursor())
	}
}

func TestReplayStartsFromBeginning(t *testing.T) {
	tl := New(sample(), Options{})
	tl.Play()
	tl.Update(2.2)
	if tl.Cursor() == 0 {
		t.Fatal("expected progress past step 0 before leaving")
	}

	// leave, then enter again
	tl.Reset()
	tl.Play()
	if tl.Cursor() != 0 || tl.State() != Playing {
		t.Fatalf("replay did not start at step 0: cursor %d state %v", tl.Cursor(), tl.State())
	}
	for i, p := range tl.Poses() {
		if p != Hidden(28) {
			t.Errorf("element %d kept its old pose on replay: %+v", i, p)
		}
	}

	// playing while playing also restarts
	tl.Update(1.5)
	tl.Play()
	if tl.Cursor() != 0 {
		t.Errorf("restart while playing resumed at %d", tl.Cursor())
	}
}

func TestShowAll(t *testing.T) {
	tl := New(sample(), Options{})
	tl.ShowAll()
	if tl.State() != Done {
		t.Errorf("expected done, got %v", tl.State())
	}
	for i, p := range tl.Poses() {
		if p != Shown {
			t.Errorf("element %d not shown: %+v", i, p)
		}
	}
	tl.Update(1)
	if tl.Pose(0) != Shown {
		t.Error("update after ShowAll changed poses")
	}
}

func TestEmptyTimeline(t *testing.T) {
	tl := New(nil, Options{})
	tl.Play()
	tl.Update(1)
	if tl.State() != Done {
		t.Errorf("empty timeline should finish immediately, got %v", tl.State())
	}
}
