package viewer

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ivlev/scrollreel/internal/config"
	"github.com/ivlev/scrollreel/internal/stage"
)

func testStory() *config.Story {
	s := &config.Story{Sections: []config.Section{
		{Background: "a.png", Title: "One"},
		{Background: "b.png", Lines: []string{"two"}},
		{Background: "broken.png"},
	}}
	s.ApplyDefaults()
	return s
}

func fakeOpen(ref string, dpi int) (image.Image, error) {
	if ref == "broken.png" {
		return nil, errors.New("corrupt")
	}
	return image.NewRGBA(image.Rect(0, 0, 80, 60)), nil
}

func newSession(t *testing.T, resume *ResumeStore) *Session {
	t.Helper()
	s, err := New(context.Background(), testStory(), "story.yaml", Options{
		Width: 80, Height: 60,
		Resume: resume,
		Open:   fakeOpen,
		Logger: log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// settle steps until section index has resolved its background.
func settle(t *testing.T, s *Session, index int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.Stage().Section(index).Status == stage.Pending {
		if time.Now().After(deadline) {
			t.Fatalf("section %d never loaded", index)
		}
		s.Step(Input{}, 0)
		time.Sleep(time.Millisecond)
	}
}

func TestSessionScrollInput(t *testing.T) {
	s := newSession(t, nil)
	settle(t, s, 0)

	s.Step(Input{Wheel: -1}, 1.0/60)
	if got := s.Stage().Offset(); got != WheelStep {
		t.Errorf("wheel down: expected offset %v, got %v", WheelStep, got)
	}

	s.Step(Input{End: true}, 1.0/60)
	if got, want := s.Stage().Offset(), s.Stage().MaxScroll(); got != want {
		t.Errorf("End: expected %v, got %v", want, got)
	}

	s.Step(Input{PageUp: true}, 1.0/60)
	if got, want := s.Stage().Offset(), s.Stage().MaxScroll()-60*PageFraction; got != want {
		t.Errorf("PageUp: expected %v, got %v", want, got)
	}

	s.Step(Input{Home: true, Up: true}, 1.0/60)
	if got := s.Stage().Offset(); got != 0 {
		t.Errorf("Home: expected 0, got %v", got)
	}
}

func TestSessionLoadsVisibleBackgrounds(t *testing.T) {
	s := newSession(t, nil)
	settle(t, s, 0)
	if s.Stage().Section(1).Status != stage.Pending {
		t.Error("offscreen section should not load before it is visible")
	}

	s.Step(Input{End: true}, 0)
	settle(t, s, 2)
	if s.Stage().Section(2).Status != stage.Failed {
		t.Errorf("expected broken background to fail, got %v", s.Stage().Section(2).Status)
	}
	if !s.Stage().ScrubBound(0) {
		t.Error("a failed neighbour must not unbind section 0")
	}
}

func TestSessionFrameOnlyWhenDirty(t *testing.T) {
	s := newSession(t, nil)
	settle(t, s, 0)
	for i := 0; i < 300 && !s.Stage().Idle(); i++ {
		s.Step(Input{}, 0.05)
	}
	s.Drain()

	frame, changed := s.Frame()
	if frame.Rect.Dx() != 80 || frame.Rect.Dy() != 60 {
		t.Fatalf("unexpected frame size %v", frame.Rect)
	}
	if !changed {
		t.Error("first frame must be composed")
	}
	if _, changed := s.Frame(); changed {
		t.Error("idle stage should not recompose")
	}

	s.Step(Input{Down: true}, 0)
	if _, changed := s.Frame(); !changed {
		t.Error("scrolling should recompose")
	}
}

func TestSessionQuitSavesPosition(t *testing.T) {
	store := NewResumeStore(nil, log.New(io.Discard))
	s := newSession(t, store)
	settle(t, s, 0)
	s.Step(Input{End: true}, 0)

	if s.Step(Input{Quit: true}, 0) {
		t.Fatal("quit should stop the session")
	}
	res, ok := store.Load("story.yaml")
	if !ok || res.Progress != 1 {
		t.Fatalf("expected saved progress 1, got %+v %v", res, ok)
	}

	again := newSession(t, store)
	if got, want := again.Stage().Offset(), again.Stage().MaxScroll(); got != want {
		t.Errorf("expected restored offset %v, got %v", want, got)
	}
}

func TestSessionResize(t *testing.T) {
	s := newSession(t, nil)
	s.Resize(160, 90)
	if !s.Stage().ResizePending() {
		t.Fatal("resize should be debounced")
	}
	s.Step(Input{}, stage.DefaultDebounce+0.01)
	if w, h := s.Stage().Viewport(); w != 160 || h != 90 {
		t.Errorf("expected 160x90 after debounce, got %vx%v", w, h)
	}
	frame, _ := s.Frame()
	if frame.Rect.Dx() != 160 {
		t.Errorf("frame should follow the new viewport, got %v", frame.Rect)
	}
}

func TestSessionStaticText(t *testing.T) {
	s, err := New(context.Background(), testStory(), "story.yaml", Options{
		Width: 80, Height: 60,
		StaticText: true,
		Open:       fakeOpen,
		Logger:     log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	// section 1 is below the fold and still shows its text
	for i, p := range s.Stage().Section(1).Timeline.Poses() {
		if p.Opacity != 1 {
			t.Errorf("element %d hidden with static text: %+v", i, p)
		}
	}
}
