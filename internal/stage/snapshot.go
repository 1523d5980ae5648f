package stage

import (
	"github.com/ivlev/scrollreel/internal/effects"
	"github.com/ivlev/scrollreel/internal/reveal"
)

// Snapshot is an immutable copy of everything a renderer needs for one frame.
type Snapshot struct {
	Width, Height float64
	Offset        float64
	Active        int
	Backgrounds   []Background
	Sections      []SectionView
}

// Background is the output state of one section background.
type Background struct {
	Index   int
	Ref     string
	Status  LoadStatus
	Opacity float64
	// Transform combines the scroll effect, the drift and the crossfade zoom.
	Transform effects.Transform
}

// SectionView places a section's revealed elements relative to the viewport.
type SectionView struct {
	Index    int
	Top      float64 // viewport-relative
	Height   float64
	Elements []reveal.Element
	Poses    []reveal.Pose
	CTAURL   string
}

// Visible reports whether any part of the section is inside the viewport.
func (v SectionView) Visible(viewportHeight float64) bool {
	return v.Top < viewportHeight && v.Top+v.Height > 0
}

// Snapshot copies the current output state.
func (s *Stage) Snapshot() Snapshot {
	y := s.driver.Offset()
	snap := Snapshot{
		Width:       s.vw,
		Height:      s.vh,
		Offset:      y,
		Active:      s.fade.Active(),
		Backgrounds: make([]Background, len(s.sections)),
		Sections:    make([]SectionView, len(s.sections)),
	}

	for i, sec := range s.sections {
		tr := sec.Current
		tr.Y += sec.Drift
		tr.Scale *= s.fader.Zoom(i)
		snap.Backgrounds[i] = Background{
			Index:     i,
			Ref:       sec.Config.Background,
			Status:    sec.Status,
			Opacity:   s.fader.Opacity(i),
			Transform: tr,
		}

		view := SectionView{
			Index:    i,
			Top:      sec.Top - y,
			Height:   sec.Height,
			Elements: sec.Timeline.Elements(),
			Poses:    sec.Timeline.Poses(),
		}
		if sec.Config.CTA != nil {
			view.CTAURL = sec.Config.CTA.URL
		}
		snap.Sections[i] = view
	}
	return snap
}
