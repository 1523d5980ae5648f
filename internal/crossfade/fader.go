package crossfade

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Backgrounds settle slightly zoomed: the shown one close to its fitted size,
// hidden ones further in so the next activation eases outward.
const (
	ShownZoom  = 1.02
	HiddenZoom = 1.08
)

// fade eases opacity and zoom together; the tween yields eased progress.
type fade struct {
	tween                  *gween.Tween
	fromOpacity, toOpacity float64
	fromZoom, toZoom       float64
}

// TweenFader keeps per-background opacity and zoom and eases them toward
// fade targets.
type TweenFader struct {
	opacity []float64
	zoom    []float64
	fades   []*fade
	easing  ease.TweenFunc
}

func NewTweenFader(count int) *TweenFader {
	f := &TweenFader{
		opacity: make([]float64, count),
		zoom:    make([]float64, count),
		fades:   make([]*fade, count),
		easing:  ease.OutQuad,
	}
	for i := range f.zoom {
		f.zoom[i] = HiddenZoom
	}
	return f
}

// FadeTo eases background index to target opacity. Its zoom follows: a
// visible target rests at ShownZoom, a hidden one at HiddenZoom.
func (f *TweenFader) FadeTo(index int, target, duration float64) {
	if index < 0 || index >= len(f.opacity) {
		return
	}
	zoom := HiddenZoom
	if target > 0 {
		zoom = ShownZoom
	}
	if duration <= 0 {
		f.opacity[index] = target
		f.zoom[index] = zoom
		f.fades[index] = nil
		return
	}
	// restart from wherever an interrupted fade left the background
	f.fades[index] = &fade{
		tween:       gween.New(0, 1, float32(duration), f.easing),
		fromOpacity: f.opacity[index],
		toOpacity:   target,
		fromZoom:    f.zoom[index],
		toZoom:      zoom,
	}
}

// Update advances every running fade by dt seconds.
func (f *TweenFader) Update(dt float64) {
	for i, fd := range f.fades {
		if fd == nil {
			continue
		}
		v, done := fd.tween.Update(float32(dt))
		p := float64(v)
		if done {
			p = 1
			f.fades[i] = nil
		}
		f.opacity[i] = clamp01(fd.fromOpacity + (fd.toOpacity-fd.fromOpacity)*p)
		f.zoom[i] = fd.fromZoom + (fd.toZoom-fd.fromZoom)*p
	}
}

// Opacity of background index.
func (f *TweenFader) Opacity(index int) float64 {
	if index < 0 || index >= len(f.opacity) {
		return 0
	}
	return f.opacity[index]
}

// Zoom of background index, applied on top of its scroll transform.
func (f *TweenFader) Zoom(index int) float64 {
	if index < 0 || index >= len(f.zoom) {
		return 1
	}
	return f.zoom[index]
}

// Fading reports whether any fade is still running.
func (f *TweenFader) Fading() bool {
	for _, fd := range f.fades {
		if fd != nil {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
