// Package reveal sequences the entrance of a section's text content: the
// content wrapper, then every line held for its estimated reading time, then
// the call-to-action.
package reveal

import (
	"strings"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Kind tags a revealed element.
type Kind int

const (
	Content Kind = iota
	Line
	CallToAction
)

func (k Kind) String() string {
	switch k {
	case Content:
		return "content"
	case CallToAction:
		return "cta"
	default:
		return "line"
	}
}

// Element is one thing the sequencer reveals.
type Element struct {
	Kind Kind
	Text string
}

// Pose is the visible state of an element.
type Pose struct {
	Opacity float64
	OffsetY float64
}

// Options controls pacing. Zero values are replaced by DefaultOptions.
type Options struct {
	SecondsPerWord  float64
	SpeedMultiplier float64
	MinHold         float64
	MaxHold         float64

	ContentDuration float64
	LineDuration    float64
	CTADuration     float64

	// Offset is the vertical entrance distance in pixels.
	Offset float64
}

func DefaultOptions() Options {
	return Options{
		SecondsPerWord:  0.25,
		SpeedMultiplier: 0.25,
		MinHold:         0.35,
		MaxHold:         1.0,
		ContentDuration: 0.9,
		LineDuration:    0.6,
		CTADuration:     0.6,
		Offset:          28,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SecondsPerWord <= 0 {
		o.SecondsPerWord = d.SecondsPerWord
	}
	if o.SpeedMultiplier <= 0 {
		o.SpeedMultiplier = d.SpeedMultiplier
	}
	if o.MinHold <= 0 {
		o.MinHold = d.MinHold
	}
	if o.MaxHold <= 0 {
		o.MaxHold = d.MaxHold
	}
	if o.MaxHold < o.MinHold {
		o.MaxHold = o.MinHold
	}
	if o.ContentDuration <= 0 {
		o.ContentDuration = d.ContentDuration
	}
	if o.LineDuration <= 0 {
		o.LineDuration = d.LineDuration
	}
	if o.CTADuration <= 0 {
		o.CTADuration = d.CTADuration
	}
	if o.Offset == 0 {
		o.Offset = d.Offset
	}
	return o
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// HoldDuration estimates how long a line stays on screen before the next one
// starts, clamped to [MinHold, MaxHold].
func HoldDuration(text string, o Options) float64 {
	o = o.withDefaults()
	h := float64(WordCount(text)) * o.SecondsPerWord * o.SpeedMultiplier
	if h < o.MinHold {
		return o.MinHold
	}
	if h > o.MaxHold {
		return o.MaxHold
	}
	return h
}

// Step is one entry of a timeline: reveal Target over Reveal seconds, then
// wait Hold seconds before the next step.
type Step struct {
	Target int
	Reveal float64
	Hold   float64
}

// Steps builds the ordered step list for elements.
func Steps(elements []Element, o Options) []Step {
	o = o.withDefaults()
	steps := make([]Step, 0, len(elements))
	for i, el := range elements {
		s := Step{Target: i}
		switch el.Kind {
		case Content:
			s.Reveal = o.ContentDuration
		case Line:
			s.Reveal = o.LineDuration
			s.Hold = HoldDuration(el.Text, o)
		case CallToAction:
			s.Reveal = o.CTADuration
		}
		steps = append(steps, s)
	}
	return steps
}

// TotalDuration is the time a full forward play takes.
func TotalDuration(steps []Step) float64 {
	total := 0.0
	for _, s := range steps {
		total += s.Reveal + s.Hold
	}
	return total
}

// Hidden is the reset pose for an entrance offset.
func Hidden(offset float64) Pose { return Pose{Opacity: 0, OffsetY: offset} }

// Shown is the final pose.
var Shown = Pose{Opacity: 1, OffsetY: 0}

// easing used for every reveal
var easing ease.TweenFunc = ease.OutQuad

func newRevealTween(d float64) *gween.Tween {
	return gween.New(0, 1, float32(d), easing)
}
