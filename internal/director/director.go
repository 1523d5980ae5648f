package director

import (
	"fmt"
	"math"
)

// Stop is what the director needs to know about one section.
type Stop struct {
	Top    float64
	Height float64
	// Reveal is the section's reveal timeline duration in seconds.
	Reveal float64
}

// Director generates scroll plans from a section layout.
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	MinDwell       float64 // Minimum time parked on a section (seconds)
	MaxDwell       float64 // Maximum time parked on a section (seconds)
	ReadingPad     float64 // Added after a section finishes revealing
	Intro          float64
	Outro          float64
	// TravelPerViewport is the scroll time for one viewport height of distance.
	TravelPerViewport float64
	MinTravel         float64
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:     viewportWidth,
		ViewportHeight:    viewportHeight,
		MinDwell:          1.5,
		MaxDwell:          8.0,
		ReadingPad:        0.5,
		Intro:             1.0,
		Outro:             1.0,
		TravelPerViewport: 1.4,
		MinTravel:         0.6,
	}
}

// GeneratePlan parks on every section long enough for its text to reveal,
// travelling between sections with eased scrolls, and finishes at the bottom
// of the page.
func (d *Director) GeneratePlan(stops []Stop, story string) (*Plan, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("no sections to plan")
	}
	if d.ViewportHeight <= 0 {
		return nil, fmt.Errorf("viewport height must be positive")
	}

	vh := float64(d.ViewportHeight)
	last := stops[len(stops)-1]
	maxScroll := math.Max(0, last.Top+last.Height-vh)

	keyframes := []Keyframe{{Time: 0, Focus: "intro", Offset: 0}}
	currentTime := d.Intro
	current := 0.0

	for i, stop := range stops {
		target := d.engagedOffset(stop, maxScroll)
		focus := fmt.Sprintf("section_%d", i+1)

		if target != current || i == 0 {
			currentTime += d.travelTime(math.Abs(target - current))
			keyframes = append(keyframes, Keyframe{Time: currentTime, Focus: focus, Offset: target})
			current = target
		}

		currentTime += d.calculateDwellTime(stop.Reveal)
		keyframes = append(keyframes, Keyframe{Time: currentTime, Focus: focus, Offset: target})
	}

	if current < maxScroll {
		currentTime += d.travelTime(maxScroll - current)
		keyframes = append(keyframes, Keyframe{Time: currentTime, Focus: "outro", Offset: maxScroll})
		current = maxScroll
	}
	currentTime += d.Outro
	keyframes = append(keyframes, Keyframe{Time: currentTime, Focus: "outro", Offset: current})

	return &Plan{
		Version:   PlanVersion,
		Story:     story,
		Width:     d.ViewportWidth,
		Height:    d.ViewportHeight,
		Duration:  currentTime,
		Keyframes: keyframes,
	}, nil
}

// engagedOffset puts the section's top at the viewport top, or its center
// at the viewport center for sections taller than the viewport, so both its
// crossfade and its reveal have fired.
func (d *Director) engagedOffset(stop Stop, maxScroll float64) float64 {
	vh := float64(d.ViewportHeight)
	y := math.Max(stop.Top, stop.Top+stop.Height/2-vh/2)
	return math.Min(math.Max(y, 0), maxScroll)
}

func (d *Director) travelTime(distance float64) float64 {
	if distance == 0 {
		return 0
	}
	t := distance / float64(d.ViewportHeight) * d.TravelPerViewport
	return math.Max(t, d.MinTravel)
}

// calculateDwellTime determines how long to stay on a section
func (d *Director) calculateDwellTime(reveal float64) float64 {
	dwell := reveal + d.ReadingPad
	if dwell < d.MinDwell {
		dwell = d.MinDwell
	}
	if d.MaxDwell > 0 && dwell > d.MaxDwell {
		dwell = d.MaxDwell
	}
	return dwell
}
