// Package scroll maps document scroll offsets to per-section progress and
// enter/leave transitions. It has no clock: every output is a pure function of
// the current and previous scroll offset.
package scroll

import "math"

// Region is where the scroll offset sits relative to a trigger range.
type Region int

const (
	Before Region = iota - 1
	Inside
	After
)

func (r Region) String() string {
	switch r {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "inside"
	}
}

// Trigger describes one scroll-linked listener. Start and End are absolute
// document scroll offsets.
type Trigger struct {
	Start, End float64

	// Scrub receives progress in [0,1] on every scroll update.
	Scrub func(progress float64)

	OnEnter     func()
	OnLeave     func()
	OnEnterBack func()
	OnLeaveBack func()
}

// RegionOf classifies y against [start, end].
func RegionOf(y, start, end float64) Region {
	switch {
	case y < start:
		return Before
	case y > end:
		return After
	default:
		return Inside
	}
}

// Progress maps y into [0,1] across [start, end].
func Progress(y, start, end float64) float64 {
	span := end - start
	if span <= 0 || math.IsNaN(span) {
		if y >= end {
			return 1
		}
		return 0
	}
	p := (y - start) / span
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// SectionRange is the scrub range of a section: progress 0 when its top edge
// reaches the viewport bottom, 1 when its bottom edge reaches the viewport top.
func SectionRange(top, height, viewportHeight float64) (start, end float64) {
	return top - viewportHeight, top + height
}

// EdgeOffset returns the scroll offset at which a point located at `at` within
// the section (0 top, 0.5 center, 1 bottom) meets the viewport line located at
// `line` (0 top, 0.5 center, 1 bottom).
func EdgeOffset(top, height, viewportHeight, at, line float64) float64 {
	return top + height*at - viewportHeight*line
}
