package renderer

import (
	"math"
	"sort"

	"github.com/ivlev/scrollreel/internal/director"
)

// InterpolateOffset returns the scroll offset at time t, eased between the
// keyframes around it. Times outside the plan clamp to its ends.
func InterpolateOffset(keyframes []director.Keyframe, t float64) float64 {
	n := len(keyframes)
	switch {
	case n == 0:
		return 0
	case t <= keyframes[0].Time:
		return keyframes[0].Offset
	case t >= keyframes[n-1].Time:
		return keyframes[n-1].Offset
	}

	// first keyframe strictly after t; 1 <= next <= n-1 here
	next := sort.Search(n, func(i int) bool { return keyframes[i].Time > t })
	from, to := keyframes[next-1], keyframes[next]

	span := to.Time - from.Time
	if span <= 0 {
		return to.Offset
	}
	return lerp(from.Offset, to.Offset, easeInOutCubic((t-from.Time)/span))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
