package effects

import (
	"math"
	"strings"

	"github.com/ivlev/scrollreel/internal/geometry"
)

// Kind is the closed set of background motion variants.
type Kind int

const (
	PanX Kind = iota
	PanY
	Diagonal
	Rotate
	ParallaxY
	Zoom
)

const (
	DefaultAmount = 10.0
	MinMultiplier = 0.25
	MaxMultiplier = 2.0

	// rotation amplitude in degrees at multiplier 1
	rotateDegrees = 3.0
	// rotate keeps position excursions small
	rotateSpanX = 0.40
	rotateSpanY = 0.25
)

var kindNames = map[Kind]string{
	PanX:      "panx",
	PanY:      "pany",
	Diagonal:  "diagonal",
	Rotate:    "rotate",
	ParallaxY: "parallaxy",
	Zoom:      "zoom",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "panx"
}

// Effect is a parsed per-section effect. Inward only matters for Zoom.
type Effect struct {
	Kind   Kind
	Inward bool
}

func (e Effect) String() string {
	if e.Kind == Zoom {
		if e.Inward {
			return "zoomin"
		}
		return "zoomout"
	}
	return e.Kind.String()
}

// Parse maps a configured effect name to its variant. Unknown or empty names
// fall back to PanX; ok reports whether the name was recognised.
func Parse(name string) (e Effect, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "panx", "pan-x", "pan":
		return Effect{Kind: PanX}, true
	case "pany", "pan-y":
		return Effect{Kind: PanY}, true
	case "diagonal":
		return Effect{Kind: Diagonal}, true
	case "rotate":
		return Effect{Kind: Rotate}, true
	case "parallaxy", "parallax-y", "parallax":
		return Effect{Kind: ParallaxY}, true
	case "zoomout", "zoom-out", "zoom":
		return Effect{Kind: Zoom}, true
	case "zoomin", "zoom-in":
		return Effect{Kind: Zoom, Inward: true}, true
	default:
		return Effect{Kind: PanX}, false
	}
}

// Multiplier converts a configured intensity amount (0..20, default 10) into a
// motion multiplier clamped to [MinMultiplier, MaxMultiplier].
func Multiplier(amount float64) float64 {
	if math.IsNaN(amount) {
		return 1
	}
	m := amount / 10
	if m < MinMultiplier {
		return MinMultiplier
	}
	if m > MaxMultiplier {
		return MaxMultiplier
	}
	return m
}

// Transform is an element transform around its own center.
// X and Y are pixel offsets, Rotation is in degrees.
type Transform struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Scale    float64 `yaml:"scale"`
	Rotation float64 `yaml:"rotation"`
}

// Identity is the untouched pose.
var Identity = Transform{Scale: 1}

// Spec is the keyframe pair a section scrubs through.
type Spec struct {
	From Transform `yaml:"from"`
	To   Transform `yaml:"to"`
}

// Select derives the keyframe pair for an effect. It is pure: the same inputs
// always produce the same Spec.
func Select(e Effect, mult float64, fit geometry.Fit) Spec {
	sx := fit.SpanX * mult
	sy := fit.SpanY * mult

	spec := Spec{
		From: Transform{Scale: fit.StartScale},
		To:   Transform{Scale: fit.EndScale},
	}

	switch e.Kind {
	case PanY:
		spec.From.Y, spec.To.Y = -sy, sy
	case Diagonal:
		spec.From.X, spec.To.X = -sx, sx
		spec.From.Y, spec.To.Y = -sy, sy
	case Rotate:
		spec.From.X, spec.To.X = -sx*rotateSpanX, sx*rotateSpanX
		spec.From.Y, spec.To.Y = -sy*rotateSpanY, sy*rotateSpanY
		spec.From.Rotation, spec.To.Rotation = -rotateDegrees*mult, rotateDegrees*mult
	case ParallaxY:
		spec.From.Y, spec.To.Y = sy, -sy
	case Zoom:
		if e.Inward {
			spec.From.Scale, spec.To.Scale = fit.EndScale, fit.StartScale
		}
	default:
		spec.From.X, spec.To.X = -sx, sx
	}
	return spec
}

// At interpolates the spec linearly at progress p in [0,1].
func (s Spec) At(p float64) Transform {
	if p <= 0 {
		return s.From
	}
	if p >= 1 {
		return s.To
	}
	return Transform{
		X:        lerp(s.From.X, s.To.X, p),
		Y:        lerp(s.From.Y, s.To.Y, p),
		Scale:    lerp(s.From.Scale, s.To.Scale, p),
		Rotation: lerp(s.From.Rotation, s.To.Rotation, p),
	}
}

// DriftFraction of the viewport height every background sinks by across its
// section's scroll range, on top of its effect.
const DriftFraction = 0.12

// Drift is the vertical sink at scrub progress p for a viewport of height h.
func Drift(p, h float64) float64 {
	return DriftFraction * h * min(max(p, 0), 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
