package geometry

import "math"

const (
	// DeepenFactor tightens the starting zoom beyond cover so the first frame is a cropped close-up.
	DeepenFactor = 1.65
	// FallbackSpan is used when the end-state image exactly fills a viewport axis.
	FallbackSpan = 24.0
)

// Fit holds the cover/contain geometry of one image inside one viewport.
type Fit struct {
	CoverScale   float64
	ContainScale float64
	StartScale   float64
	EndScale     float64
	EndWidth     float64
	EndHeight    float64
	SpanX        float64
	SpanY        float64
}

// Compute fits an image of natural size iw x ih into a vw x vh viewport.
// Unknown (non-positive) natural sizes fall back to the viewport size so every
// scale resolves to 1.
func Compute(iw, ih, vw, vh float64) Fit {
	if !positive(vw) || !positive(vh) {
		vw, vh = 1, 1
	}
	if !positive(iw) || !positive(ih) {
		iw, ih = vw, vh
	}

	sx := vw / iw
	sy := vh / ih

	f := Fit{
		CoverScale:   math.Max(sx, sy),
		ContainScale: math.Min(sx, sy),
	}
	f.StartScale = f.CoverScale * DeepenFactor
	f.EndScale = f.ContainScale
	f.EndWidth = iw * f.EndScale
	f.EndHeight = ih * f.EndScale
	f.SpanX = span(vw, f.EndWidth)
	f.SpanY = span(vh, f.EndHeight)
	return f
}

func span(viewport, size float64) float64 {
	s := math.Max(0, (viewport-size)/2)
	if s < 1e-6 {
		return FallbackSpan
	}
	return s
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
