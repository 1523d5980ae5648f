package renderer

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	regularFont = mustParse(goregular.TTF)
	boldFont    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	return f
}

// Faces are sized for one viewport height. A truetype face caches glyphs
// and must not be shared between goroutines.
type Faces struct {
	Title  font.Face
	Body   font.Face
	Button font.Face

	viewportHeight float64
}

func NewFaces(viewportHeight float64) *Faces {
	size := func(fraction float64) float64 {
		return max(8, viewportHeight*fraction)
	}
	return &Faces{
		Title:          newFace(boldFont, size(0.05)),
		Body:           newFace(regularFont, size(0.03)),
		Button:         newFace(boldFont, size(0.027)),
		viewportHeight: viewportHeight,
	}
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}
