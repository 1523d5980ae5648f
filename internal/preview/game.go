// Package preview is the interactive host: an ebiten window where the mouse
// wheel and keyboard scroll the page.
package preview

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ivlev/scrollreel/internal/viewer"
)

// Game implements ebiten.Game on top of a viewer session.
type Game struct {
	session       *viewer.Session
	width, height int
	screen        *ebiten.Image
}

func NewGame(session *viewer.Session, width, height int) *Game {
	return &Game{session: session, width: width, height: height}
}

func (g *Game) Update() error {
	if !g.session.Step(readInput(), 1/float64(ebiten.TPS())) {
		return ebiten.Termination
	}
	return nil
}

func readInput() viewer.Input {
	_, wy := ebiten.Wheel()
	return viewer.Input{
		Wheel:    wy,
		Up:       ebiten.IsKeyPressed(ebiten.KeyArrowUp),
		Down:     ebiten.IsKeyPressed(ebiten.KeyArrowDown),
		PageUp:   inpututil.IsKeyJustPressed(ebiten.KeyPageUp),
		PageDown: inpututil.IsKeyJustPressed(ebiten.KeyPageDown) || inpututil.IsKeyJustPressed(ebiten.KeySpace),
		Home:     inpututil.IsKeyJustPressed(ebiten.KeyHome),
		End:      inpututil.IsKeyJustPressed(ebiten.KeyEnd),
		Quit:     inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ),
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	frame, changed := g.session.Frame()
	if frame.Rect.Empty() {
		return
	}
	if g.screen == nil || g.screen.Bounds() != frame.Rect {
		if g.screen != nil {
			g.screen.Deallocate()
		}
		g.screen = ebiten.NewImage(frame.Rect.Dx(), frame.Rect.Dy())
		changed = true
	}
	if changed {
		g.screen.WritePixels(frame.Pix)
	}
	screen.DrawImage(g.screen, nil)
}

// Layout feeds window size changes into the debounced resize.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.session.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	defer g.session.Close()
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
