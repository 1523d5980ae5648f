package renderer

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/scrollreel/internal/effects"
	"github.com/ivlev/scrollreel/internal/reveal"
	"github.com/ivlev/scrollreel/internal/stage"
	"github.com/ivlev/scrollreel/internal/system"
)

// Images looks up decoded backgrounds by section index.
type Images interface {
	Image(index int) image.Image
}

var (
	baseColor        = color.RGBA{R: 12, G: 12, B: 16, A: 255}
	placeholderColor = color.RGBA{R: 38, G: 40, B: 48, A: 255}
	panelColor       = color.NRGBA{A: 140}
	textColor        = color.NRGBA{R: 245, G: 245, B: 240, A: 255}
	buttonColor      = color.NRGBA{R: 232, G: 84, B: 60, A: 255}
)

// Composer draws snapshots into frames. It is not safe for concurrent use;
// parallel renderers give each worker its own Composer.
type Composer struct {
	images Images
	pool   *system.ImagePool
	faces  *Faces
	qr     map[string]image.Image

	// Interpolator resamples backgrounds. Defaults to draw.BiLinear.
	Interpolator draw.Interpolator
}

func NewComposer(images Images, pool *system.ImagePool) *Composer {
	if pool == nil {
		pool = system.NewImagePool()
	}
	return &Composer{
		images:       images,
		pool:         pool,
		qr:           make(map[string]image.Image),
		Interpolator: draw.BiLinear,
	}
}

// Release hands a frame returned by Compose back to the pool.
func (c *Composer) Release(frame *image.RGBA) {
	c.pool.Put(frame)
}

// Compose renders snap into a pooled frame.
func (c *Composer) Compose(snap stage.Snapshot) *image.RGBA {
	w, h := int(math.Round(snap.Width)), int(math.Round(snap.Height))
	frame := c.pool.Get(image.Rect(0, 0, w, h))
	c.ComposeInto(frame, snap)
	return frame
}

// ComposeInto renders snap into dst, which must match the snapshot viewport.
func (c *Composer) ComposeInto(dst *image.RGBA, snap stage.Snapshot) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(baseColor), image.Point{}, draw.Src)

	for _, bg := range snap.Backgrounds {
		if bg.Index != snap.Active {
			c.drawBackground(dst, bg)
		}
	}
	if snap.Active >= 0 && snap.Active < len(snap.Backgrounds) {
		c.drawBackground(dst, snap.Backgrounds[snap.Active])
	}

	if c.faces == nil || c.faces.viewportHeight != snap.Height {
		c.faces = NewFaces(snap.Height)
	}
	for _, view := range snap.Sections {
		if view.Visible(snap.Height) {
			c.drawSection(dst, snap, view)
		}
	}
}

func (c *Composer) drawBackground(dst *image.RGBA, bg stage.Background) {
	if bg.Opacity <= 0 {
		return
	}
	mask := image.NewUniform(color.Alpha{A: alpha(bg.Opacity)})

	var src image.Image
	if bg.Status == stage.Ready && c.images != nil {
		src = c.images.Image(bg.Index)
	}
	if src == nil {
		draw.DrawMask(dst, dst.Bounds(), image.NewUniform(placeholderColor), image.Point{}, mask, image.Point{}, draw.Over)
		return
	}

	m := backgroundMatrix(src.Bounds(), dst.Bounds(), bg.Transform)
	c.Interpolator.Transform(dst, m, src, src.Bounds(), draw.Over, &draw.Options{SrcMask: mask})
}

// backgroundMatrix maps source pixels to the viewport: the image is centred,
// scaled, rotated about its centre and then offset by the transform.
func backgroundMatrix(src, dst image.Rectangle, tr effects.Transform) f64.Aff3 {
	scale := tr.Scale
	if !(scale > 0) {
		scale = 1
	}
	rad := tr.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad)*scale, math.Sin(rad)*scale

	sw, sh := float64(src.Dx()), float64(src.Dy())
	cx := float64(dst.Min.X) + float64(dst.Dx())/2 + tr.X
	cy := float64(dst.Min.Y) + float64(dst.Dy())/2 + tr.Y
	ox := float64(src.Min.X) + sw/2
	oy := float64(src.Min.Y) + sh/2

	return f64.Aff3{
		cos, -sin, cx - (cos*ox - sin*oy),
		sin, cos, cy - (sin*ox + cos*oy),
	}
}

type placed struct {
	element int
	rect    image.Rectangle
	lines   []string
}

// layoutSection stacks the content panel, its lines and the CTA, centred on
// the visible part of the section.
func (c *Composer) layoutSection(view stage.SectionView, vw, vh float64) (panel image.Rectangle, items []placed) {
	panelW := int(math.Max(240, vw*0.6))
	if panelW > int(vw)-32 {
		panelW = int(vw) - 32
	}
	pad := int(vh * 0.03)
	inner := panelW - 2*pad
	left := (int(vw) - panelW) / 2

	y := 0
	panelTop, panelBottom := -1, 0
	for i, el := range view.Elements {
		switch el.Kind {
		case reveal.Content, reveal.Line:
			face := c.faces.Body
			if el.Kind == reveal.Content {
				face = c.faces.Title
			}
			if panelTop < 0 {
				panelTop = y
				y += pad
			}
			wrapped := wrap(face, el.Text, inner)
			h := len(wrapped) * lineHeight(face)
			if el.Kind == reveal.Line {
				h += pad / 3
			}
			items = append(items, placed{element: i, rect: image.Rect(left+pad, y, left+pad+inner, y+h), lines: wrapped})
			y += h
			panelBottom = y + pad
		case reveal.CallToAction:
			if panelTop >= 0 {
				y = panelBottom + pad
			}
			bh := lineHeight(c.faces.Button) * 2
			bw := font.MeasureString(c.faces.Button, el.Text).Ceil() + 2*bh
			total := bw
			if view.CTAURL != "" {
				// room for the code beside the button, which overhangs it by half a button
				total += bh/2 + 2*bh
				y += bh / 2
			}
			x := (int(vw) - total) / 2
			items = append(items, placed{element: i, rect: image.Rect(x, y, x+bw, y+bh), lines: []string{el.Text}})
			y += bh
			if view.CTAURL != "" {
				y += bh / 2
			}
		}
	}
	if panelTop >= 0 {
		panel = image.Rect(left, panelTop, left+panelW, panelBottom)
		y = max(y, panelBottom)
	}

	visible := math.Min(view.Height, vh)
	top := int(view.Top + visible/2 - float64(y)/2)
	panel = panel.Add(image.Pt(0, top))
	for i := range items {
		items[i].rect = items[i].rect.Add(image.Pt(0, top))
	}
	return panel, items
}

func (c *Composer) drawSection(dst *image.RGBA, snap stage.Snapshot, view stage.SectionView) {
	panel, items := c.layoutSection(view, snap.Width, snap.Height)

	for _, it := range items {
		el := view.Elements[it.element]
		pose := view.Poses[it.element]
		if pose.Opacity <= 0 {
			continue
		}
		shift := image.Pt(0, int(math.Round(pose.OffsetY)))
		a := pose.Opacity

		switch el.Kind {
		case reveal.Content:
			fillOver(dst, panel.Add(shift), panelColor, a)
			c.drawText(dst, c.faces.Title, it.lines, it.rect.Min.Add(shift), a)
		case reveal.Line:
			c.drawText(dst, c.faces.Body, it.lines, it.rect.Min.Add(shift), a)
		case reveal.CallToAction:
			r := it.rect.Add(shift)
			fillOver(dst, r, buttonColor, a)
			tw := font.MeasureString(c.faces.Button, el.Text).Ceil()
			c.drawText(dst, c.faces.Button, it.lines, image.Pt(r.Min.X+(r.Dx()-tw)/2, r.Min.Y+(r.Dy()-lineHeight(c.faces.Button))/2), a)
			if view.CTAURL != "" {
				c.drawQR(dst, view.CTAURL, r, a)
			}
		}
	}
}

func (c *Composer) drawText(dst *image.RGBA, face font.Face, lines []string, at image.Point, opacity float64) {
	col := textColor
	col.A = alpha(opacity)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	ascent := face.Metrics().Ascent
	lh := lineHeight(face)
	for i, line := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(at.X),
			Y: fixed.I(at.Y+i*lh) + ascent,
		}
		d.DrawString(line)
	}
}

// drawQR places a code for url to the right of the button it belongs to.
func (c *Composer) drawQR(dst *image.RGBA, url string, button image.Rectangle, opacity float64) {
	size := button.Dy() * 2
	img := c.qrImage(url, size)
	if img == nil {
		return
	}
	at := image.Pt(button.Max.X+button.Dy()/2, button.Min.Y-button.Dy()/2)
	r := image.Rectangle{Min: at, Max: at.Add(img.Bounds().Size())}
	mask := image.NewUniform(color.Alpha{A: alpha(opacity)})
	draw.DrawMask(dst, r, img, img.Bounds().Min, mask, image.Point{}, draw.Over)
}

func (c *Composer) qrImage(url string, size int) image.Image {
	key := url + "@" + strconv.Itoa(size)
	if img, ok := c.qr[key]; ok {
		return img
	}
	var img image.Image
	if q, err := qrcode.New(url, qrcode.Medium); err == nil {
		img = q.Image(size)
	}
	c.qr[key] = img
	return img
}

func fillOver(dst *image.RGBA, r image.Rectangle, col color.NRGBA, opacity float64) {
	col.A = uint8(math.Round(float64(col.A) * clamp01(opacity)))
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// wrap breaks text into lines no wider than width.
func wrap(face font.Face, text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if font.MeasureString(face, candidate).Ceil() > width {
			lines = append(lines, current)
			current = w
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

func alpha(opacity float64) uint8 {
	return uint8(math.Round(clamp01(opacity) * 255))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
