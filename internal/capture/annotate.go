package capture

import (
	"image"
	"image/color"

	"github.com/mj1618/a11y-probe/internal/model"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is one highlighted region on an annotated screenshot.
type Box struct {
	Bounds model.Rect
	Label  string
}

var (
	boxColor     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// NAFBoxes returns a labelled box for every flagged node with an area.
func NAFBoxes(root *model.Node) []Box {
	var boxes []Box
	for _, n := range NAFNodes(root) {
		if n.Bounds.Empty() {
			continue
		}
		label := "NAF"
		if n.ResourceID != "" {
			label = "NAF " + n.ResourceID
		}
		boxes = append(boxes, Box{Bounds: n.Bounds, Label: label})
	}
	return boxes
}

// Annotate draws boxes onto a copy of img. Bounds are in image pixels.
func Annotate(img image.Image, boxes []Box) *image.RGBA {
	rgba := ToRGBA(img)
	for _, b := range boxes {
		drawRectangle(rgba, b.Bounds.Left, b.Bounds.Top, b.Bounds.Right, b.Bounds.Bottom, boxColor)
		drawTextWithOutline(rgba, b.Label, b.Bounds.Left+2, b.Bounds.Top+13, textColor, outlineColor)
	}
	return rgba
}

// ToRGBA copies img into a new RGBA image.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// drawRectangle draws a two-pixel outline clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	r := image.Rect(x1, y1, x2, y2).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for t := 0; t < 2; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, r.Min.Y+t, c)
			img.Set(x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.Set(r.Min.X+t, y, c)
			img.Set(r.Max.X-1-t, y, c)
		}
	}
}

// drawTextWithOutline draws text with its baseline at (x, y), ringed by
// outlineColor so it stays readable on any background.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	at := func(px, py int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(px, py),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				at(x+dx, y+dy, outlineColor)
			}
		}
	}
	at(x, y, textColor)
}
