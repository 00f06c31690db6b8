package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/mj1618/a11y-probe/internal/model"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestNAFBoxes(t *testing.T) {
	root := &model.Node{Ref: "r", Children: []*model.Node{
		{Ref: "a", Clickable: true, Enabled: true, ResourceID: "com.example:id/fab", Bounds: model.Rect{Left: 10, Top: 10, Right: 50, Bottom: 50}},
		{Ref: "b", Clickable: true, Enabled: true},
		{Ref: "c", Clickable: true, Enabled: true, Text: "OK", Bounds: model.Rect{Right: 10, Bottom: 10}},
	}}
	boxes := NAFBoxes(root)
	if len(boxes) != 1 {
		t.Fatalf("boxes: got %d, want 1 (zero-area and labeled nodes skipped)", len(boxes))
	}
	if boxes[0].Label != "NAF com.example:id/fab" {
		t.Errorf("label: got %q", boxes[0].Label)
	}
}

func TestAnnotate_DrawsOutlineOnCopy(t *testing.T) {
	src := whiteImage(100, 100)
	out := Annotate(src, []Box{{Bounds: model.Rect{Left: 20, Top: 20, Right: 80, Bottom: 80}, Label: "NAF"}})

	if got := out.RGBAAt(20, 50); got != boxColor {
		t.Errorf("left edge: got %v, want %v", got, boxColor)
	}
	if got := out.RGBAAt(79, 50); got != boxColor {
		t.Errorf("right edge: got %v, want %v", got, boxColor)
	}
	if got := out.RGBAAt(50, 60); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("interior below the label should stay white, got %v", got)
	}
	if got := src.RGBAAt(20, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Error("source image must not be modified")
	}
}

func TestAnnotate_ClampsToImage(t *testing.T) {
	out := Annotate(whiteImage(30, 30), []Box{{Bounds: model.Rect{Left: -10, Top: -10, Right: 500, Bottom: 500}}})
	if got := out.RGBAAt(0, 15); got != boxColor {
		t.Errorf("clamped edge: got %v", got)
	}
}

func TestScale(t *testing.T) {
	img := whiteImage(200, 100)
	if got := Scale(img, 0.5).Bounds(); got.Dx() != 100 || got.Dy() != 50 {
		t.Errorf("half scale: got %v", got)
	}
	if Scale(img, 1) != image.Image(img) {
		t.Error("factor 1 should return the input")
	}
	if got := Scale(img, 0.001).Bounds(); got.Dx() != 1 || got.Dy() != 1 {
		t.Errorf("tiny scale should clamp to 1x1, got %v", got)
	}
}
