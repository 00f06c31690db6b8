package capture

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// ScreenshotFileName returns the screenshot file name for a capture id.
func ScreenshotFileName(id string) string {
	return id + ".png"
}

// PNGWriter writes screenshots into Dir. Scale in (0, 1) shrinks the image;
// anything else keeps it at full size.
type PNGWriter struct {
	Dir   string
	Scale float64
}

// Write encodes img to <Dir>/<id>.png, replacing any existing file, and
// returns the path.
func (w PNGWriter) Write(id string, img image.Image) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	img = Scale(img, w.Scale)
	path := filepath.Join(w.Dir, ScreenshotFileName(id))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := png.Encode(bw, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Scale resizes img by factor. Factors outside (0, 1) return img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor >= 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
