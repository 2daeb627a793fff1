// Package preview renders heightfields and biome maps as images.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/dsterrain/internal/grid"
	"github.com/Faultbox/dsterrain/internal/heightmap"
)

// ErrUnsupportedImage is returned for image extensions other than .png and .bmp.
var ErrUnsupportedImage = errors.New("unsupported image format")

// ColorImage renders a color map with cell (i, j) at pixel (j, i).
func ColorImage(cm *heightmap.ColorMap) *image.RGBA {
	n := cm.Size()
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for i := 0; i < n; i++ {
		row := img.Pix[i*img.Stride:]
		for j := 0; j < n; j++ {
			c := cm.At(i, j)
			px := row[j*4 : j*4+4]
			px[0], px[1], px[2], px[3] = c.R, c.G, c.B, 0xff
		}
	}
	return img
}

// HeightImage renders a heightmap in grayscale, mapping its own minimum to
// black and maximum to white. A flat grid renders black.
func HeightImage(h *grid.Grid) *image.Gray {
	n := h.Size()
	img := image.NewGray(image.Rect(0, 0, n, n))
	lo, hi := h.MinMax()
	span := hi - lo
	for i := 0; i < n; i++ {
		for j, v := range h.Row(i) {
			var level float64
			if span > 0 {
				level = (v - lo) / span
			}
			img.SetGray(j, i, color.Gray{Y: uint8(level*255 + 0.5)})
		}
	}
	return img
}

// Upscale enlarges img by an integer factor with nearest-neighbour sampling,
// keeping cell boundaries crisp.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img in the format implied by name's extension.
func Encode(w io.Writer, name string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, filepath.Ext(name))
	}
}

// CheckExtension reports whether path names an image format Save can write.
func CheckExtension(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".bmp":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
}

// Save writes img to path, creating parent directories as needed.
func Save(path string, img image.Image) error {
	if err := CheckExtension(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := Encode(file, path, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding image: %w", err)
	}
	return file.Close()
}

// Capture saves img under dir as <prefix>_<timestamp>.png and returns the path.
func Capture(dir, prefix string, img image.Image) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s.png", prefix, timestamp)
	if dir != "" {
		filename = filepath.Join(dir, filename)
	}
	if err := Save(filename, img); err != nil {
		return "", err
	}
	return filename, nil
}

// Fit returns the largest rectangle with the aspect ratio of a srcW x srcH
// image that fits centred inside a dstW x dstH area.
func Fit(srcW, srcH, dstW, dstH int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return image.Rectangle{}
	}
	w, h := dstW, dstW*srcH/srcW
	if h > dstH {
		w, h = dstH*srcW/srcH, dstH
	}
	x0 := (dstW - w) / 2
	y0 := (dstH - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}
