// Package render draws frames: onto the photo for download and enhancement,
// and onto a terminal for live previews.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sanonone/lightpath/pkg/animation"
	"golang.org/x/image/draw"
)

const (
	// CanvasSize is the side of the square editing canvas.
	CanvasSize = 1000
	// GridSize is the side of the image sent to the depth and line servers.
	GridSize = 400
	// JPEGQuality matches the quality used for composed downloads.
	JPEGQuality = 90
)

// ErrDecode is returned for data that is not a PNG or JPEG image.
var ErrDecode = errors.New("decode image")

// Decode reads a PNG or JPEG photo.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Fit stretches img to w x h.
func Fit(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EncodeJPEG encodes img at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Compose draws the frame's lights over a copy of photo. Each light is a
// radial glow fading from opaque at the centre to transparent at its glow
// radius, under a solid core of its size.
func Compose(photo image.Image, f animation.Frame) *image.RGBA {
	b := photo.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), photo, b.Min, draw.Src)

	for _, l := range f.Lights {
		c := colorful.Color{R: float64(l.Color.R) / 255, G: float64(l.Color.G) / 255, B: float64(l.Color.B) / 255}
		glow := math.Max(l.Glow, l.Size)
		disc(dst, l.X, l.Y, glow, func(r float64) float64 { return 1 - r/glow }, c)
		disc(dst, l.X, l.Y, l.Size, func(float64) float64 { return 1 }, c)
	}
	return dst
}

// disc blends c into dst over a circle, with alpha given per distance from the centre.
func disc(dst *image.RGBA, cx, cy, radius float64, alpha func(r float64) float64, c colorful.Color) {
	if radius <= 0 {
		return
	}
	bounds := dst.Bounds()
	area := image.Rect(
		int(math.Floor(cx-radius)), int(math.Floor(cy-radius)),
		int(math.Ceil(cx+radius))+1, int(math.Ceil(cy+radius))+1,
	).Intersect(bounds)

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			r := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if r > radius {
				continue
			}
			a := math.Max(0, math.Min(1, alpha(r)))
			if a == 0 {
				continue
			}
			under, _ := colorful.MakeColor(dst.RGBAAt(x, y))
			blended := under.BlendRgb(c, a)
			r8, g8, b8 := blended.Clamped().RGB255()
			dst.SetRGBA(x, y, color.RGBA{R: r8, G: g8, B: b8, A: 255})
		}
	}
}
