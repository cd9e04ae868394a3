// Package label rasterizes short text strings into images that can be drawn
// as sprites, such as a score counter.
//
// Text is rendered with golang.org/x/image/font. The default typeface is Go
// Regular; any TrueType or OpenType font can be supplied instead. Setting
// Options.Shape lays text out with go-text's HarfBuzz shaper, which applies
// the font's kerning and ligatures. Text is normalized to NFC first, so
// decomposed accents use the font's precomposed glyphs.
//
// Example:
//
//	mem := assets.NewMemory()
//	img, err := label.Render("Score: 42", label.Options{Size: 24})
//	if err != nil {
//		return err
//	}
//	mem.Put("score:42", img)
//	r.Add(spritebatch.V2(8, 8), spritebatch.V2(float32(img.Rect.Dx()), float32(img.Rect.Dy())), "score:42")
package label

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// DefaultSize is the font size in pixels used when Options.Size is zero.
const DefaultSize = 24

// Label errors.
var (
	// ErrEmptyText is returned when asked to render an empty string.
	ErrEmptyText = errors.New("label: empty text")

	// ErrInvalidFont is returned when the font data cannot be parsed.
	ErrInvalidFont = errors.New("label: invalid font")
)

// Options configures label rendering. The zero value renders white Go
// Regular text at DefaultSize with no padding.
type Options struct {
	Size    float64     // font size in pixels
	Color   color.Color // text color, default white
	Padding int         // transparent border in pixels on every side
	Font    []byte      // TTF/OTF data, default Go Regular
	Shape   bool        // HarfBuzz shaping instead of per-rune advances
}

var defaultFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Face renders labels with one font at one size. Reusing a Face avoids
// re-parsing the font for every label.
//
// A Face is not safe for concurrent use.
type Face struct {
	face    font.Face
	color   color.Color
	padding int
	shaper  *shaper // nil unless Options.Shape
}

// NewFace creates a Face from opts.
func NewFace(opts Options) (*Face, error) {
	data := opts.Font
	var (
		f   *opentype.Font
		err error
	)
	if data != nil {
		f, err = opentype.Parse(data)
	} else {
		data = goregular.TTF
		f, err = defaultFont()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}

	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // 1pt == 1px
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("label: create face: %w", err)
	}

	col := opts.Color
	if col == nil {
		col = color.White
	}
	lf := &Face{face: face, color: col, padding: max(opts.Padding, 0)}
	if opts.Shape {
		if lf.shaper, err = newShaper(data, f, size); err != nil {
			_ = face.Close()
			return nil, err
		}
	}
	return lf, nil
}

// Close releases the font face.
func (f *Face) Close() error {
	return f.face.Close()
}

// Measure returns the pixel size of the image Render would produce.
func (f *Face) Measure(text string) image.Point {
	text = norm.NFC.String(text)
	m := f.face.Metrics()
	var adv fixed.Int26_6
	if f.shaper != nil {
		adv = f.shaper.advance(text)
	} else {
		adv = font.MeasureString(f.face, text)
	}
	return image.Point{
		X: adv.Ceil() + 2*f.padding,
		Y: (m.Ascent + m.Descent).Ceil() + 2*f.padding,
	}
}

// Render draws text on a transparent background. The image is exactly as
// wide as the text advance and as tall as the font's ascent plus descent,
// plus padding.
func (f *Face) Render(text string) (*image.RGBA, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	text = norm.NFC.String(text)
	size := f.Measure(text)
	dst := image.NewRGBA(image.Rectangle{Max: size})

	ascent := f.face.Metrics().Ascent.Ceil()
	dot := fixed.P(f.padding, f.padding+ascent)
	src := image.NewUniform(f.color)
	if f.shaper != nil {
		if err := f.shaper.draw(dst, src, text, dot); err != nil {
			return nil, err
		}
		return dst, nil
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: f.face,
		Dot:  dot,
	}
	d.DrawString(text)
	return dst, nil
}

// Render renders text with a one-off Face built from opts.
func Render(text string, opts Options) (*image.RGBA, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	f, err := NewFace(opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return f.Render(text)
}
