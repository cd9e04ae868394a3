package label

import (
	"bytes"
	"fmt"
	"image"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// shaper lays text out with HarfBuzz shaping, so kerning, ligatures and
// mark positioning from the font's OpenType tables are applied. Glyph
// outlines come from the x/image parse of the same font data, which shares
// glyph indices with the go-text parse.
type shaper struct {
	face *gotext.Face
	font *opentype.Font
	size fixed.Int26_6
	hb   shaping.HarfbuzzShaper
	buf  sfnt.Buffer
}

func newShaper(data []byte, f *opentype.Font, size float64) (*shaper, error) {
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	return &shaper{face: face, font: f, size: fixed.Int26_6(size * 64)}, nil
}

func (s *shaper) shape(text string) shaping.Output {
	runes := []rune(text)
	return s.hb.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      s.face,
		Size:      s.size,
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	})
}

// advance returns the shaped width of text.
func (s *shaper) advance(text string) fixed.Int26_6 {
	return s.shape(text).Advance
}

// draw rasterizes text into dst with the pen starting at origin, which is
// on the baseline.
func (s *shaper) draw(dst *image.RGBA, src image.Image, text string, origin fixed.Point26_6) error {
	out := s.shape(text)
	size := dst.Rect.Size()
	r := vector.NewRasterizer(size.X, size.Y)

	pen := origin
	for _, g := range out.Glyphs {
		segments, err := s.font.LoadGlyph(&s.buf, sfnt.GlyphIndex(g.GlyphID), s.size, nil) //nolint:gosec // TrueType glyph indices are 16-bit
		if err != nil {
			return fmt.Errorf("label: load glyph %d: %w", g.GlyphID, err)
		}
		// Shaping offsets grow up; outlines grow down.
		gx := toFloat(pen.X + g.XOffset)
		gy := toFloat(pen.Y - g.YOffset)
		for i, seg := range segments {
			a := seg.Args
			switch seg.Op {
			case sfnt.SegmentOpMoveTo:
				if i > 0 {
					r.ClosePath()
				}
				r.MoveTo(gx+toFloat(a[0].X), gy+toFloat(a[0].Y))
			case sfnt.SegmentOpLineTo:
				r.LineTo(gx+toFloat(a[0].X), gy+toFloat(a[0].Y))
			case sfnt.SegmentOpQuadTo:
				r.QuadTo(gx+toFloat(a[0].X), gy+toFloat(a[0].Y), gx+toFloat(a[1].X), gy+toFloat(a[1].Y))
			case sfnt.SegmentOpCubeTo:
				r.CubeTo(gx+toFloat(a[0].X), gy+toFloat(a[0].Y), gx+toFloat(a[1].X), gy+toFloat(a[1].Y), gx+toFloat(a[2].X), gy+toFloat(a[2].Y))
			}
		}
		if len(segments) > 0 {
			r.ClosePath()
		}
		pen.X += g.Advance
	}
	r.Draw(dst, dst.Bounds(), src, image.Point{})
	return nil
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
