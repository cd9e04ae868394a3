package spritebatch

import "image/color"

// Tint is a straight-alpha RGBA color with 8 bits per channel. It is uploaded
// as a normalized unorm8x4 attribute and multiplied with the sprite texel.
type Tint struct {
	R, G, B, A uint8
}

// Common tints.
var (
	White       = Tint{R: 255, G: 255, B: 255, A: 255}
	Black       = Tint{R: 0, G: 0, B: 0, A: 255}
	Transparent = Tint{}
)

// RGBA8 creates a tint from 8-bit components.
func RGBA8(r, g, b, a uint8) Tint {
	return Tint{R: r, G: g, B: b, A: a}
}

// RGBf creates an opaque tint from components in [0, 1].
func RGBf(r, g, b float64) Tint {
	return Tint{R: unit8(r), G: unit8(g), B: unit8(b), A: 255}
}

// FromColor converts a standard color.Color to a straight-alpha tint.
func FromColor(c color.Color) Tint {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Tint{R: n.R, G: n.G, B: n.B, A: n.A}
}

// Color converts the tint to the standard color.Color interface.
func (t Tint) Color() color.Color {
	return color.NRGBA{R: t.R, G: t.G, B: t.B, A: t.A}
}

// WithAlpha returns t with its alpha channel replaced.
func (t Tint) WithAlpha(a uint8) Tint {
	t.A = a
	return t
}

// Hex creates a tint from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with an optional
// leading '#'. Unrecognized input yields opaque black.
func Hex(hex string) Tint {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint32
	a = 255

	switch len(hex) {
	case 3:
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4:
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		parseHex(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6:
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
	case 8:
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
		parseHex(hex[6:8], &a)
	default:
		return Black
	}

	return Tint{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)} //nolint:gosec // each channel is at most 0xff
}

func parseHex(s string, val *uint32) {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return
		}
	}
}

// unit8 maps [0, 1] to [0, 255] with rounding, clamping out-of-range input.
func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
