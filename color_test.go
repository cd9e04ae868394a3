package spritebatch

import (
	"image/color"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Tint
	}{
		{"short rgb", "f80", Tint{255, 136, 0, 255}},
		{"short rgba", "#f808", Tint{255, 136, 0, 136}},
		{"long rgb", "#3498db", Tint{0x34, 0x98, 0xdb, 255}},
		{"long rgba", "3498db80", Tint{0x34, 0x98, 0xdb, 0x80}},
		{"upper case", "#FFFFFF", White},
		{"empty", "", Black},
		{"bad length", "#12345", Black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hex(tt.in); got != tt.want {
				t.Errorf("Hex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromColor(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want Tint
	}{
		{"opaque nrgba", color.NRGBA{R: 10, G: 20, B: 30, A: 255}, Tint{10, 20, 30, 255}},
		{"premultiplied half red", color.RGBA{R: 128, A: 128}, Tint{255, 0, 0, 128}},
		{"transparent", color.RGBA{}, Transparent},
		{"gray", color.Gray{Y: 100}, Tint{100, 100, 100, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromColor(tt.in); got != tt.want {
				t.Errorf("FromColor(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTintColorRoundtrip(t *testing.T) {
	for _, tint := range []Tint{White, Black, {12, 34, 56, 78}, {255, 0, 128, 1}} {
		if got := FromColor(tint.Color()); got != tint {
			t.Errorf("FromColor(%+v.Color()) = %+v", tint, got)
		}
	}
}

func TestRGBf(t *testing.T) {
	got := RGBf(-1, 0.5, 2)
	want := Tint{0, 128, 255, 255}
	if got != want {
		t.Errorf("RGBf(-1, 0.5, 2) = %+v, want %+v", got, want)
	}
}

func TestWithAlpha(t *testing.T) {
	got := White.WithAlpha(64)
	if got != (Tint{255, 255, 255, 64}) {
		t.Errorf("White.WithAlpha(64) = %+v", got)
	}
	if White.A != 255 {
		t.Error("WithAlpha modified the receiver")
	}
}
