package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// testImage returns a 3x2 opaque image with a distinct color per pixel.
func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 80), G: uint8(y * 200), B: 40, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown format %s", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDirLoadImageFormats(t *testing.T) {
	src := testImage()
	formats := []struct {
		name  string
		exact bool // lossless for this image
	}{
		{"png", true},
		{"bmp", true},
		{"tiff", true},
		{"gif", false},
		{"jpeg", false},
	}

	fsys := fstest.MapFS{}
	for _, f := range formats {
		fsys["sprite."+f.name] = &fstest.MapFile{Data: encode(t, f.name, src)}
	}
	dir := FromFS(fsys)

	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			img, err := dir.LoadImage("sprite." + f.name)
			if err != nil {
				t.Fatalf("LoadImage() error = %v", err)
			}
			if img.Rect != image.Rect(0, 0, 3, 2) {
				t.Fatalf("bounds = %v, want 3x2 at origin", img.Rect)
			}
			if !f.exact {
				return
			}
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					want := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
					if got := img.RGBAAt(x, y); got != want {
						t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestDirLoadImageSubdirectory(t *testing.T) {
	fsys := fstest.MapFS{
		"ui/score.png": &fstest.MapFile{Data: encode(t, "png", testImage())},
	}
	dir := FromFS(fsys)

	for _, name := range []string{"ui/score.png", `ui\score.png`, "ui/./score.png"} {
		if _, err := dir.LoadImage(name); err != nil {
			t.Errorf("LoadImage(%q) error = %v", name, err)
		}
	}
}

func TestDirLoadImageErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"notes.txt": &fstest.MapFile{Data: []byte("not an image")},
	}
	dir := FromFS(fsys)

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"missing", "cat.png", fs.ErrNotExist},
		{"not an image", "notes.txt", ErrDecode},
		{"empty", "", ErrInvalidName},
		{"escapes", "../secret.png", ErrInvalidName},
		{"absolute", "/etc/passwd", ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.LoadImage(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadImage(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}
}

func TestDirReadFile(t *testing.T) {
	fsys := fstest.MapFS{
		"Shaders/sprite.vert.wgsl": &fstest.MapFile{Data: []byte("// wgsl")},
	}
	data, err := FromFS(fsys).ReadFile("Shaders/sprite.vert.wgsl")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "// wgsl" {
		t.Errorf("ReadFile() = %q", data)
	}
}

func TestToRGBAPremultiplies(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 128})

	got := ToRGBA(src).RGBAAt(0, 0)
	if got.A != 128 || got.R < 127 || got.R > 128 || got.G != 0 || got.B != 0 {
		t.Errorf("pixel = %v, want premultiplied red at half alpha", got)
	}
}

func TestToRGBAOrigin(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	parent.SetRGBA(5, 6, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	sub := parent.SubImage(image.Rect(4, 4, 8, 8))
	got := ToRGBA(sub)
	if got.Rect != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds = %v, want origin-based 4x4", got.Rect)
	}
	if c := got.RGBAAt(1, 2); c != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("pixel = %v", c)
	}

	if ToRGBA(parent) != parent {
		t.Error("origin-based RGBA image was copied")
	}
}

func TestDefaultDir(t *testing.T) {
	if DefaultDir().FS() == nil {
		t.Error("DefaultDir has no file system")
	}
}
