// Package assets resolves sprite texture ids to decoded images.
//
// A texture id is a slash-separated path relative to an asset directory,
// e.g. "cat.png" or "ui/score.bmp". [Dir] reads ids from a file system,
// [Memory] serves images generated at run time, and [Chain] tries several
// loaders in order. All three satisfy spritebatch.ImageLoader.
//
// Supported formats: PNG, JPEG, GIF, BMP, TIFF and WebP.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultDirName is the asset directory next to the executable.
const DefaultDirName = "Assets"

// Asset errors.
var (
	// ErrInvalidName is returned for ids that are empty or escape the
	// asset directory.
	ErrInvalidName = errors.New("assets: invalid name")

	// ErrDecode is returned when a file exists but is not a decodable image.
	ErrDecode = errors.New("assets: decode image")
)

// Loader is the image lookup every asset source provides. It has the same
// method set as spritebatch.ImageLoader.
type Loader interface {
	LoadImage(name string) (*image.RGBA, error)
}

// Dir loads assets from a directory tree.
type Dir struct {
	fsys fs.FS
}

// NewDir returns a Dir rooted at the OS directory dir.
func NewDir(dir string) *Dir {
	return &Dir{fsys: os.DirFS(filepath.Clean(dir))}
}

// FromFS returns a Dir reading from fsys, e.g. an embed.FS.
func FromFS(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// DefaultDir returns the Assets directory next to the running executable,
// or ./Assets if the executable path is unknown.
func DefaultDir() *Dir {
	exe, err := os.Executable()
	if err != nil {
		return NewDir(DefaultDirName)
	}
	return NewDir(filepath.Join(filepath.Dir(exe), DefaultDirName))
}

// FS returns the underlying file system, for loaders of other asset kinds
// such as shader.Load.
func (d *Dir) FS() fs.FS {
	return d.fsys
}

// ReadFile returns the raw contents of the asset name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	p, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(d.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("assets: read %q: %w", name, err)
	}
	return data, nil
}

// LoadImage reads and decodes the image asset name.
func (d *Dir) LoadImage(name string) (*image.RGBA, error) {
	data, err := d.ReadFile(name)
	if err != nil {
		return nil, err
	}
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return img, nil
}

// Decode decodes an image in any registered format and converts it to
// premultiplied RGBA.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as an *image.RGBA with bounds starting at (0,0).
// An *image.RGBA already at the origin is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// cleanName converts a texture id to an fs.FS path.
func cleanName(name string) (string, error) {
	p := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || !fs.ValidPath(p) || p == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return p, nil
}
