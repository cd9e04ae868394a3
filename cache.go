package spritebatch

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// ImageLoader resolves a texture id to decoded pixels. The returned image
// holds premultiplied RGBA, as image.RGBA always does.
//
// The assets package provides file-system and in-memory implementations.
type ImageLoader interface {
	LoadImage(name string) (*image.RGBA, error)
}

// ImageLoaderFunc adapts a function to the ImageLoader interface.
type ImageLoaderFunc func(name string) (*image.RGBA, error)

// LoadImage calls f(name).
func (f ImageLoaderFunc) LoadImage(name string) (*image.RGBA, error) {
	return f(name)
}

// textureBinding is the GPU side of one texture id: the texture, its view
// and the bind group (view + shared sampler) used at group 1.
type textureBinding struct {
	texture TextureID
	view    TextureViewID
	group   BindGroupID
	width   uint32
	height  uint32
}

// textureCache maps texture ids to their bindings. Entries are created on
// first use and live until release; there is no eviction.
type textureCache struct {
	layout  BindGroupLayoutID
	sampler SamplerID
	loader  ImageLoader

	entries map[string]*textureBinding
}

func newTextureCache(layout BindGroupLayoutID, sampler SamplerID, loader ImageLoader) *textureCache {
	return &textureCache{
		layout:  layout,
		sampler: sampler,
		loader:  loader,
		entries: make(map[string]*textureBinding),
	}
}

// Len returns the number of cached textures.
func (c *textureCache) Len() int {
	return len(c.entries)
}

// resolve returns the binding for id, loading and uploading the image on
// the first request. A hit does no device work.
func (c *textureCache) resolve(dev Device, id string) (*textureBinding, error) {
	if b, ok := c.entries[id]; ok {
		return b, nil
	}
	if c.loader == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, id)
	}

	img, err := c.loader.LoadImage(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrTextureLoad, id, err)
	}
	if img == nil || img.Rect.Empty() {
		return nil, fmt.Errorf("%w: %q: empty image", ErrTextureLoad, id)
	}

	b, err := c.upload(dev, id, img)
	if err != nil {
		return nil, err
	}
	c.entries[id] = b

	Logger().Debug("spritebatch: texture loaded",
		"id", id, "width", b.width, "height", b.height, "cached", len(c.entries))
	return b, nil
}

// upload creates the texture, view and bind group for img. On failure every
// resource created so far is destroyed.
func (c *textureCache) upload(dev Device, id string, img *image.RGBA) (*textureBinding, error) {
	w := uint32(img.Rect.Dx()) //nolint:gosec // image bounds are non-negative
	h := uint32(img.Rect.Dy()) //nolint:gosec // image bounds are non-negative

	tex, err := dev.CreateTexture(&TextureDesc{
		Label:  "sprite_texture:" + id,
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("spritebatch: create texture %q: %w", id, err)
	}
	if err := dev.WriteTexture(tex, w, h, tightPixels(img)); err != nil {
		dev.DestroyTexture(tex)
		return nil, fmt.Errorf("spritebatch: upload texture %q: %w", id, err)
	}

	view, err := dev.CreateTextureView(tex)
	if err != nil {
		dev.DestroyTexture(tex)
		return nil, fmt.Errorf("spritebatch: create texture view %q: %w", id, err)
	}

	group, err := dev.CreateBindGroup("sprite_texture_bind:"+id, c.layout, []BindGroupEntry{
		{Binding: 0, TextureView: view},
		{Binding: 1, Sampler: c.sampler},
	})
	if err != nil {
		dev.DestroyTextureView(view)
		dev.DestroyTexture(tex)
		return nil, fmt.Errorf("spritebatch: create texture bind group %q: %w", id, err)
	}

	return &textureBinding{texture: tex, view: view, group: group, width: w, height: h}, nil
}

// release destroys every cached binding and empties the cache.
func (c *textureCache) release(dev Device) {
	for id, b := range c.entries {
		dev.DestroyBindGroup(b.group)
		dev.DestroyTextureView(b.view)
		dev.DestroyTexture(b.texture)
		delete(c.entries, id)
	}
}

// tightPixels returns img's pixels with rows packed back to back.
// Sub-images share their parent's stride and need repacking.
func tightPixels(img *image.RGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	row := w * 4
	if img.Stride == row && len(img.Pix) == row*h {
		return img.Pix
	}
	out := make([]byte, row*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out[y*row:(y+1)*row], img.Pix[off:off+row])
	}
	return out
}
