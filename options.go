package spritebatch

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/spritebatch/shader"
)

// Option configures a Renderer during creation.
// Use functional options to customize Renderer behavior.
//
// Example:
//
//	// Textures from the default asset directory, BGRA8 swapchain
//	r, err := spritebatch.New(dev, spritebatch.WithLoader(assets.DefaultDir()))
//
//	// Offscreen RGBA target with room for 4096 sprites up front
//	r, err := spritebatch.New(dev,
//		spritebatch.WithTargetFormat(gputypes.TextureFormatRGBA8Unorm),
//		spritebatch.WithInitialCapacity(4096))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	loader   ImageLoader
	format   gputypes.TextureFormat
	capacity int
	program  shader.Program
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		loader:   nil, // Flush fails with ErrNoLoader on the first texture miss
		format:   gputypes.TextureFormatBGRA8Unorm,
		capacity: 0, // Instance buffer is created on the first non-empty flush
		program:  shader.Default(),
	}
}

// WithLoader sets the namespace texture ids are resolved against.
//
// Example:
//
//	r, err := spritebatch.New(dev, spritebatch.WithLoader(assets.NewDir("testdata")))
func WithLoader(l ImageLoader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithTargetFormat sets the color format of the targets the renderer will
// draw into. It must match the format of every Target passed to Flush.
// The default is BGRA8Unorm, the common swapchain format.
func WithTargetFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithInitialCapacity preallocates the instance buffer for n sprites.
// Non-positive values are ignored.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithShaders replaces the embedded sprite program, for example with one
// loaded by shader.Load from the asset directory. The replacement must keep
// the instance layout and bind group slots of the default program.
func WithShaders(p shader.Program) Option {
	return func(o *options) {
		o.program = p
	}
}
