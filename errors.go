package spritebatch

import "errors"

// Renderer errors.
var (
	// ErrTextureLoad is returned by Flush when a texture referenced by a
	// queued sprite cannot be loaded or decoded. The frame is discarded.
	ErrTextureLoad = errors.New("spritebatch: texture load failed")

	// ErrNoLoader is returned by Flush when a texture must be loaded but the
	// renderer was created without WithLoader.
	ErrNoLoader = errors.New("spritebatch: no image loader configured")

	// ErrNilDevice is returned when a nil Device is passed to New or Flush.
	ErrNilDevice = errors.New("spritebatch: nil device")

	// ErrNilTarget is returned when Flush has sprites to draw but no target.
	ErrNilTarget = errors.New("spritebatch: nil target")

	// ErrDestroyed is returned when a destroyed renderer is flushed.
	ErrDestroyed = errors.New("spritebatch: renderer destroyed")
)
