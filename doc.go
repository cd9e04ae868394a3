// Package spritebatch draws large numbers of 2D sprites with few GPU draw
// calls.
//
// # Overview
//
// A sprite is a textured quad with a position, a size, a tint and a
// rotation. Sprites are queued during a frame and drawn by Flush, which
// uploads all of them into one instance buffer and records one instanced
// draw per maximal run of consecutive sprites that share a texture.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/spritebatch"
//		"github.com/gogpu/spritebatch/assets"
//		"github.com/gogpu/spritebatch/backend/wgpu"
//	)
//
//	dev, err := wgpu.Open(wgpu.BackendVulkan)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	r, err := spritebatch.New(dev, spritebatch.WithLoader(assets.DefaultDir()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Destroy(dev)
//
//	r.Add(spritebatch.V2(0, 0), spritebatch.V2(32, 32), "cat.png")
//	r.Add(spritebatch.V2(32, 0), spritebatch.V2(32, 32), "cat.png")
//	r.Add(spritebatch.V2(64, 0), spritebatch.V2(32, 32), "dog.png")
//
//	target, err := dev.NewOffscreen(640, 480, r.Format())
//	if err != nil {
//		log.Fatal(err)
//	}
//	frame, err := dev.BeginFrame(target, spritebatch.Hex("#000033"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := r.Flush(dev, frame); err != nil { // 2 draw calls
//		log.Fatal(err)
//	}
//	if err := frame.Submit(); err != nil {
//		log.Fatal(err)
//	}
//	dev.Poll() // release retired buffers once the GPU is done
//
// # Batching
//
// Only adjacent sprites are merged. Queue order is draw order and is never
// changed, so the queue [A A B A] is drawn with three calls. Callers that
// want fewer calls group their sprites by texture before queuing them.
//
// # Coordinate System
//
// Positions and sizes are in pixels of the render target:
//   - Origin (0,0) at bottom-left
//   - X increases right
//   - Y increases up
//   - Position is the sprite's bottom-left corner
//   - Rotation is in radians, counter-clockwise, around the sprite center
//
// # Textures
//
// Texture ids are resolved through an ImageLoader the first time they are
// drawn and stay on the GPU until Destroy. Images are sampled with point
// filtering and blended as premultiplied alpha.
//
// # GPU Backends
//
// The renderer talks to the GPU through the narrow Device, Target and Pass
// interfaces. backend/wgpu implements them on top of gogpu/wgpu's HAL
// (Vulkan, Metal, DX12, GLES, and a noop backend for headless use).
//
// # Logging
//
// Logging is disabled by default. Use SetLogger to enable it.
package spritebatch
