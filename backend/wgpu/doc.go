// Package wgpu provides the GPU backend of the sprite batcher using gogpu/wgpu.
//
// It implements spritebatch.Device directly on the wgpu HAL. Every resource
// the renderer creates is tracked under an opaque ID and translated back to
// its HAL object when a command is recorded.
//
// # Opening a Device
//
// Standalone, picking a discrete or integrated GPU when there is one:
//
//	dev, err := wgpu.Open(wgpu.BackendVulkan)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close()
//
// Headless, for tests and CI machines without a GPU:
//
//	dev, err := wgpu.Open(wgpu.BackendNoop)
//
// Sharing the device of a host application (for example a gogpu window):
//
//	dev, err := wgpu.FromProvider(app.DeviceProvider())
//	r, err := spritebatch.New(dev,
//	    spritebatch.WithTargetFormat(wgpu.SurfaceFormat(app.DeviceProvider(), gputypes.TextureFormatBGRA8Unorm)))
//
// # Frames
//
// A Frame is one render pass into a Surface, cleared to a background tint.
// It implements spritebatch.Target, so it is what Renderer.Flush records
// into:
//
//	target, _ := dev.NewOffscreen(640, 480, gputypes.TextureFormatBGRA8Unorm)
//	frame, err := dev.BeginFrame(target, spritebatch.RGBf(0, 0, 0.2))
//	if err != nil {
//	    return err
//	}
//	if err := r.Flush(dev, frame); err != nil {
//	    frame.Discard()
//	    return err
//	}
//	if err := frame.Submit(); err != nil {
//	    return err
//	}
//	dev.Poll()
//
// # Deferred Release
//
// Resources the renderer retires during a frame, such as an instance buffer
// that was replaced by a larger one, may still be read by commands in
// flight. Frame.AfterSubmit ties each release to the frame's submission
// index. Device.Poll runs the releases of every completed submission and
// Device.Wait blocks until the GPU is idle and runs all of them.
//
// # Thread Safety
//
// Device is safe for concurrent use. A Frame belongs to the goroutine that
// began it.
//
// # Error Handling
//
// Errors returned by this package:
//
//   - ErrUnknownResource: an ID does not name a live resource
//   - ErrClosed: the device has been closed
//   - ErrFrameSubmitted: a frame was submitted twice
//   - ErrNoAdapter: the backend exposes no adapters
//
// Queue write failures are returned wrapped, with the HAL error as the
// cause. Writes to unknown IDs return ErrUnknownResource.
package wgpu
