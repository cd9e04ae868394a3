//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/spritebatch"
)

// ErrFrameSubmitted is returned when a frame is used after Submit.
var ErrFrameSubmitted = errors.New("wgpu: frame already submitted")

// Offscreen is a render-attachment texture that frames can draw into
// without a window surface.
type Offscreen struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
	format  gputypes.TextureFormat
}

// NewOffscreen creates a width x height color target in format.
func (d *Device) NewOffscreen(width, height uint32, format gputypes.TextureFormat) (*Offscreen, error) {
	if width == 0 || height == 0 {
		return nil, errors.New("wgpu: offscreen dimensions must be positive")
	}
	texture, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_offscreen",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create offscreen texture: %w", err)
	}
	view, err := d.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:           "sprite_offscreen_view",
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(texture)
		return nil, fmt.Errorf("wgpu: create offscreen view: %w", err)
	}
	return &Offscreen{texture: texture, view: view, width: width, height: height, format: format}, nil
}

// Size returns the target size in pixels.
func (o *Offscreen) Size() (width, height uint32) { return o.width, o.height }

// Format returns the color format of the target.
func (o *Offscreen) Format() gputypes.TextureFormat { return o.format }

// View returns the HAL view frames render into.
func (o *Offscreen) View() hal.TextureView { return o.view }

// Destroy releases the texture. The GPU must be idle.
func (o *Offscreen) Destroy(d *Device) {
	if o.view != nil {
		d.device.DestroyTextureView(o.view)
		o.view = nil
	}
	if o.texture != nil {
		d.device.DestroyTexture(o.texture)
		o.texture = nil
	}
}

// Surface is anything a frame can render into: an Offscreen or a view
// acquired from a window surface by the host.
type Surface interface {
	Size() (width, height uint32)
	View() hal.TextureView
}

// Frame is one render pass into a Surface. It implements spritebatch.Target.
//
// Usage:
//
//	frame, err := dev.BeginFrame(target, spritebatch.Black)
//	if err != nil {
//		return err
//	}
//	if err := r.Flush(dev, frame); err != nil {
//		frame.Discard()
//		return err
//	}
//	return frame.Submit()
type Frame struct {
	dev      *Device
	width    uint32
	height   uint32
	encoder  hal.CommandEncoder
	pass     *framePass
	releases []func()
	done     bool
	retireAt uint64 // submission index releases wait for once done
}

var _ spritebatch.Target = (*Frame)(nil)

// BeginFrame starts a render pass into surface, cleared to background.
func (d *Device) BeginFrame(surface Surface, background spritebatch.Tint) (*Frame, error) {
	if surface == nil || surface.View() == nil {
		return nil, errors.New("wgpu: nil surface")
	}
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_frame"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("sprite_frame"); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       surface.View(),
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue(background),
			},
		},
	})

	w, h := surface.Size()
	return &Frame{
		dev:     d,
		width:   w,
		height:  h,
		encoder: encoder,
		pass:    &framePass{dev: d, rp: rp},
	}, nil
}

// clearValue converts a straight-alpha tint to a premultiplied clear color.
func clearValue(t spritebatch.Tint) gputypes.Color {
	a := float64(t.A) / 255
	return gputypes.Color{
		R: float64(t.R) / 255 * a,
		G: float64(t.G) / 255 * a,
		B: float64(t.B) / 255 * a,
		A: a,
	}
}

// Size returns the surface size in pixels.
func (f *Frame) Size() (width, height uint32) { return f.width, f.height }

// Pass returns the render pass recording into the surface.
func (f *Frame) Pass() spritebatch.Pass { return f.pass }

// AfterSubmit schedules release to run once the frame's commands have
// completed on the GPU.
//
// A frame that is discarded or fails to submit still holds its releases
// until every earlier submission completes: a retired resource may be
// read by a frame already in flight.
func (f *Frame) AfterSubmit(release func()) {
	if f.done {
		f.dev.deferRelease(f.retireAt, release)
		return
	}
	f.releases = append(f.releases, release)
}

// Submit ends the pass and submits the frame to the queue.
func (f *Frame) Submit() error {
	if f.done {
		return ErrFrameSubmitted
	}
	f.done = true
	f.pass.end()

	cmd, err := f.encoder.EndEncoding()
	if err != nil {
		f.retire(f.dev.lastSubmission())
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	index, err := f.dev.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		f.dev.device.FreeCommandBuffer(cmd)
		f.retire(f.dev.lastSubmission())
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	f.dev.submitted(index)

	dev := f.dev.device
	f.dev.deferRelease(index, func() { dev.FreeCommandBuffer(cmd) })
	f.retire(index)
	return nil
}

// Discard abandons the frame without submitting it.
func (f *Frame) Discard() {
	if f.done {
		return
	}
	f.done = true
	f.pass.end()
	f.encoder.DiscardEncoding()
	f.retire(f.dev.lastSubmission())
}

// retire hands the frame's releases to the device, to run once submission
// index completes.
func (f *Frame) retire(index uint64) {
	f.retireAt = index
	for _, release := range f.releases {
		f.dev.deferRelease(index, release)
	}
	f.releases = nil
}

// framePass translates IDs to HAL objects as commands are recorded.
type framePass struct {
	dev   *Device
	rp    hal.RenderPassEncoder
	ended bool
}

func (p *framePass) SetPipeline(id spritebatch.RenderPipelineID) {
	p.dev.mu.RLock()
	entry, ok := p.dev.pipelines[id]
	p.dev.mu.RUnlock()
	if !ok {
		spritebatch.Logger().Warn("wgpu: unknown pipeline", "id", id)
		return
	}
	p.rp.SetPipeline(entry.pipeline)
}

func (p *framePass) SetBindGroup(index uint32, id spritebatch.BindGroupID) {
	p.dev.mu.RLock()
	group, ok := p.dev.bindGroups[id]
	p.dev.mu.RUnlock()
	if !ok {
		spritebatch.Logger().Warn("wgpu: unknown bind group", "id", id)
		return
	}
	p.rp.SetBindGroup(index, group, nil)
}

func (p *framePass) SetVertexBuffer(slot uint32, id spritebatch.BufferID) {
	p.dev.mu.RLock()
	buffer, ok := p.dev.buffers[id]
	p.dev.mu.RUnlock()
	if !ok {
		spritebatch.Logger().Warn("wgpu: unknown vertex buffer", "id", id)
		return
	}
	p.rp.SetVertexBuffer(slot, buffer, 0)
}

func (p *framePass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.rp.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *framePass) end() {
	if !p.ended {
		p.ended = true
		p.rp.End()
	}
}

// === Deferred release ===

// deferRelease queues release until submission completes.
func (d *Device) deferRelease(submission uint64, release func()) {
	d.pendingMu.Lock()
	d.pending = append(d.pending, pendingRelease{submission: submission, release: release})
	d.pendingMu.Unlock()
}

// submitted records index as the latest submission.
func (d *Device) submitted(index uint64) {
	d.pendingMu.Lock()
	d.lastSubmitted = max(d.lastSubmitted, index)
	d.pendingMu.Unlock()
}

// lastSubmission returns the index of the latest submission, or 0 before
// the first one.
func (d *Device) lastSubmission() uint64 {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return d.lastSubmitted
}

// Pending returns the number of releases waiting for the GPU.
func (d *Device) Pending() int {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	return len(d.pending)
}

// Poll runs the releases whose submissions the GPU has completed and
// returns how many ran. Call it once per frame.
func (d *Device) Poll() int {
	completed := d.queue.PollCompleted()
	return d.runPending(func(p pendingRelease) bool { return p.submission <= completed })
}

// Wait blocks until the GPU is idle, then runs every pending release.
func (d *Device) Wait() error {
	err := d.device.WaitIdle()
	if err != nil {
		err = fmt.Errorf("wgpu: wait idle: %w", err)
	}
	d.runPending(func(pendingRelease) bool { return true })
	return err
}

func (d *Device) runPending(ready func(pendingRelease) bool) int {
	d.pendingMu.Lock()
	var run []func()
	kept := d.pending[:0]
	for _, p := range d.pending {
		if ready(p) {
			run = append(run, p.release)
		} else {
			kept = append(kept, p)
		}
	}
	clear(d.pending[len(kept):])
	d.pending = kept
	d.pendingMu.Unlock()

	// Releases call back into the device, so run them unlocked.
	for _, release := range run {
		release()
	}
	return len(run)
}
