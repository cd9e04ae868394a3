//go:build !nogpu

package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/spritebatch"
)

// Device errors.
var (
	// ErrUnknownResource is returned when an ID does not name a live
	// resource of the expected kind.
	ErrUnknownResource = errors.New("wgpu: unknown resource")

	// ErrClosed is returned when a closed device is used.
	ErrClosed = errors.New("wgpu: device closed")
)

type textureEntry struct {
	texture hal.Texture
	format  gputypes.TextureFormat
	width   uint32
	height  uint32
}

type pipelineEntry struct {
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
}

// Device implements spritebatch.Device using hal.Device directly.
// Opaque IDs handed to the renderer map to HAL objects held here.
//
// Thread Safety: Device is safe for concurrent use from multiple
// goroutines. All resource maps are protected by a mutex.
type Device struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	// Set when the device was opened by Open and must be destroyed by Close.
	instance hal.Instance
	owned    bool
	info     gputypes.AdapterInfo
	closed   bool

	// ID generation
	nextID atomic.Uint64

	buffers          map[spritebatch.BufferID]hal.Buffer
	textures         map[spritebatch.TextureID]textureEntry
	views            map[spritebatch.TextureViewID]hal.TextureView
	samplers         map[spritebatch.SamplerID]hal.Sampler
	bindGroupLayouts map[spritebatch.BindGroupLayoutID]hal.BindGroupLayout
	bindGroups       map[spritebatch.BindGroupID]hal.BindGroup
	shaderModules    map[spritebatch.ShaderModuleID]hal.ShaderModule
	pipelines        map[spritebatch.RenderPipelineID]pipelineEntry

	// Releases waiting for a submission to complete, and the index of the
	// latest submission.
	pendingMu     sync.Mutex
	pending       []pendingRelease
	lastSubmitted uint64
}

type pendingRelease struct {
	submission uint64
	release    func()
}

var _ spritebatch.Device = (*Device)(nil)

// FromHAL wraps an open HAL device and queue. The caller keeps ownership:
// Close releases only the resources created through the wrapper.
func FromHAL(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("wgpu: nil HAL device or queue")
	}
	return newDevice(device, queue), nil
}

func newDevice(device hal.Device, queue hal.Queue) *Device {
	d := &Device{
		device:           device,
		queue:            queue,
		buffers:          make(map[spritebatch.BufferID]hal.Buffer),
		textures:         make(map[spritebatch.TextureID]textureEntry),
		views:            make(map[spritebatch.TextureViewID]hal.TextureView),
		samplers:         make(map[spritebatch.SamplerID]hal.Sampler),
		bindGroupLayouts: make(map[spritebatch.BindGroupLayoutID]hal.BindGroupLayout),
		bindGroups:       make(map[spritebatch.BindGroupID]hal.BindGroup),
		shaderModules:    make(map[spritebatch.ShaderModuleID]hal.ShaderModule),
		pipelines:        make(map[spritebatch.RenderPipelineID]pipelineEntry),
	}

	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)
	return d
}

// newID generates a unique resource ID.
func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// HAL returns the underlying HAL device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) {
	return d.device, d.queue
}

// AdapterInfo describes the adapter the device was opened on. It is the
// zero value for wrapped devices.
func (d *Device) AdapterInfo() gputypes.AdapterInfo {
	return d.info
}

// === Buffers ===

// CreateBuffer creates a GPU buffer.
func (d *Device) CreateBuffer(desc *spritebatch.BufferDesc) (spritebatch.BufferID, error) {
	if desc == nil || desc.Size == 0 {
		return spritebatch.InvalidID, errors.New("wgpu: buffer size must be positive")
	}
	buffer, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}

	id := spritebatch.BufferID(d.newID())
	d.mu.Lock()
	d.buffers[id] = buffer
	d.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (d *Device) DestroyBuffer(id spritebatch.BufferID) {
	d.mu.Lock()
	buffer, ok := d.buffers[id]
	delete(d.buffers, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(buffer)
	}
}

// WriteBuffer writes data to a buffer.
func (d *Device) WriteBuffer(id spritebatch.BufferID, offset uint64, data []byte) error {
	d.mu.RLock()
	buffer, ok := d.buffers[id]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(buffer, offset, data); err != nil {
		return fmt.Errorf("wgpu: write buffer %d (%d bytes at %d): %w", id, len(data), offset, err)
	}
	return nil
}

// === Textures ===

// CreateTexture creates a single-mip 2D texture.
func (d *Device) CreateTexture(desc *spritebatch.TextureDesc) (spritebatch.TextureID, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return spritebatch.InvalidID, errors.New("wgpu: texture dimensions must be positive")
	}
	texture, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}

	id := spritebatch.TextureID(d.newID())
	d.mu.Lock()
	d.textures[id] = textureEntry{texture: texture, format: desc.Format, width: desc.Width, height: desc.Height}
	d.mu.Unlock()
	return id, nil
}

// DestroyTexture releases a GPU texture.
func (d *Device) DestroyTexture(id spritebatch.TextureID) {
	d.mu.Lock()
	entry, ok := d.textures[id]
	delete(d.textures, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyTexture(entry.texture)
	}
}

// WriteTexture uploads tightly packed RGBA8 pixels covering the texture.
func (d *Device) WriteTexture(id spritebatch.TextureID, width, height uint32, pixels []byte) error {
	d.mu.RLock()
	entry, ok := d.textures[id]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if len(pixels) == 0 {
		return nil
	}
	err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  entry.texture,
			MipLevel: 0,
			Aspect:   gputypes.TextureAspectAll,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("wgpu: write texture %d (%dx%d): %w", id, width, height, err)
	}
	return nil
}

// CreateTextureView creates a full view of a texture.
func (d *Device) CreateTextureView(texture spritebatch.TextureID) (spritebatch.TextureViewID, error) {
	d.mu.RLock()
	entry, ok := d.textures[texture]
	d.mu.RUnlock()
	if !ok {
		return spritebatch.InvalidID, fmt.Errorf("%w: texture %d", ErrUnknownResource, texture)
	}

	view, err := d.device.CreateTextureView(entry.texture, &hal.TextureViewDescriptor{
		Format:          entry.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create texture view: %w", err)
	}

	id := spritebatch.TextureViewID(d.newID())
	d.mu.Lock()
	d.views[id] = view
	d.mu.Unlock()
	return id, nil
}

// DestroyTextureView releases a texture view.
func (d *Device) DestroyTextureView(id spritebatch.TextureViewID) {
	d.mu.Lock()
	view, ok := d.views[id]
	delete(d.views, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyTextureView(view)
	}
}

// === Samplers ===

// CreateSampler creates a sampler without mipmapping.
func (d *Device) CreateSampler(desc *spritebatch.SamplerDesc) (spritebatch.SamplerID, error) {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressMode,
		AddressModeV: desc.AddressMode,
		AddressModeW: desc.AddressMode,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
	}

	id := spritebatch.SamplerID(d.newID())
	d.mu.Lock()
	d.samplers[id] = sampler
	d.mu.Unlock()
	return id, nil
}

// DestroySampler releases a sampler.
func (d *Device) DestroySampler(id spritebatch.SamplerID) {
	d.mu.Lock()
	sampler, ok := d.samplers[id]
	delete(d.samplers, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroySampler(sampler)
	}
}

// === Bind groups ===

// CreateBindGroupLayout creates a bind group layout.
func (d *Device) CreateBindGroupLayout(label string, entries []gputypes.BindGroupLayoutEntry) (spritebatch.BindGroupLayoutID, error) {
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create bind group layout %q: %w", label, err)
	}

	id := spritebatch.BindGroupLayoutID(d.newID())
	d.mu.Lock()
	d.bindGroupLayouts[id] = layout
	d.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id spritebatch.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	delete(d.bindGroupLayouts, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// CreateBindGroup creates a bind group.
func (d *Device) CreateBindGroup(label string, layoutID spritebatch.BindGroupLayoutID, entries []spritebatch.BindGroupEntry) (spritebatch.BindGroupID, error) {
	d.mu.RLock()
	layout, ok := d.bindGroupLayouts[layoutID]
	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	var convErr error
	for i, e := range entries {
		halEntries[i], convErr = d.convertBindGroupEntry(e)
		if convErr != nil {
			break
		}
	}
	d.mu.RUnlock()

	if !ok {
		return spritebatch.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, layoutID)
	}
	if convErr != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: bind group %q: %w", label, convErr)
	}

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: halEntries,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create bind group %q: %w", label, err)
	}

	id := spritebatch.BindGroupID(d.newID())
	d.mu.Lock()
	d.bindGroups[id] = group
	d.mu.Unlock()
	return id, nil
}

// convertBindGroupEntry converts an entry to its HAL form.
// Must be called with d.mu held.
func (d *Device) convertBindGroupEntry(e spritebatch.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	out := gputypes.BindGroupEntry{Binding: e.Binding}
	switch {
	case e.Buffer != spritebatch.InvalidID:
		buffer, ok := d.buffers[e.Buffer]
		if !ok {
			return out, fmt.Errorf("%w: buffer %d", ErrUnknownResource, e.Buffer)
		}
		out.Resource = gputypes.BufferBinding{Buffer: buffer.NativeHandle(), Offset: e.Offset, Size: e.Size}
	case e.TextureView != spritebatch.InvalidID:
		view, ok := d.views[e.TextureView]
		if !ok {
			return out, fmt.Errorf("%w: texture view %d", ErrUnknownResource, e.TextureView)
		}
		out.Resource = gputypes.TextureViewBinding{TextureView: view.NativeHandle()}
	case e.Sampler != spritebatch.InvalidID:
		sampler, ok := d.samplers[e.Sampler]
		if !ok {
			return out, fmt.Errorf("%w: sampler %d", ErrUnknownResource, e.Sampler)
		}
		out.Resource = gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}
	default:
		return out, fmt.Errorf("binding %d has no resource", e.Binding)
	}
	return out, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id spritebatch.BindGroupID) {
	d.mu.Lock()
	group, ok := d.bindGroups[id]
	delete(d.bindGroups, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroup(group)
	}
}

// === Shaders and pipelines ===

// CreateShaderModule creates a shader module from SPIR-V bytecode.
func (d *Device) CreateShaderModule(label string, spirv []uint32) (spritebatch.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return spritebatch.InvalidID, errors.New("wgpu: empty SPIR-V bytecode")
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create shader module %q: %w", label, err)
	}

	id := spritebatch.ShaderModuleID(d.newID())
	d.mu.Lock()
	d.shaderModules[id] = module
	d.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id spritebatch.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	delete(d.shaderModules, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// CreateRenderPipeline creates a render pipeline and the pipeline layout
// it is built on. Both are released by DestroyRenderPipeline.
func (d *Device) CreateRenderPipeline(desc *spritebatch.RenderPipelineDesc) (spritebatch.RenderPipelineID, error) {
	d.mu.RLock()
	layouts := make([]hal.BindGroupLayout, 0, len(desc.Layouts))
	var missing error
	for _, lid := range desc.Layouts {
		l, ok := d.bindGroupLayouts[lid]
		if !ok {
			missing = fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, lid)
			break
		}
		layouts = append(layouts, l)
	}
	vert, vok := d.shaderModules[desc.Vertex.Module]
	frag, fok := d.shaderModules[desc.Fragment.Module]
	d.mu.RUnlock()

	if missing != nil {
		return spritebatch.InvalidID, missing
	}
	if !vok || !fok {
		return spritebatch.InvalidID, fmt.Errorf("%w: shader module", ErrUnknownResource)
	}

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create pipeline layout %q: %w", desc.Label, err)
	}

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     vert,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    desc.Buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     frag,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    desc.Format,
					Blend:     desc.Blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		d.device.DestroyPipelineLayout(pipeLayout)
		return spritebatch.InvalidID, fmt.Errorf("wgpu: create render pipeline %q: %w", desc.Label, err)
	}

	id := spritebatch.RenderPipelineID(d.newID())
	d.mu.Lock()
	d.pipelines[id] = pipelineEntry{pipeline: pipeline, layout: pipeLayout}
	d.mu.Unlock()
	return id, nil
}

// DestroyRenderPipeline releases a render pipeline and its layout.
func (d *Device) DestroyRenderPipeline(id spritebatch.RenderPipelineID) {
	d.mu.Lock()
	entry, ok := d.pipelines[id]
	delete(d.pipelines, id)
	d.mu.Unlock()

	if ok {
		d.device.DestroyRenderPipeline(entry.pipeline)
		d.device.DestroyPipelineLayout(entry.layout)
	}
}

// === Lifetime ===

// Live returns the number of resources created through the device and not
// yet destroyed.
func (d *Device) Live() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.buffers) + len(d.textures) + len(d.views) + len(d.samplers) +
		len(d.bindGroupLayouts) + len(d.bindGroups) + len(d.shaderModules) + len(d.pipelines)
}

// Close waits for the GPU, runs pending releases and destroys the device if
// it was opened by Open. Resources still alive are logged and destroyed.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := d.Wait()

	if n := d.Live(); n > 0 {
		spritebatch.Logger().Warn("wgpu: closing device with live resources", "count", n)
		d.destroyAll()
	}

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	return err
}

// destroyAll releases every tracked resource in reverse dependency order.
func (d *Device) destroyAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, e := range d.pipelines {
		d.device.DestroyRenderPipeline(e.pipeline)
		d.device.DestroyPipelineLayout(e.layout)
		delete(d.pipelines, id)
	}
	for id, g := range d.bindGroups {
		d.device.DestroyBindGroup(g)
		delete(d.bindGroups, id)
	}
	for id, l := range d.bindGroupLayouts {
		d.device.DestroyBindGroupLayout(l)
		delete(d.bindGroupLayouts, id)
	}
	for id, m := range d.shaderModules {
		d.device.DestroyShaderModule(m)
		delete(d.shaderModules, id)
	}
	for id, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, id)
	}
	for id, v := range d.views {
		d.device.DestroyTextureView(v)
		delete(d.views, id)
	}
	for id, t := range d.textures {
		d.device.DestroyTexture(t.texture)
		delete(d.textures, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b)
		delete(d.buffers, id)
	}
}
