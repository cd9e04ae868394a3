package spritebatch

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Bind group slots used by the sprite program.
const (
	projectionGroup = 0 // projection uniform
	textureGroup    = 1 // sprite texture + sampler
)

// quadVertices is the vertex count of one sprite drawn as a triangle strip.
const quadVertices = 4

// FrameStats describes the most recent non-empty Flush.
type FrameStats struct {
	Sprites        int    // sprites drawn
	DrawCalls      int    // instanced draws recorded, one per texture run
	BufferCapacity uint64 // instance buffer size in bytes
	CachedTextures int    // texture bindings held by the cache
}

// Renderer batches sprites into instanced draw calls.
//
// Sprites are queued with Add, AddEx or AddSprite and drawn by Flush, which
// issues one draw per maximal run of consecutive sprites sharing a texture.
// Draw order is queue order; nothing is sorted.
//
// The renderer owns its GPU resources (pipeline, layouts, sampler, buffers,
// cached textures) but never stores the Device or Target it is handed: both
// are borrowed for the duration of each call.
//
// A Renderer is not safe for concurrent use.
type Renderer struct {
	queue Queue

	format     gputypes.TextureFormat
	vertMod    ShaderModuleID
	fragMod    ShaderModuleID
	projLayout BindGroupLayoutID
	texLayout  BindGroupLayoutID
	pipeline   RenderPipelineID
	sampler    SamplerID
	projBuf    BufferID
	projGroup  BindGroupID

	instances instanceBuffer
	textures  *textureCache

	// Per-flush scratch, reused across frames.
	encoded  []byte
	runs     []Run
	bindings []BindGroupID

	stats     FrameStats
	destroyed bool
}

// New creates a renderer and its GPU resources on dev.
//
// Example:
//
//	r, err := spritebatch.New(dev, spritebatch.WithLoader(assets.DefaultDir()))
//	if err != nil {
//		return err
//	}
//	defer r.Destroy(dev)
func New(dev Device, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{format: o.format}
	if err := r.createResources(dev, &o); err != nil {
		r.Destroy(dev)
		return nil, err
	}
	r.textures = newTextureCache(r.texLayout, r.sampler, o.loader)

	if o.capacity > 0 {
		if err := r.instances.ensure(dev, uint64(o.capacity)*InstanceStride, nil); err != nil { //nolint:gosec // capacity > 0
			r.Destroy(dev)
			return nil, err
		}
	}
	return r, nil
}

// createResources compiles the program and creates the pipeline, layouts,
// sampler and projection uniform. IDs are stored as they are created so a
// failure part way through can be unwound by Destroy.
func (r *Renderer) createResources(dev Device, o *options) error {
	vert, err := o.program.Vertex.Compile()
	if err != nil {
		return err
	}
	frag, err := o.program.Fragment.Compile()
	if err != nil {
		return err
	}

	if r.vertMod, err = dev.CreateShaderModule("sprite_vertex", vert); err != nil {
		return fmt.Errorf("spritebatch: create vertex module: %w", err)
	}
	if r.fragMod, err = dev.CreateShaderModule("sprite_fragment", frag); err != nil {
		return fmt.Errorf("spritebatch: create fragment module: %w", err)
	}

	// Group 0:
	//   Binding 0: projection matrix (uniform buffer, vertex)
	r.projLayout, err = dev.CreateBindGroupLayout("sprite_projection_layout", []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create projection layout: %w", err)
	}

	// Group 1:
	//   Binding 0: sprite texture (texture_2d, fragment)
	//   Binding 1: sampler (fragment)
	r.texLayout, err = dev.CreateBindGroupLayout("sprite_texture_layout", []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create texture layout: %w", err)
	}

	// Point sampling keeps pixel art crisp.
	r.sampler, err = dev.CreateSampler(&SamplerDesc{
		Label:       "sprite_sampler",
		AddressMode: gputypes.AddressModeClampToEdge,
		MagFilter:   gputypes.FilterModeNearest,
		MinFilter:   gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create sampler: %w", err)
	}

	r.projBuf, err = dev.CreateBuffer(&BufferDesc{
		Label: "sprite_projection",
		Size:  projectionSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create projection buffer: %w", err)
	}
	r.projGroup, err = dev.CreateBindGroup("sprite_projection_bind", r.projLayout, []BindGroupEntry{
		{Binding: 0, Buffer: r.projBuf, Offset: 0, Size: projectionSize},
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create projection bind group: %w", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	r.pipeline, err = dev.CreateRenderPipeline(&RenderPipelineDesc{
		Label:    "sprite_pipeline",
		Layouts:  []BindGroupLayoutID{r.projLayout, r.texLayout},
		Vertex:   ShaderStage{Module: r.vertMod, EntryPoint: o.program.Vertex.EntryPoint},
		Fragment: ShaderStage{Module: r.fragMod, EntryPoint: o.program.Fragment.EntryPoint},
		Buffers:  instanceLayout(),
		Topology: gputypes.PrimitiveTopologyTriangleStrip,
		Format:   r.format,
		Blend:    &blend,
	})
	if err != nil {
		return fmt.Errorf("spritebatch: create pipeline: %w", err)
	}
	return nil
}

// instanceLayout returns the vertex buffer layout of the sprite records.
// The buffer advances once per instance; see InstanceStride.
func instanceLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: InstanceStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // size
				{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2}, // tint
				{Format: gputypes.VertexFormatFloat32, Offset: 20, ShaderLocation: 3},  // rotation
			},
		},
	}
}

// Add queues an untinted, unrotated sprite.
func (r *Renderer) Add(pos, size Vec2, texture string) {
	r.AddSprite(Sprite{Texture: texture, Position: pos, Size: size, Tint: White})
}

// AddEx queues a sprite with a tint and a rotation in radians.
func (r *Renderer) AddEx(pos, size Vec2, texture string, tint Tint, rotation float32) {
	r.AddSprite(Sprite{Texture: texture, Position: pos, Size: size, Tint: tint, Rotation: rotation})
}

// AddSprite queues s. It never touches the GPU.
func (r *Renderer) AddSprite(s Sprite) {
	checkSprite(&s)
	r.queue.Push(s)
}

// Len returns the number of sprites queued for the next Flush.
func (r *Renderer) Len() int {
	return r.queue.Len()
}

// Flush draws every queued sprite into target and empties the queue.
//
// All textures referenced by the queue are resolved first, so a texture
// that cannot be loaded fails the flush before anything is recorded. The
// queue is dropped on every return path: a failed frame is not retried.
//
// An empty queue is a no-op that touches neither dev nor target.
func (r *Renderer) Flush(dev Device, target Target) error {
	if r.queue.Len() == 0 {
		return nil
	}
	defer r.queue.Reset()

	if r.destroyed {
		return ErrDestroyed
	}
	if dev == nil {
		return ErrNilDevice
	}
	if target == nil {
		return ErrNilTarget
	}

	r.runs = r.queue.appendRuns(r.runs[:0])
	r.bindings = r.bindings[:0]
	for _, run := range r.runs {
		b, err := r.textures.resolve(dev, run.Texture)
		if err != nil {
			return err
		}
		r.bindings = append(r.bindings, b.group)
	}

	w, h := target.Size()
	proj := Projection(w, h)
	if err := dev.WriteBuffer(r.projBuf, 0, proj.Bytes()); err != nil {
		return fmt.Errorf("spritebatch: upload projection: %w", err)
	}

	need := uint64(r.queue.Len()) * InstanceStride //nolint:gosec // queue length is non-negative
	if err := r.instances.ensure(dev, need, target.AfterSubmit); err != nil {
		return err
	}
	r.encoded = r.queue.Encode(r.encoded[:0])
	if err := dev.WriteBuffer(r.instances.id, 0, r.encoded); err != nil {
		return fmt.Errorf("spritebatch: upload %d sprites: %w", r.queue.Len(), err)
	}

	pass := target.Pass()
	pass.SetPipeline(r.pipeline)
	pass.SetVertexBuffer(0, r.instances.id)
	pass.SetBindGroup(projectionGroup, r.projGroup)
	for i, run := range r.runs {
		pass.SetBindGroup(textureGroup, r.bindings[i])
		pass.Draw(quadVertices, run.Count, 0, run.First)
	}

	r.stats = FrameStats{
		Sprites:        r.queue.Len(),
		DrawCalls:      len(r.runs),
		BufferCapacity: r.instances.capacity,
		CachedTextures: r.textures.Len(),
	}
	return nil
}

// Stats returns statistics about the most recent non-empty Flush.
func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Format returns the target color format the pipeline was built for.
func (r *Renderer) Format() gputypes.TextureFormat {
	return r.format
}

// Destroy releases every GPU resource owned by the renderer, including all
// cached textures. The caller must ensure the GPU is no longer using them.
// Calling Destroy more than once is safe.
func (r *Renderer) Destroy(dev Device) {
	if dev == nil || r.destroyed {
		return
	}
	r.destroyed = true
	r.queue.Reset()

	if r.textures != nil {
		r.textures.release(dev)
	}
	r.instances.release(dev)

	if r.pipeline != InvalidID {
		dev.DestroyRenderPipeline(r.pipeline)
	}
	if r.projGroup != InvalidID {
		dev.DestroyBindGroup(r.projGroup)
	}
	if r.projBuf != InvalidID {
		dev.DestroyBuffer(r.projBuf)
	}
	if r.sampler != InvalidID {
		dev.DestroySampler(r.sampler)
	}
	if r.texLayout != InvalidID {
		dev.DestroyBindGroupLayout(r.texLayout)
	}
	if r.projLayout != InvalidID {
		dev.DestroyBindGroupLayout(r.projLayout)
	}
	if r.fragMod != InvalidID {
		dev.DestroyShaderModule(r.fragMod)
	}
	if r.vertMod != InvalidID {
		dev.DestroyShaderModule(r.vertMod)
	}
}
