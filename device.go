package spritebatch

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Device implementation
// maintains the mapping between IDs and actual backend objects.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// TextureViewID is an opaque handle to a texture view.
type TextureViewID uint64

// SamplerID is an opaque handle to a sampler.
type SamplerID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDesc describes a single-sample, single-mip 2D texture.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// SamplerDesc describes a sampler. Address modes apply to all axes.
type SamplerDesc struct {
	Label       string
	AddressMode gputypes.AddressMode
	MagFilter   gputypes.FilterMode
	MinFilter   gputypes.FilterMode
}

// BindGroupEntry binds exactly one resource: a buffer range, a texture
// view or a sampler, whichever ID is non-zero.
type BindGroupEntry struct {
	Binding uint32

	Buffer BufferID
	Offset uint64
	Size   uint64

	TextureView TextureViewID
	Sampler     SamplerID
}

// ShaderStage is a compiled shader module plus the entry point to run.
type ShaderStage struct {
	Module     ShaderModuleID
	EntryPoint string
}

// RenderPipelineDesc describes a render pipeline with a single color target
// and no depth/stencil attachment.
type RenderPipelineDesc struct {
	Label    string
	Layouts  []BindGroupLayoutID
	Vertex   ShaderStage
	Fragment ShaderStage
	Buffers  []gputypes.VertexBufferLayout
	Topology gputypes.PrimitiveTopology
	Format   gputypes.TextureFormat
	Blend    *gputypes.BlendState
}

// Device is the resource factory the renderer draws on. It abstracts over
// GPU backends; backend/wgpu implements it on top of gogpu/wgpu's HAL.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and are never reused
//
// The renderer never stores a Device: it is borrowed for the duration of
// each call that needs it.
type Device interface {
	CreateBuffer(desc *BufferDesc) (BufferID, error)
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into the buffer at offset. The write is
	// ordered before any command submitted after it returns.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	CreateTexture(desc *TextureDesc) (TextureID, error)
	DestroyTexture(id TextureID)

	// WriteTexture uploads tightly packed RGBA8 pixels covering the whole
	// texture.
	WriteTexture(id TextureID, width, height uint32, pixels []byte) error

	CreateTextureView(texture TextureID) (TextureViewID, error)
	DestroyTextureView(id TextureViewID)

	CreateSampler(desc *SamplerDesc) (SamplerID, error)
	DestroySampler(id SamplerID)

	CreateBindGroupLayout(label string, entries []gputypes.BindGroupLayoutEntry) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)

	CreateBindGroup(label string, layout BindGroupLayoutID, entries []BindGroupEntry) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)

	// CreateShaderModule creates a module from SPIR-V words produced by
	// the shader package.
	CreateShaderModule(label string, spirv []uint32) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)
}

// Pass records draw commands into an open render pass.
type Pass interface {
	SetPipeline(pipeline RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	SetVertexBuffer(slot uint32, buffer BufferID)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// Target is the per-frame command target: the surface being rendered to
// and the render pass recording into it. Targets are owned by the caller
// and only borrowed for a single Flush.
type Target interface {
	// Size returns the render target size in pixels.
	Size() (width, height uint32)

	// Pass returns the render pass to record into.
	Pass() Pass

	// AfterSubmit schedules release to run once the GPU has finished
	// executing the commands recorded for this target.
	AfterSubmit(release func())
}
