package spritebatch

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// fakeDevice is a recording Device. It tracks every live resource by ID
// and keeps buffer contents so tests can inspect uploads.
type fakeDevice struct {
	nextID uint64

	live    map[uint64]string // id -> label
	buffers map[BufferID][]byte
	kinds   map[uint64]string // id -> resource kind

	calls        int // every Device method call
	bufferWrites int
	textureLoads int // WriteTexture calls
	created      map[string]int

	pipeline *RenderPipelineDesc

	// failOn makes the named resource kind fail to create, or, for
	// "writeBuffer" and "writeTexture", makes that queue write fail.
	failOn string
}

var errFakeDevice = errors.New("fake device failure")

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		live:    make(map[uint64]string),
		buffers: make(map[BufferID][]byte),
		kinds:   make(map[uint64]string),
		created: make(map[string]int),
	}
}

func (d *fakeDevice) alloc(kind, label string) (uint64, error) {
	d.calls++
	if d.failOn == kind {
		return InvalidID, fmt.Errorf("%s: %w", kind, errFakeDevice)
	}
	d.nextID++
	d.live[d.nextID] = label
	d.kinds[d.nextID] = kind
	d.created[kind]++
	return d.nextID, nil
}

func (d *fakeDevice) free(id uint64) {
	d.calls++
	delete(d.live, id)
}

// liveOf returns the number of live resources of kind.
func (d *fakeDevice) liveOf(kind string) int {
	n := 0
	for id := range d.live {
		if d.kinds[id] == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) label(id uint64) string {
	return d.live[id]
}

func (d *fakeDevice) CreateBuffer(desc *BufferDesc) (BufferID, error) {
	id, err := d.alloc("buffer", desc.Label)
	if err != nil {
		return InvalidID, err
	}
	d.buffers[BufferID(id)] = make([]byte, desc.Size)
	return BufferID(id), nil
}

func (d *fakeDevice) DestroyBuffer(id BufferID) {
	delete(d.buffers, id)
	d.free(uint64(id))
}

func (d *fakeDevice) WriteBuffer(id BufferID, offset uint64, data []byte) error {
	d.calls++
	if d.failOn == "writeBuffer" {
		return fmt.Errorf("write buffer %d: %w", id, errFakeDevice)
	}
	d.bufferWrites++
	buf, ok := d.buffers[id]
	if !ok {
		panic(fmt.Sprintf("WriteBuffer to unknown buffer %d", id))
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		panic(fmt.Sprintf("WriteBuffer overflows buffer %d: %d+%d > %d", id, offset, len(data), len(buf)))
	}
	copy(buf[offset:], data)
	return nil
}

func (d *fakeDevice) CreateTexture(desc *TextureDesc) (TextureID, error) {
	id, err := d.alloc("texture", desc.Label)
	return TextureID(id), err
}

func (d *fakeDevice) DestroyTexture(id TextureID) { d.free(uint64(id)) }

func (d *fakeDevice) WriteTexture(id TextureID, width, height uint32, pixels []byte) error {
	d.calls++
	if d.failOn == "writeTexture" {
		return fmt.Errorf("write texture %d: %w", id, errFakeDevice)
	}
	d.textureLoads++
	if len(pixels) != int(width*height*4) {
		panic(fmt.Sprintf("WriteTexture: %d bytes for %dx%d", len(pixels), width, height))
	}
	return nil
}

func (d *fakeDevice) CreateTextureView(TextureID) (TextureViewID, error) {
	id, err := d.alloc("view", "")
	return TextureViewID(id), err
}

func (d *fakeDevice) DestroyTextureView(id TextureViewID) { d.free(uint64(id)) }

func (d *fakeDevice) CreateSampler(desc *SamplerDesc) (SamplerID, error) {
	id, err := d.alloc("sampler", desc.Label)
	return SamplerID(id), err
}

func (d *fakeDevice) DestroySampler(id SamplerID) { d.free(uint64(id)) }

func (d *fakeDevice) CreateBindGroupLayout(label string, _ []gputypes.BindGroupLayoutEntry) (BindGroupLayoutID, error) {
	id, err := d.alloc("layout", label)
	return BindGroupLayoutID(id), err
}

func (d *fakeDevice) DestroyBindGroupLayout(id BindGroupLayoutID) { d.free(uint64(id)) }

func (d *fakeDevice) CreateBindGroup(label string, _ BindGroupLayoutID, _ []BindGroupEntry) (BindGroupID, error) {
	id, err := d.alloc("bindgroup", label)
	return BindGroupID(id), err
}

func (d *fakeDevice) DestroyBindGroup(id BindGroupID) { d.free(uint64(id)) }

func (d *fakeDevice) CreateShaderModule(label string, spirv []uint32) (ShaderModuleID, error) {
	if len(spirv) == 0 {
		return InvalidID, errors.New("empty SPIR-V")
	}
	id, err := d.alloc("shader", label)
	return ShaderModuleID(id), err
}

func (d *fakeDevice) DestroyShaderModule(id ShaderModuleID) { d.free(uint64(id)) }

func (d *fakeDevice) CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error) {
	id, err := d.alloc("pipeline", desc.Label)
	if err == nil {
		d.pipeline = desc
	}
	return RenderPipelineID(id), err
}

func (d *fakeDevice) DestroyRenderPipeline(id RenderPipelineID) { d.free(uint64(id)) }

// passCmd is one recorded render pass command.
type passCmd struct {
	op   string
	args [4]uint32
}

type fakePass struct {
	cmds []passCmd
}

func (p *fakePass) SetPipeline(id RenderPipelineID) {
	p.cmds = append(p.cmds, passCmd{op: "pipeline", args: [4]uint32{uint32(id)}})
}

func (p *fakePass) SetBindGroup(index uint32, group BindGroupID) {
	p.cmds = append(p.cmds, passCmd{op: "bind", args: [4]uint32{index, uint32(group)}})
}

func (p *fakePass) SetVertexBuffer(slot uint32, buffer BufferID) {
	p.cmds = append(p.cmds, passCmd{op: "vertex", args: [4]uint32{slot, uint32(buffer)}})
}

func (p *fakePass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.cmds = append(p.cmds, passCmd{op: "draw", args: [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance}})
}

// draws returns the recorded draw commands.
func (p *fakePass) draws() [][4]uint32 {
	var out [][4]uint32
	for _, c := range p.cmds {
		if c.op == "draw" {
			out = append(out, c.args)
		}
	}
	return out
}

// boundTextures returns the group-1 bind group set before each draw.
func (p *fakePass) boundTextures() []BindGroupID {
	var (
		out     []BindGroupID
		current BindGroupID
	)
	for _, c := range p.cmds {
		switch {
		case c.op == "bind" && c.args[0] == textureGroup:
			current = BindGroupID(c.args[1])
		case c.op == "draw":
			out = append(out, current)
		}
	}
	return out
}

// fakeTarget is a Target whose deferred releases run when submit is called.
type fakeTarget struct {
	width, height uint32
	pass          fakePass
	pending       []func()
	touched       int
}

func newFakeTarget(w, h uint32) *fakeTarget {
	return &fakeTarget{width: w, height: h}
}

func (t *fakeTarget) Size() (uint32, uint32) {
	t.touched++
	return t.width, t.height
}

func (t *fakeTarget) Pass() Pass {
	t.touched++
	return &t.pass
}

func (t *fakeTarget) AfterSubmit(release func()) {
	t.touched++
	t.pending = append(t.pending, release)
}

// submit runs the deferred releases, as a real frame does after the GPU
// has finished.
func (t *fakeTarget) submit() {
	for _, f := range t.pending {
		f()
	}
	t.pending = nil
}

// fakeLoader hands out solid-color images and counts loads per name.
type fakeLoader struct {
	loads  map[string]int
	failed map[string]error
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{loads: make(map[string]int), failed: make(map[string]error)}
}

func (l *fakeLoader) LoadImage(name string) (*image.RGBA, error) {
	l.loads[name]++
	if err := l.failed[name]; err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = uint8(len(name))
		img.Pix[i+3] = 0xFF
	}
	img.Set(0, 0, color.RGBA{A: 0xFF})
	return img, nil
}
