package spritebatch

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/spritebatch/shader"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.loader != nil {
		t.Error("default loader is not nil")
	}
	if o.format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("default format = %v, want BGRA8Unorm", o.format)
	}
	if o.capacity != 0 {
		t.Errorf("default capacity = %d, want 0", o.capacity)
	}
	if o.program.Vertex.EntryPoint != shader.VertexEntryPoint || o.program.Fragment.EntryPoint != shader.FragmentEntryPoint {
		t.Errorf("default program entry points = %q, %q", o.program.Vertex.EntryPoint, o.program.Fragment.EntryPoint)
	}
}

func TestOptions(t *testing.T) {
	loader := newFakeLoader()
	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, o options)
	}{
		{
			name: "loader",
			opts: []Option{WithLoader(loader)},
			check: func(t *testing.T, o options) {
				if o.loader != loader {
					t.Error("loader not set")
				}
			},
		},
		{
			name: "format",
			opts: []Option{WithTargetFormat(gputypes.TextureFormatRGBA8Unorm)},
			check: func(t *testing.T, o options) {
				if o.format != gputypes.TextureFormatRGBA8Unorm {
					t.Errorf("format = %v", o.format)
				}
			},
		},
		{
			name: "capacity",
			opts: []Option{WithInitialCapacity(256)},
			check: func(t *testing.T, o options) {
				if o.capacity != 256 {
					t.Errorf("capacity = %d, want 256", o.capacity)
				}
			},
		},
		{
			name: "non-positive capacity ignored",
			opts: []Option{WithInitialCapacity(64), WithInitialCapacity(0), WithInitialCapacity(-5)},
			check: func(t *testing.T, o options) {
				if o.capacity != 64 {
					t.Errorf("capacity = %d, want 64", o.capacity)
				}
			},
		},
		{
			name: "later options win",
			opts: []Option{WithTargetFormat(gputypes.TextureFormatRGBA8Unorm), WithTargetFormat(gputypes.TextureFormatBGRA8UnormSrgb)},
			check: func(t *testing.T, o options) {
				if o.format != gputypes.TextureFormatBGRA8UnormSrgb {
					t.Errorf("format = %v, want BGRA8UnormSrgb", o.format)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			for _, opt := range tt.opts {
				opt(&o)
			}
			tt.check(t, o)
		})
	}
}

func TestWithShadersInvalidProgram(t *testing.T) {
	dev := newFakeDevice()
	p := shader.Default()
	p.Fragment.Source = ""

	_, err := New(dev, WithShaders(p))
	if !errors.Is(err, shader.ErrEmptySource) {
		t.Fatalf("New() error = %v, want shader.ErrEmptySource", err)
	}
	if len(dev.live) != 0 {
		t.Errorf("%d resources leaked", len(dev.live))
	}
}

func TestWithShadersCustomEntryPoints(t *testing.T) {
	p := shader.Default()
	p.Vertex.EntryPoint = "vs_main"
	p.Fragment.EntryPoint = "fs_main"

	_, dev, _ := newTestRenderer(t, WithShaders(p))
	if dev.pipeline == nil {
		t.Fatal("no pipeline created")
	}
	if dev.pipeline.Vertex.EntryPoint != p.Vertex.EntryPoint || dev.pipeline.Fragment.EntryPoint != p.Fragment.EntryPoint {
		t.Errorf("pipeline entry points = %q, %q", dev.pipeline.Vertex.EntryPoint, dev.pipeline.Fragment.EntryPoint)
	}
}
