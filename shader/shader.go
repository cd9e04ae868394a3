// Package shader provides the sprite vertex and fragment programs and
// compiles them for the GPU.
//
// Programs are written in WGSL. Before a module is created on a device the
// source is compiled to SPIR-V with naga, the same intermediate step every
// gogpu backend (Vulkan, Metal, DX12, GLES) accepts.
//
// The default programs are embedded. An application can ship its own pair
// under the asset directory and load them with [Load].
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/gogpu/naga"
)

// File names of the sprite programs inside a shader directory.
const (
	VertexFile   = "sprite.vert.wgsl"
	FragmentFile = "sprite.frag.wgsl"
)

// Entry points of the sprite programs.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// DefaultDir is the shader directory inside the asset namespace.
const DefaultDir = "Shaders"

//go:embed shaders/sprite.vert.wgsl
var vertexSource string

//go:embed shaders/sprite.frag.wgsl
var fragmentSource string

// Shader errors.
var (
	// ErrEmptySource is returned when a stage has no source text.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrInvalidSPIRV is returned when the compiler output is not a whole
	// number of 32-bit words.
	ErrInvalidSPIRV = errors.New("shader: invalid SPIR-V output")
)

// Stage is the WGSL source of one pipeline stage.
type Stage struct {
	Name       string
	Source     string
	EntryPoint string
}

// Program is a vertex + fragment pair.
type Program struct {
	Vertex   Stage
	Fragment Stage
}

// Default returns the embedded sprite program.
func Default() Program {
	return Program{
		Vertex:   Stage{Name: VertexFile, Source: vertexSource, EntryPoint: VertexEntryPoint},
		Fragment: Stage{Name: FragmentFile, Source: fragmentSource, EntryPoint: FragmentEntryPoint},
	}
}

// Load reads the sprite program from dir inside fsys. Both files must exist.
func Load(fsys fs.FS, dir string) (Program, error) {
	vert, err := fs.ReadFile(fsys, path.Join(dir, VertexFile))
	if err != nil {
		return Program{}, fmt.Errorf("shader: load vertex stage: %w", err)
	}
	frag, err := fs.ReadFile(fsys, path.Join(dir, FragmentFile))
	if err != nil {
		return Program{}, fmt.Errorf("shader: load fragment stage: %w", err)
	}
	return Program{
		Vertex:   Stage{Name: VertexFile, Source: string(vert), EntryPoint: VertexEntryPoint},
		Fragment: Stage{Name: FragmentFile, Source: string(frag), EntryPoint: FragmentEntryPoint},
	}, nil
}

// Compile compiles the stage's WGSL source to SPIR-V words.
func (s Stage) Compile() ([]uint32, error) {
	if s.Source == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, s.Name)
	}
	spirv, err := Compile(s.Source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", s.Name, err)
	}
	return spirv, nil
}

// Compile compiles WGSL source to a SPIR-V uint32 slice.
func Compile(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSPIRV, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
