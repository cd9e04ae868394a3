package spritebatch

import (
	"encoding/binary"
	"math"
)

// InstanceStride is the byte size of one sprite record in the instance
// buffer. Layout:
//
//	position (float32x2) = 8 bytes  (location 0)
//	size     (float32x2) = 8 bytes  (location 1)
//	tint     (unorm8x4)  = 4 bytes  (location 2)
//	rotation (float32)   = 4 bytes  (location 3)
//
// Total = 24 bytes per sprite.
const InstanceStride = 24

// Sprite is a single draw request: a textured quad of Size pixels whose
// bottom-left corner sits at Position, rotated by Rotation radians
// (counter-clockwise) around its center and multiplied by Tint.
//
// Texture names an entry in the renderer's ImageLoader namespace.
type Sprite struct {
	Texture  string
	Position Vec2
	Size     Vec2
	Tint     Tint
	Rotation float32
}

// putInstance writes the instance record for s into buf, which must hold
// at least InstanceStride bytes.
func putInstance(buf []byte, s *Sprite) {
	_ = buf[InstanceStride-1]
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(s.Position.X))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(s.Position.Y))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(s.Size.X))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(s.Size.Y))
	buf[16] = s.Tint.R
	buf[17] = s.Tint.G
	buf[18] = s.Tint.B
	buf[19] = s.Tint.A
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(s.Rotation))
}

// DecodeInstance reads back one instance record. It is the inverse of the
// encoding used for upload and is mainly useful for inspecting buffers.
func DecodeInstance(buf []byte) (pos, size Vec2, tint Tint, rotation float32) {
	_ = buf[InstanceStride-1]
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	pos = Vec2{X: f(0), Y: f(4)}
	size = Vec2{X: f(8), Y: f(12)}
	tint = Tint{R: buf[16], G: buf[17], B: buf[18], A: buf[19]}
	rotation = f(20)
	return pos, size, tint, rotation
}
