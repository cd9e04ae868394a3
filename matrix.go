package spritebatch

import (
	"encoding/binary"
	"math"
)

// projectionSize is the byte size of the projection uniform (mat4x4<f32>).
const projectionSize = 64

// Mat4 is a 4x4 float32 matrix stored column-major, the memory layout WGSL
// uses for mat4x4<f32>. Element (row r, column c) is at index c*4 + r.
type Mat4 [16]float32

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an off-center orthographic projection mapping the box
// [left, right] x [bottom, top] x [near, far] to WebGPU clip space
// (x, y in [-1, 1], z in [0, 1]). Points are transformed as column vectors.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, 1 / (near - far), 0,
		(left + right) / (left - right), (top + bottom) / (bottom - top), near / (near - far), 1,
	}
}

// Projection returns the pixel-space projection for a target of the given
// size. The origin is the bottom-left corner, x grows right and y grows up.
func Projection(width, height uint32) Mat4 {
	return Ortho(0, float32(width), 0, float32(height), 0, 1)
}

// At returns the element at the given row and column.
func (m Mat4) At(row, col int) float32 {
	return m[col*4+row]
}

// Transform applies m to the point (x, y, z, 1) and returns the resulting
// x, y, z, w components.
func (m Mat4) Transform(x, y, z float32) (float32, float32, float32, float32) {
	return m[0]*x + m[4]*y + m[8]*z + m[12],
		m[1]*x + m[5]*y + m[9]*z + m[13],
		m[2]*x + m[6]*y + m[10]*z + m[14],
		m[3]*x + m[7]*y + m[11]*z + m[15]
}

// Bytes serializes the matrix into the 64-byte little-endian uniform layout.
func (m Mat4) Bytes() []byte {
	buf := make([]byte, projectionSize)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
