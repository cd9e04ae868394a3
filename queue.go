package spritebatch

// Run is a maximal span of consecutive queued sprites that share a texture.
// Each run is drawn with one instanced draw call.
type Run struct {
	Texture string
	First   uint32 // index of the first sprite, used as the instance offset
	Count   uint32 // number of sprites, used as the instance count
}

// Queue is the ordered list of sprites submitted for the current frame.
// Insertion order is draw order; nothing reorders it.
//
// The zero value is an empty queue ready to use. A Queue is not safe for
// concurrent use.
type Queue struct {
	sprites []Sprite
}

// Push appends s to the tail of the queue.
func (q *Queue) Push(s Sprite) {
	q.sprites = append(q.sprites, s)
}

// Len returns the number of queued sprites.
func (q *Queue) Len() int {
	return len(q.sprites)
}

// At returns the i-th queued sprite.
func (q *Queue) At(i int) Sprite {
	return q.sprites[i]
}

// Reset empties the queue, keeping its backing storage for the next frame.
func (q *Queue) Reset() {
	clear(q.sprites)
	q.sprites = q.sprites[:0]
}

// Runs splits the queue into maximal runs of equal texture names, left to
// right. Only adjacent sprites are merged: [A A B A] yields three runs.
func (q *Queue) Runs() []Run {
	return q.appendRuns(nil)
}

func (q *Queue) appendRuns(runs []Run) []Run {
	for start := 0; start < len(q.sprites); {
		name := q.sprites[start].Texture
		end := start + 1
		for end < len(q.sprites) && q.sprites[end].Texture == name {
			end++
		}
		runs = append(runs, Run{
			Texture: name,
			First:   uint32(start),       //nolint:gosec // queue length fits uint32
			Count:   uint32(end - start), //nolint:gosec // queue length fits uint32
		})
		start = end
	}
	return runs
}

// Encode serializes every queued sprite, in queue order, into dst and
// returns the extended slice. Each sprite occupies InstanceStride bytes.
func (q *Queue) Encode(dst []byte) []byte {
	need := len(q.sprites) * InstanceStride
	if cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}
	off := len(dst)
	dst = dst[:off+need]
	for i := range q.sprites {
		putInstance(dst[off+i*InstanceStride:], &q.sprites[i])
	}
	return dst
}
