package spritebatch

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// instanceBuffer is the device buffer holding one frame's sprite records.
// Its capacity only ever grows: when a frame needs more room, a new buffer
// of exactly the required size replaces the old one, and the old one is
// destroyed once the GPU has finished the submission that may still read it.
type instanceBuffer struct {
	id       BufferID
	capacity uint64 // bytes
}

// ensure makes the buffer hold at least size bytes.
// retire receives the destroy callback for a replaced buffer; a nil retire
// destroys it immediately.
func (b *instanceBuffer) ensure(dev Device, size uint64, retire func(func())) error {
	if size <= b.capacity && b.id != InvalidID {
		return nil
	}

	id, err := dev.CreateBuffer(&BufferDesc{
		Label: "sprite_instances",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("spritebatch: grow instance buffer to %d bytes: %w", size, err)
	}

	if old := b.id; old != InvalidID {
		release := func() { dev.DestroyBuffer(old) }
		if retire != nil {
			retire(release)
		} else {
			release()
		}
	}

	Logger().Debug("spritebatch: instance buffer grown",
		"from", b.capacity, "to", size, "sprites", size/InstanceStride)

	b.id = id
	b.capacity = size
	return nil
}

// release destroys the buffer immediately.
func (b *instanceBuffer) release(dev Device) {
	if b.id != InvalidID {
		dev.DestroyBuffer(b.id)
	}
	b.id = InvalidID
	b.capacity = 0
}
