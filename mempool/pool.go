// Package mempool implements the packet buffer pool: a fixed-capacity LIFO
// of fixed-size buffers carved from a single huge-page DMA region, plus a
// process-wide registry resolving pool id to pool so that TX cleanup can
// return a buffer without carrying a reference to its pool.
package mempool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ixy-go/ixy/ixerr"
	"github.com/ixy-go/ixy/memory"
	"github.com/ixy-go/ixy/packet"
)

var idCounter atomic.Uint32

// Pool is a fixed-capacity LIFO of packet.Handle values, all referencing
// fixed-size buffers carved from one contiguous huge-page DMA region.
type Pool struct {
	mu sync.Mutex

	id       uint32
	capacity uint32
	stride   uint32
	free     []packet.Handle

	region memory.Region
}

// New carves a pool of capacity buffers of stride bytes each out of a
// freshly allocated huge-page region. stride must evenly divide the system
// huge page size, so that no buffer straddles a page boundary; the region
// itself may span multiple huge pages and is not required to be physically
// contiguous across them (only each individual buffer's own page matters,
// and each buffer's physical address is resolved independently).
func New(capacity uint32, stride uint32) (*Pool, error) {
	if capacity == 0 || stride == 0 {
		return nil, fmt.Errorf("capacity and stride must be positive: %w", ixerr.ErrInvalidArgument)
	}

	hugeSize := memory.HugepageSize()

	if hugeSize%uintptr(stride) != 0 {
		return nil, fmt.Errorf("stride %d does not evenly divide huge page size %d: %w", stride, hugeSize, ixerr.ErrInvalidArgument)
	}

	size := uintptr(capacity) * uintptr(stride)

	region, err := memory.Allocate(size, memory.AllocOptions{Huge: true})
	if err != nil {
		return nil, fmt.Errorf("allocate pool region: %w", err)
	}

	p := &Pool{
		id:       idCounter.Add(1),
		capacity: capacity,
		stride:   stride,
		region:   region,
		free:     make([]packet.Handle, 0, capacity),
	}

	for i := uint32(0); i < capacity; i++ {
		off := uintptr(i) * uintptr(stride)
		virt := region.Virtual + off

		phys, err := memory.TranslatePhysical(virt)
		if err != nil {
			region.Free()
			return nil, fmt.Errorf("translate buffer %d: %w", i, err)
		}

		h := packet.Handle(virt)
		h.InitHeader(uint64(phys), p.id)

		p.free = append(p.free, h)
	}

	register(p)

	return p, nil
}

// ID returns the pool's process-unique identifier.
func (p *Pool) ID() uint32 {
	return p.id
}

// Capacity returns the pool's total buffer count.
func (p *Pool) Capacity() uint32 {
	return p.capacity
}

// Stride returns the fixed size, in bytes, of each buffer in the pool.
func (p *Pool) Stride() uint32 {
	return p.stride
}

// Size returns the number of buffers currently free.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.free)
}

// IsEmpty reports whether the pool has no free buffers.
func (p *Pool) IsEmpty() bool {
	return p.Size() == 0
}

// Pop removes and returns one free buffer, LIFO. ok is false if the pool is
// empty.
func (p *Pool) Pop() (h packet.Handle, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		return packet.Nil, false
	}

	h = p.free[n-1]
	p.free = p.free[:n-1]

	return h, true
}

// Push returns a buffer to the pool. It rejects the nil handle and any
// handle not owned by this pool.
func (p *Pool) Push(h packet.Handle) error {
	if h == packet.Nil {
		return fmt.Errorf("push of nil handle: %w", ixerr.ErrInvalidArgument)
	}

	if h.PoolID() != p.id {
		return fmt.Errorf("push of buffer owned by pool %d into pool %d: %w", h.PoolID(), p.id, ixerr.ErrInvalidArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, h)

	return nil
}

// Close unregisters the pool and releases its backing DMA region. Callers
// must ensure every buffer has been returned via Push first.
func (p *Pool) Close() error {
	unregister(p.id)
	return p.region.Free()
}
