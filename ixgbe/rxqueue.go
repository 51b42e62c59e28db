package ixgbe

import (
	"fmt"

	"github.com/ixy-go/ixy/internal/bits"
	"github.com/ixy-go/ixy/internal/reg"
	"github.com/ixy-go/ixy/ixerr"
	"github.com/ixy-go/ixy/memory"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/packet"
)

// rxEntries is the number of descriptors per RX ring.
const rxEntries = 512

// minPoolEntries is the minimum buffer pool capacity, regardless of ring
// size, per the initialization contract.
const minPoolEntries = 4096

// rxQueue is one RX descriptor ring together with the pool that supplies
// and reclaims its buffers. Owned by exactly one goroutine at a time; no
// lock is taken on the fast path.
type rxQueue struct {
	index int

	ring     descriptorRing
	region   memory.Region
	pool     *mempool.Pool
	buffers  []uintptr // virtual address currently referenced by each slot
}

// initRxQueue allocates and programs RX queue i's descriptor ring and
// buffer pool, then enables the queue.
func initRxQueue(d *Device, i int) (*rxQueue, error) {
	ringBytes := uintptr(rxEntries) * descriptorSize

	region, err := memory.Allocate(ringBytes, memory.AllocOptions{Huge: true, Contiguous: true})
	if err != nil {
		return nil, fmt.Errorf("allocate rx ring %d: %w", i, err)
	}

	ring := descriptorRing{base: region.Virtual, capacity: rxEntries}
	ring.fillFF()

	d.pci.SetReg(RDBAL(i), uint32(region.Physical))
	d.pci.SetReg(RDBAH(i), uint32(region.Physical>>32))
	d.pci.SetReg(RDLEN(i), uint32(ringBytes))
	d.pci.SetReg(RDH(i), 0)
	d.pci.SetReg(RDT(i), 0)

	reg.SetN(d.pci.Registers(), SRRCTL(i), SRRCTL_DESCTYPE_SHIFT, SRRCTL_DESCTYPE_MASK, SRRCTL_DESCTYPE_ADV1BUF)
	reg.Set(d.pci.Registers(), SRRCTL(i), SRRCTL_DROP_EN)

	poolCapacity := minPoolEntries
	if n := rxEntries + txEntries; n > poolCapacity {
		poolCapacity = n
	}

	pool, err := mempool.New(uint32(poolCapacity), packet.DefaultStride)
	if err != nil {
		region.Free()
		return nil, fmt.Errorf("allocate rx pool %d: %w", i, err)
	}

	q := &rxQueue{
		ring:    ring,
		region:  region,
		pool:    pool,
		buffers: make([]uintptr, rxEntries),
	}

	for j := uint16(0); j < rxEntries; j++ {
		h, ok := pool.Pop()
		if !ok {
			return nil, fmt.Errorf("rx pool exhausted during init: %w", ixerr.ErrResourceExhausted)
		}

		ring.rxSetBufferAddr(j, h.PhysicalAddress())
		q.buffers[j] = h.VirtualAddress()

		if err := pool.Push(h); err != nil {
			return nil, fmt.Errorf("rx pool init: %w", err)
		}
	}

	reg.Set(d.pci.Registers(), RXDCTL(i), RXDCTL_ENABLE)
	if !reg.WaitFor(queueEnableTimeout, d.pci.Registers(), RXDCTL(i), RXDCTL_ENABLE, 1, 1) {
		return nil, fmt.Errorf("rx queue %d did not enable: %w", i, ixerr.ErrLinkTimeout)
	}

	d.pci.SetReg(RDT(i), uint32(rxEntries-1))

	return q, nil
}

// RxBatch receives up to len(out) packets from the queue, returning the
// count actually received. It never blocks: an empty ring returns 0.
func (d *Device) RxBatch(queue int, out []packet.Handle) (int, error) {
	q := d.rx[queue]

	received := 0
	lastConsumed := q.index

	for received < len(out) {
		status, length := q.ring.rxWriteback(uint16(q.index))

		if !bits.Get(status, RXDADV_STAT_DD) {
			break
		}

		if !bits.Get(status, RXDADV_STAT_EOP) {
			return received, fmt.Errorf("rx descriptor without EOP: %w", ixerr.ErrUnsupportedMultiSegment)
		}

		h := packet.Handle(q.buffers[q.index])
		h.SetSize(uint32(length))

		fresh, ok := q.pool.Pop()
		if !ok {
			return received, fmt.Errorf("rx pool exhausted: %w", ixerr.ErrResourceExhausted)
		}

		q.ring.rxSetBufferAddr(uint16(q.index), fresh.PhysicalAddress())
		q.buffers[q.index] = fresh.VirtualAddress()

		out[received] = h
		received++

		lastConsumed = q.index
		q.index = (q.index + 1) & (rxEntries - 1)
	}

	if received > 0 {
		d.pci.SetReg(RDT(queue), uint32(lastConsumed))
	}

	return received, nil
}

func (q *rxQueue) close() error {
	return q.region.Free()
}
