package ixgbe

import (
	"testing"

	"github.com/ixy-go/ixy/memory"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/packet"
	"github.com/ixy-go/ixy/pci"
)

// newTestDevice returns a Device backed by an in-memory register file,
// large enough to cover every register offset this package defines.
func newTestDevice(t *testing.T) *Device {
	t.Helper()
	return &Device{pci: pci.NewFake(make([]byte, 256*1024))}
}

func newTestRxQueue(t *testing.T, d *Device) *rxQueue {
	t.Helper()

	region, err := memory.Allocate(uintptr(rxEntries)*descriptorSize, memory.AllocOptions{Huge: true, Contiguous: true})
	if err != nil {
		t.Fatalf("allocate ring: %v", err)
	}
	t.Cleanup(func() { region.Free() })

	ring := descriptorRing{base: region.Virtual, capacity: rxEntries}
	ring.fillFF()

	pool, err := mempool.New(minPoolEntries, packet.DefaultStride)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	q := &rxQueue{
		ring:    ring,
		region:  region,
		pool:    pool,
		buffers: make([]uintptr, rxEntries),
	}

	for j := uint16(0); j < rxEntries; j++ {
		h, ok := pool.Pop()
		if !ok {
			t.Fatalf("pool exhausted seeding ring at %d", j)
		}
		ring.rxSetBufferAddr(j, h.PhysicalAddress())
		q.buffers[j] = h.VirtualAddress()
		if err := pool.Push(h); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	return q
}

func TestRxBatchEmptyRingReturnsZero(t *testing.T) {
	d := newTestDevice(t)
	q := newTestRxQueue(t, d)
	d.rx = []*rxQueue{q}

	out := make([]packet.Handle, 32)
	n, err := d.RxBatch(0, out)
	if err != nil {
		t.Fatalf("RxBatch: %v", err)
	}
	if n != 0 {
		t.Fatalf("RxBatch() = %d, want 0 on an empty ring", n)
	}
}

func TestRxBatchReceivesDescriptorDone(t *testing.T) {
	d := newTestDevice(t)
	q := newTestRxQueue(t, d)
	d.rx = []*rxQueue{q}

	// simulate the NIC writing back slot 0: DD|EOP set, length 64.
	q.ring.slot(0)[8] = (1 << RXDADV_STAT_DD) | (1 << RXDADV_STAT_EOP)
	q.ring.slot(0)[12] = 64 // low byte of the length half-word

	out := make([]packet.Handle, 32)
	n, err := d.RxBatch(0, out)
	if err != nil {
		t.Fatalf("RxBatch: %v", err)
	}
	if n != 1 {
		t.Fatalf("RxBatch() = %d, want 1", n)
	}
	if out[0].Size() != 64 {
		t.Errorf("received handle size = %d, want 64", out[0].Size())
	}

	if got := d.pci.GetReg(RDT(0)); got != 0 {
		t.Errorf("RDT = %d, want 0 (last consumed index)", got)
	}
}

func TestRxBatchMultiSegmentFails(t *testing.T) {
	d := newTestDevice(t)
	q := newTestRxQueue(t, d)
	d.rx = []*rxQueue{q}

	// DD set, EOP clear: an unsupported multi-segment packet.
	q.ring.slot(0)[8] = 1 << RXDADV_STAT_DD

	out := make([]packet.Handle, 32)
	if _, err := d.RxBatch(0, out); err == nil {
		t.Fatal("expected an error for a descriptor with DD set but EOP clear")
	}
}

func TestRxBatchPoolExhaustion(t *testing.T) {
	d := newTestDevice(t)
	q := newTestRxQueue(t, d)
	d.rx = []*rxQueue{q}

	// drain the pool entirely so the refill in RxBatch has nothing to pop.
	for {
		if _, ok := q.pool.Pop(); !ok {
			break
		}
	}

	q.ring.slot(0)[8] = (1 << RXDADV_STAT_DD) | (1 << RXDADV_STAT_EOP)

	out := make([]packet.Handle, 1)
	if _, err := d.RxBatch(0, out); err == nil {
		t.Fatal("expected ResourceExhausted when the pool has no free buffers")
	}
}
