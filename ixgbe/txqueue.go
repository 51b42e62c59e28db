package ixgbe

import (
	"fmt"

	"github.com/ixy-go/ixy/internal/reg"
	"github.com/ixy-go/ixy/ixerr"
	"github.com/ixy-go/ixy/memory"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/packet"
)

// txEntries is the number of descriptors per TX ring.
const txEntries = 512

// txCleanBatch is the reclaim granularity for phase A of TxBatch: a batch
// of in-flight descriptors is only reclaimed once its last descriptor's DD
// bit is set, not as each individual descriptor completes.
const txCleanBatch = 32

// txQueue is one TX descriptor ring with deferred buffer reclaim. cleanIndex
// trails index by at most capacity-1; one slot is always kept empty
// so a full ring can be distinguished from an empty one.
type txQueue struct {
	index      int
	cleanIndex int

	ring     descriptorRing
	region   memory.Region
	buffers  []uintptr // virtual address held at each in-flight slot
	inFlight []packet.Handle
}

// initTxQueue allocates and programs TX queue i's descriptor ring, then
// enables the queue.
func initTxQueue(d *Device, i int) (*txQueue, error) {
	ringBytes := uintptr(txEntries) * descriptorSize

	region, err := memory.Allocate(ringBytes, memory.AllocOptions{Huge: true, Contiguous: true})
	if err != nil {
		return nil, fmt.Errorf("allocate tx ring %d: %w", i, err)
	}

	ring := descriptorRing{base: region.Virtual, capacity: txEntries}
	ring.fillFF()

	d.pci.SetReg(TDBAL(i), uint32(region.Physical))
	d.pci.SetReg(TDBAH(i), uint32(region.Physical>>32))
	d.pci.SetReg(TDLEN(i), uint32(ringBytes))
	d.pci.SetReg(TDH(i), 0)
	d.pci.SetReg(TDT(i), 0)

	base := d.pci.Registers()
	reg.SetN(base, TXDCTL(i), TXDCTL_HTHRESH_SHIFT, TXDCTL_HTHRESH_MASK, 4)
	reg.SetN(base, TXDCTL(i), TXDCTL_WTHRESH_SHIFT, TXDCTL_WTHRESH_MASK, 8)
	reg.SetN(base, TXDCTL(i), TXDCTL_PTHRESH_SHIFT, TXDCTL_PTHRESH_MASK, 36)

	reg.Set(base, TXDCTL(i), TXDCTL_ENABLE)
	if !reg.WaitFor(queueEnableTimeout, base, TXDCTL(i), TXDCTL_ENABLE, 1, 1) {
		return nil, fmt.Errorf("tx queue %d did not enable: %w", i, ixerr.ErrLinkTimeout)
	}

	return &txQueue{
		ring:     ring,
		region:   region,
		buffers:  make([]uintptr, txEntries),
		inFlight: make([]packet.Handle, txEntries),
	}, nil
}

// TxBatch enqueues up to len(buffers) packets on the queue, returning the
// count actually enqueued. It reclaims completed descriptors first
// (phase A), then enqueues as many new buffers as ring space allows
// (phase B). It never blocks.
func (d *Device) TxBatch(queue int, buffers []packet.Handle) (int, error) {
	q := d.tx[queue]

	for (q.index-q.cleanIndex)&(txEntries-1) >= txCleanBatch {
		upto := (q.cleanIndex + txCleanBatch - 1) & (txEntries - 1)

		status := q.ring.txOlinfoStatus(uint16(upto))
		if status&ADVTXD_STAT_DD == 0 {
			break
		}

		for j := q.cleanIndex; ; j = (j + 1) & (txEntries - 1) {
			h := q.inFlight[j]

			pool, ok := mempool.Lookup(h.PoolID())
			if !ok {
				return 0, fmt.Errorf("tx cleanup: unknown pool %d: %w", h.PoolID(), ixerr.ErrInvalidArgument)
			}

			if err := pool.Push(h); err != nil {
				return 0, fmt.Errorf("tx cleanup: %w", err)
			}

			if j == upto {
				break
			}
		}

		q.cleanIndex = (upto + 1) & (txEntries - 1)
	}

	sent := 0

	for sent < len(buffers) {
		next := (q.index + 1) & (txEntries - 1)
		if next == q.cleanIndex {
			break
		}

		h := buffers[sent]

		q.inFlight[q.index] = h
		q.buffers[q.index] = h.VirtualAddress()

		cmdTypeLen := uint32(h.Size()) | ADVTXD_DTYP_DATA | ADVTXD_DCMD_EOP | ADVTXD_DCMD_RS | ADVTXD_DCMD_IFCS | ADVTXD_DCMD_DEXT
		olinfoStatus := uint32(h.Size()) << ADVTXD_PAYLEN_SHIFT

		q.ring.txSetDescriptor(uint16(q.index), h.PhysicalAddress(), cmdTypeLen, olinfoStatus)

		q.index = next
		sent++
	}

	if sent > 0 {
		d.pci.SetReg(TDT(queue), uint32(q.index))
	}

	return sent, nil
}

func (q *txQueue) close() error {
	return q.region.Free()
}
