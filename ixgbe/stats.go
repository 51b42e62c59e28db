package ixgbe

// Stats holds packet/byte counters for the interval since the previous
// ReadStats. Every field here is backed
// by a clear-on-read hardware register: callers that want a running total
// must accumulate across calls to ReadStats themselves.
type Stats struct {
	RxPackets uint64
	TxPackets uint64
	RxBytes   uint64
	TxBytes   uint64
}

// ReadStats reads and clears GPRC/GPTC and GORCL+GORCH/GOTCL+GOTCH.
func (d *Device) ReadStats() Stats {
	rxPackets := uint64(d.pci.GetReg(GPRC))
	txPackets := uint64(d.pci.GetReg(GPTC))

	rxBytes := uint64(d.pci.GetReg(GORCL)) | uint64(d.pci.GetReg(GORCH))<<32
	txBytes := uint64(d.pci.GetReg(GOTCL)) | uint64(d.pci.GetReg(GOTCH))<<32

	return Stats{
		RxPackets: rxPackets,
		TxPackets: txPackets,
		RxBytes:   rxBytes,
		TxBytes:   txBytes,
	}
}
