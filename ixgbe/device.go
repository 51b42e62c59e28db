package ixgbe

import (
	"fmt"
	"time"

	"github.com/ixy-go/ixy/internal/log"
	"github.com/ixy-go/ixy/internal/reg"
	"github.com/ixy-go/ixy/ixerr"
	"github.com/ixy-go/ixy/pci"
)

// Device is a fully initialized ixgbe controller: a mapped PCI device plus
// its RX and TX queues. Only one concrete implementation exists, matching
// the guidance that a device-family interface is only useful once a second
// family is in scope.
type Device struct {
	pci *pci.Device

	rx []*rxQueue
	tx []*txQueue
}

// Open probes, maps, and resets device addr, bringing up rxQueues RX
// queues and txQueues TX queues. The device is left link-polled and in
// promiscuous mode, per the reset-and-init contract.
func Open(addr string, rxQueues, txQueues int) (*Device, error) {
	if rxQueues <= 0 || txQueues <= 0 {
		return nil, fmt.Errorf("rxQueues and txQueues must be positive: %w", ixerr.ErrInvalidArgument)
	}

	if rxQueues > 64 || txQueues > 64 {
		return nil, fmt.Errorf("at most 64 queues per direction: %w", ixerr.ErrInvalidArgument)
	}

	p, err := pci.Probe(addr)
	if err != nil {
		return nil, err
	}

	log.Infow("probed ixgbe device", "addr", addr, "name", p.Name)

	if err := p.Unbind(); err != nil {
		return nil, fmt.Errorf("unbind %s: %w", addr, err)
	}

	if err := p.MapResource(); err != nil {
		return nil, fmt.Errorf("map resource0 for %s: %w", addr, err)
	}

	d := &Device{pci: p}

	if err := d.resetAndInit(rxQueues, txQueues); err != nil {
		d.closeQueues()
		p.Close()
		return nil, err
	}

	return d, nil
}

// resetAndInit runs the device reset/init sequence: global reset,
// EEPROM/DMA readiness, link mode configuration, RX/TX init, queue start,
// promiscuous mode, link wait.
func (d *Device) resetAndInit(rxQueues, txQueues int) error {
	base := d.pci.Registers()

	d.pci.SetReg(EIMC, 0x7FFFFFFF)

	d.pci.SetReg(CTRL, d.pci.GetReg(CTRL)|(1<<CTRL_RST))
	if !reg.WaitFor(linkWaitTimeout, base, CTRL, CTRL_RST, 1, 0) {
		return fmt.Errorf("device did not clear CTRL.RST: %w", ixerr.ErrLinkTimeout)
	}
	time.Sleep(10 * time.Millisecond)

	d.pci.SetReg(EIMC, 0x7FFFFFFF)

	if !reg.WaitFor(linkWaitTimeout, base, EEC, EEC_ARD, 1, 1) {
		return fmt.Errorf("eeprom auto-read did not complete: %w", ixerr.ErrLinkTimeout)
	}

	if !reg.WaitFor(linkWaitTimeout, base, RDRXCTL, RDRXCTL_DMAIDONE, 1, 1) {
		return fmt.Errorf("dma init did not complete: %w", ixerr.ErrLinkTimeout)
	}

	reg.SetN(base, AUTOC, AUTOC_LMS_SHIFT, AUTOC_LMS_MASK, AUTOC_LMS_10G_SERIAL)
	reg.SetN(base, AUTOC, AUTOC_10G_PMA_PMD_SHIFT, AUTOC_10G_PMA_PMD_MASK, AUTOC_10G_PMA_PMD_XAUI)
	reg.Set(base, AUTOC, AUTOC_AN_RESTART)

	if err := d.initRX(rxQueues); err != nil {
		return err
	}

	if err := d.initTX(txQueues); err != nil {
		return err
	}

	reg.Set(base, FCTRL, FCTRL_MPE)
	reg.Set(base, FCTRL, FCTRL_UPE)

	speed := d.waitLink()
	log.Infow("ixgbe link state", "mbps", speed)

	return nil
}

// initRX disables RX globally, allocates and programs n queues, then
// re-enables RX, matching the ordering the hardware requires.
func (d *Device) initRX(n int) error {
	base := d.pci.Registers()

	reg.Clear(base, RXCTRL, RXCTRL_RXEN)

	d.pci.SetReg(RXPBSIZE(0), 128*1024)
	for i := 1; i < 8; i++ {
		d.pci.SetReg(RXPBSIZE(i), 0)
	}

	reg.Set(base, HLREG0, HLREG0_RXCRCSTRP)
	reg.Set(base, RDRXCTL, RDRXCTL_CRCSTRIP)
	reg.Set(base, FCTRL, FCTRL_BAM)

	// clear spurious bits DCA_RXCTRL leaves set out of reset on some parts
	for i := 0; i < 8; i++ {
		reg.Clear(base, DCA_RXCTRL(i), 12)
	}

	d.rx = make([]*rxQueue, n)
	for i := 0; i < n; i++ {
		q, err := initRxQueue(d, i)
		if err != nil {
			return fmt.Errorf("init rx queue %d: %w", i, err)
		}
		d.rx[i] = q
	}

	reg.Set(base, RXCTRL, RXCTRL_RXEN)

	return nil
}

// initTX configures global TX settings and programs n queues.
func (d *Device) initTX(n int) error {
	base := d.pci.Registers()

	reg.Set(base, HLREG0, HLREG0_TXCRCEN)
	reg.Set(base, HLREG0, HLREG0_TXPADEN)

	d.pci.SetReg(TXPBSIZE(0), 40*1024)
	for i := 1; i < 8; i++ {
		d.pci.SetReg(TXPBSIZE(i), 0)
	}

	d.pci.SetReg(DTXMXSZRQ, 0xFFFF)
	reg.Clear(base, RTTDCS, RTTDCS_ARBDIS)

	d.tx = make([]*txQueue, n)
	for i := 0; i < n; i++ {
		q, err := initTxQueue(d, i)
		if err != nil {
			return fmt.Errorf("init tx queue %d: %w", i, err)
		}
		d.tx[i] = q
	}

	reg.Set(base, DMATXCTL, DMATXCTL_TE) // set last, after queues are programmed

	return nil
}

// waitLink polls LINKS for up to 10s and returns the negotiated speed in
// Mbit/s, or 0 if the wait times out (a warning, not a fatal error).
func (d *Device) waitLink() int {
	base := d.pci.Registers()

	if !reg.WaitFor(linkWaitTimeout, base, LINKS, LINKS_UP, 1, 1) {
		log.Warnw("link wait timed out, proceeding with speed 0")
		return 0
	}

	switch reg.Get(base, LINKS, LINKS_SPEED_SHIFT, LINKS_SPEED_MASK) {
	case linksSpeed10G:
		return 10000
	case linksSpeed1G:
		return 1000
	case linksSpeed100M:
		return 100
	default:
		return 0
	}
}

// closeQueues releases the buffer pools and descriptor ring regions of
// every RX/TX queue built so far, skipping queue slots a failed
// initRX/initTX left nil. Safe to call on a partially initialized Device,
// so resetAndInit's error path can use it to avoid leaking the queues it
// did manage to bring up before hitting a later failure.
func (d *Device) closeQueues() error {
	for _, q := range d.rx {
		if q == nil {
			continue
		}
		if err := q.pool.Close(); err != nil {
			return err
		}
		if err := q.close(); err != nil {
			return err
		}
	}

	for _, q := range d.tx {
		if q == nil {
			continue
		}
		if err := q.close(); err != nil {
			return err
		}
	}

	return nil
}

// Close releases every queue's buffer pool and descriptor ring, and closes
// the underlying PCI device (unbind + restore prior bind state). The queues
// are not disabled in hardware before their memory is released.
func (d *Device) Close() error {
	if err := d.closeQueues(); err != nil {
		return err
	}

	return d.pci.Close()
}
