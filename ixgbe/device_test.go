package ixgbe

import (
	"testing"
	"time"

	"github.com/ixy-go/ixy/internal/reg"
)

// seedResetReady pre-sets the readiness bits resetAndInit polls for (EEPROM
// auto-read done, DMA init done, link up at 10G) so the test never hits the
// real 10s link-wait timeout, and spawns a goroutine that clears CTRL.RST
// shortly after resetAndInit sets it, simulating the hardware's own
// self-clearing behavior.
func seedResetReady(base []byte) {
	reg.Set(base, EEC, EEC_ARD)
	reg.Set(base, RDRXCTL, RDRXCTL_DMAIDONE)
	reg.Set(base, LINKS, LINKS_UP)
	reg.SetN(base, LINKS, LINKS_SPEED_SHIFT, LINKS_SPEED_MASK, linksSpeed10G)

	go func() {
		for i := 0; i < 1000; i++ {
			if reg.Get(base, CTRL, CTRL_RST, 1) == 1 {
				reg.Clear(base, CTRL, CTRL_RST)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
}

func TestResetAndInitProgramsQueuesAndReportsLinkSpeed(t *testing.T) {
	d := newTestDevice(t)
	base := d.pci.Registers()
	seedResetReady(base)

	if err := d.resetAndInit(1, 1); err != nil {
		t.Fatalf("resetAndInit: %v", err)
	}
	t.Cleanup(func() {
		for _, q := range d.rx {
			q.pool.Close()
			q.close()
		}
		for _, q := range d.tx {
			q.close()
		}
	})

	if len(d.rx) != 1 || len(d.tx) != 1 {
		t.Fatalf("expected 1 rx and 1 tx queue, got %d/%d", len(d.rx), len(d.tx))
	}

	if reg.Get(base, RXCTRL, RXCTRL_RXEN, 1) != 1 {
		t.Error("expected RXCTRL.RXEN set after init")
	}
	if reg.Get(base, DMATXCTL, DMATXCTL_TE, 1) != 1 {
		t.Error("expected DMATXCTL.TE set after init")
	}
	if reg.Get(base, RXDCTL(0), RXDCTL_ENABLE, 1) != 1 {
		t.Error("expected RXDCTL.ENABLE set on queue 0")
	}
	if reg.Get(base, TXDCTL(0), TXDCTL_ENABLE, 1) != 1 {
		t.Error("expected TXDCTL.ENABLE set on queue 0")
	}
	if reg.Get(base, FCTRL, FCTRL_MPE, 1) != 1 {
		t.Error("expected promiscuous multicast bit set")
	}
	if got := d.waitLink(); got != 10000 {
		t.Errorf("link speed = %d Mbit/s, want 10000", got)
	}
}

func TestResetAndInitTimesOutWithoutEEPROMReady(t *testing.T) {
	orig := linkWaitTimeout
	linkWaitTimeout = 20 * time.Millisecond
	defer func() { linkWaitTimeout = orig }()

	d := newTestDevice(t)
	base := d.pci.Registers()

	go func() {
		for i := 0; i < 1000; i++ {
			if reg.Get(base, CTRL, CTRL_RST, 1) == 1 {
				reg.Clear(base, CTRL, CTRL_RST)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	// EEC.ARD is deliberately left unset: resetAndInit must fail waiting on it.

	if err := d.resetAndInit(1, 1); err == nil {
		t.Fatal("expected resetAndInit to fail when EEPROM never signals ready")
	}
}
