// Package ixgbe implements the RX/TX descriptor ring engines and device
// lifecycle for the Intel 82599/X540/X550 family, built on top of package
// pci for register access and packages memory/mempool/packet for
// DMA-backed buffers.
package ixgbe

import "time"

// Global device registers, byte offsets per the ixgbe hardware
// specification.
const (
	CTRL     = 0x00000
	CTRL_EXT = 0x00018
	EIMC     = 0x00888

	FCTRL = 0x05080
	AUTOC = 0x042a0
	LINKS = 0x042a4
	HLREG0 = 0x04240

	RXCTRL = 0x03000
	RDRXCTL = 0x02f00
	EEC    = 0x10010

	DMATXCTL  = 0x04a80
	DTXMXSZRQ = 0x08100
	RTTDCS    = 0x04900
)

// CTRL bits.
const (
	CTRL_LRST = 3
	CTRL_RST  = 26
)

// EEC bits.
const EEC_ARD = 9

// RDRXCTL bits.
const (
	RDRXCTL_DMAIDONE = 3
	RDRXCTL_CRCSTRIP = 1
)

// AUTOC fields.
const (
	AUTOC_LMS_SHIFT = 13
	AUTOC_LMS_MASK  = 0x7
	AUTOC_LMS_10G_SERIAL = 0x3

	AUTOC_10G_PMA_PMD_SHIFT = 7
	AUTOC_10G_PMA_PMD_MASK  = 0x3
	AUTOC_10G_PMA_PMD_XAUI  = 0x0

	AUTOC_AN_RESTART = 12
)

// LINKS fields.
const (
	LINKS_UP          = 30
	LINKS_SPEED_SHIFT = 28
	LINKS_SPEED_MASK  = 0x3
	linksSpeed10G     = 0x3
	linksSpeed1G      = 0x2
	linksSpeed100M    = 0x1
)

// FCTRL bits.
const (
	FCTRL_MPE = 8
	FCTRL_UPE = 9
	FCTRL_BAM = 10
)

// HLREG0 bits.
const (
	HLREG0_TXCRCEN = 0
	HLREG0_RXCRCSTRP = 1
	HLREG0_TXPADEN  = 10
)

// RXCTRL bits.
const RXCTRL_RXEN = 0

// DMATXCTL bits.
const DMATXCTL_TE = 0

// RTTDCS bits.
const RTTDCS_ARBDIS = 6

// Per-queue RX registers, indexed by queue number i (0-based).
func RDBAL(i int) uint32 { return 0x01000 + uint32(i)*0x40 }
func RDBAH(i int) uint32 { return 0x01004 + uint32(i)*0x40 }
func RDLEN(i int) uint32 { return 0x01008 + uint32(i)*0x40 }
func RDH(i int) uint32   { return 0x01010 + uint32(i)*0x40 }
func RDT(i int) uint32   { return 0x01018 + uint32(i)*0x40 }
func RXDCTL(i int) uint32 { return 0x01028 + uint32(i)*0x40 }
func SRRCTL(i int) uint32 { return 0x01014 + uint32(i)*0x40 }
func RXPBSIZE(i int) uint32 { return 0x03c00 + uint32(i)*0x4 }
func DCA_RXCTRL(i int) uint32 { return 0x02200 + uint32(i)*0x4 }

// Per-queue TX registers.
func TDBAL(i int) uint32 { return 0x06000 + uint32(i)*0x40 }
func TDBAH(i int) uint32 { return 0x06004 + uint32(i)*0x40 }
func TDLEN(i int) uint32 { return 0x06008 + uint32(i)*0x40 }
func TDH(i int) uint32   { return 0x06010 + uint32(i)*0x40 }
func TDT(i int) uint32   { return 0x06018 + uint32(i)*0x40 }
func TXDCTL(i int) uint32 { return 0x06028 + uint32(i)*0x40 }
func TXPBSIZE(i int) uint32 { return 0x0cd00 + uint32(i)*0x4 }

// RXDCTL / TXDCTL bits.
const (
	RXDCTL_ENABLE = 25
	TXDCTL_ENABLE = 25
)

// SRRCTL fields.
const (
	SRRCTL_DESCTYPE_SHIFT = 25
	SRRCTL_DESCTYPE_MASK  = 0x7
	SRRCTL_DESCTYPE_ADV1BUF = 0x1
	SRRCTL_DROP_EN        = 28
)

// TXDCTL writeback threshold fields.
const (
	TXDCTL_PTHRESH_SHIFT = 0
	TXDCTL_PTHRESH_MASK  = 0x7f
	TXDCTL_HTHRESH_SHIFT = 8
	TXDCTL_HTHRESH_MASK  = 0x7f
	TXDCTL_WTHRESH_SHIFT = 16
	TXDCTL_WTHRESH_MASK  = 0x7f
)

// Statistics registers (clear-on-read).
const (
	GPRC  = 0x04074
	GPTC  = 0x04080
	GORCL = 0x04088
	GORCH = 0x0408c
	GOTCL = 0x04090
	GOTCH = 0x04094
)

// Descriptor writeback status bits (RX), bit positions within the 32-bit
// extended status word.
const (
	RXDADV_STAT_DD  = 0
	RXDADV_STAT_EOP = 1
)

// Descriptor command/status bits (TX), preserved by name from the hardware
// specification. Unlike the RX status bits above these are already
// word-shifted values, combined directly by OR into cmd_type_length.
const (
	ADVTXD_DCMD_EOP  = 0x01000000
	ADVTXD_DCMD_IFCS = 0x02000000
	ADVTXD_DCMD_RS   = 0x08000000
	ADVTXD_DCMD_DEXT = 0x20000000
	ADVTXD_DTYP_DATA = 0x00300000

	ADVTXD_STAT_DD = 0x00000001

	ADVTXD_PAYLEN_SHIFT = 14
)

const (
	resetPollInterval  = 10 * time.Microsecond
	queueEnableTimeout = 1 * time.Second
)

// linkWaitTimeout bounds how long resetAndInit polls LINKS.UP before giving
// up and reporting speed 0. A var, not a const, so tests can shorten it
// instead of waiting out a real 10s timeout.
var linkWaitTimeout = 10 * time.Second
