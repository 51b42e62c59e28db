// Command ixy-pktgen generates and transmits synthetic Ethernet frames at
// a configurable batch size, to exercise a device's TX path in isolation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ixy-go/ixy/internal/cliutil"
	"github.com/ixy-go/ixy/internal/config"
	"github.com/ixy-go/ixy/internal/log"
	"github.com/ixy-go/ixy/ixgbe"
	"github.com/ixy-go/ixy/mempool"
	"github.com/ixy-go/ixy/packet"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ixy-pktgen",
		Short: "transmit synthetic frames on an ixgbe device",
	}

	load := config.RegisterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}

		if len(cfg.PCIAddresses) != 1 {
			return fmt.Errorf("ixy-pktgen requires exactly one --pci address")
		}

		return run(cfg)
	}

	return cmd
}

// frameTemplate is the 14-byte Ethernet header of each generated frame:
// destination MAC 01:02:03:04:05:06, a synthetic source, and an arbitrary
// ethertype. run zero-fills the rest of each frame up to 60 bytes.
var frameTemplate = []byte{
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, // destination MAC
	0x02, 0x00, 0x00, 0x00, 0x00, 0x01, // source MAC
	0x08, 0x00, // ethertype
}

func run(cfg config.Config) error {
	if err := log.Init(cfg.Debug); err != nil {
		return err
	}
	defer log.Sync()

	dev, err := ixgbe.Open(cfg.PCIAddresses[0], cfg.RxQueues, cfg.TxQueues)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.PCIAddresses[0], err)
	}
	defer dev.Close()

	pool, err := mempool.New(uint32(cfg.BatchSize)*4, packet.DefaultStride)
	if err != nil {
		return fmt.Errorf("allocate generator pool: %w", err)
	}
	defer pool.Close()

	return cliutil.Run(cfg.Duration, func(ctx context.Context) error {
		var total uint64

		for {
			select {
			case <-ctx.Done():
				log.Infow("ixy-pktgen stopping", "packets_sent", total)
				return nil
			default:
			}

			batch := make([]packet.Handle, 0, cfg.BatchSize)
			for i := 0; i < cfg.BatchSize; i++ {
				h, ok := pool.Pop()
				if !ok {
					break
				}
				frame := h.PayloadN(60)
				for j := range frame {
					frame[j] = 0
				}
				copy(frame, frameTemplate)
				h.SetSize(60)
				batch = append(batch, h)
			}

			sent, err := dev.TxBatch(0, batch)
			if err != nil {
				return fmt.Errorf("tx_batch: %w", err)
			}

			for _, h := range batch[sent:] {
				pool.Push(h)
			}

			total += uint64(sent)
		}
	})
}
