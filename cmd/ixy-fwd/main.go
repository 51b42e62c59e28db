// Command ixy-fwd receives packets on one ixgbe device and retransmits
// them on another.
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
		Use:   "ixy-fwd",
		Short: "forward packets from one ixgbe device to another",
	}

	load := config.RegisterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}

		if len(cfg.PCIAddresses) != 2 {
			return fmt.Errorf("ixy-fwd requires exactly two --pci addresses")
		}

		return run(cfg)
	}

	return cmd
}

func run(cfg config.Config) error {
	if err := log.Init(cfg.Debug); err != nil {
		return err
	}
	defer log.Sync()

	a, err := ixgbe.Open(cfg.PCIAddresses[0], cfg.RxQueues, cfg.TxQueues)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.PCIAddresses[0], err)
	}
	defer a.Close()

	b, err := ixgbe.Open(cfg.PCIAddresses[1], cfg.RxQueues, cfg.TxQueues)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.PCIAddresses[1], err)
	}
	defer b.Close()

	return cliutil.Run(cfg.Duration, func(ctx context.Context) error {
		var forwarded uint64

		buf := make([]packet.Handle, cfg.BatchSize)

		for {
			select {
			case <-ctx.Done():
				log.Infow("ixy-fwd stopping", "packets_forwarded", forwarded)
				return nil
			default:
			}

			forwardOnce(a, b, buf, &forwarded)
			forwardOnce(b, a, buf, &forwarded)
		}
	})
}

func forwardOnce(from, to *ixgbe.Device, buf []packet.Handle, forwarded *uint64) {
	n, err := from.RxBatch(0, buf)
	if err != nil {
		log.Errorw("rx_batch failed", "error", err)
		return
	}

	if n == 0 {
		return
	}

	sent, err := to.TxBatch(0, buf[:n])
	if err != nil {
		log.Errorw("tx_batch failed", "error", err)
		return
	}

	*forwarded += uint64(sent)
}
