// Command ixy-stats periodically prints packet and byte counters for one
// or more ixgbe devices.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ixy-go/ixy/internal/cliutil"
	"github.com/ixy-go/ixy/internal/config"
	"github.com/ixy-go/ixy/internal/log"
	"github.com/ixy-go/ixy/ixgbe"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ixy-stats",
		Short: "print periodic packet/byte counters for ixgbe devices",
	}

	load := config.RegisterFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := load()
		if err != nil {
			return err
		}

		if len(cfg.PCIAddresses) == 0 {
			return fmt.Errorf("ixy-stats requires at least one --pci address")
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

	devices := make([]*ixgbe.Device, 0, len(cfg.PCIAddresses))
	for _, addr := range cfg.PCIAddresses {
		d, err := ixgbe.Open(addr, cfg.RxQueues, cfg.TxQueues)
		if err != nil {
			return fmt.Errorf("open %s: %w", addr, err)
		}
		defer d.Close()

		devices = append(devices, d)
	}

	return cliutil.Run(cfg.Duration, func(ctx context.Context) error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				for i, d := range devices {
					s := d.ReadStats()
					fmt.Printf("%s  rx_packets=%d rx_bytes=%d tx_packets=%d tx_bytes=%d\n",
						cfg.PCIAddresses[i], s.RxPackets, s.RxBytes, s.TxPackets, s.TxBytes)
				}
			}
		}
	})
}
