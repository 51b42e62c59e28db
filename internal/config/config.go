// Package config binds the driver's command-line and environment
// configuration surface: PCI address(es), queue counts, huge-page mount
// path, batch size, and run duration. Flags are registered with
// github.com/spf13/pflag on a github.com/spf13/cobra command and read back
// through github.com/spf13/viper, so IXY_-prefixed environment variables
// override defaults the same way flags do.
package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ixy-go/ixy/memory"
)

// Config holds the resolved configuration for a driver CLI command.
type Config struct {
	PCIAddresses []string
	RxQueues     int
	TxQueues     int
	HugepageDir  string
	BatchSize    int
	Duration     time.Duration
	Debug        bool
}

// RegisterFlags adds the common driver flags to cmd and binds them into a
// fresh viper instance scoped to that command, returning a loader that
// resolves the final Config after cobra parses args and applies its
// huge-page mount path to package memory.
func RegisterFlags(cmd *cobra.Command) func() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IXY")
	v.AutomaticEnv()

	var flags *pflag.FlagSet = cmd.Flags()
	flags.StringSlice("pci", nil, "PCI bus address(es) to open (dddd:bb:dd.f)")
	flags.Int("rx-queues", 1, "number of RX queues to bring up")
	flags.Int("tx-queues", 1, "number of TX queues to bring up")
	flags.String("hugepage-dir", memory.DefaultHugepageDir, "hugetlbfs mount point for DMA buffers")
	flags.Int("batch-size", 32, "packets per rx_batch/tx_batch call")
	flags.Duration("duration", 0, "run duration, 0 means run until interrupted")
	flags.Bool("debug", false, "enable development-mode (human-readable, debug level) logging")

	for _, name := range []string{"pci", "rx-queues", "tx-queues", "hugepage-dir", "batch-size", "duration", "debug"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err) // programmer error: flag name mismatch
		}
	}

	return func() (Config, error) {
		cfg := Config{
			PCIAddresses: v.GetStringSlice("pci"),
			RxQueues:     v.GetInt("rx-queues"),
			TxQueues:     v.GetInt("tx-queues"),
			HugepageDir:  v.GetString("hugepage-dir"),
			BatchSize:    v.GetInt("batch-size"),
			Duration:     v.GetDuration("duration"),
			Debug:        v.GetBool("debug"),
		}

		memory.SetHugepageDir(cfg.HugepageDir)

		return cfg, nil
	}
}
