// Package cliutil provides the signal-driven run loop shared by the
// driver's CLI front-ends: SIGINT/SIGTERM trigger a clean shutdown instead
// of an abrupt exit, giving ixgbe.Device.Close a chance to restore PCI
// bind state.
package cliutil

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// Run wires a context that is cancelled on SIGINT/SIGTERM (or, if duration
// is positive, after duration elapses) and invokes work with it. work
// should poll ctx.Done() between batches rather than blocking on it, since
// rx_batch/tx_batch never block.
func Run(duration time.Duration, work func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	return work(ctx)
}
