package pci

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// shutdownRegistry tracks every Device with a mapped BAR0, so a signal
// handler installed once per process can restore driver bindings on exit
// even if the caller never reaches its own deferred Close.
var (
	shutdownOnce     sync.Once
	shutdownRegistry sync.Map // map[*Device]struct{}
)

func registerForShutdown(d *Device) {
	installShutdownHandler()
	shutdownRegistry.Store(d, struct{}{})
}

func unregisterForShutdown(d *Device) {
	shutdownRegistry.Delete(d)
}

func installShutdownHandler() {
	shutdownOnce.Do(func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			<-sigCh
			closeAllForShutdown()
			os.Exit(1)
		}()
	})
}

func closeAllForShutdown() {
	shutdownRegistry.Range(func(key, _ any) bool {
		d := key.(*Device)
		d.Close()
		return true
	})
}
