//go:build !linux

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/daemon"
)

// registerDrivers has no transport backend outside Linux yet: gousb's libusb
// claim path and the uinput virtual-device backend are both Linux-specific.
func registerDrivers(d *daemon.Daemon, log *slog.Logger, ignoreSerials bool) (func(), error) {
	return nil, fmt.Errorf("device drivers are only implemented on linux")
}
