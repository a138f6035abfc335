//go:build linux

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/daemon"
	"github.com/scc-go/sccd/internal/devicedriver"
	"github.com/scc-go/sccd/internal/devicemonitor"
	"github.com/scc-go/sccd/internal/transport"
)

// registerDrivers wires the device families this build targets (USB DS4 and
// Steam Controller over gousb, plus the RemotePad UDP listener) into d's
// monitor and poller. Driver registration order is first-registered-wins;
// no catch-all generic driver is registered here (see below).
// ignoreSerials mirrors the ignore_serials config option: when set, every
// hotplugged controller gets a fresh synthetic ID instead of one derived
// from its reported serial.
func registerDrivers(d *daemon.Daemon, log *slog.Logger, ignoreSerials bool) (func(), error) {
	usbOpener := transport.NewGousbOpener()
	d.Enumerator = usbOpener

	reg := d.Registry()
	mon := d.Monitor()
	idp := devicedriver.IDPolicy{IgnoreSerials: ignoreSerials, Alloc: &controller.AutoIDAllocator{}}

	if err := mon.Register("dualshock4", transport.SubsystemUSB,
		devicemonitor.Filter{VendorID: 0x054C, ProductID: 0x05C4},
		usbOpener, devicedriver.NewDS4Handler(reg, log, idp, d.Post)); err != nil {
		usbOpener.Close()
		return nil, err
	}

	if err := mon.Register("steamcontroller-wired", transport.SubsystemUSB,
		devicemonitor.Filter{VendorID: 0x28DE, ProductID: 0x1102},
		usbOpener, devicedriver.NewSCHandler(reg, log, idp, d.Post)); err != nil {
		usbOpener.Close()
		return nil, err
	}
	if err := mon.Register("steamcontroller-dongle", transport.SubsystemUSB,
		devicemonitor.Filter{VendorID: 0x28DE, ProductID: 0x1142},
		usbOpener, devicedriver.NewSCHandler(reg, log, idp, d.Post)); err != nil {
		usbOpener.Close()
		return nil, err
	}
	if err := mon.Register("steamdeck", transport.SubsystemUSB,
		devicemonitor.Filter{VendorID: 0x28DE, ProductID: 0x1205},
		usbOpener, devicedriver.NewSCDeckHandler(reg, log, idp, d.Post)); err != nil {
		usbOpener.Close()
		return nil, err
	}

	// The generic evdev/DirectInput decoder (devicedriver.NewGenericHandler)
	// is available for config-driven controllers outside the dedicated DS4/
	// Steam Controller families, but needs a per-vendor:product Layout
	// supplied by the user's config file before it can be registered with a
	// non-empty filter; left for config-loading code to wire.

	listener, err := devicedriver.NewRemotePadListener(reg, log, d.Scheduler())
	if err != nil {
		usbOpener.Close()
		return nil, fmt.Errorf("start remotepad listener: %w", err)
	}
	if err := d.Poller().Add("remotepad", listener); err != nil {
		usbOpener.Close()
		return nil, err
	}

	cleanup := func() {
		listener.Close()
		usbOpener.Close()
	}
	return cleanup, nil
}
