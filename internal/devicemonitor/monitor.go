package devicemonitor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/transport"
)

// Handler is invoked once for each device a registration's Filter matches,
// with the Opener that registration was made against.
type Handler func(ctx context.Context, d transport.Descriptor, open transport.Opener)

type registration struct {
	name    string
	subsys  transport.Subsystem
	filter  Filter
	opener  transport.Opener
	handler Handler
}

// Monitor tracks driver registrations and dispatches enumerated/hotplugged
// descriptors to the first registration (in registration order) whose
// filter matches, exactly once per device path.
type Monitor struct {
	log     *slog.Logger
	regs    []*registration
	handled map[string]bool // descriptor.Path -> already dispatched
}

// New creates an empty Monitor.
func New(log *slog.Logger) *Monitor {
	return &Monitor{log: log, handled: map[string]bool{}}
}

// Register associates filter with handler under opener; empty filters are
// rejected since they would capture every device regardless of driver
// intent.
func (m *Monitor) Register(name string, subsys transport.Subsystem, filter Filter, opener transport.Opener, handler Handler) error {
	if filter.empty() {
		return fmt.Errorf("devicemonitor: registration %q: filter matches everything", name)
	}
	m.regs = append(m.regs, &registration{name: name, subsys: subsys, filter: filter, opener: opener, handler: handler})
	return nil
}

// Observe is called once per enumerated or hotplugged descriptor. It is a
// no-op for a path already dispatched, and dispatches to the first matching
// registration otherwise; unplug/rescan bookkeeping to forget a path lives
// in Forget.
func (m *Monitor) Observe(ctx context.Context, d transport.Descriptor) {
	if m.handled[d.Path] {
		return
	}
	for _, r := range m.regs {
		if r.subsys != d.Subsystem {
			continue
		}
		if !r.filter.Matches(d) {
			continue
		}
		m.handled[d.Path] = true
		m.log.Info("device matched", "driver", r.name, "path", d.Path, "vid", d.VendorID, "pid", d.ProductID)
		r.handler(ctx, d, r.opener)
		return
	}
}

// Forget clears a path's handled state so the path is dispatched again the
// next time it is seen. The device drivers do not call it when a device
// unplugs, so an unplugged path stays marked handled.
func (m *Monitor) Forget(path string) {
	delete(m.handled, path)
}

// RescanSubsystems is a bitmask of subsystems a rescan request should
// re-enumerate; the Rescan. client command always passes every subsystem.
type RescanSubsystems uint8

const (
	RescanUSB RescanSubsystems = 1 << iota
	RescanHIDRaw
	RescanInput
	RescanBluetooth
)

// Enumerator produces the current descriptor set for one subsystem; OS-
// specific implementations walk sysfs/libusb/udev as appropriate. Kept as an
// injectable seam so Monitor's dispatch logic is testable without real
// hardware enumeration.
type Enumerator interface {
	Enumerate(ctx context.Context, subsys transport.Subsystem) ([]transport.Descriptor, error)
}

// Rescan re-enumerates every subsystem set in which and observes each
// descriptor found, matching the daemon's incremental, subsystem-scoped
// rescan rather than a full device-tree teardown.
func (m *Monitor) Rescan(ctx context.Context, enum Enumerator, which RescanSubsystems) error {
	subsystems := []struct {
		bit RescanSubsystems
		sub transport.Subsystem
	}{
		{RescanUSB, transport.SubsystemUSB},
		{RescanHIDRaw, transport.SubsystemHIDRaw},
		{RescanInput, transport.SubsystemInput},
		{RescanBluetooth, transport.SubsystemBluetooth},
	}
	for _, s := range subsystems {
		if which&s.bit == 0 {
			continue
		}
		descs, err := enum.Enumerate(ctx, s.sub)
		if err != nil {
			return fmt.Errorf("devicemonitor: enumerate %s: %w", s.sub, err)
		}
		for _, d := range descs {
			m.Observe(ctx, d)
		}
	}
	return nil
}
