// Package devicedriver adapts each device-family decoder in internal/driver
// into a controller.Controller: it owns the InputDevice's read loop, decodes
// each frame, and feeds the result to the controller's bound mapper.
package devicedriver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/driver/ds4"
	"github.com/scc-go/sccd/internal/transport"
)

// DS4Controller wraps an opened DualShock4 InputDevice.
type DS4Controller struct {
	dev    transport.InputDevice
	id     string
	mapper controller.MapperHandle
	log    *slog.Logger
	cancel context.CancelFunc
}

// NewDS4Handler returns a devicemonitor.Handler that registers a DS4
// controller with reg for every matched descriptor, resolving each one's ID
// via idp. post relays every registry/mapper touch onto the mainloop
// goroutine, since none of that state tolerates concurrent access.
func NewDS4Handler(reg *controller.Registry, log *slog.Logger, idp IDPolicy, post func(func())) func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
	return func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
		// Opening and claiming the USB interface is blocking I/O with no
		// shared state involved, so it runs here, off the mainloop.
		dev, err := open.Open(ctx, d)
		if err != nil {
			log.Warn("ds4: open failed", "path", d.Path, "err", err)
			return
		}
		if err := dev.ClaimInterfaces(ctx, 0); err != nil {
			log.Warn("ds4: claim failed", "path", d.Path, "err", err)
			_ = dev.Close()
			return
		}
		post(func() {
			id := idp.Resolve(reg, d)
			cctx, cancel := context.WithCancel(ctx)
			c := &DS4Controller{dev: dev, id: id, log: log, cancel: cancel}
			if err := reg.Add(c); err != nil {
				log.Warn("ds4: registry add failed", "id", id, "err", err)
				cancel()
				_ = dev.Close()
				return
			}
			go c.readLoop(cctx, reg, post)
		})
	}
}

func (c *DS4Controller) readLoop(ctx context.Context, reg *controller.Registry, post func(func())) {
	frames, err := c.dev.ReadLoop(ctx)
	if err != nil {
		c.log.Warn("ds4: read loop start failed", "id", c.id, "err", err)
		post(func() { reg.Remove(c.id) })
		return
	}
	for frame := range frames {
		var in controllerinput.Input
		if err := ds4.Decode(frame, &in); err != nil {
			c.log.Debug("ds4: decode error", "id", c.id, "err", err)
			continue
		}
		post(func() {
			if c.mapper != nil {
				c.mapper.Input(&in)
			}
		})
	}
	post(func() { reg.Remove(c.id) })
}

func (c *DS4Controller) ID() string          { return c.id }
func (c *DS4Controller) Type() string        { return "dualshock4" }
func (c *DS4Controller) Description() string { return fmt.Sprintf("DualShock4 (%s)", c.id) }
func (c *DS4Controller) Flags() controller.Flags {
	return controller.FlagRightStick | controller.FlagSeparateStickPad | controller.FlagGrips
}
func (c *DS4Controller) SetMapper(m controller.MapperHandle) { c.mapper = m }

// Deallocate releases virtual buttons and closes the underlying device.
func (c *DS4Controller) Deallocate() {
	if c.mapper != nil {
		c.mapper.ReleaseVirtualButtons()
	}
	c.cancel()
	_ = c.dev.Close()
}

// Haptic implements controller.HapticCapable by encoding a rumble/LED
// output report and writing it through the claimed device.
func (c *DS4Controller) Haptic(e controller.HapticEffect) {
	small, large := uint8(0), uint8(0)
	if e.Position == 0 {
		small = uint8(e.Amplitude >> 8)
	} else {
		large = uint8(e.Amplitude >> 8)
	}
	report := ds4.EncodeOutput(0, 0, 0, small, large)
	if err := c.dev.HIDWrite(ds4.ReportIDOutput, report); err != nil {
		c.log.Debug("ds4: haptic write failed", "id", c.id, "err", err)
	}
}
