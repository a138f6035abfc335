package devicedriver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/driver/sc"
	"github.com/scc-go/sccd/internal/transport"
)

// SCController wraps an opened Steam Controller InputDevice. Bluetooth
// descriptors additionally reassemble long packets before decoding; wired
// and dongle descriptors decode each frame directly. A Deck-integrated
// descriptor decodes via the Deck's distinct fixed-layout packet instead.
type SCController struct {
	dev    transport.InputDevice
	id     string
	mapper controller.MapperHandle
	log    *slog.Logger
	cancel context.CancelFunc
	reasm  *sc.Reassembler
	isDeck bool
	gyroOn bool
}

// NewSCHandler returns a devicemonitor.Handler registering a wired/BT Steam
// Controller with reg for every matched descriptor, resolving each one's ID
// via idp. post relays every registry/mapper touch onto the mainloop
// goroutine, since none of that state tolerates concurrent access.
func NewSCHandler(reg *controller.Registry, log *slog.Logger, idp IDPolicy, post func(func())) func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
	return newSCHandler(reg, log, idp, post, false)
}

// NewSCDeckHandler returns a devicemonitor.Handler for the Steam Deck's
// integrated controller, which speaks the Deck packet layout instead of the
// wired/BT one.
func NewSCDeckHandler(reg *controller.Registry, log *slog.Logger, idp IDPolicy, post func(func())) func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
	return newSCHandler(reg, log, idp, post, true)
}

func newSCHandler(reg *controller.Registry, log *slog.Logger, idp IDPolicy, post func(func()), isDeck bool) func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
	return func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
		dev, err := open.Open(ctx, d)
		if err != nil {
			log.Warn("sc: open failed", "path", d.Path, "err", err)
			return
		}
		if err := dev.ClaimInterfaces(ctx, 2); err != nil {
			log.Warn("sc: claim failed", "path", d.Path, "err", err)
			_ = dev.Close()
			return
		}
		post(func() {
			id := idp.Resolve(reg, d)
			cctx, cancel := context.WithCancel(ctx)
			c := &SCController{dev: dev, id: id, log: log, cancel: cancel, isDeck: isDeck}
			if d.Subsystem == transport.SubsystemBluetooth {
				c.reasm = &sc.Reassembler{}
			}
			if err := reg.Add(c); err != nil {
				log.Warn("sc: registry add failed", "id", id, "err", err)
				cancel()
				_ = dev.Close()
				return
			}
			go c.readLoop(cctx, reg, post)
		})
	}
}

func (c *SCController) readLoop(ctx context.Context, reg *controller.Registry, post func(func())) {
	frames, err := c.dev.ReadLoop(ctx)
	if err != nil {
		c.log.Warn("sc: read loop start failed", "id", c.id, "err", err)
		post(func() { reg.Remove(c.id) })
		return
	}
	var in controllerinput.Input
	decode := sc.Decode
	if c.isDeck {
		decode = sc.DecodeDeck
	}
	for frame := range frames {
		packet := frame
		if c.reasm != nil {
			full, complete := c.reasm.Feed(frame)
			if !complete {
				continue
			}
			packet = full
		}
		typ, changed, err := decode(packet, &in)
		if err != nil {
			c.log.Debug("sc: decode error", "id", c.id, "err", err)
			continue
		}
		if typ != sc.PacketInput || !changed {
			continue
		}
		inCopy := in
		post(func() {
			if c.mapper != nil {
				c.mapper.Input(&inCopy)
			}
		})
	}
	post(func() { reg.Remove(c.id) })
}

func (c *SCController) ID() string   { return c.id }
func (c *SCController) Type() string {
	if c.isDeck {
		return "steamdeck"
	}
	return "steamcontroller"
}
func (c *SCController) Description() string { return fmt.Sprintf("Steam Controller (%s)", c.id) }
func (c *SCController) Flags() controller.Flags {
	return controller.FlagCenterPad | controller.FlagGrips
}
func (c *SCController) SetMapper(m controller.MapperHandle) { c.mapper = m }

// Deallocate releases virtual buttons and closes the underlying device.
func (c *SCController) Deallocate() {
	if c.mapper != nil {
		c.mapper.ReleaseVirtualButtons()
	}
	c.cancel()
	_ = c.dev.Close()
}

// SetGyroEnabled implements controller.GyroCapable; toggling the physical
// gyro stream requires a feature report the daemon sends on every change.
func (c *SCController) SetGyroEnabled(enabled bool) {
	flag := byte(0)
	if enabled {
		flag = 1
	}
	if _, err := c.dev.HIDRequest(0x87, []byte{0x30, flag}, 0); err != nil {
		c.log.Debug("sc: gyro toggle failed", "id", c.id, "err", err)
		return
	}
	c.gyroOn = enabled
}

func (c *SCController) GyroEnabled() bool { return c.gyroOn }

// Keepalive sends the Steam Deck's unlizard-mode ping: a harmless feature
// report that resets the firmware's own inactivity timeout, called
// periodically by cmd/sccd's gocron job rather than the core Scheduler
// since it has no per-task deadline to cancel.
func (c *SCController) Keepalive() {
	if _, err := c.dev.HIDRequest(0x87, []byte{0x30, boolToByte(c.gyroOn)}, 0); err != nil {
		c.log.Debug("sc: keepalive failed", "id", c.id, "err", err)
	}
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
