package devicedriver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/driver/generic"
	"github.com/scc-go/sccd/internal/transport"
)

// GenericController wraps an opened evdev/DirectInput-style InputDevice
// decoded through a declarative generic.Layout rather than a hand-written
// family decoder.
type GenericController struct {
	dev    transport.InputDevice
	id     string
	layout *generic.Layout
	mapper controller.MapperHandle
	log    *slog.Logger
	cancel context.CancelFunc
}

// LayoutResolver picks the decode layout for a matched descriptor, e.g. by
// looking up its vendor:product in a user-supplied controller database.
type LayoutResolver func(d transport.Descriptor) (*generic.Layout, error)

// NewGenericHandler returns a devicemonitor.Handler that decodes matched
// descriptors through resolve's layout, resolving each one's ID via idp.
// post relays every registry/mapper touch onto the mainloop goroutine,
// since none of that state tolerates concurrent access.
func NewGenericHandler(reg *controller.Registry, resolve LayoutResolver, log *slog.Logger, idp IDPolicy, post func(func())) func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
	return func(ctx context.Context, d transport.Descriptor, open transport.Opener) {
		layout, err := resolve(d)
		if err != nil {
			log.Warn("generic: no layout", "path", d.Path, "err", err)
			return
		}
		dev, err := open.Open(ctx, d)
		if err != nil {
			log.Warn("generic: open failed", "path", d.Path, "err", err)
			return
		}
		if err := dev.ClaimInterfaces(ctx, 0); err != nil {
			log.Warn("generic: claim failed", "path", d.Path, "err", err)
			_ = dev.Close()
			return
		}
		post(func() {
			id := idp.Resolve(reg, d)
			cctx, cancel := context.WithCancel(ctx)
			c := &GenericController{dev: dev, id: id, layout: layout, log: log, cancel: cancel}
			if err := reg.Add(c); err != nil {
				log.Warn("generic: registry add failed", "id", id, "err", err)
				cancel()
				_ = dev.Close()
				return
			}
			go c.readLoop(cctx, reg, post)
		})
	}
}

func (c *GenericController) readLoop(ctx context.Context, reg *controller.Registry, post func(func())) {
	frames, err := c.dev.ReadLoop(ctx)
	if err != nil {
		c.log.Warn("generic: read loop start failed", "id", c.id, "err", err)
		post(func() { reg.Remove(c.id) })
		return
	}
	for frame := range frames {
		var in controllerinput.Input
		if err := c.layout.Decode(frame, &in); err != nil {
			c.log.Debug("generic: decode error", "id", c.id, "err", err)
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

func (c *GenericController) ID() string          { return c.id }
func (c *GenericController) Type() string        { return "generic" }
func (c *GenericController) Description() string { return fmt.Sprintf("Generic controller (%s)", c.id) }
func (c *GenericController) Flags() controller.Flags {
	return controller.FlagDPad
}
func (c *GenericController) SetMapper(m controller.MapperHandle) { c.mapper = m }

// Deallocate releases virtual buttons and closes the underlying device.
func (c *GenericController) Deallocate() {
	if c.mapper != nil {
		c.mapper.ReleaseVirtualButtons()
	}
	c.cancel()
	_ = c.dev.Close()
}
