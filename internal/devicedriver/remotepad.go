package devicedriver

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/core"
	"github.com/scc-go/sccd/internal/driver/remotepad"
)

// remotepadController is the controller.Controller half of a RemotePad peer;
// remotepad.Listener owns the lifecycle and calls Input/TurnOff directly, so
// most Controller methods here are bookkeeping only.
type remotepadController struct {
	id     string
	mapper controller.MapperHandle
	reg    *controller.Registry
	log    *slog.Logger
}

// NewRemotePadListener builds a remotepad.Listener whose peers register
// themselves with reg as they start sending frames.
func NewRemotePadListener(reg *controller.Registry, log *slog.Logger, sched *core.Scheduler) (*remotepad.Listener, error) {
	return remotepad.New(sched, func(addr *net.UDPAddr) remotepad.PeerHandler {
		c := &remotepadController{id: "remotepad:" + addr.String(), reg: reg, log: log}
		if err := reg.Add(c); err != nil {
			log.Warn("remotepad: registry add failed", "id", c.id, "err", err)
		}
		return c
	})
}

func (c *remotepadController) Input(in *controllerinput.Input) {
	if c.mapper != nil {
		c.mapper.Input(in)
	}
}

// TurnOff implements remotepad.PeerHandler: the peer went quiet for the
// listener's grace window, so it's removed from the registry like any other
// unplug.
func (c *remotepadController) TurnOff() {
	c.reg.Remove(c.id)
}

func (c *remotepadController) ID() string          { return c.id }
func (c *remotepadController) Type() string        { return "remotepad" }
func (c *remotepadController) Description() string { return fmt.Sprintf("RemotePad (%s)", c.id) }
func (c *remotepadController) Flags() controller.Flags {
	return controller.FlagRightStick | controller.FlagSeparateStickPad
}
func (c *remotepadController) SetMapper(m controller.MapperHandle) { c.mapper = m }
func (c *remotepadController) Deallocate() {
	if c.mapper != nil {
		c.mapper.ReleaseVirtualButtons()
	}
}
