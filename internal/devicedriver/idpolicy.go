package devicedriver

import (
	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/transport"
)

// IDPolicy resolves the stable controller.Controller.ID for a newly matched
// descriptor. The default policy prefers the descriptor's reported serial
// (transport.Descriptor.UniqueID), falling back to its device path when no
// serial was reported. Passing an IgnoreSerials policy instead (config
// option ignore_serials) always mints a fresh synthetic ID via
// controller.AutoIDAllocator, so a replug never tries to rejoin a
// previously-seen identity.
type IDPolicy struct {
	IgnoreSerials bool
	Alloc         *controller.AutoIDAllocator
}

// Resolve returns the ID a new controller for descriptor d should register
// under.
func (p IDPolicy) Resolve(reg *controller.Registry, d transport.Descriptor) string {
	if p.IgnoreSerials && p.Alloc != nil {
		return p.Alloc.Next(reg)
	}
	if d.UniqueID != "" {
		return d.UniqueID
	}
	return d.Path
}
