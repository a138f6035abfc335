// Package profile implements the Profile/Action object model: an
// immutable-at-runtime mapping from input sources to actions, shared
// between a controller's mapper and (while locked) a remote client.
package profile

import "github.com/scc-go/sccd/internal/controllerinput"

// Pst is the "position" tag an Action receives alongside an axis or
// trigger event, disambiguating which physical surface produced it.
type Pst int

const (
	PstStick Pst = iota
	PstLPad
	PstRPad
	PstCPad
	PstLTrigger
	PstRTrigger
)

// Action is invoked by the mapper for every kind of input event a profile
// can bind. Long-running effects an action starts (rumble, timers) are
// owned by the mapper that invoked it, not by the Action itself.
type Action interface {
	ButtonPress()
	ButtonRelease()
	Whole(x, y int16, pst Pst)
	Trigger(old, new uint8, pst Pst)
	Gyro(g controllerinput.Gyro)
	String() string
	Description() string
}

// noAction is the singleton inert action; every unbound source resolves to
// it rather than to a nil interface.
type noAction struct{}

func (noAction) ButtonPress()                     {}
func (noAction) ButtonRelease()                    {}
func (noAction) Whole(x, y int16, pst Pst)         {}
func (noAction) Trigger(old, new uint8, pst Pst)   {}
func (noAction) Gyro(g controllerinput.Gyro)       {}
func (noAction) String() string                    { return "None" }
func (noAction) Description() string               { return "" }

// NoAction is the shared singleton inert Action.
var NoAction Action = noAction{}

// Placeholder represents an action-DSL string the excluded parser has not
// yet turned into a real Action tree. It is inert (like NoAction) but
// retains the original description text, so a Profile loaded before the
// action parser exists can still be compressed, locked, and introspected
// (get_description) without losing information.
type Placeholder struct {
	Text string
}

func (Placeholder) ButtonPress()                   {}
func (Placeholder) ButtonRelease()                  {}
func (Placeholder) Whole(x, y int16, pst Pst)       {}
func (Placeholder) Trigger(old, new uint8, pst Pst) {}
func (Placeholder) Gyro(g controllerinput.Gyro)     {}
func (p Placeholder) String() string                { return p.Text }
func (p Placeholder) Description() string            { return p.Text }
