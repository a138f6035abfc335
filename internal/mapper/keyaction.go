package mapper

import (
	"fmt"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/profile"
	"github.com/scc-go/sccd/internal/virtualdevice"
)

// KeyAction binds a button, trigger, or whole-pad/stick event to a single
// virtual keycode on a specific Mapper's keyboard output. It exists as a
// concrete, directly-constructible profile.Action so the end-to-end press/
// release counter semantics are exercisable without the excluded action-DSL
// parser: callers build a Profile out of KeyActions by hand (tests, the
// debug CLI) instead of parsing a .sccprofile string.
type KeyAction struct {
	m    *Mapper
	code virtualdevice.Keycode

	// triggerThreshold, if nonzero, turns Trigger calls into a press/release
	// pair crossing the given pressure, mirroring a trigger bound to a key.
	triggerThreshold uint8
}

// NewKeyAction binds code to m's keyboard output for button press/release.
func NewKeyAction(m *Mapper, code virtualdevice.Keycode) *KeyAction {
	return &KeyAction{m: m, code: code}
}

// NewTriggerKeyAction binds code to a trigger crossing threshold (0..255):
// Trigger reports a press when pressure rises to at least threshold and a
// release when it falls back below it.
func NewTriggerKeyAction(m *Mapper, code virtualdevice.Keycode, threshold uint8) *KeyAction {
	return &KeyAction{m: m, code: code, triggerThreshold: threshold}
}

func (k *KeyAction) ButtonPress()   { k.m.KeyPress(k.code) }
func (k *KeyAction) ButtonRelease() { k.m.KeyRelease(k.code) }

func (k *KeyAction) Whole(x, y int16, pst profile.Pst) {}

func (k *KeyAction) Trigger(old, new uint8, pst profile.Pst) {
	if k.triggerThreshold == 0 {
		return
	}
	wasDown := old >= k.triggerThreshold
	isDown := new >= k.triggerThreshold
	switch {
	case !wasDown && isDown:
		k.m.KeyPress(k.code)
	case wasDown && !isDown:
		k.m.KeyRelease(k.code)
	}
}

func (k *KeyAction) Gyro(g controllerinput.Gyro) {}

func (k *KeyAction) String() string {
	if k.triggerThreshold != 0 {
		return fmt.Sprintf("key(%d)@%d", k.code, k.triggerThreshold)
	}
	return fmt.Sprintf("key(%d)", k.code)
}

func (k *KeyAction) Description() string { return k.String() }
