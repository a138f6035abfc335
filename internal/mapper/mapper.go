// Package mapper implements the per-controller diff/dispatch loop: it turns
// successive ControllerInput snapshots into Action calls and virtual device
// output, matching the reference daemon's mapper.c change-detection rules.
package mapper

import (
	"time"

	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/core"
	"github.com/scc-go/sccd/internal/profile"
	"github.com/scc-go/sccd/internal/virtualdevice"
)

// Mapper binds one controller to one profile and drives its virtual device
// outputs. It satisfies controller.MapperHandle.
type Mapper struct {
	sched *core.Scheduler

	ctrl    controller.Controller
	real    profile.Profile    // the profile set by SetProfile
	lock    *profile.LockProfile // non-nil once any source is locked
	gyroOn  bool

	old, cur controllerinput.Input

	// keyPresses counts overlapping KeyPress calls for a given keycode so a
	// release from one action never undoes a press still held by another;
	// see KeyPress/KeyRelease.
	keyPresses map[virtualdevice.Keycode]int

	keyboard virtualdevice.Keyboard
	mouse    virtualdevice.Mouse
	gamepad  virtualdevice.Gamepad

	toSync dirtyBits
}

// dirtyBits marks which virtual outputs changed during the current Input
// call and need a Flush.
type dirtyBits uint8

const (
	dirtyKeyboard dirtyBits = 1 << iota
	dirtyMouse
	dirtyGamepad
)

// New creates an idle Mapper with no controller bound yet. Pool.Acquire calls
// this for mappers it can't recycle.
func New(sched *core.Scheduler) *Mapper {
	return &Mapper{
		sched:      sched,
		real:       profile.Empty(),
		keyPresses: map[virtualdevice.Keycode]int{},
		keyboard:   virtualdevice.Dummy{},
		mouse:      virtualdevice.Dummy{},
		gamepad:    virtualdevice.Dummy{},
	}
}

// SetController binds c to this mapper. Part of controller.MapperHandle.
func (m *Mapper) SetController(c controller.Controller) { m.ctrl = c }

// Controller returns the bound controller, or nil if this mapper is idle in
// the pool. Part of controller.MapperHandle.
func (m *Mapper) Controller() controller.Controller { return m.ctrl }

// SetOutputs assigns the virtual device sinks this mapper flushes into.
// Passing nil for any of them leaves the existing (or Dummy) sink in place.
func (m *Mapper) SetOutputs(kb virtualdevice.Keyboard, ms virtualdevice.Mouse, gp virtualdevice.Gamepad) {
	if kb != nil {
		m.keyboard = kb
	}
	if ms != nil {
		m.mouse = ms
	}
	if gp != nil {
		m.gamepad = gp
	}
}

// SetProfile installs p as the mapper's real profile. If cancelEffects is
// set, every task this mapper has scheduled is cancelled first, matching the
// reference daemon's Profile: command behavior of not letting stale timers
// from the old profile fire under the new one.
func (m *Mapper) SetProfile(p profile.Profile, cancelEffects bool) {
	if cancelEffects {
		m.sched.CancelAll(m)
		m.ReleaseVirtualButtons()
	}
	m.real = p.Compress()
}

// activeProfile returns the profile actions are resolved against: the lock
// wrapper while any source is locked, else the real profile.
func (m *Mapper) activeProfile() profile.Profile {
	if m.lock != nil {
		return m.lock
	}
	return m.real
}

// Lock installs owner as the handler for source, wrapping the real profile on
// first use. Returns false if source is already locked by someone else.
func (m *Mapper) Lock(source profile.Source, owner profile.Notifier) bool {
	if m.lock == nil {
		m.lock = profile.NewLockProfile(m.real, m.ctrlID())
	}
	if m.lock.IsLocked(source) {
		return false
	}
	m.lock.Lock(source, owner)
	return true
}

// Unlock releases source's lock. Once no locks remain, the lock wrapper is
// discarded and actions resolve directly against the real profile again.
func (m *Mapper) Unlock(source profile.Source) {
	if m.lock == nil {
		return
	}
	if !m.lock.Unlock(source) {
		m.lock = nil
	}
}

func (m *Mapper) ctrlID() string {
	if m.ctrl == nil {
		return ""
	}
	return m.ctrl.ID()
}

// Input is called once per decoded frame; part of controller.MapperHandle.
func (m *Mapper) Input(in *controllerinput.Input) {
	m.cur = *in
	p := m.activeProfile()

	m.dispatchButtons(p)
	m.dispatchAxes(p)
	m.dispatchTriggers(p)
	if m.gyroOn {
		p.GetGyro().Gyro(in.Gyro)
	}

	m.old = m.cur
	m.Flush()
}

// dispatchButtons XORs old and current button masks and fires ButtonPress or
// ButtonRelease for every bit that changed, in canonical bit order.
func (m *Mapper) dispatchButtons(p profile.Profile) {
	changed := m.old.Buttons ^ m.cur.Buttons
	if changed == 0 {
		return
	}
	for bit := controllerinput.SCButton(1); bit != 0; bit <<= 1 {
		if changed&bit == 0 {
			continue
		}
		a := p.GetButton(bit)
		if m.cur.Buttons&bit != 0 {
			a.ButtonPress()
		} else {
			a.ButtonRelease()
		}
	}
}

func (m *Mapper) dispatchAxes(p profile.Profile) {
	if m.old.StickX != m.cur.StickX || m.old.StickY != m.cur.StickY {
		p.GetStick().Whole(m.cur.StickX, m.cur.StickY, profile.PstStick)
	}
	if m.old.LPadX != m.cur.LPadX || m.old.LPadY != m.cur.LPadY {
		p.GetPad(profile.PstLPad).Whole(m.cur.LPadX, m.cur.LPadY, profile.PstLPad)
	}
	if m.old.RPadX != m.cur.RPadX || m.old.RPadY != m.cur.RPadY {
		p.GetPad(profile.PstRPad).Whole(m.cur.RPadX, m.cur.RPadY, profile.PstRPad)
	}
	if m.old.CPadX != m.cur.CPadX || m.old.CPadY != m.cur.CPadY {
		p.GetPad(profile.PstCPad).Whole(m.cur.CPadX, m.cur.CPadY, profile.PstCPad)
	}
}

func (m *Mapper) dispatchTriggers(p profile.Profile) {
	if m.old.LTrigger != m.cur.LTrigger {
		p.GetTrigger(profile.PstLTrigger).Trigger(m.old.LTrigger, m.cur.LTrigger, profile.PstLTrigger)
	}
	if m.old.RTrigger != m.cur.RTrigger {
		p.GetTrigger(profile.PstRTrigger).Trigger(m.old.RTrigger, m.cur.RTrigger, profile.PstRTrigger)
	}
}

// KeyPress increments the press counter for code and, on a 0->1 transition,
// emits a real KeyDown. Overlapping actions holding the same key (e.g. two
// buttons both bound to a modifier) only release it once all of them have.
func (m *Mapper) KeyPress(code virtualdevice.Keycode) {
	if code == 0 {
		return
	}
	m.keyPresses[code]++
	if m.keyPresses[code] == 1 {
		m.keyboard.KeyDown(code)
	}
	m.toSync |= dirtyKeyboard
}

// KeyRelease decrements the counter and, on a 1->0 transition, emits a real
// KeyUp.
func (m *Mapper) KeyRelease(code virtualdevice.Keycode) {
	if m.keyPresses[code] == 0 {
		return
	}
	m.keyPresses[code]--
	if m.keyPresses[code] == 0 {
		delete(m.keyPresses, code)
		m.keyboard.KeyUp(code)
	}
	m.toSync |= dirtyKeyboard
}

// MouseMove accumulates pointer motion to be flushed with the frame.
func (m *Mapper) MouseMove(dx, dy float64) {
	m.mouse.Move(dx, dy)
	m.toSync |= dirtyMouse
}

// MouseScroll accumulates wheel motion to be flushed with the frame.
func (m *Mapper) MouseScroll(dx, dy float64) {
	m.mouse.Scroll(dx, dy)
	m.toSync |= dirtyMouse
}

// MouseButton presses or releases a virtual mouse button immediately.
func (m *Mapper) MouseButton(btn virtualdevice.MouseButton, down bool) {
	m.mouse.Button(btn, down)
	m.toSync |= dirtyMouse
}

// GamepadAxis sets one axis of the emulated gamepad, flushed with the frame.
func (m *Mapper) GamepadAxis(axis virtualdevice.GamepadAxis, value int16) {
	m.gamepad.SetAxis(axis, value)
	m.toSync |= dirtyGamepad
}

// SetGyroEnabled toggles whether GetGyro().Gyro is invoked per frame.
func (m *Mapper) SetGyroEnabled(enabled bool) { m.gyroOn = enabled }

// Schedule queues fn to run after timeout, tagged so SetProfile(cancelEffects
// = true) or ReleaseVirtualButtons can sweep it away with everything else
// this mapper started.
func (m *Mapper) Schedule(timeout time.Duration, fn core.TaskFunc, ud any) core.TaskID {
	return m.sched.Schedule(timeout, fn, m, ud)
}

// Flush emits any buffered keyboard/mouse/gamepad output since the last
// Flush; Input calls this automatically after dispatch, but actions may also
// call it directly mid-frame (e.g. a macro action pacing several keys).
func (m *Mapper) Flush() {
	if m.toSync&dirtyKeyboard != 0 {
		_ = m.keyboard.Flush()
	}
	if m.toSync&dirtyMouse != 0 {
		_ = m.mouse.Flush()
	}
	if m.toSync&dirtyGamepad != 0 {
		_ = m.gamepad.Flush()
	}
	if f, ok := m.ctrl.(controller.Flushable); ok {
		f.Flush()
	}
	m.toSync = 0
}

// ReleaseVirtualButtons forces every currently-down key/button up and clears
// all pending scheduled work, as if every action's owning input had just
// gone idle. Called on controller disconnect and on Profile: switch.
func (m *Mapper) ReleaseVirtualButtons() {
	for code, n := range m.keyPresses {
		if n > 0 {
			m.keyboard.KeyUp(code)
		}
	}
	m.keyPresses = map[virtualdevice.Keycode]int{}
	m.old = controllerinput.Input{}
	m.cur = controllerinput.Input{}
	m.sched.CancelAll(m)
	_ = m.keyboard.Flush()
}

// reset restores the mapper to its pool-idle state: unbound controller, no
// profile, no locks, no pending counters or scheduled work. Used by Pool on
// release so a recycled Mapper starts clean.
func (m *Mapper) reset() {
	m.ReleaseVirtualButtons()
	m.ctrl = nil
	m.real = profile.Empty()
	m.lock = nil
	m.gyroOn = false
	m.keyboard = virtualdevice.Dummy{}
	m.mouse = virtualdevice.Dummy{}
	m.gamepad = virtualdevice.Dummy{}
}
