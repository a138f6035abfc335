package profile

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/scc-go/sccd/internal/controllerinput"
)

// Source is a named input origin for locking purposes.
type Source string

const (
	SourceA          Source = "A"
	SourceB          Source = "B"
	SourceX          Source = "X"
	SourceY          Source = "Y"
	SourceStart      Source = "START"
	SourceBack       Source = "BACK"
	SourceC          Source = "C"
	SourceLB         Source = "LB"
	SourceRB         Source = "RB"
	SourceLGrip      Source = "LGRIP"
	SourceRGrip      Source = "RGRIP"
	SourceLTrigger   Source = "LTRIGGER"
	SourceRTrigger   Source = "RTRIGGER"
	SourceLPad       Source = "LPAD"
	SourceRPad       Source = "RPAD"
	SourceCPad       Source = "CPAD"
	SourceStick      Source = "STICK"
	SourceLPadTouch  Source = "LPADTOUCH"
	SourceRPadTouch  Source = "RPADTOUCH"
	SourceLPadPress  Source = "LPADPRESS"
	SourceRPadPress  Source = "RPADPRESS"
	SourceStickPress Source = "STICKPRESS"
	SourceGyro       Source = "GYRO"
)

var sourceButtons = map[Source]controllerinput.SCButton{
	SourceA: controllerinput.ButtonA, SourceB: controllerinput.ButtonB,
	SourceX: controllerinput.ButtonX, SourceY: controllerinput.ButtonY,
	SourceStart: controllerinput.ButtonStart, SourceBack: controllerinput.ButtonBack,
	SourceC: controllerinput.ButtonC, SourceLB: controllerinput.ButtonLB, SourceRB: controllerinput.ButtonRB,
	SourceLGrip: controllerinput.ButtonLGrip, SourceRGrip: controllerinput.ButtonRGrip,
	SourceLPadTouch: controllerinput.ButtonLPadTouch, SourceRPadTouch: controllerinput.ButtonRPadTouch,
	SourceLPadPress: controllerinput.ButtonLPadPress, SourceRPadPress: controllerinput.ButtonRPadPress,
	SourceStickPress: controllerinput.ButtonStickPress,
}

// IsKnownSource reports whether token names a recognized lock source;
// Lock: fails outright ("any token is unknown") if not.
func IsKnownSource(token string) bool {
	switch Source(token) {
	case SourceA, SourceB, SourceX, SourceY, SourceStart, SourceBack, SourceC,
		SourceLB, SourceRB, SourceLGrip, SourceRGrip, SourceLTrigger, SourceRTrigger,
		SourceLPad, SourceRPad, SourceCPad, SourceStick,
		SourceLPadTouch, SourceRPadTouch, SourceLPadPress, SourceRPadPress, SourceStickPress, SourceGyro:
		return true
	}
	return false
}

// Notifier is the lock manager's view of a client: enough to push an
// Event: line and to check whether the client has since been marked for
// deferred disposal (should_be_dropped), so any code path may attempt to
// notify it without a separate liveness check.
type Notifier interface {
	SendEvent(controllerID string, source Source, values ...int)
	Dropped() bool
}

// padMoveThreshold is the minimum per-axis delta (in axis units) before a
// locked whole-pad movement is reported, throttling wire traffic.
const padMoveThreshold = 300

// lockedAction routes button_press/release, whole, and trigger calls to the
// owning client as Event: lines instead of the wrapped profile's real
// action, per the "on first lock" wrapping described in the client
// protocol's lock semantics.
type lockedAction struct {
	controllerID string
	source       Source
	owner        Notifier
	lastX, lastY int16
	haveLast     bool
}

func (l *lockedAction) ButtonPress() {
	if l.owner.Dropped() {
		return
	}
	l.owner.SendEvent(l.controllerID, l.source, 1)
}

func (l *lockedAction) ButtonRelease() {
	if l.owner.Dropped() {
		return
	}
	l.owner.SendEvent(l.controllerID, l.source, 0)
}

func (l *lockedAction) Whole(x, y int16, pst Pst) {
	if l.owner.Dropped() {
		return
	}
	if l.haveLast {
		dx, dy := int(x)-int(l.lastX), int(y)-int(l.lastY)
		if abs(dx) < padMoveThreshold && abs(dy) < padMoveThreshold {
			return
		}
	}
	l.lastX, l.lastY, l.haveLast = x, y, true
	l.owner.SendEvent(l.controllerID, l.source, int(x), int(y))
}

func (l *lockedAction) Trigger(old, new uint8, pst Pst) {
	if l.owner.Dropped() {
		return
	}
	l.owner.SendEvent(l.controllerID, l.source, int(new))
}

func (l *lockedAction) Gyro(g controllerinput.Gyro) {
	if l.owner.Dropped() {
		return
	}
	l.owner.SendEvent(l.controllerID, l.source, int(g.Pitch), int(g.Roll), int(g.Yaw))
}

func (l *lockedAction) String() string      { return fmt.Sprintf("Lock(%s)", l.source) }
func (l *lockedAction) Description() string { return l.String() }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// LockProfile wraps a mapper's real profile so that locked sources route to
// a per-client lockedAction; sources not present in locked fall through to
// the wrapped profile unchanged.
type LockProfile struct {
	inner        Profile
	controllerID string
	locked       map[Source]*lockedAction
}

// NewLockProfile creates a LockProfile with no locks installed yet; Lock
// adds entries to it one call at a time.
func NewLockProfile(inner Profile, controllerID string) *LockProfile {
	return &LockProfile{inner: inner, controllerID: controllerID, locked: map[Source]*lockedAction{}}
}

// Lock installs owner as the handler for source. Callers are responsible
// for the "Lock: is all-or-nothing" check across the requested set before
// calling this for any of them. A pad's touch sub-signal (LPADTOUCH,
// RPADTOUCH) is a fully independent source from its pad: locking LPAD does
// not affect LPADTOUCH, matching the original driver's SRC_LPAD/
// SRC_LPADTOUCH enum split.
func (lp *LockProfile) Lock(source Source, owner Notifier) {
	lp.locked[source] = &lockedAction{controllerID: lp.controllerID, source: source, owner: owner}
}

// Unlock removes source's lock. Returns true if any locks remain.
func (lp *LockProfile) Unlock(source Source) (remaining bool) {
	delete(lp.locked, source)
	return len(lp.locked) > 0
}

// IsLocked reports whether source currently has an owning client.
func (lp *LockProfile) IsLocked(source Source) bool {
	_, ok := lp.locked[source]
	return ok
}

// Inner returns the wrapped profile, restored once the last lock for a
// mapper is released.
func (lp *LockProfile) Inner() Profile { return lp.inner }

func (lp *LockProfile) GetButton(b controllerinput.SCButton) Action {
	for src, bit := range sourceButtons {
		if bit == b {
			if la, ok := lp.locked[src]; ok {
				return la
			}
		}
	}
	return lp.inner.GetButton(b)
}

func (lp *LockProfile) GetTrigger(pst Pst) Action {
	src := SourceLTrigger
	if pst == PstRTrigger {
		src = SourceRTrigger
	}
	if la, ok := lp.locked[src]; ok {
		return la
	}
	return lp.inner.GetTrigger(pst)
}

func (lp *LockProfile) GetPad(pst Pst) Action {
	src := SourceLPad
	switch pst {
	case PstRPad:
		src = SourceRPad
	case PstCPad:
		src = SourceCPad
	}
	if la, ok := lp.locked[src]; ok {
		return la
	}
	return lp.inner.GetPad(pst)
}

func (lp *LockProfile) GetStick() Action {
	if la, ok := lp.locked[SourceStick]; ok {
		return la
	}
	return lp.inner.GetStick()
}

func (lp *LockProfile) GetGyro() Action {
	if la, ok := lp.locked[SourceGyro]; ok {
		return la
	}
	return lp.inner.GetGyro()
}

func (lp *LockProfile) IsTemplate() bool                { return lp.inner.IsTemplate() }
func (lp *LockProfile) GetVersion() *semver.Version     { return lp.inner.GetVersion() }
func (lp *LockProfile) Compress() Profile               { return lp }
