package profile

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/scc-go/sccd/internal/controllerinput"
)

// Profile is the shared, immutable-at-runtime mapping from input sources to
// actions. Concrete implementations may be wrapped (see LockProfile) to
// redirect specific sources elsewhere without mutating the original.
type Profile interface {
	GetButton(b controllerinput.SCButton) Action
	GetTrigger(pst Pst) Action
	GetPad(pst Pst) Action
	GetStick() Action
	GetGyro() Action
	IsTemplate() bool
	GetVersion() *semver.Version
	// Compress collapses nested wrapper actions. It is idempotent:
	// Compress(Compress(p)) is structurally identical to Compress(p).
	Compress() Profile
}

// onDisk is the externally-excluded JSON profile shape (.sccprofile):
// action values are plain strings, parsed elsewhere by the action-DSL
// parser this module does not implement. Until that parser exists, string
// values are represented here by Placeholder actions.
type onDisk struct {
	Version     string            `json:"version"`
	Template    bool              `json:"is_template"`
	Buttons     map[string]string `json:"buttons"`
	TriggerLeft string            `json:"trigger_left"`
	TriggerRite string            `json:"trigger_right"`
	Stick       string            `json:"stick"`
	PadLeft     string            `json:"pad_left"`
	PadRight    string            `json:"pad_right"`
	CPad        string            `json:"cpad"`
	Gyro        string            `json:"gyro"`
}

type loaded struct {
	version  *semver.Version
	template bool
	buttons  map[controllerinput.SCButton]Action
	triggers map[Pst]Action
	pads     map[Pst]Action
	stick    Action
	gyro     Action
}

var buttonNames = map[string]controllerinput.SCButton{
	"A": controllerinput.ButtonA, "B": controllerinput.ButtonB,
	"X": controllerinput.ButtonX, "Y": controllerinput.ButtonY,
	"START": controllerinput.ButtonStart, "BACK": controllerinput.ButtonBack,
	"C": controllerinput.ButtonC, "LB": controllerinput.ButtonLB, "RB": controllerinput.ButtonRB,
	"LGRIP": controllerinput.ButtonLGrip, "RGRIP": controllerinput.ButtonRGrip,
	"LPAD": controllerinput.ButtonLPad, "RPAD": controllerinput.ButtonRPad,
	"LPADTOUCH": controllerinput.ButtonLPadTouch, "RPADTOUCH": controllerinput.ButtonRPadTouch,
	"LPADPRESS": controllerinput.ButtonLPadPress, "RPADPRESS": controllerinput.ButtonRPadPress,
	"STICKPRESS": controllerinput.ButtonStickPress,
	"CPADTOUCH":  controllerinput.ButtonCPadTouch, "CPADPRESS": controllerinput.ButtonCPadPress,
	"LTRIGGER": controllerinput.ButtonLTriggerClick, "RTRIGGER": controllerinput.ButtonRTriggerClick,
	"GUIDE": controllerinput.ButtonGuide,
	"DUP":   controllerinput.ButtonDPadUp, "DDOWN": controllerinput.ButtonDPadDown,
	"DLEFT": controllerinput.ButtonDPadLeft, "DRIGHT": controllerinput.ButtonDPadRight,
}

// Parse decodes a .sccprofile JSON document into a Profile. A missing or
// empty version string defaults to "0.0.0" (an invalid profile on startup
// is a configuration error, not fatal: callers fall back to an empty
// profile and log a warning rather than aborting).
func Parse(data []byte) (Profile, error) {
	var od onDisk
	if len(data) > 0 {
		if err := json.Unmarshal(data, &od); err != nil {
			return nil, err
		}
	}
	return fromOnDisk(od), nil
}

// Empty returns a profile with every source bound to NoAction, used when
// startup configuration is missing or invalid.
func Empty() Profile {
	return fromOnDisk(onDisk{})
}

func fromOnDisk(od onDisk) *loaded {
	v, err := semver.NewVersion(od.Version)
	if err != nil {
		v, _ = semver.NewVersion("0.0.0")
	}
	l := &loaded{
		version:  v,
		template: od.Template,
		buttons:  map[controllerinput.SCButton]Action{},
		triggers: map[Pst]Action{},
		pads:     map[Pst]Action{},
		stick:    toAction(od.Stick),
		gyro:     toAction(od.Gyro),
	}
	for name, desc := range od.Buttons {
		if bit, ok := buttonNames[name]; ok {
			l.buttons[bit] = toAction(desc)
		}
	}
	l.triggers[PstLTrigger] = toAction(od.TriggerLeft)
	l.triggers[PstRTrigger] = toAction(od.TriggerRite)
	l.pads[PstLPad] = toAction(od.PadLeft)
	l.pads[PstRPad] = toAction(od.PadRight)
	l.pads[PstCPad] = toAction(od.CPad)
	return l
}

func toAction(desc string) Action {
	if desc == "" {
		return NoAction
	}
	return Placeholder{Text: desc}
}

func (l *loaded) GetButton(b controllerinput.SCButton) Action {
	if a, ok := l.buttons[b]; ok {
		return a
	}
	return NoAction
}

func (l *loaded) GetTrigger(pst Pst) Action {
	if a, ok := l.triggers[pst]; ok {
		return a
	}
	return NoAction
}

func (l *loaded) GetPad(pst Pst) Action {
	if a, ok := l.pads[pst]; ok {
		return a
	}
	return NoAction
}

func (l *loaded) GetStick() Action { return nonNil(l.stick) }
func (l *loaded) GetGyro() Action  { return nonNil(l.gyro) }

func nonNil(a Action) Action {
	if a == nil {
		return NoAction
	}
	return a
}

func (l *loaded) IsTemplate() bool           { return l.template }
func (l *loaded) GetVersion() *semver.Version { return l.version }

// Compress is a no-op on a *loaded profile: until the excluded action-DSL
// parser exists, actions are never nested wrappers, so collapsing them is
// already the identity. This keeps Compress idempotent by construction.
func (l *loaded) Compress() Profile { return l }
