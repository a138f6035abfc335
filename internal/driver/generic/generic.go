// Package generic decodes evdev- and DirectInput-style report layouts for
// controllers with no dedicated family driver, using a declarative
// byte/bit-offset table instead of hand-written per-device decode code.
package generic

import (
	"encoding/json"
	"fmt"

	"github.com/scc-go/sccd/internal/controllerinput"
)

// FieldMode names how a Field's raw bits are interpreted.
type FieldMode string

const (
	ModeButton      FieldMode = "button"
	ModeAxis        FieldMode = "axis"         // scaled into the -0x8000..0x7FFF range
	ModeAxisNoScale FieldMode = "axis_no_scale" // copied verbatim, already signed 16-bit
	ModeDPad        FieldMode = "dpad"          // 4-bit up/down/left/right mask
	ModeHatSwitch   FieldMode = "hatswitch"     // 8-position hat, 0xF = neutral
	ModeTrigger     FieldMode = "trigger"       // 0..255, written to LTrigger/RTrigger
)

// Field describes one decoded value's location in the raw report and its
// destination on controllerinput.Input.
type Field struct {
	Mode       FieldMode `json:"mode"`
	ByteOffset int       `json:"byte_offset"`
	BitOffset  int       `json:"bit_offset,omitempty"`
	Size       int       `json:"size"` // not read by Decode: the mode fixes the width
	Min        int32     `json:"min,omitempty"`
	Max        int32     `json:"max,omitempty"`
	Target     string    `json:"target"` // e.g. "ButtonA", "StickX", "LTrigger"
}

// Layout is a complete declarative decode table for one device, normally
// loaded from a JSON config file under the daemon's config directory.
type Layout struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// ParseLayout decodes a Layout from its on-disk JSON form.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("generic: parse layout: %w", err)
	}
	return &l, nil
}

var buttonTargets = map[string]controllerinput.SCButton{
	"ButtonA": controllerinput.ButtonA, "ButtonB": controllerinput.ButtonB,
	"ButtonX": controllerinput.ButtonX, "ButtonY": controllerinput.ButtonY,
	"ButtonStart": controllerinput.ButtonStart, "ButtonBack": controllerinput.ButtonBack,
	"ButtonLB": controllerinput.ButtonLB, "ButtonRB": controllerinput.ButtonRB,
	"ButtonLGrip": controllerinput.ButtonLGrip, "ButtonRGrip": controllerinput.ButtonRGrip,
	"ButtonStickPress": controllerinput.ButtonStickPress, "ButtonGuide": controllerinput.ButtonGuide,
}

func readUint(report []byte, byteOff, bitOff, sizeBits int) (uint32, error) {
	var v uint32
	for i := 0; i < sizeBits; i++ {
		bit := bitOff + i
		idx := byteOff + bit/8
		if idx >= len(report) {
			return 0, fmt.Errorf("generic: field out of range at byte %d", idx)
		}
		if report[idx]&(1<<(uint(bit)%8)) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v, nil
}

// Decode applies l to report, writing into in. Unknown button/axis targets
// are silently skipped rather than treated as a decode error, so a layout
// written for a superset of fields this daemon tracks still loads.
func (l *Layout) Decode(report []byte, in *controllerinput.Input) error {
	for _, f := range l.Fields {
		switch f.Mode {
		case ModeButton:
			v, err := readUint(report, f.ByteOffset, f.BitOffset, 1)
			if err != nil {
				return err
			}
			if bit, ok := buttonTargets[f.Target]; ok && v != 0 {
				in.Buttons |= bit
			}
		case ModeDPad:
			v, err := readUint(report, f.ByteOffset, f.BitOffset, 4)
			if err != nil {
				return err
			}
			if v&0x1 != 0 {
				in.Buttons |= controllerinput.ButtonDPadUp
			}
			if v&0x2 != 0 {
				in.Buttons |= controllerinput.ButtonDPadDown
			}
			if v&0x4 != 0 {
				in.Buttons |= controllerinput.ButtonDPadLeft
			}
			if v&0x8 != 0 {
				in.Buttons |= controllerinput.ButtonDPadRight
			}
		case ModeHatSwitch:
			v, err := readUint(report, f.ByteOffset, f.BitOffset, 4)
			if err != nil {
				return err
			}
			applyHat(in, v)
		case ModeTrigger:
			if f.ByteOffset >= len(report) {
				return fmt.Errorf("generic: trigger field out of range")
			}
			switch f.Target {
			case "LTrigger":
				in.LTrigger = report[f.ByteOffset]
			case "RTrigger":
				in.RTrigger = report[f.ByteOffset]
			}
		case ModeAxis, ModeAxisNoScale:
			if f.ByteOffset+2 > len(report) {
				return fmt.Errorf("generic: axis field out of range")
			}
			raw := int16(uint16(report[f.ByteOffset]) | uint16(report[f.ByteOffset+1])<<8)
			val := raw
			if f.Mode == ModeAxis && f.Max > f.Min {
				scaled := (int64(raw)-int64(f.Min))*0xFFFF/(int64(f.Max)-int64(f.Min)) - 0x8000
				if scaled > 0x7FFF {
					scaled = 0x7FFF
				} else if scaled < -0x8000 {
					scaled = -0x8000
				}
				val = int16(scaled)
			}
			assignAxis(in, f.Target, val)
		}
	}
	return nil
}

func applyHat(in *controllerinput.Input, v uint32) {
	switch v {
	case 0:
		in.Buttons |= controllerinput.ButtonDPadUp
	case 1:
		in.Buttons |= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadRight
	case 2:
		in.Buttons |= controllerinput.ButtonDPadRight
	case 3:
		in.Buttons |= controllerinput.ButtonDPadDown | controllerinput.ButtonDPadRight
	case 4:
		in.Buttons |= controllerinput.ButtonDPadDown
	case 5:
		in.Buttons |= controllerinput.ButtonDPadDown | controllerinput.ButtonDPadLeft
	case 6:
		in.Buttons |= controllerinput.ButtonDPadLeft
	case 7:
		in.Buttons |= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadLeft
	}
}

func assignAxis(in *controllerinput.Input, target string, v int16) {
	switch target {
	case "StickX":
		in.StickX = v
	case "StickY":
		in.StickY = v
	case "LPadX":
		in.LPadX = v
	case "LPadY":
		in.LPadY = v
	case "RPadX":
		in.RPadX = v
	case "RPadY":
		in.RPadY = v
	}
}
