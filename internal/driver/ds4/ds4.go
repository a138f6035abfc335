// Package ds4 decodes DualShock4 HID input reports into
// controllerinput.Input and encodes rumble/LED output reports, adapting the
// reference daemon's byte-offset table for a DS4 connected over the standard
// USB HID input report (report ID 0x01, 64 bytes).
package ds4

import (
	"fmt"

	"github.com/scc-go/sccd/internal/controllerinput"
)

const (
	VendorID  = 0x054C
	ProductID = 0x05C4

	ReportIDInput  = 0x01
	ReportIDOutput = 0x05

	InputReportSize  = 64
	OutputReportSize = 32
)

const (
	btnSquare   uint16 = 0x0010
	btnCross    uint16 = 0x0020
	btnCircle   uint16 = 0x0040
	btnTriangle uint16 = 0x0080
	btnL1       uint16 = 0x0100
	btnR1       uint16 = 0x0200
	btnShare    uint16 = 0x1000
	btnOptions  uint16 = 0x2000
	btnL3       uint16 = 0x4000
	btnR3       uint16 = 0x8000
	btnPS       uint16 = 0x0001
	btnTouchpad uint16 = 0x0002

	dpadMask uint8 = 0x0F
)

// gyroCountsPerDps/accelCountsPerMS2 are the fixed-point scale factors the
// DS4's motion sensors report in; callers needing physical units divide raw
// int16 field values by these.
const (
	gyroCountsPerDps  = 16.0
	accelCountsPerMS2 = 512.0
)

// axisToSigned converts an unsigned 8-bit stick axis (0..255,
// 128=center) into the signed 16-bit range the rest of the daemon uses.
func axisToSigned(v uint8) int16 {
	return controllerinput.ClampAxis((int32(v) - 128) * 258)
}

// Decode parses one input report (report ID byte included, InputReportSize
// bytes) into in, mapping the DS4's two sticks onto the daemon's
// stick+right-pad surfaces and its L2/R2 analogs onto triggers.
func Decode(report []byte, in *controllerinput.Input) error {
	if len(report) < InputReportSize {
		return fmt.Errorf("ds4: short report: %d bytes", len(report))
	}
	if report[0] != ReportIDInput {
		return fmt.Errorf("ds4: unexpected report id 0x%02x", report[0])
	}

	in.StickX = axisToSigned(report[1])
	in.StickY = -axisToSigned(report[2])
	in.RPadX = axisToSigned(report[3])
	in.RPadY = -axisToSigned(report[4])

	var buttons uint16
	dpad := report[5] & dpadMask
	buttons |= uint16(report[5] & 0xF0) // Square/Cross/Circle/Triangle live in the upper nibble
	buttons |= uint16(report[6]) << 8
	buttons |= uint16(report[7] & 0x03)

	var scb controllerinput.SCButton
	if buttons&btnCross != 0 {
		scb |= controllerinput.ButtonA
	}
	if buttons&btnCircle != 0 {
		scb |= controllerinput.ButtonB
	}
	if buttons&btnSquare != 0 {
		scb |= controllerinput.ButtonX
	}
	if buttons&btnTriangle != 0 {
		scb |= controllerinput.ButtonY
	}
	if buttons&btnShare != 0 {
		scb |= controllerinput.ButtonBack
	}
	if buttons&btnOptions != 0 {
		scb |= controllerinput.ButtonStart
	}
	if buttons&btnShare != 0 && buttons&btnOptions != 0 {
		scb &^= controllerinput.ButtonStart | controllerinput.ButtonBack
		scb |= controllerinput.ButtonC
	}
	if buttons&btnL1 != 0 {
		scb |= controllerinput.ButtonLB
	}
	if buttons&btnR1 != 0 {
		scb |= controllerinput.ButtonRB
	}
	if buttons&btnL3 != 0 {
		scb |= controllerinput.ButtonStickPress
	}
	if buttons&btnR3 != 0 {
		scb |= controllerinput.ButtonRPadPress
	}
	if buttons&btnPS != 0 {
		scb |= controllerinput.ButtonGuide
	}
	if buttons&btnTouchpad != 0 {
		scb |= controllerinput.ButtonCPadPress
	}
	switch dpad {
	case 0x00:
		scb |= controllerinput.ButtonDPadUp
	case 0x01:
		scb |= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadRight
	case 0x02:
		scb |= controllerinput.ButtonDPadRight
	case 0x03:
		scb |= controllerinput.ButtonDPadDown | controllerinput.ButtonDPadRight
	case 0x04:
		scb |= controllerinput.ButtonDPadDown
	case 0x05:
		scb |= controllerinput.ButtonDPadDown | controllerinput.ButtonDPadLeft
	case 0x06:
		scb |= controllerinput.ButtonDPadLeft
	case 0x07:
		scb |= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadLeft
	}
	in.Buttons = scb

	in.LTrigger = report[8]
	in.RTrigger = report[9]

	in.Gyro.Pitch = int16(uint16(report[13]) | uint16(report[14])<<8)
	in.Gyro.Roll = int16(uint16(report[15]) | uint16(report[16])<<8)
	in.Gyro.Yaw = int16(uint16(report[17]) | uint16(report[18])<<8)
	in.Gyro.AccelX = int16(uint16(report[19]) | uint16(report[20])<<8)
	in.Gyro.AccelY = int16(uint16(report[21]) | uint16(report[22])<<8)
	in.Gyro.AccelZ = int16(uint16(report[23]) | uint16(report[24])<<8)

	in.Touched(in.RPadX, in.RPadY, controllerinput.ButtonRPadTouch)
	return nil
}

// EncodeOutput builds an output report setting LED color and rumble motor
// speeds; led values are 0-255 per channel, small/large are rumble motor
// intensities.
func EncodeOutput(ledR, ledG, ledB, small, large uint8) []byte {
	out := make([]byte, OutputReportSize)
	out[0] = ReportIDOutput
	out[1] = 0xF7 // enable rumble + LED + flash
	out[4] = small
	out[5] = large
	out[6] = ledR
	out[7] = ledG
	out[8] = ledB
	return out
}
