// Package sc decodes Steam Controller wired/Bluetooth/Deck packets into
// controllerinput.Input. Wired and Bluetooth packets share one 32-bit button
// word and bitmap-selected optional subfields (axes are only present in the
// packet when their bit is set), with Bluetooth additionally splitting any
// packet over the single-report MTU into a reassembled "long packet". Deck
// packets use a fixed-position layout with a 64-bit button word (DecodeDeck).
package sc

import (
	"fmt"

	"github.com/scc-go/sccd/internal/controllerinput"
)

// PacketType is the first byte of every SC input packet.
type PacketType uint8

const (
	PacketInput   PacketType = 0x01
	PacketHotplug PacketType = 0x03
	PacketIdle    PacketType = 0x04
)

// field bits within the packet's presence bitmap; a bit set means the
// corresponding fixed-size subfield follows in wire order.
const (
	bitButtons  uint32 = 0x0010
	bitTriggers uint32 = 0x0020
	bitStick    uint32 = 0x0080
	bitLPad     uint32 = 0x0100
	bitRPad     uint32 = 0x0200
	bitGyro     uint32 = 0x1800
	bitPing     uint32 = 0x5000
)

// rawBitStickTilt marks the stick as physically tilted; when set alongside
// the raw LPadPress bit, the press belongs to the stick, not the pad.
const rawBitStickTilt uint32 = 1 << 22

// rawButtonBits maps SC firmware button-word bits onto SCButton; the SC
// button word's bit order is fixed by the wire protocol, independent of the
// daemon's own SCButton bit assignment.
var rawButtonBits = []struct {
	raw uint32
	scb controllerinput.SCButton
}{
	{1 << 0, controllerinput.ButtonRB},
	{1 << 1, controllerinput.ButtonLB},
	{1 << 2, controllerinput.ButtonRGrip},
	{1 << 3, controllerinput.ButtonLGrip},
	{1 << 4, controllerinput.ButtonY},
	{1 << 5, controllerinput.ButtonB},
	{1 << 6, controllerinput.ButtonX},
	{1 << 7, controllerinput.ButtonA},
	{1 << 8, controllerinput.ButtonDPadUp},
	{1 << 9, controllerinput.ButtonDPadRight},
	{1 << 10, controllerinput.ButtonDPadLeft},
	{1 << 11, controllerinput.ButtonDPadDown},
	{1 << 12, controllerinput.ButtonBack},
	{1 << 13, controllerinput.ButtonGuide},
	{1 << 14, controllerinput.ButtonStart},
	{1 << 15, controllerinput.ButtonLGrip},
	{1 << 16, controllerinput.ButtonRGrip},
	{1 << 17, controllerinput.ButtonLPadPress},
	{1 << 18, controllerinput.ButtonRPadPress},
	{1 << 19, controllerinput.ButtonLPadTouch},
	{1 << 20, controllerinput.ButtonRPadTouch},
	{1 << 21, controllerinput.ButtonStickPress},
}

func le16(b []byte) int16  { return int16(uint16(b[0]) | uint16(b[1])<<8) }
func le32(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24 }
func le64(b []byte) uint64 { return uint64(le32(b)) | uint64(le32(b[4:]))<<32 }

// Decode parses one reassembled SC packet into in. offset 0 is PacketType;
// byte 1 is packet length; bytes 4-7 are the presence bitmap (wired/BT
// layout); subfields follow in ascending bit order starting at byte 8.
// changed reports whether any state-carrying field was present: a pure
// keepalive ping packet (bitmap&bitPing==bitPing, whatever other bits are
// set) decodes
// successfully but leaves in untouched and changed false, so callers know
// not to invoke the mapper for it.
func Decode(packet []byte, in *controllerinput.Input) (pt PacketType, changed bool, err error) {
	if len(packet) < 8 {
		return 0, false, fmt.Errorf("sc: short packet: %d bytes", len(packet))
	}
	pt = PacketType(packet[0])
	if pt != PacketInput {
		return pt, false, nil
	}
	bitmap := le32(packet[4:8])
	if bitmap&bitPing == bitPing {
		return pt, false, nil
	}
	off := 8

	if bitmap&bitButtons != 0 {
		changed = true
		if off+4 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated button field")
		}
		raw := le32(packet[off : off+4])
		off += 4
		var scb controllerinput.SCButton
		for _, m := range rawButtonBits {
			if raw&m.raw != 0 {
				scb |= m.scb
			}
		}
		if raw&rawBitStickTilt != 0 && scb&controllerinput.ButtonLPadPress != 0 {
			scb &^= controllerinput.ButtonLPadPress
			scb |= controllerinput.ButtonStickPress
		}
		if scb&controllerinput.ButtonStart != 0 && scb&controllerinput.ButtonBack != 0 {
			scb |= controllerinput.ButtonC
			scb &^= controllerinput.ButtonStart | controllerinput.ButtonBack
		}
		scb &^= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadDown |
			controllerinput.ButtonDPadLeft | controllerinput.ButtonDPadRight
		in.Buttons = scb
	}
	if bitmap&bitTriggers != 0 {
		changed = true
		if off+2 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated trigger field")
		}
		in.LTrigger = packet[off]
		in.RTrigger = packet[off+1]
		off += 2
	}
	if bitmap&bitStick != 0 {
		changed = true
		if off+4 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated stick field")
		}
		in.StickX = le16(packet[off : off+2])
		in.StickY = le16(packet[off+2 : off+4])
		off += 4
	}
	if bitmap&bitLPad != 0 {
		changed = true
		if off+4 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated lpad field")
		}
		in.LPadX = le16(packet[off : off+2])
		in.LPadY = le16(packet[off+2 : off+4])
		off += 4
		in.Touched(in.LPadX, in.LPadY, controllerinput.ButtonLPadTouch)
	}
	if bitmap&bitRPad != 0 {
		changed = true
		if off+4 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated rpad field")
		}
		in.RPadX = le16(packet[off : off+2])
		in.RPadY = le16(packet[off+2 : off+4])
		off += 4
		in.Touched(in.RPadX, in.RPadY, controllerinput.ButtonRPadTouch)
	}
	if bitmap&bitGyro != 0 {
		changed = true
		if off+20 > len(packet) {
			return pt, false, fmt.Errorf("sc: truncated gyro field")
		}
		in.Gyro.Pitch = le16(packet[off : off+2])
		in.Gyro.Roll = le16(packet[off+2 : off+4])
		in.Gyro.Yaw = le16(packet[off+4 : off+6])
		in.Gyro.AccelX = le16(packet[off+6 : off+8])
		in.Gyro.AccelY = le16(packet[off+8 : off+10])
		in.Gyro.AccelZ = le16(packet[off+10 : off+12])
		in.Gyro.Q0 = le16(packet[off+12 : off+14])
		in.Gyro.Q1 = le16(packet[off+14 : off+16])
		in.Gyro.Q2 = le16(packet[off+16 : off+18])
		in.Gyro.Q3 = le16(packet[off+18 : off+20])
		off += 20
	}
	return pt, changed, nil
}

// rawButtonBitsDeck maps the Steam Deck's 64-bit button word: the low 32
// bits are wire-compatible with the wired/BT controller's layout, while the
// Deck's four back-grip buttons occupy dedicated high bits with no
// wired/BT equivalent.
var rawButtonBitsDeck = []struct {
	raw uint64
	scb controllerinput.SCButton
}{
	{1 << 32, controllerinput.ButtonLTriggerClick}, // L4
	{1 << 33, controllerinput.ButtonRTriggerClick}, // R4
	{1 << 34, controllerinput.ButtonLGrip},         // L5
	{1 << 35, controllerinput.ButtonRGrip},         // R5
}

// deckAxisScale accounts for the Deck's wider stick/pad physical travel
// compared to the wired/BT controller's axis range.
const deckAxisScale = 1.5

func deckAxis(raw int16) int16 {
	return controllerinput.ClampAxis(int32(float64(raw) * deckAxisScale))
}

// DecodeDeck parses one Steam Deck input packet into in. Unlike the wired/BT
// layout, fields are fixed-position (no presence bitmap): a 64-bit button
// word at offset 8, two 8-bit triggers, then stick and left-pad axes at the
// Deck's wider scale. There is no ping packet type at this layer — every
// PT_INPUT packet carries a full state snapshot — so changed is always true
// once pt checks out, matching Decode's signature for the shared caller.
func DecodeDeck(packet []byte, in *controllerinput.Input) (pt PacketType, changed bool, err error) {
	const headerLen = 8 + 8 + 2 + 4 + 4
	if len(packet) < headerLen {
		return 0, false, fmt.Errorf("sc: short deck packet: %d bytes", len(packet))
	}
	pt = PacketType(packet[0])
	if pt != PacketInput {
		return pt, false, nil
	}

	raw := le64(packet[8:16])
	var scb controllerinput.SCButton
	for _, m := range rawButtonBits {
		if raw&uint64(m.raw) != 0 {
			scb |= m.scb
		}
	}
	for _, m := range rawButtonBitsDeck {
		if raw&m.raw != 0 {
			scb |= m.scb
		}
	}
	if scb&controllerinput.ButtonStart != 0 && scb&controllerinput.ButtonBack != 0 {
		scb |= controllerinput.ButtonC
		scb &^= controllerinput.ButtonStart | controllerinput.ButtonBack
	}
	scb &^= controllerinput.ButtonDPadUp | controllerinput.ButtonDPadDown |
		controllerinput.ButtonDPadLeft | controllerinput.ButtonDPadRight
	in.Buttons = scb

	off := 16
	in.LTrigger = packet[off]
	in.RTrigger = packet[off+1]
	off += 2

	in.StickX = deckAxis(le16(packet[off : off+2]))
	in.StickY = deckAxis(le16(packet[off+2 : off+4]))
	off += 4

	in.LPadX = deckAxis(le16(packet[off : off+2]))
	in.LPadY = deckAxis(le16(packet[off+2 : off+4]))
	in.Touched(in.LPadX, in.LPadY, controllerinput.ButtonLPadTouch)

	return pt, true, nil
}

// longPacketTag marks a first fragment's length byte when a continuation
// fragment follows; firstFragmentLen is the fixed size of that first
// fragment, the offset at which a continuation's payload is appended.
const (
	longPacketTag   = 0x80
	firstFragmentLen = 20
)

// Reassembler accumulates a Bluetooth long-packet split across multiple
// reports: the per-connection pending buffer persists between ReadLoop
// frames since BT reports arrive strictly smaller than the wired USB
// interrupt transfer size.
type Reassembler struct {
	pending []byte
	want    int
}

// Feed appends one BT report fragment. The first fragment's length byte
// carries longPacketTag when a continuation follows; a continuation fragment
// repeats a leading tag byte that is stripped before its payload is appended
// at offset firstFragmentLen. Feed returns the reassembled packet and true
// once complete, else (nil, false).
func (r *Reassembler) Feed(fragment []byte) ([]byte, bool) {
	if r.pending == nil {
		r.want = int(fragment[1]&^longPacketTag) + 2
		r.pending = append([]byte(nil), fragment...)
		if fragment[1]&longPacketTag == 0 {
			packet := r.pending
			r.pending, r.want = nil, 0
			return packet, true
		}
		return nil, false
	}
	r.pending = append(r.pending[:firstFragmentLen], fragment[1:]...)
	if len(r.pending) >= r.want {
		packet := r.pending[:r.want]
		r.pending, r.want = nil, 0
		return packet, true
	}
	return nil, false
}
