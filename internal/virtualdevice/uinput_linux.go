//go:build linux

package virtualdevice

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Raw uinput ioctl numbers and event codes, from <linux/uinput.h> and
// <linux/input-event-codes.h>. golang.org/x/sys/unix does not carry these
// (they're a leaf kernel ABI, not a syscall wrapper), so they're declared
// here exactly as the reference daemon declares its own raw USB/HID wire
// constants next to the ioctl calls that use them.
const (
	uiSetEvBit  = 0x40045564
	uiSetKeyBit = 0x40045565
	uiSetRelBit = 0x40045566
	uiSetAbsBit = 0x40045567
	uiDevCreate = 0x5501
	uiDevDestroy = 0x5502

	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03

	synReport = 0

	relX      = 0x00
	relY      = 0x01
	relWheel  = 0x08
	relHWheel = 0x06

	absX  = 0x00
	absY  = 0x01
	absRX = 0x03
	absRY = 0x04
	absZ  = 0x02
	absRZ = 0x05

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

type uinputUserDev struct {
	Name       [80]byte
	ID         uinputID
	EffectsMax uint32
	AbsMax     [64]int32
	AbsMin     [64]int32
	AbsFuzz    [64]int32
	AbsFlat    [64]int32
}

type uinputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// uinputDevice is the shared plumbing for the keyboard/mouse/gamepad
// backends: open /dev/uinput, register the event bits the caller asks for,
// then create the device.
type uinputDevice struct {
	f *os.File
}

func openUinput(name string, evBits, keyBits, relBits, absBits []int) (*uinputDevice, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}
	u := &uinputDevice{f: f}
	for _, b := range evBits {
		if err := u.ioctl(uiSetEvBit, uintptr(b)); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, b := range keyBits {
		if err := u.ioctl(uiSetKeyBit, uintptr(b)); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, b := range relBits {
		if err := u.ioctl(uiSetRelBit, uintptr(b)); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, b := range absBits {
		if err := u.ioctl(uiSetAbsBit, uintptr(b)); err != nil {
			f.Close()
			return nil, err
		}
	}

	var dev uinputUserDev
	copy(dev.Name[:], name)
	dev.ID = uinputID{BusType: 0x03, Vendor: 0x28de, Product: 0x11ff, Version: 1}
	for i := range dev.AbsMax {
		dev.AbsMin[i] = -32768
		dev.AbsMax[i] = 32767
	}
	if _, err := f.Write((*[unsafe.Sizeof(dev)]byte)(unsafe.Pointer(&dev))[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("write uinput_user_dev: %w", err)
	}
	if err := u.ioctl(uiDevCreate, 0); err != nil {
		f.Close()
		return nil, err
	}
	return u, nil
}

func (u *uinputDevice) ioctl(cmd uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, u.f.Fd(), cmd, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func (u *uinputDevice) emit(typ, code uint16, value int32) error {
	now := time.Now()
	ev := inputEvent{Sec: now.Unix(), Usec: int64(now.Nanosecond() / 1000), Type: typ, Code: code, Value: value}
	buf := make([]byte, unsafe.Sizeof(ev))
	binary.NativeEndian.PutUint64(buf[0:8], uint64(ev.Sec))
	binary.NativeEndian.PutUint64(buf[8:16], uint64(ev.Usec))
	binary.NativeEndian.PutUint16(buf[16:18], ev.Type)
	binary.NativeEndian.PutUint16(buf[18:20], ev.Code)
	binary.NativeEndian.PutUint32(buf[20:24], uint32(ev.Value))
	_, err := u.f.Write(buf)
	return err
}

func (u *uinputDevice) sync() error { return u.emit(evSyn, synReport, 0) }

func (u *uinputDevice) Close() error {
	_ = u.ioctl(uiDevDestroy, 0)
	return u.f.Close()
}

// UinputKeyboard is the Linux uinput-backed Keyboard.
type UinputKeyboard struct {
	dev *uinputDevice
}

// NewUinputKeyboard registers every key bit in the canonical range and
// creates the uinput keyboard device.
func NewUinputKeyboard() (*UinputKeyboard, error) {
	keyBits := make([]int, 0, 256)
	for i := 0; i < 256; i++ {
		keyBits = append(keyBits, i)
	}
	dev, err := openUinput("scc-virtual-keyboard", []int{evKey}, keyBits, nil, nil)
	if err != nil {
		return nil, err
	}
	return &UinputKeyboard{dev: dev}, nil
}

func (k *UinputKeyboard) KeyDown(code Keycode) { _ = k.dev.emit(evKey, uint16(code), 1) }
func (k *UinputKeyboard) KeyUp(code Keycode)   { _ = k.dev.emit(evKey, uint16(code), 0) }
func (k *UinputKeyboard) Flush() error         { return k.dev.sync() }
func (k *UinputKeyboard) Close() error         { return k.dev.Close() }

// UinputMouse is the Linux uinput-backed Mouse. Fractional motion
// accumulates between flushes; Flush truncates to an integer delta and
// keeps the remainder, per the spec's "slow motions never underflow to
// zero" requirement.
type UinputMouse struct {
	dev            *uinputDevice
	mx, my, sx, sy float64
}

func NewUinputMouse() (*UinputMouse, error) {
	dev, err := openUinput("scc-virtual-mouse",
		[]int{evKey, evRel},
		[]int{btnLeft, btnRight, btnMiddle},
		[]int{relX, relY, relWheel, relHWheel},
		nil)
	if err != nil {
		return nil, err
	}
	return &UinputMouse{dev: dev}, nil
}

func (m *UinputMouse) Move(dx, dy float64)   { m.mx += dx; m.my += dy }
func (m *UinputMouse) Scroll(dx, dy float64) { m.sx += dx; m.sy += dy }

func (m *UinputMouse) Button(code MouseButton, down bool) {
	v := int32(0)
	if down {
		v = 1
	}
	btn := btnLeft
	switch code {
	case MouseRight:
		btn = btnRight
	case MouseMiddle:
		btn = btnMiddle
	}
	_ = m.dev.emit(evKey, uint16(btn), v)
}

func (m *UinputMouse) Flush() error {
	ix, iy := int64(m.mx), int64(m.my)
	isx, isy := int64(m.sx), int64(m.sy)
	m.mx -= float64(ix)
	m.my -= float64(iy)
	m.sx -= float64(isx)
	m.sy -= float64(isy)
	if ix != 0 {
		_ = m.dev.emit(evRel, relX, int32(ix))
	}
	if iy != 0 {
		_ = m.dev.emit(evRel, relY, int32(iy))
	}
	if isy != 0 {
		_ = m.dev.emit(evRel, relWheel, int32(isy))
	}
	if isx != 0 {
		_ = m.dev.emit(evRel, relHWheel, int32(isx))
	}
	return m.dev.sync()
}

func (m *UinputMouse) Close() error { return m.dev.Close() }

// UinputGamepad emulates an Xbox 360 pad, the platform matrix's choice for
// Linux uinput gamepad emulation.
type UinputGamepad struct {
	dev     *uinputDevice
	axes    map[GamepadAxis]int16
	buttons map[uint16]bool
}

var gamepadButtons = []uint16{0x130, 0x131, 0x133, 0x134, 0x136, 0x137, 0x13a, 0x13b, 0x13d, 0x13e}

func NewUinputGamepad() (*UinputGamepad, error) {
	dev, err := openUinput("scc-virtual-gamepad",
		[]int{evKey, evAbs},
		gamepadButtons,
		nil,
		[]int{absX, absY, absRX, absRY, absZ, absRZ})
	if err != nil {
		return nil, err
	}
	return &UinputGamepad{dev: dev, axes: map[GamepadAxis]int16{}, buttons: map[uint16]bool{}}, nil
}

func (g *UinputGamepad) SetAxis(axis GamepadAxis, value int16) { g.axes[axis] = value }
func (g *UinputGamepad) SetButton(bit uint16, down bool)       { g.buttons[bit] = down }
func (g *UinputGamepad) Haptic(leftMotor, rightMotor uint8)    {} // force-feedback via FF_RUMBLE is a separate ioctl path; not needed for emission-only emulation

func (g *UinputGamepad) Flush() error {
	axisCode := map[GamepadAxis]uint16{
		GamepadLeftX: absX, GamepadLeftY: absY,
		GamepadRightX: absRX, GamepadRightY: absRY,
		GamepadLTrigger: absZ, GamepadRTrigger: absRZ,
	}
	for axis, v := range g.axes {
		_ = g.dev.emit(evAbs, axisCode[axis], int32(v))
	}
	for bit, down := range g.buttons {
		v := int32(0)
		if down {
			v = 1
		}
		_ = g.dev.emit(evKey, bit, v)
	}
	return g.dev.sync()
}

func (g *UinputGamepad) Close() error { return g.dev.Close() }
