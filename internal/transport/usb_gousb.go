//go:build linux

package transport

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// GousbOpener opens USB-subsystem descriptors via libusb, using a single
// shared gousb.Context for the process (matching libusb's own recommended
// usage: one context, many device handles).
type GousbOpener struct {
	ctx *gousb.Context
}

// NewGousbOpener creates a GousbOpener. Callers should Close it at shutdown
// to release the underlying libusb context.
func NewGousbOpener() *GousbOpener {
	return &GousbOpener{ctx: gousb.NewContext()}
}

func (o *GousbOpener) Close() error { return o.ctx.Close() }

// Enumerate lists every currently attached USB device as a Descriptor,
// implementing devicemonitor.Enumerator for Rescan.; it ignores subsystems
// other than SubsystemUSB since libusb only sees USB-bus devices.
func (o *GousbOpener) Enumerate(ctx context.Context, subsys Subsystem) ([]Descriptor, error) {
	if subsys != SubsystemUSB {
		return nil, nil
	}
	var descs []Descriptor
	devs, err := o.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		descs = append(descs, Descriptor{
			Subsystem: SubsystemUSB,
			Path:      fmt.Sprintf("usb:%d:%d", desc.Bus, desc.Address),
			VendorID:  uint16(desc.Vendor),
			ProductID: uint16(desc.Product),
		})
		return false // never keep a handle open; Open() re-opens on match
	})
	if err != nil {
		return nil, fmt.Errorf("gousb: enumerate: %w", err)
	}
	for _, d := range devs {
		d.Close()
	}
	return descs, nil
}

func (o *GousbOpener) Open(ctx context.Context, d Descriptor) (InputDevice, error) {
	if d.Subsystem != SubsystemUSB {
		return nil, fmt.Errorf("gousb: unsupported subsystem %q", d.Subsystem)
	}
	dev, err := o.ctx.OpenDeviceWithVIDPID(gousb.ID(d.VendorID), gousb.ID(d.ProductID))
	if err != nil {
		return nil, fmt.Errorf("gousb: open %04x:%04x: %w", d.VendorID, d.ProductID, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("gousb: no device matching %04x:%04x", d.VendorID, d.ProductID)
	}
	dev.SetAutoDetach(true)
	return &gousbDevice{desc: d, dev: dev}, nil
}

type gousbDevice struct {
	desc  Descriptor
	dev   *gousb.Device
	cfg   *gousb.Config
	intf  *gousb.Interface
	inEP  *gousb.InEndpoint
}

func (g *gousbDevice) Descriptor() Descriptor { return g.desc }

func (g *gousbDevice) ClaimInterfaces(ctx context.Context, ifaces ...int) error {
	cfg, err := g.dev.Config(1)
	if err != nil {
		return fmt.Errorf("gousb: select config: %w", err)
	}
	g.cfg = cfg
	num := 0
	if len(ifaces) > 0 {
		num = ifaces[0]
	}
	intf, err := cfg.Interface(num, 0)
	if err != nil {
		return fmt.Errorf("gousb: claim interface %d: %w", num, err)
	}
	g.intf = intf
	return nil
}

func (g *gousbDevice) ReadLoop(ctx context.Context) (<-chan []byte, error) {
	if g.intf == nil {
		return nil, fmt.Errorf("gousb: ReadLoop called before ClaimInterfaces")
	}
	ep, err := g.intf.InEndpoint(1)
	if err != nil {
		return nil, fmt.Errorf("gousb: open in-endpoint: %w", err)
	}
	g.inEP = ep
	out := make(chan []byte, 8)
	go func() {
		defer close(out)
		buf := make([]byte, ep.Desc.MaxPacketSize)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := ep.ReadContext(ctx, buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			frame := make([]byte, n)
			copy(frame, buf[:n])
			out <- frame
		}
	}()
	return out, nil
}

func (g *gousbDevice) HIDWrite(reportID byte, data []byte) error {
	if g.intf == nil {
		return fmt.Errorf("gousb: HIDWrite before ClaimInterfaces")
	}
	payload := append([]byte{reportID}, data...)
	_, err := g.dev.Control(
		0x21, // USB_TYPE_CLASS | USB_RECIP_INTERFACE | host-to-device
		0x09, // HID SET_REPORT
		0x0200|uint16(reportID),
		0,
		payload,
	)
	return err
}

func (g *gousbDevice) HIDRequest(reportID byte, data []byte, responseLen int) ([]byte, error) {
	if g.intf == nil {
		return nil, fmt.Errorf("gousb: HIDRequest before ClaimInterfaces")
	}
	if err := g.HIDWrite(reportID, data); err != nil {
		return nil, err
	}
	resp := make([]byte, responseLen)
	n, err := g.dev.Control(0xa1, 0x01, 0x0300|uint16(reportID), 0, resp)
	if err != nil {
		return nil, err
	}
	return resp[:n], nil
}

func (g *gousbDevice) Close() error {
	if g.intf != nil {
		g.intf.Close()
	}
	if g.cfg != nil {
		g.cfg.Close()
	}
	return g.dev.Close()
}
