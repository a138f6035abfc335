package transport

import (
	"context"
	"fmt"
)

// NoopOpener rejects every Open call; it stands in for a backend whose real
// OS-level implementation (hidraw/uhid ioctls on Linux, DirectInput/XInput
// on Windows for non-libusb devices) is out of scope here, so the Opener
// seam exists without a working implementation behind it.
type NoopOpener struct {
	Subsystem Subsystem
}

func (n NoopOpener) Open(ctx context.Context, d Descriptor) (InputDevice, error) {
	return nil, fmt.Errorf("transport: no backend registered for subsystem %q", n.Subsystem)
}
