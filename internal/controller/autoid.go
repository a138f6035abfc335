package controller

import "fmt"

// AutoIDAllocator hands out synthetic controller IDs for the ignore_serials
// configuration option: instead of keying identity off a device's reported
// serial (stable across reconnects but occasionally absent or, on some
// third-party pads, shared across units), every hotplug gets a fresh ID.
//
// Per spec.md's Open Question on this, allocated IDs are never explicitly
// freed on disconnect; the counter wraps at 2^16 and Next skips any value
// still held by a connected controller in the registry, which is the only
// correctness requirement ("id... unique among currently connected
// controllers") ignore_serials needs to preserve.
type AutoIDAllocator struct {
	next uint32
}

// Next returns an unused synthetic ID of the form "auto-XXXX", consulting
// reg to skip any value currently assigned to a live controller.
func (a *AutoIDAllocator) Next(reg *Registry) string {
	for i := 0; i < 1<<16; i++ {
		id := fmt.Sprintf("auto-%04x", a.next&0xFFFF)
		a.next++
		if reg.Get(id) == nil {
			return id
		}
	}
	// All 2^16 slots are held by live controllers simultaneously; fall back
	// to whatever the counter landed on rather than looping forever.
	return fmt.Sprintf("auto-%04x", a.next&0xFFFF)
}
