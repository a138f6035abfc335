// Package devicemonitor matches enumerated/hotplugged devices against
// driver-registered filters and dispatches each matched device to exactly
// one driver, first-registered-wins.
package devicemonitor

import (
	"fmt"
	"strings"

	"github.com/scc-go/sccd/internal/transport"
)

// Filter is an AND-combination of match criteria; a zero-value field means
// "don't care" about that criterion. A Filter with every field zero matches
// everything, which is intentionally rejected by Register to avoid a driver
// silently swallowing all devices.
type Filter struct {
	VendorID     uint16
	ProductID    uint16
	VendorProduct string // "28de:1142" form, alternative to VendorID+ProductID
	Path         string
	Name         string
	Index        int // not checked by Matches or counted by empty; has no effect
	UniqueID     string
}

func (f Filter) empty() bool {
	return f.VendorID == 0 && f.ProductID == 0 && f.VendorProduct == "" &&
		f.Path == "" && f.Name == "" && f.UniqueID == ""
}

// Matches reports whether d satisfies every non-zero criterion in f.
func (f Filter) Matches(d transport.Descriptor) bool {
	if f.VendorID != 0 && f.VendorID != d.VendorID {
		return false
	}
	if f.ProductID != 0 && f.ProductID != d.ProductID {
		return false
	}
	if f.VendorProduct != "" {
		want := strings.ToLower(f.VendorProduct)
		got := strings.ToLower(fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID))
		if want != got {
			return false
		}
	}
	if f.Path != "" && f.Path != d.Path {
		return false
	}
	if f.Name != "" && f.Name != d.Name {
		return false
	}
	if f.UniqueID != "" && f.UniqueID != d.UniqueID {
		return false
	}
	return true
}
