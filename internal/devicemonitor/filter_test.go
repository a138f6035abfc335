package devicemonitor

import (
	"testing"

	"github.com/scc-go/sccd/internal/transport"
	"github.com/stretchr/testify/assert"
)

func TestFilterEmpty(t *testing.T) {
	assert.True(t, Filter{}.empty())
	assert.False(t, Filter{VendorID: 0x054C}.empty())
	assert.False(t, Filter{Name: "pad"}.empty())
}

func TestFilterMatchesVendorProduct(t *testing.T) {
	f := Filter{VendorID: 0x054C, ProductID: 0x05C4}
	assert.True(t, f.Matches(transport.Descriptor{VendorID: 0x054C, ProductID: 0x05C4}))
	assert.False(t, f.Matches(transport.Descriptor{VendorID: 0x054C, ProductID: 0x09CC}))
}

func TestFilterMatchesVendorProductString(t *testing.T) {
	f := Filter{VendorProduct: "28DE:1142"}
	assert.True(t, f.Matches(transport.Descriptor{VendorID: 0x28de, ProductID: 0x1142}))
	assert.False(t, f.Matches(transport.Descriptor{VendorID: 0x28de, ProductID: 0x1102}))
}

func TestFilterMatchesCombinesCriteria(t *testing.T) {
	f := Filter{VendorID: 0x054C, Name: "Wireless Controller"}
	assert.True(t, f.Matches(transport.Descriptor{VendorID: 0x054C, Name: "Wireless Controller"}))
	assert.False(t, f.Matches(transport.Descriptor{VendorID: 0x054C, Name: "Other"}))
}
