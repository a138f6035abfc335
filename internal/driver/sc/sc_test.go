package sc

import (
	"testing"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packet(bitmap uint32, extra ...byte) []byte {
	p := make([]byte, 8)
	p[0] = byte(PacketInput)
	p[4] = byte(bitmap)
	p[5] = byte(bitmap >> 8)
	p[6] = byte(bitmap >> 16)
	p[7] = byte(bitmap >> 24)
	return append(p, extra...)
}

func TestDecodePingPacketReportsNoChange(t *testing.T) {
	var in controllerinput.Input
	in.StickX = 42 // sentinel: a ping must never touch it

	pt, changed, err := Decode(packet(bitPing), &in)
	require.NoError(t, err)
	assert.Equal(t, PacketInput, pt)
	assert.False(t, changed, "an all-ping bitmap must not be treated as a state change")
	assert.Equal(t, int16(42), in.StickX, "ping packets must leave prior state untouched")
}

func TestDecodeStickFieldReportsChanged(t *testing.T) {
	var in controllerinput.Input
	pt, changed, err := Decode(packet(bitStick, 0x10, 0x00, 0x20, 0x00), &in)
	require.NoError(t, err)
	assert.Equal(t, PacketInput, pt)
	assert.True(t, changed)
	assert.Equal(t, int16(0x10), in.StickX)
	assert.Equal(t, int16(0x20), in.StickY)
}

func TestDecodeNonInputPacketTypeNeverChanged(t *testing.T) {
	p := packet(bitStick, 0x10, 0x00, 0x20, 0x00)
	p[0] = byte(PacketIdle)
	var in controllerinput.Input
	pt, changed, err := Decode(p, &in)
	require.NoError(t, err)
	assert.Equal(t, PacketIdle, pt)
	assert.False(t, changed)
}

func TestDecodeShortPacketErrors(t *testing.T) {
	var in controllerinput.Input
	_, changed, err := Decode(make([]byte, 4), &in)
	require.Error(t, err)
	assert.False(t, changed)
}

func TestDecodeDeckInputPacketAlwaysChanged(t *testing.T) {
	packet := make([]byte, 8+8+2+4+4)
	packet[0] = byte(PacketInput)
	var in controllerinput.Input
	pt, changed, err := DecodeDeck(packet, &in)
	require.NoError(t, err)
	assert.Equal(t, PacketInput, pt)
	assert.True(t, changed, "the Deck has no ping packet type; every PT_INPUT carries a full snapshot")
}
