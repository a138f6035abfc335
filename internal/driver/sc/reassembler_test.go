package sc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReassemblerSinglePacket(t *testing.T) {
	var r Reassembler
	frag := []byte{0xAA, 2, 0x01, 0x02}
	packet, complete := r.Feed(frag)
	assert.True(t, complete)
	assert.Equal(t, frag, packet)
}

func TestReassemblerSplitAcrossFragments(t *testing.T) {
	var r Reassembler

	first := make([]byte, firstFragmentLen)
	first[0] = 0xAA
	first[1] = byte(23) | longPacketTag // total packet = 25 bytes
	for i := 2; i < firstFragmentLen; i++ {
		first[i] = byte(i)
	}
	packet, complete := r.Feed(first)
	assert.False(t, complete)
	assert.Nil(t, packet)

	cont := []byte{0x80, 101, 102, 103, 104, 105} // leading byte is the repeated tag, stripped
	packet, complete = r.Feed(cont)
	assert.True(t, complete)
	assert.Len(t, packet, 25)
	assert.Equal(t, first, packet[:firstFragmentLen])
	assert.Equal(t, cont[1:], packet[firstFragmentLen:])
}

func TestReassemblerResetsAfterCompletion(t *testing.T) {
	var r Reassembler
	_, complete := r.Feed([]byte{0xAA, 1, 0x01})
	assert.True(t, complete)

	packet, complete := r.Feed([]byte{0xBB, 1, 0x02})
	assert.True(t, complete)
	assert.Equal(t, []byte{0xBB, 1, 0x02}, packet)
}
