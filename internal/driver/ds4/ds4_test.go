package ds4

import (
	"testing"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseReport() []byte {
	r := make([]byte, InputReportSize)
	r[0] = ReportIDInput
	r[1] = 128 // stick X center
	r[2] = 128 // stick Y center
	r[3] = 128 // pad X center
	r[4] = 128 // pad Y center
	r[5] = 0x08 // dpad released (no direction), no face buttons
	return r
}

func TestDecodeShortReportErrors(t *testing.T) {
	var in controllerinput.Input
	err := Decode(make([]byte, 10), &in)
	require.Error(t, err)
}

func TestDecodeWrongReportID(t *testing.T) {
	r := baseReport()
	r[0] = 0x99
	var in controllerinput.Input
	err := Decode(r, &in)
	require.Error(t, err)
}

func TestDecodeCrossButton(t *testing.T) {
	r := baseReport()
	r[5] = 0x08 | 0x20 // dpad released, cross pressed
	var in controllerinput.Input
	require.NoError(t, Decode(r, &in))
	assert.NotZero(t, in.Buttons&controllerinput.ButtonA)
}

func TestDecodeShareAndOptionsMapToC(t *testing.T) {
	r := baseReport()
	r[6] = 0x10 | 0x20 // share and options together
	var in controllerinput.Input
	require.NoError(t, Decode(r, &in))
	assert.Zero(t, in.Buttons&controllerinput.ButtonBack)
	assert.Zero(t, in.Buttons&controllerinput.ButtonStart)
	assert.NotZero(t, in.Buttons&controllerinput.ButtonC)
}

func TestDecodeDPadUp(t *testing.T) {
	r := baseReport()
	r[5] = 0x00 // dpad up, no face buttons
	var in controllerinput.Input
	require.NoError(t, Decode(r, &in))
	assert.NotZero(t, in.Buttons&controllerinput.ButtonDPadUp)
	assert.Zero(t, in.Buttons&controllerinput.ButtonDPadLeft)
}

func TestDecodeCenterSticksAreZero(t *testing.T) {
	r := baseReport()
	var in controllerinput.Input
	require.NoError(t, Decode(r, &in))
	assert.InDelta(t, 0, in.StickX, 4)
	assert.InDelta(t, 0, in.StickY, 4)
}

func TestEncodeOutputSetsReportID(t *testing.T) {
	out := EncodeOutput(255, 0, 0, 10, 20)
	require.Len(t, out, OutputReportSize)
	assert.Equal(t, byte(ReportIDOutput), out[0])
	assert.Equal(t, byte(10), out[4])
	assert.Equal(t, byte(20), out[5])
	assert.Equal(t, byte(255), out[6])
}
