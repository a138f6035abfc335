package clientproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineBareCommand(t *testing.T) {
	req, err := ParseLine("Rescan.\n")
	require.NoError(t, err)
	assert.Equal(t, "Rescan", req.Verb)
	assert.Empty(t, req.Args)
}

func TestParseLineWithArgs(t *testing.T) {
	req, err := ParseLine("Button: LPAD A\r\n")
	require.NoError(t, err)
	assert.Equal(t, "Button", req.Verb)
	assert.Equal(t, []string{"LPAD", "A"}, req.Args)
}

func TestParseLineWithColonNoArgs(t *testing.T) {
	req, err := ParseLine("Profile:")
	require.NoError(t, err)
	assert.Equal(t, "Profile", req.Verb)
	assert.Empty(t, req.Args)
}

func TestParseLineMalformed(t *testing.T) {
	_, err := ParseLine("garbage without terminator")
	require.Error(t, err)
}

func TestParseLineStripsLeadingTag(t *testing.T) {
	req, err := ParseLine("#42 Lock: A B\n")
	require.NoError(t, err)
	assert.Equal(t, "42", req.Tag)
	assert.Equal(t, "Lock", req.Verb)
	assert.Equal(t, []string{"A", "B"}, req.Args)
}

func TestParseLineStripsTagFromBareCommand(t *testing.T) {
	req, err := ParseLine("#ping Rescan.\n")
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Tag)
	assert.Equal(t, "Rescan", req.Verb)
}

func TestParseLineWithoutTagLeavesItEmpty(t *testing.T) {
	req, err := ParseLine("Rescan.\n")
	require.NoError(t, err)
	assert.Empty(t, req.Tag)
}

func TestDispatchUnknownVerb(t *testing.T) {
	d := NewDispatcher()
	err := d.Dispatch(nil, &Request{Verb: "Nope"})
	require.Error(t, err)
}

func TestDispatchRegisteredVerb(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Register("Exit", func(c *Client, r *Request) error {
		called = true
		return nil
	})
	require.NoError(t, d.Dispatch(nil, &Request{Verb: "Exit"}))
	assert.True(t, called)
}
