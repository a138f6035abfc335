package mapper_test

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sccclock "github.com/scc-go/sccd/internal/clock"
	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/core"
	"github.com/scc-go/sccd/internal/mapper"
	"github.com/scc-go/sccd/internal/profile"
	"github.com/scc-go/sccd/internal/virtualdevice"
)

type fakeKeyboard struct {
	down, up []virtualdevice.Keycode
	flushes  int
}

func (k *fakeKeyboard) KeyDown(code virtualdevice.Keycode) { k.down = append(k.down, code) }
func (k *fakeKeyboard) KeyUp(code virtualdevice.Keycode)   { k.up = append(k.up, code) }
func (k *fakeKeyboard) Flush() error                       { k.flushes++; return nil }

// boundProfile is a minimal profile.Profile backing test scenarios: only
// GetButton is wired to real KeyActions, everything else resolves to
// profile.NoAction.
type boundProfile struct {
	buttons map[controllerinput.SCButton]profile.Action
}

func (b *boundProfile) GetButton(bit controllerinput.SCButton) profile.Action {
	if a, ok := b.buttons[bit]; ok {
		return a
	}
	return profile.NoAction
}
func (b *boundProfile) GetTrigger(profile.Pst) profile.Action { return profile.NoAction }
func (b *boundProfile) GetPad(profile.Pst) profile.Action     { return profile.NoAction }
func (b *boundProfile) GetStick() profile.Action              { return profile.NoAction }
func (b *boundProfile) GetGyro() profile.Action               { return profile.NoAction }
func (b *boundProfile) IsTemplate() bool                      { return false }
func (b *boundProfile) GetVersion() *semver.Version {
	v, _ := semver.NewVersion("0.0.0")
	return v
}
func (b *boundProfile) Compress() profile.Profile { return b }

func newMapper(t *testing.T) (*mapper.Mapper, *fakeKeyboard) {
	t.Helper()
	sched := core.NewScheduler(sccclock.NewMock())
	m := mapper.New(sched)
	kb := &fakeKeyboard{}
	m.SetOutputs(kb, nil, nil)
	return m, kb
}

func TestButtonPressReleaseDispatchesOnChangeOnly(t *testing.T) {
	m, kb := newMapper(t)
	ka := mapper.NewKeyAction(m, virtualdevice.KeyA)
	p := &boundProfile{buttons: map[controllerinput.SCButton]profile.Action{
		controllerinput.ButtonA: ka,
	}}
	m.SetProfile(p, false)

	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonA})
	require.Equal(t, []virtualdevice.Keycode{virtualdevice.KeyA}, kb.down)

	// Unrelated bit changing must not re-fire A.
	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonA | controllerinput.ButtonB})
	assert.Len(t, kb.down, 1)

	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonB})
	require.Equal(t, []virtualdevice.Keycode{virtualdevice.KeyA}, kb.up)
}

func TestOverlappingKeyPressesReleaseOnlyWhenBothClear(t *testing.T) {
	m, kb := newMapper(t)
	ka1 := mapper.NewKeyAction(m, virtualdevice.KeySpace)
	ka2 := mapper.NewKeyAction(m, virtualdevice.KeySpace)
	p := &boundProfile{buttons: map[controllerinput.SCButton]profile.Action{
		controllerinput.ButtonA: ka1,
		controllerinput.ButtonB: ka2,
	}}
	m.SetProfile(p, false)

	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonA})
	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonA | controllerinput.ButtonB})
	assert.Len(t, kb.down, 1, "second overlapping press must not re-emit KeyDown")

	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonB})
	assert.Empty(t, kb.up, "releasing one of two overlapping presses must not emit KeyUp yet")

	m.Input(&controllerinput.Input{Buttons: 0})
	assert.Len(t, kb.up, 1, "releasing the last overlapping press emits KeyUp")
}

func TestReleaseVirtualButtonsForcesUpAndCancelsScheduledWork(t *testing.T) {
	m, kb := newMapper(t)
	ka := mapper.NewKeyAction(m, virtualdevice.KeyEnter)
	p := &boundProfile{buttons: map[controllerinput.SCButton]profile.Action{
		controllerinput.ButtonA: ka,
	}}
	m.SetProfile(p, false)
	m.Input(&controllerinput.Input{Buttons: controllerinput.ButtonA})
	require.Len(t, kb.down, 1)

	fired := false
	m.Schedule(0, func(any) { fired = true }, nil)

	m.ReleaseVirtualButtons()
	assert.Len(t, kb.up, 1)
	assert.False(t, fired, "scheduled work tagged to this mapper must be cancelled")
}
