package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/profile"
)

type fakeNotifier struct {
	events  [][]int
	sources []profile.Source
	dropped bool
}

func (f *fakeNotifier) SendEvent(controllerID string, source profile.Source, values ...int) {
	f.sources = append(f.sources, source)
	f.events = append(f.events, values)
}
func (f *fakeNotifier) Dropped() bool { return f.dropped }

func TestLockRoutesButtonEventsToOwnerNotProfile(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{}

	lp.Lock(profile.SourceA, owner)
	lp.GetButton(controllerinput.ButtonA).ButtonPress()

	require.Len(t, owner.sources, 1)
	assert.Equal(t, profile.SourceA, owner.sources[0])
	assert.Equal(t, []int{1}, owner.events[0])
}

func TestUnlockRestoresStructuralEquivalenceToBaseProfile(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{}

	lp.Lock(profile.SourceA, owner)
	assert.True(t, lp.IsLocked(profile.SourceA))

	remaining := lp.Unlock(profile.SourceA)
	assert.False(t, remaining)
	assert.False(t, lp.IsLocked(profile.SourceA))
	assert.Same(t, base, lp.Inner(), "unlocking must leave the wrapped profile untouched")
}

func TestLockingWholePadLeavesItsTouchSubSignalIndependent(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{}

	lp.Lock(profile.SourceLPad, owner)
	assert.True(t, lp.IsLocked(profile.SourceLPad))
	assert.False(t, lp.IsLocked(profile.SourceLPadTouch), "LPAD and LPADTOUCH are independent sources")

	lp.GetButton(controllerinput.ButtonLPadTouch).ButtonPress()
	assert.Empty(t, owner.sources, "LPADTOUCH must still route to the base profile, not the LPAD owner")
}

func TestUnlockingWholePadLeavesItsTouchSubSignalLocked(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{}

	lp.Lock(profile.SourceLPad, owner)
	lp.Lock(profile.SourceLPadTouch, owner)
	lp.Unlock(profile.SourceLPad)

	assert.False(t, lp.IsLocked(profile.SourceLPad))
	assert.True(t, lp.IsLocked(profile.SourceLPadTouch), "unlocking LPAD must not release an independently locked LPADTOUCH")
}

func TestWholePadLockThrottlesSmallMovements(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{}
	lp.Lock(profile.SourceLPad, owner)

	a := lp.GetPad(profile.PstLPad)
	a.Whole(100, 100, profile.PstLPad)
	require.Len(t, owner.events, 1, "first movement always reports")

	a.Whole(150, 150, profile.PstLPad)
	assert.Len(t, owner.events, 1, "movement under the 300-unit threshold must not report")

	a.Whole(500, 500, profile.PstLPad)
	assert.Len(t, owner.events, 2, "movement past the threshold reports again")
}

func TestCompressIsIdempotent(t *testing.T) {
	p := profile.Empty()
	once := p.Compress()
	twice := once.Compress()
	assert.Same(t, once, twice)
}

func TestDroppedOwnerReceivesNoEvents(t *testing.T) {
	base := profile.Empty()
	lp := profile.NewLockProfile(base, "ctrl1")
	owner := &fakeNotifier{dropped: true}
	lp.Lock(profile.SourceA, owner)

	lp.GetButton(controllerinput.ButtonA).ButtonPress()
	assert.Empty(t, owner.events)
}
