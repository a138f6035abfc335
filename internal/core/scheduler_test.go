package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sccclock "github.com/scc-go/sccd/internal/clock"
	"github.com/scc-go/sccd/internal/core"
)

func TestScheduleFiresInDeadlineOrder(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	var fired []string
	s.Schedule(50*time.Millisecond, func(any) { fired = append(fired, "50") }, nil, nil)
	s.Schedule(10*time.Millisecond, func(any) { fired = append(fired, "10") }, nil, nil)
	s.Schedule(30*time.Millisecond, func(any) { fired = append(fired, "30") }, nil, nil)

	clk.Add(60 * time.Millisecond)
	for s.Drain() {
	}

	assert.Equal(t, []string{"10", "30", "50"}, fired)
}

func TestScheduleTiesBreakByInsertionOrder(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	var fired []string
	s.Schedule(10*time.Millisecond, func(any) { fired = append(fired, "first") }, nil, nil)
	s.Schedule(10*time.Millisecond, func(any) { fired = append(fired, "second") }, nil, nil)

	clk.Add(10 * time.Millisecond)
	for s.Drain() {
	}

	assert.Equal(t, []string{"first", "second"}, fired)
}

func TestCancelIsIdempotent(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	fired := false
	id := s.Schedule(10*time.Millisecond, func(any) { fired = true }, nil, nil)
	s.Cancel(id)
	s.Cancel(id) // cancelling twice is a no-op, not an error

	clk.Add(10 * time.Millisecond)
	s.Drain()
	assert.False(t, fired)
}

func TestCancelAllSweepsByParent(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	owner := struct{}{}
	other := struct{}{}
	var fired []string
	s.Schedule(10*time.Millisecond, func(any) { fired = append(fired, "owned") }, &owner, nil)
	s.Schedule(10*time.Millisecond, func(any) { fired = append(fired, "other") }, &other, nil)

	s.CancelAll(&owner)

	clk.Add(10 * time.Millisecond)
	for s.Drain() {
	}
	require.Equal(t, []string{"other"}, fired)
}

func TestDrainPopsExactlyOneReadyTask(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	var fired int
	s.Schedule(10*time.Millisecond, func(any) { fired++ }, nil, nil)
	s.Schedule(10*time.Millisecond, func(any) { fired++ }, nil, nil)

	clk.Add(10 * time.Millisecond)
	require.True(t, s.Drain())
	assert.Equal(t, 1, fired)
	require.Equal(t, 1, s.Len())
}

func TestSleepTimeClampsToFloorAndNextDeadline(t *testing.T) {
	clk := sccclock.NewMock()
	s := core.NewScheduler(clk)

	assert.Equal(t, core.SleepFloor, s.SleepTime())

	s.Schedule(2*time.Millisecond, func(any) {}, nil, nil)
	assert.Equal(t, 2*time.Millisecond, s.SleepTime())

	clk.Add(5 * time.Millisecond)
	assert.Equal(t, time.Duration(0), s.SleepTime())
}
