package core

import (
	"sort"
	"time"

	"github.com/scc-go/sccd/internal/clock"
)

// TaskID identifies a scheduled task for cancellation. The zero value is
// never issued by Schedule and is used by callers as "not scheduled".
type TaskID uint64

// TaskFunc is invoked once its deadline has passed. ud is the opaque
// userdata passed to Schedule.
type TaskFunc func(ud any)

type task struct {
	id       TaskID
	deadline time.Time
	seq      uint64 // insertion order, breaks deadline ties
	fn       TaskFunc
	parent   any
	ud       any
}

// Scheduler maintains pending tasks ordered ascending by absolute deadline.
// It is not safe for concurrent use: the mainloop is its only owner, per the
// daemon's single-threaded cooperative concurrency model.
type Scheduler struct {
	clock   clock.Clock
	tasks   []*task
	nextID  TaskID
	nextSeq uint64
}

// SleepFloor bounds how long the poller is ever asked to wait, even with no
// scheduled tasks, so external signals (shutdown) are still observed
// promptly.
const SleepFloor = 10 * time.Millisecond

// NewScheduler creates a Scheduler driven by clk. Pass a real clock in
// production and a mock clock in tests.
func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clock: clk}
}

// Schedule inserts a task to fire after timeout, tagged with parent so a
// later Cancel-by-owner sweep (CancelAll) can find it. Returns an id usable
// with Cancel; the id is never reused.
func (s *Scheduler) Schedule(timeout time.Duration, fn TaskFunc, parent any, ud any) TaskID {
	s.nextID++
	s.nextSeq++
	t := &task{
		id:       s.nextID,
		deadline: s.clock.Now().Add(timeout),
		seq:      s.nextSeq,
		fn:       fn,
		parent:   parent,
		ud:       ud,
	}
	i := sort.Search(len(s.tasks), func(i int) bool {
		if s.tasks[i].deadline.Equal(t.deadline) {
			return s.tasks[i].seq > t.seq
		}
		return s.tasks[i].deadline.After(t.deadline)
	})
	s.tasks = append(s.tasks, nil)
	copy(s.tasks[i+1:], s.tasks[i:])
	s.tasks[i] = t
	return t.id
}

// Cancel removes a pending task by id. Idempotent: cancelling an unknown or
// already-fired id is a no-op.
func (s *Scheduler) Cancel(id TaskID) {
	if id == 0 {
		return
	}
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// CancelAll cancels every task whose parent equals owner (by ==), used when
// a mapper tears down so none of its scheduled follow-ups fire afterward.
func (s *Scheduler) CancelAll(owner any) {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.parent == owner {
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
}

// Drain pops and executes exactly one task whose deadline has passed,
// leaving later-ready tasks for subsequent mainloop iterations. Returns
// whether a task fired.
func (s *Scheduler) Drain() bool {
	if len(s.tasks) == 0 {
		return false
	}
	head := s.tasks[0]
	if head.deadline.After(s.clock.Now()) {
		return false
	}
	s.tasks = s.tasks[1:]
	head.fn(head.ud)
	return true
}

// SleepTime returns the smaller of SleepFloor and the time remaining to the
// next deadline, clamped at zero; the poller uses this as its wait budget.
func (s *Scheduler) SleepTime() time.Duration {
	if len(s.tasks) == 0 {
		return SleepFloor
	}
	remaining := s.tasks[0].deadline.Sub(s.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	if remaining < SleepFloor {
		return remaining
	}
	return SleepFloor
}

// Len reports the number of pending tasks (diagnostics/tests only).
func (s *Scheduler) Len() int { return len(s.tasks) }
