package mapper

import (
	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/core"
)

// Pool hands out Mappers to newly-registered controllers and recycles ones
// whose controller has disconnected, rather than allocating one per connect.
// It satisfies controller.MapperPool.
type Pool struct {
	sched *core.Scheduler
	free  []*Mapper
	all   []*Mapper
}

// NewPool creates an empty Pool driven by sched; all Mappers it creates
// share the one Scheduler, matching the daemon's single mainloop.
func NewPool(sched *core.Scheduler) *Pool {
	return &Pool{sched: sched}
}

// Acquire returns an idle Mapper, recycling one from a disconnected
// controller if any is free, else constructing a new one.
func (p *Pool) Acquire() controller.MapperHandle {
	if n := len(p.free); n > 0 {
		m := p.free[n-1]
		p.free = p.free[:n-1]
		return m
	}
	m := New(p.sched)
	p.all = append(p.all, m)
	return m
}

// Release returns m to the free list after resetting it. m must be one this
// Pool produced; anything else is ignored.
func (p *Pool) Release(h controller.MapperHandle) {
	m, ok := h.(*Mapper)
	if !ok {
		return
	}
	m.reset()
	p.free = append(p.free, m)
}

// Count returns the number of Mappers ever allocated by this Pool
// (diagnostics/tests only).
func (p *Pool) Count() int { return len(p.all) }
