package core

import (
	"fmt"
	"reflect"
	"time"
)

// Source is a readiness-signalling event source the poller multiplexes.
// Ready fires (a value is sent or the channel is closed) whenever the
// source has at least one pending item; Dispatch consumes and handles
// exactly one. This is the channel-based equivalent of the reference
// daemon's raw file-descriptor readiness callback: every transport backend
// (USB read-loop goroutine, the RemotePad UDP listener, the fsnotify config
// watcher, the control-socket listener) bridges into the mainloop through a
// Source instead of a bare fd, since Go channels are the idiomatic
// multiplexing primitive here.
type Source interface {
	Ready() <-chan struct{}
	Dispatch()
}

// Poller is a readiness multiplexer keyed by name. Registering the same
// name twice is an error, matching the reference daemon's add(fd) contract.
// Not safe for concurrent use; the mainloop is its only owner.
type Poller struct {
	names   []string
	sources []Source
}

// NewPoller creates an empty Poller.
func NewPoller() *Poller { return &Poller{} }

// Add registers a readiness callback under name.
func (p *Poller) Add(name string, src Source) error {
	for _, n := range p.names {
		if n == name {
			return fmt.Errorf("poller: %q already registered", name)
		}
	}
	p.names = append(p.names, name)
	p.sources = append(p.sources, src)
	return nil
}

// Remove cancels a previously registered source.
func (p *Poller) Remove(name string) {
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			p.sources = append(p.sources[:i], p.sources[i+1:]...)
			return
		}
	}
}

// Wait blocks up to budget for any registered source to become ready,
// dispatching the first one found, then returns. A zero or negative budget
// polls without blocking.
func (p *Poller) Wait(budget time.Duration) {
	n := len(p.sources)
	if n == 0 {
		if budget > 0 {
			time.Sleep(budget)
		}
		return
	}

	cases := make([]reflect.SelectCase, 0, n+1)
	for _, src := range p.sources {
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(src.Ready()),
		})
	}
	timer := time.NewTimer(budget)
	defer timer.Stop()
	cases = append(cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(timer.C),
	})

	chosen, _, _ := reflect.Select(cases)
	if chosen == n {
		return // timed out; no source was ready
	}
	p.sources[chosen].Dispatch()
}
