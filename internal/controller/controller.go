// Package controller defines the polymorphic Controller capability set and
// the append-only registry that tracks connected controllers and binds each
// to a mapper.
package controller

import (
	"fmt"

	"github.com/scc-go/sccd/internal/controllerinput"
)

// Flags declare which optional capabilities/axes a controller exposes.
type Flags uint32

const (
	FlagRightStick Flags = 1 << iota
	FlagSeparateStickPad
	FlagQuaternionGyro
	FlagCenterPad
	FlagDPad
	FlagGrips
)

// MapperHandle is the subset of a mapper a Controller needs: feeding it
// decoded frames and tearing it down on disconnect. Defined here (not in
// package mapper) so this package never imports mapper, avoiding a cycle
// since mapper.Mapper implements this interface and holds a Controller.
type MapperHandle interface {
	Input(in *controllerinput.Input)
	ReleaseVirtualButtons()
	SetController(c Controller)
	Controller() Controller
}

// Controller is polymorphic over an optional capability set; callers type-
// assert for GyroCapable, HapticCapable, Flushable, and PowerOffCapable.
type Controller interface {
	ID() string // stable across reconnects, no whitespace, unique while connected
	Type() string
	Description() string
	Flags() Flags
	SetMapper(m MapperHandle)
	Deallocate()
}

// GyroCapable is implemented by controllers whose gyro can be toggled.
type GyroCapable interface {
	SetGyroEnabled(enabled bool)
	GyroEnabled() bool
}

// HapticCapable is implemented by controllers that accept rumble/haptic
// commands.
type HapticCapable interface {
	Haptic(effect HapticEffect)
}

// HapticEffect is a simple two-motor rumble command; device-family drivers
// translate it into their own wire format.
type HapticEffect struct {
	Position    uint8 // 0 = left/small, 1 = right/large, per legacy SC semantics
	Amplitude   uint16
	PeriodUs    uint16
	DurationCnt uint16
}

// Flushable is implemented by controllers that batch haptic output and must
// be told when the mapper's frame processing is complete.
type Flushable interface {
	Flush()
}

// PowerOffCapable is implemented by controllers that can be asked to power
// down (Turnoff. client command, or RemotePad 10s reinstatement window).
type PowerOffCapable interface {
	TurnOff()
}

// MapperPool hands out a free mapper to a newly-registered controller and
// reclaims it on removal; it is implemented by package mapper's Pool so
// this package can depend on the capability rather than the concrete type.
type MapperPool interface {
	Acquire() MapperHandle
	Release(m MapperHandle)
}

// Registry is an append-only list of connected controllers, unique by ID.
type Registry struct {
	pool    MapperPool
	byID    map[string]Controller
	mappers map[string]MapperHandle
	order   []string
}

// NewRegistry creates a Registry drawing mappers from pool.
func NewRegistry(pool MapperPool) *Registry {
	return &Registry{pool: pool, byID: map[string]Controller{}, mappers: map[string]MapperHandle{}}
}

// Add registers c, failing if a controller with the same ID is already
// connected. On success, binds c to a mapper acquired from the pool; no
// profile is carried over from another mapper, so c starts with whatever
// profile the acquired mapper holds.
func (r *Registry) Add(c Controller) error {
	if c.ID() == "" {
		return fmt.Errorf("registry: controller id must not be empty")
	}
	if _, dup := r.byID[c.ID()]; dup {
		return fmt.Errorf("registry: duplicate controller id %q", c.ID())
	}
	m := r.pool.Acquire()
	m.SetController(c)
	c.SetMapper(m)
	r.byID[c.ID()] = c
	r.mappers[c.ID()] = m
	r.order = append(r.order, c.ID())
	return nil
}

// Remove disconnects the controller with the given id: it releases virtual
// buttons, deallocates the controller, and returns the mapper to the pool
// for reuse by the next Add.
func (r *Registry) Remove(id string) {
	c, ok := r.byID[id]
	if !ok {
		return
	}
	m := r.mappers[id]
	delete(r.byID, id)
	delete(r.mappers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	c.Deallocate()
	if m != nil {
		r.pool.Release(m)
	}
}

// Get returns the connected controller with the given id, or nil.
func (r *Registry) Get(id string) Controller {
	return r.byID[id]
}

// Mapper returns the MapperHandle bound to the controller with the given id,
// or nil if no such controller is connected.
func (r *Registry) Mapper(id string) MapperHandle {
	return r.mappers[id]
}

// List returns connected controllers in registration order.
func (r *Registry) List() []Controller {
	out := make([]Controller, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Count returns the number of currently connected controllers.
func (r *Registry) Count() int { return len(r.byID) }
