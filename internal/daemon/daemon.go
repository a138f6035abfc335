// Package daemon wires the mainloop, registry, mapper pool, client protocol,
// and device monitor together into the single process object cmd/sccd
// starts and the one every command handler closes over.
package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scc-go/sccd/internal/clientproto"
	"github.com/scc-go/sccd/internal/clock"
	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/core"
	"github.com/scc-go/sccd/internal/devicemonitor"
	"github.com/scc-go/sccd/internal/mapper"
	"github.com/scc-go/sccd/internal/profile"
)

// Daemon is the top-level object: one Scheduler and Poller drive everything
// else, matching the reference daemon's single-threaded cooperative
// mainloop rather than a goroutine-per-controller design.
type Daemon struct {
	Log *slog.Logger

	// ProfileLoader resolves a Profile: command's name-or-path argument to a
	// loaded Profile; cmd/sccd wires this to a real config-directory lookup.
	ProfileLoader func(nameOrPath string) (profile.Profile, error)

	// Enumerator backs Rescan.; cmd/sccd wires this to the OS-specific
	// subsystem walker.
	Enumerator devicemonitor.Enumerator

	sched   *core.Scheduler
	poller  *core.Poller
	work    *core.WorkQueue
	pool    *mapper.Pool
	reg     *controller.Registry
	monitor *devicemonitor.Monitor
	cancel  context.CancelFunc

	defaultProfile profile.Profile
	clients        map[*clientproto.Client]bool
}

// New assembles a Daemon. clk lets tests substitute a mock clock; production
// callers pass clock.New().
func New(clk clock.Clock, log *slog.Logger) *Daemon {
	sched := core.NewScheduler(clk)
	pool := mapper.NewPool(sched)
	poller := core.NewPoller()
	work := core.NewWorkQueue(workQueueSize)
	d := &Daemon{
		Log:            log,
		sched:          sched,
		poller:         poller,
		work:           work,
		pool:           pool,
		monitor:        devicemonitor.New(log),
		defaultProfile: profile.Empty(),
		clients:        map[*clientproto.Client]bool{},
	}
	d.reg = controller.NewRegistry(pool)
	// Registered under a fixed, unexported name: the work queue is an
	// implementation detail of Post, not something driver code adds itself.
	if err := poller.Add(workQueueSourceName, work); err != nil {
		panic("daemon: work queue registration: " + err.Error())
	}
	return d
}

// workQueueSourceName is the Poller registration key for the mainloop's
// WorkQueue; unexported so nothing outside this package can collide with or
// remove it.
const workQueueSourceName = "mainloop-work"

// workQueueSize bounds how many pending posts (device frames, client
// commands) can queue up before Post blocks its caller; generous enough that
// a burst of hotplug events or a flurry of client commands never stalls a
// device read loop for more than an instant.
const workQueueSize = 256

// Scheduler exposes the daemon's Scheduler for driver packages that need to
// schedule follow-up work not tied to a specific mapper (e.g. RemotePad
// turnoff grace periods).
func (d *Daemon) Scheduler() *core.Scheduler { return d.sched }

// Poller exposes the daemon's Poller so transport/config-watch sources can
// be registered by daemon setup code.
func (d *Daemon) Poller() *core.Poller { return d.poller }

// Monitor exposes the device monitor for driver registration at startup.
func (d *Daemon) Monitor() *devicemonitor.Monitor { return d.monitor }

// Registry exposes the controller registry for driver packages creating
// Controller instances on hotplug.
func (d *Daemon) Registry() *controller.Registry { return d.reg }

// Post hands fn to the mainloop goroutine and returns without waiting for it
// to run. Device read loops and other background goroutines must use this
// (never call into Scheduler/Mapper/Registry directly) since none of that
// state is safe for concurrent use — it is owned exclusively by the
// goroutine running Run.
func (d *Daemon) Post(fn func()) { d.work.Post(fn) }

// PostAndWait hands fn to the mainloop goroutine and blocks until it has
// run. The control socket uses this so a client command's effect (and any
// error it returns) is visible before the reply is written back.
func (d *Daemon) PostAndWait(fn func()) { d.work.PostAndWait(fn) }

// SetDefaultProfile stores p (compressed) on the daemon. The stored profile
// is not applied to any mapper: newly-registered controllers start with an
// empty profile.
func (d *Daemon) SetDefaultProfile(p profile.Profile) { d.defaultProfile = p.Compress() }

// Run drives the mainloop until ctx is cancelled: each iteration drains at
// most one scheduled task, then waits on the poller for the remaining sleep
// budget (or until a registered source becomes ready).
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		d.sched.Drain()
		d.poller.Wait(d.sched.SleepTime())
	}
}

// Shutdown stops Run's mainloop; called by the Exit. command handler.
func (d *Daemon) Shutdown() {
	if d.cancel != nil {
		d.cancel()
	}
}

// mapperOf resolves a client's MapperID to the bound Mapper, defaulting to
// the first connected controller if MapperID hasn't been set by a prior
// Controller: command.
func (d *Daemon) mapperOf(client *clientproto.Client) (*mapper.Mapper, error) {
	if client.MapperID == "" {
		ctrls := d.reg.List()
		if len(ctrls) == 0 {
			return nil, fmt.Errorf("no controller connected")
		}
		client.MapperID = ctrls[0].ID()
	}
	h := d.reg.Mapper(client.MapperID)
	if h == nil {
		return nil, fmt.Errorf("unknown controller %q", client.MapperID)
	}
	m, ok := h.(*mapper.Mapper)
	if !ok {
		return nil, fmt.Errorf("controller %q has no concrete mapper", client.MapperID)
	}
	return m, nil
}

// broadcast pushes msg to every connected client, used for Event:/Log:/
// Controller Count: pushes that aren't a direct reply to one client's
// command.
func (d *Daemon) broadcast(fn func(c *clientproto.Client)) {
	for c := range d.clients {
		fn(c)
	}
}

// AddClient/RemoveClient track connected control-socket clients; wired as
// clientproto.Server's OnConnect/OnDisconnect hooks.
func (d *Daemon) AddClient(c *clientproto.Client)    { d.clients[c] = true }
func (d *Daemon) RemoveClient(c *clientproto.Client) { delete(d.clients, c) }
