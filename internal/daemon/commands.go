package daemon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/scc-go/sccd/internal/clientproto"
	"github.com/scc-go/sccd/internal/controller"
	"github.com/scc-go/sccd/internal/devicemonitor"
	"github.com/scc-go/sccd/internal/profile"
	"github.com/scc-go/sccd/internal/virtualdevice"
)

// RegisterCommands binds every client-protocol verb the daemon understands
// to d's state.
func (d *Daemon) RegisterCommands(disp *clientproto.Dispatcher) {
	disp.Register("Button", d.cmdButton)
	disp.Register("Controller", d.cmdController) // both "Controller." and "Controller: <id>"
	disp.Register("Exit", d.cmdExit)
	disp.Register("Lock", d.cmdLock)
	disp.Register("Unlock", d.cmdUnlock)
	disp.Register("Log", d.cmdLog)
	disp.Register("Observe", d.cmdObserve)
	disp.Register("Profile", d.cmdProfile)
	disp.Register("Reconfigure", d.cmdReconfigure)
	disp.Register("Register", d.cmdRegister)
	disp.Register("Rescan", d.cmdRescan)
	disp.Register("Turnoff", d.cmdTurnoff)
}

func (d *Daemon) cmdButton(client *clientproto.Client, req *clientproto.Request) error {
	if len(req.Args) != 2 {
		return fmt.Errorf("usage: Button: <keycode> <0|1>")
	}
	code, err := strconv.Atoi(req.Args[0])
	if err != nil {
		return fmt.Errorf("bad keycode: %w", err)
	}
	down, err := strconv.Atoi(req.Args[1])
	if err != nil {
		return fmt.Errorf("bad state: %w", err)
	}
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	if down != 0 {
		m.KeyPress(virtualdevice.Keycode(code))
	} else {
		m.KeyRelease(virtualdevice.Keycode(code))
	}
	m.Flush()
	return nil
}

// cmdController handles both "Controller." (bare: clear this client's
// binding, so later commands go to the first connected controller) and "Controller: <id>" (bind to a specific
// controller's mapper for subsequent commands).
func (d *Daemon) cmdController(client *clientproto.Client, req *clientproto.Request) error {
	if len(req.Args) == 0 {
		client.MapperID = ""
		return nil
	}
	id := req.Args[0]
	if d.reg.Get(id) == nil {
		return fmt.Errorf("unknown controller %q", id)
	}
	client.MapperID = id
	return nil
}

func (d *Daemon) cmdExit(client *clientproto.Client, req *clientproto.Request) error {
	d.Log.Info("Exit. received")
	d.broadcast(func(c *clientproto.Client) { _ = c.Reply("Log: daemon exiting") })
	d.Shutdown()
	return nil
}

func (d *Daemon) cmdLock(client *clientproto.Client, req *clientproto.Request) error {
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	for _, tok := range req.Args {
		if !profile.IsKnownSource(tok) {
			return fmt.Errorf("unknown lock source %q", tok)
		}
	}
	locked := make([]profile.Source, 0, len(req.Args))
	for _, tok := range req.Args {
		src := profile.Source(tok)
		if !m.Lock(src, client) {
			for _, already := range locked {
				m.Unlock(already)
			}
			return fmt.Errorf("source %q already locked", tok)
		}
		locked = append(locked, src)
	}
	return nil
}

func (d *Daemon) cmdUnlock(client *clientproto.Client, req *clientproto.Request) error {
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	for _, tok := range req.Args {
		m.Unlock(profile.Source(tok))
	}
	return nil
}

func (d *Daemon) cmdLog(client *clientproto.Client, req *clientproto.Request) error {
	// Log. is accepted and acknowledged but changes nothing: no log handler
	// mirrors daemon output to clients, so client.Log is never called.
	return nil
}

func (d *Daemon) cmdObserve(client *clientproto.Client, req *clientproto.Request) error {
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	for _, tok := range req.Args {
		if !profile.IsKnownSource(tok) {
			return fmt.Errorf("unknown observe source %q", tok)
		}
	}
	for _, tok := range req.Args {
		m.Lock(profile.Source(tok), client)
	}
	return nil
}

func (d *Daemon) cmdProfile(client *clientproto.Client, req *clientproto.Request) error {
	if len(req.Args) == 0 {
		return fmt.Errorf("usage: Profile: <name-or-path>")
	}
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	p, err := d.loadProfile(req.Args[0])
	if err != nil {
		return err
	}
	m.SetProfile(p, true)
	return client.CurrentProfile(req.Args[0])
}

// loadProfile is overridden by cmd/sccd wiring with a real config-directory
// lookup; the zero-value daemon always returns an empty profile so command
// dispatch is exercisable without a filesystem.
func (d *Daemon) loadProfile(nameOrPath string) (profile.Profile, error) {
	if d.ProfileLoader != nil {
		return d.ProfileLoader(nameOrPath)
	}
	return profile.Empty(), nil
}

func (d *Daemon) cmdReconfigure(client *clientproto.Client, req *clientproto.Request) error {
	d.broadcast(func(c *clientproto.Client) { _ = c.Reconfigured() })
	return nil
}

func (d *Daemon) cmdRegister(client *clientproto.Client, req *clientproto.Request) error {
	if len(req.Args) == 0 {
		return fmt.Errorf("usage: Register: osd|autoswitch")
	}
	switch req.Args[0] {
	case "osd", "autoswitch":
		client.Role = req.Args[0]
	default:
		return fmt.Errorf("unknown role %q", req.Args[0])
	}
	return nil
}

func (d *Daemon) cmdRescan(client *clientproto.Client, req *clientproto.Request) error {
	if d.Enumerator == nil {
		return fmt.Errorf("rescan unavailable: no enumerator configured")
	}
	return d.monitor.Rescan(context.Background(), d.Enumerator, devicemonitor.RescanUSB|devicemonitor.RescanHIDRaw|devicemonitor.RescanInput|devicemonitor.RescanBluetooth)
}

func (d *Daemon) cmdTurnoff(client *clientproto.Client, req *clientproto.Request) error {
	m, err := d.mapperOf(client)
	if err != nil {
		return err
	}
	c := m.Controller()
	if c == nil {
		return fmt.Errorf("no controller bound")
	}
	if po, ok := c.(controller.PowerOffCapable); ok {
		po.TurnOff()
		return nil
	}
	return fmt.Errorf("controller does not support power off")
}
