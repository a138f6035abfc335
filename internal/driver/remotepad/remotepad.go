// Package remotepad implements the RemotePad UDP protocol: a phone/tablet
// app sends controller frames over UDP to port 55400 and is represented as
// an auto-created controller for as long as frames keep arriving.
package remotepad

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/scc-go/sccd/internal/controllerinput"
	"github.com/scc-go/sccd/internal/core"
)

// Port is the well-known RemotePad listening port.
const Port = 55400

// TurnoffGrace is how long a peer is kept registered with no frames arriving
// before it's torn down, giving a phone screen-lock or brief wifi drop a
// window to reconnect without losing its binding.
const TurnoffGrace = 10 * time.Second

// frameSize is the length of one RemotePad UDP packet: a 4-byte button mask followed
// by six little-endian signed 16-bit axes (stick, left pad, right pad).
const frameSize = 4 + 6*2

// DecodeFrame parses packet into in; returns an error for anything not
// exactly frameSize bytes, since RemotePad has no framing beyond UDP
// datagram boundaries.
func DecodeFrame(packet []byte, in *controllerinput.Input) error {
	if len(packet) != frameSize {
		return fmt.Errorf("remotepad: expected %d byte frame, got %d", frameSize, len(packet))
	}
	in.Buttons = controllerinput.SCButton(binary.LittleEndian.Uint32(packet[0:4]))
	axes := [6]*int16{&in.StickX, &in.StickY, &in.LPadX, &in.LPadY, &in.RPadX, &in.RPadY}
	for i, dst := range axes {
		*dst = int16(binary.LittleEndian.Uint16(packet[4+i*2 : 6+i*2]))
	}
	in.Touched(in.LPadX, in.LPadY, controllerinput.ButtonLPadTouch)
	in.Touched(in.RPadX, in.RPadY, controllerinput.ButtonRPadTouch)
	return nil
}

// PeerHandler receives decoded frames for one peer address; the
// devicedriver wiring (NewRemotePadListener) creates one the first time an
// address is seen and discards it TurnoffGrace after the last frame.
type PeerHandler interface {
	Input(in *controllerinput.Input)
	TurnOff()
}

// Listener owns the UDP socket and per-peer turnoff scheduling. The UDP
// socket read and the peer/scheduler bookkeeping are deliberately split
// across two goroutines: packetPump only does I/O and handoff, while
// Dispatch (called by the mainloop's Poller) is the only thing that ever
// touches peers or sched, since neither tolerates concurrent access.
type Listener struct {
	conn    *net.UDPConn
	sched   *core.Scheduler
	newPeer func(addr *net.UDPAddr) PeerHandler

	peers   map[string]*peerState
	packets chan packet
	ready   chan struct{}
}

type peerState struct {
	handler   PeerHandler
	turnoffID core.TaskID
}

// packet is one received UDP datagram handed from packetPump to Dispatch.
type packet struct {
	addr *net.UDPAddr
	data []byte
}

// packetQueueSize bounds how many received-but-undispatched datagrams can
// queue up; generous relative to RemotePad's low frame rate.
const packetQueueSize = 32

// New binds the RemotePad UDP socket. newPeer is called the first time a
// given source address sends a frame.
func New(sched *core.Scheduler, newPeer func(addr *net.UDPAddr) PeerHandler) (*Listener, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: Port})
	if err != nil {
		return nil, fmt.Errorf("remotepad: listen :%d: %w", Port, err)
	}
	l := &Listener{
		conn:    conn,
		sched:   sched,
		newPeer: newPeer,
		peers:   map[string]*peerState{},
		packets: make(chan packet, packetQueueSize),
		ready:   make(chan struct{}, 1),
	}
	go l.packetPump()
	return l, nil
}

// packetPump reads datagrams off the socket and hands each one to Dispatch
// through l.packets; it never touches l.peers or l.sched itself.
func (l *Listener) packetPump() {
	buf := make([]byte, 256)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			close(l.ready)
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		l.packets <- packet{addr: addr, data: data}
		select {
		case l.ready <- struct{}{}:
		default:
		}
	}
}

// Ready implements core.Source.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

// Dispatch implements core.Source: it handles exactly one queued datagram on
// the mainloop goroutine, then re-arms Ready if more are queued.
func (l *Listener) Dispatch() {
	select {
	case p := <-l.packets:
		l.handle(p.addr, p.data)
	default:
		return
	}
	if len(l.packets) > 0 {
		select {
		case l.ready <- struct{}{}:
		default:
		}
	}
}

func (l *Listener) handle(addr *net.UDPAddr, packet []byte) {
	key := addr.String()
	ps, ok := l.peers[key]
	if !ok {
		ps = &peerState{handler: l.newPeer(addr)}
		l.peers[key] = ps
	} else {
		l.sched.Cancel(ps.turnoffID)
	}

	var in controllerinput.Input
	if err := DecodeFrame(packet, &in); err == nil {
		ps.handler.Input(&in)
	}

	ps.turnoffID = l.sched.Schedule(TurnoffGrace, func(any) {
		ps.handler.TurnOff()
		delete(l.peers, key)
	}, l, nil)
}

func (l *Listener) Close() error { return l.conn.Close() }
