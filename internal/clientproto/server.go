package clientproto

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"os"

	"github.com/scc-go/sccd/internal/clientproto/auth"
)

// Server accepts control-socket connections, performs the auth handshake
// when a connection opens with the handshake magic, and otherwise serves a
// plaintext local connection (the common case: a Unix socket already
// restricted to the daemon's own user by filesystem permissions).
type Server struct {
	listener   net.Listener
	dispatcher *Dispatcher
	key        []byte
	log        *slog.Logger

	// postAndWait runs fn on the mainloop goroutine and blocks until it has
	// run, since Dispatch and the connect/disconnect hooks touch
	// mapper/registry/scheduler state that only that goroutine may mutate.
	postAndWait func(fn func())

	onConnect    func(c *Client)
	onDisconnect func(c *Client)
}

// NewServer binds a Unix-domain socket at path, removing a stale socket file
// left behind by an unclean shutdown first. postAndWait must run fn on the
// daemon's mainloop goroutine and block until it returns (daemon.Daemon's
// PostAndWait); every command this connection dispatches, and every
// connect/disconnect hook, is run through it rather than directly on this
// connection's own goroutine.
func NewServer(path string, dispatcher *Dispatcher, key []byte, log *slog.Logger, postAndWait func(fn func())) (*Server, error) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, err
	}
	return &Server{listener: l, dispatcher: dispatcher, key: key, log: log, postAndWait: postAndWait}, nil
}

// OnConnect/OnDisconnect register lifecycle hooks, e.g. default-profile
// mapper binding and lock-release-on-disconnect.
func (s *Server) OnConnect(fn func(c *Client))    { s.onConnect = fn }
func (s *Server) OnDisconnect(fn func(c *Client)) { s.onDisconnect = fn }

// Serve accepts connections until ctx is cancelled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, raw net.Conn) {
	br := bufio.NewReader(raw)
	conn := net.Conn(raw)

	if isHandshake, _ := auth.IsAuthHandshake(br); isHandshake {
		clientNonce, serverNonce, err := auth.HandleAuthHandshake(br, raw, s.key, false)
		if err != nil {
			s.log.Warn("auth handshake failed", "err", err, "remote", raw.RemoteAddr())
			raw.Close()
			return
		}
		sessionKey := auth.DeriveSessionKey(s.key, serverNonce, clientNonce)
		wrapped, err := auth.WrapConn(raw, sessionKey)
		if err != nil {
			s.log.Warn("session wrap failed", "err", err)
			raw.Close()
			return
		}
		conn = wrapped
		br = bufio.NewReader(conn)
	}

	client := NewClient(conn)
	if s.onConnect != nil {
		s.postAndWait(func() { s.onConnect(client) })
	}
	defer func() {
		client.Drop()
		conn.Close()
		if s.onDisconnect != nil {
			s.postAndWait(func() { s.onDisconnect(client) })
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line, readErr := br.ReadString('\n')
		if line != "" {
			if req, parseErr := ParseLine(line); parseErr != nil {
				s.log.Debug("malformed command", "err", parseErr)
				_ = client.Reply(tagged("", "Fail: Unknown command"))
			} else {
				var dispatchErr error
				s.postAndWait(func() { dispatchErr = s.dispatcher.Dispatch(client, req) })
				if dispatchErr != nil {
					s.log.Debug("command failed", "verb", req.Verb, "err", dispatchErr)
					_ = client.Reply(tagged(req.Tag, "Fail: "+dispatchErr.Error()))
				} else {
					_ = client.Reply(tagged(req.Tag, "OK."))
				}
			}
		}
		if readErr != nil {
			return
		}
	}
}

func (s *Server) Close() error { return s.listener.Close() }

// tagged prefixes a reply with "#tag " when tag is non-empty, matching the
// protocol's "tags are echoed before the response" rule.
func tagged(tag, reply string) string {
	if tag == "" {
		return reply
	}
	return "#" + tag + " " + reply
}
