// Package clientproto implements the daemon control socket: a newline-
// terminated ASCII command protocol, optionally authenticated and encrypted
// the way the reference daemon's network API server is (plaintext unless the
// client opens with the handshake), but spoken over a Unix-domain
// socket to a single local peer per connection.
package clientproto

import (
	"fmt"
	"strings"
)

// Request is one parsed client command line: verb plus the remaining
// whitespace-separated arguments. Commands are either "Name: args..." (take
// arguments) or "Name." (bare, no arguments), matching the two command
// shapes the protocol uses throughout. Tag holds an optional leading "#..."
// token the client used to correlate this command with its reply; empty if
// the line carried none.
type Request struct {
	Verb string
	Args []string
	Line string
	Tag  string
}

// HandlerFunc executes one command against conn-scoped state. A nil return
// becomes an "OK." reply; a non-nil error becomes "Fail: <err>", both
// written by the caller (see Server.handleConn) with the request's tag
// echoed in front when present.
type HandlerFunc func(client *Client, req *Request) error

// Dispatcher maps a command verb ("Button", "Lock", "Controller", ...) to
// its handler. Unlike the reference daemon's path-segment Router, verbs here
// are matched by exact string, not pattern, since the protocol is a flat
// command set rather than a hierarchical resource path.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher { return &Dispatcher{handlers: map[string]HandlerFunc{}} }

// Register binds verb (without its trailing "." or ":") to handler.
func (d *Dispatcher) Register(verb string, handler HandlerFunc) {
	d.handlers[verb] = handler
}

// ParseLine splits one received line into a Request. A line may start with
// a tag token beginning with "#" (e.g. "#42 Lock: A"); when present it is
// stripped before the command itself is parsed and echoed back on the
// reply. What remains is either "Verb: arg1 arg2 ...\n" or "Verb.\n";
// anything else is a protocol error.
func ParseLine(line string) (*Request, error) {
	line = strings.TrimRight(line, "\r\n")

	var tag string
	if strings.HasPrefix(line, "#") {
		rest := strings.TrimSpace(line)
		if sp := strings.IndexAny(rest, " \t"); sp >= 0 {
			tag = rest[1:sp]
			line = strings.TrimSpace(rest[sp+1:])
		} else {
			tag = rest[1:]
			line = ""
		}
	}

	switch {
	case strings.HasSuffix(line, "."):
		return &Request{Verb: strings.TrimSuffix(line, "."), Line: line, Tag: tag}, nil
	case strings.Contains(line, ":"):
		i := strings.Index(line, ":")
		verb := line[:i]
		rest := strings.TrimSpace(line[i+1:])
		var args []string
		if rest != "" {
			args = strings.Fields(rest)
		}
		return &Request{Verb: verb, Args: args, Line: line, Tag: tag}, nil
	default:
		return nil, fmt.Errorf("clientproto: malformed command %q", line)
	}
}

// Dispatch looks up req.Verb and invokes its handler.
func (d *Dispatcher) Dispatch(client *Client, req *Request) error {
	h, ok := d.handlers[req.Verb]
	if !ok {
		return fmt.Errorf("clientproto: unknown command %q", req.Verb)
	}
	return h(client, req)
}
