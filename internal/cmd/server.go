// Package cmd holds the Kong command structs cmd/sccd's main wires into an
// app: the Server foreground command plus config scaffolding.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/scc-go/sccd/internal/clientproto"
	"github.com/scc-go/sccd/internal/clientproto/auth"
	sccclock "github.com/scc-go/sccd/internal/clock"
	"github.com/scc-go/sccd/internal/configpaths"
	"github.com/scc-go/sccd/internal/daemon"
	"github.com/scc-go/sccd/internal/devicemonitor"
	"github.com/scc-go/sccd/internal/profile"
)

const keyFileName = "scc-daemon.key"

// keepaliver is implemented by controllers whose firmware needs a periodic
// ping outside the core Scheduler's cancelable-deadline model, e.g. the
// Steam Deck's unlizard-mode timeout.
type keepaliver interface{ Keepalive() }

// Server is the Kong subcommand that runs the daemon in the foreground.
type Server struct {
	SocketPath    string        `help:"Control socket path" default:""`
	ProfileDir    string        `help:"Directory Profile: commands resolve names against" default:""`
	KeepaliveTick time.Duration `help:"Steam Deck keepalive ping interval" default:"1s"`
	IgnoreSerials bool          `help:"Assign synthetic controller IDs instead of trusting device serials" default:"false"`
}

// Run is called by Kong when the server command is executed.
func (s *Server) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger)
}

// StartServer wires the auth key, control socket, and mainloop together and
// blocks until ctx is cancelled.
func (s *Server) StartServer(ctx context.Context, logger *slog.Logger) error {
	socketPath := s.SocketPath
	if socketPath == "" {
		p, err := configpaths.DefaultSocketPath()
		if err != nil {
			return fmt.Errorf("failed to resolve socket path: %w", err)
		}
		socketPath = p
	}
	if err := configpaths.EnsureDir(socketPath); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	keyFileDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := path.Join(keyFileDir, keyFileName)
	var keyStr string
	if raw, err := os.ReadFile(keyFilePath); err == nil {
		keyStr = strings.TrimSpace(string(raw))
	} else {
		keyStr, err = auth.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate new daemon key: %w", err)
		}
		if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
			return fmt.Errorf("failed to create config dir for key file: %w", err)
		}
		if err := os.WriteFile(keyFilePath, []byte(keyStr), 0o600); err != nil {
			return fmt.Errorf("failed to write new daemon key: %w", err)
		}
		logger.Info("generated new daemon key", "path", keyFilePath)
	}
	key, err := auth.DeriveKey(keyStr)
	if err != nil {
		return fmt.Errorf("failed to derive session key: %w", err)
	}

	d := daemon.New(sccclock.New(), logger)
	if s.ProfileDir != "" {
		dir := s.ProfileDir
		d.ProfileLoader = func(nameOrPath string) (profile.Profile, error) {
			return profile.LoadNamed(dir, nameOrPath)
		}
	}

	cleanupDrivers, err := registerDrivers(d, logger, s.IgnoreSerials)
	if err != nil {
		logger.Warn("device drivers unavailable", "err", err)
	} else {
		defer cleanupDrivers()
		if d.Enumerator != nil {
			if err := d.Monitor().Rescan(ctx, d.Enumerator,
				devicemonitor.RescanUSB|devicemonitor.RescanHIDRaw|devicemonitor.RescanInput|devicemonitor.RescanBluetooth); err != nil {
				logger.Warn("initial device scan failed", "err", err)
			}
		}
	}

	disp := clientproto.NewDispatcher()
	d.RegisterCommands(disp)

	srv, err := clientproto.NewServer(socketPath, disp, key, logger, d.PostAndWait)
	if err != nil {
		return fmt.Errorf("failed to start control socket: %w", err)
	}
	srv.OnConnect(d.AddClient)
	srv.OnDisconnect(d.RemoveClient)
	defer srv.Close()

	logger.Info("daemon listening", "socket", socketPath)

	cron, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	if _, err := cron.NewJob(
		gocron.DurationJob(s.KeepaliveTick),
		gocron.NewTask(func() {
			// Registry().List() and the controllers it returns are
			// mainloop-owned state; run the whole sweep there rather than on
			// gocron's own goroutine.
			d.Post(func() {
				for _, c := range d.Registry().List() {
					if k, ok := c.(keepaliver); ok {
						k.Keepalive()
					}
				}
			})
		}),
	); err != nil {
		return fmt.Errorf("failed to schedule keepalive job: %w", err)
	}
	cron.Start()
	defer func() { _ = cron.Shutdown() }()

	srvErrCh := make(chan error, 1)
	go func() { srvErrCh <- srv.Serve(ctx) }()

	mainloopErrCh := make(chan error, 1)
	go func() { mainloopErrCh <- d.Run(ctx) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-srvErrCh:
		return err
	case err := <-mainloopErrCh:
		return err
	}
}
