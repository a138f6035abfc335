package devicemonitor

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatch bridges a directory of hand-edited driver config files
// (generic evdev/DirectInput device definitions) into the mainloop as a
// core.Poller Source: an edit under dir makes Ready fire, without the
// mapper/driver code needing to know fsnotify exists. The daemon does not
// create or register a ConfigWatch, and Dispatch starts no rescan.
type ConfigWatch struct {
	watcher *fsnotify.Watcher
	log     *slog.Logger
	ready   chan struct{}
}

// NewConfigWatch starts watching dir for writes/creates/removes/renames.
func NewConfigWatch(dir string, log *slog.Logger) (*ConfigWatch, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	cw := &ConfigWatch{watcher: w, log: log, ready: make(chan struct{}, 1)}
	go cw.pump()
	return cw, nil
}

func (cw *ConfigWatch) pump() {
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case cw.ready <- struct{}{}:
			default:
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn("config watch error", "err", err)
		}
	}
}

// Ready implements core.Source.
func (cw *ConfigWatch) Ready() <-chan struct{} { return cw.ready }

// Dispatch implements core.Source and does nothing; ConfigWatch has no
// dependency on the monitor.
func (cw *ConfigWatch) Dispatch() {}

func (cw *ConfigWatch) Close() error { return cw.watcher.Close() }
