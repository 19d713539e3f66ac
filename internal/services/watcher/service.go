// Package watcher keeps the stats file under observation and triggers a
// refresh on relevant file changes or after a quiet interval.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/claude-token-tray/internal/logger"
)

// RefreshInterval is how long the loop waits without any watch activity
// before refreshing unconditionally.
const RefreshInterval = 60 * time.Second

// Trigger identifies what caused a refresh.
type Trigger int

const (
	TriggerInitial Trigger = iota
	TriggerFileChange
	TriggerTimeout
	TriggerManual
)

// String returns the name stored alongside refresh records.
func (t Trigger) String() string {
	switch t {
	case TriggerInitial:
		return "initial"
	case TriggerFileChange:
		return "file-change"
	case TriggerTimeout:
		return "timeout"
	case TriggerManual:
		return "manual"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// RefreshFunc runs one refresh cycle. It is called from the watch goroutine
// only, so calls never overlap.
type RefreshFunc func(Trigger)

// Config controls a watcher Service.
type Config struct {
	// Path is the stats file. Its parent directory is what gets watched.
	Path string
	// Interval is the quiet period before a timeout refresh.
	Interval time.Duration
	// PollWithoutWatcher keeps the timeout loop running when the directory
	// watch cannot be set up.
	PollWithoutWatcher bool
	// InitialRefresh runs one refresh before waiting for events.
	InitialRefresh bool
}

// DefaultConfig returns the configuration used by the agent for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:               path,
		Interval:           RefreshInterval,
		PollWithoutWatcher: true,
		InitialRefresh:     true,
	}
}

// WatchSetupError is returned when the filesystem watcher cannot be created
// or cannot subscribe to the stats directory.
type WatchSetupError struct {
	Dir string
	Err error
}

func (e *WatchSetupError) Error() string {
	return fmt.Sprintf("could not watch %s: %v", e.Dir, e.Err)
}

func (e *WatchSetupError) Unwrap() error {
	return e.Err
}

// Service owns the watch goroutine.
type Service struct {
	cfg     Config
	refresh RefreshFunc

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watching bool
	started  bool
	closed   bool

	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Service. Nothing is watched until Start is called.
func New(cfg Config, refresh RefreshFunc) (*Service, error) {
	if cfg.Path == "" {
		return nil, errors.New("stats path is required")
	}
	if refresh == nil {
		return nil, errors.New("refresh function is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = RefreshInterval
	}

	return &Service{
		cfg:      cfg,
		refresh:  refresh,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start subscribes to the stats directory and launches the refresh loop.
//
// A *WatchSetupError is returned when the subscription fails. In that case
// the loop still runs on the timeout branch alone if PollWithoutWatcher is
// set; otherwise no loop is started and Done is closed.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("watcher is closed")
	}
	if s.started {
		return errors.New("watcher already started")
	}

	if err := s.startWatcher(); err != nil {
		if s.cfg.PollWithoutWatcher {
			s.spawnLocked(nil, nil)
		} else {
			s.started = true
			close(s.done)
		}
		return err
	}

	s.spawnLocked(s.watcher.Events, s.watcher.Errors)
	return nil
}

func (s *Service) startWatcher() error {
	dir := filepath.Dir(s.cfg.Path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &WatchSetupError{Dir: dir, Err: err}
	}

	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return &WatchSetupError{Dir: dir, Err: err}
	}

	s.watcher = watcher
	s.watching = true
	return nil
}

func (s *Service) spawnLocked(events <-chan fsnotify.Event, errs <-chan error) {
	s.started = true
	go s.run(events, errs)
}

// run is the refresh loop. Its only suspension point is the select below.
// The timer restarts after anything is received, so a timeout refresh only
// happens after a full quiet interval.
func (s *Service) run(events <-chan fsnotify.Event, errs <-chan error) {
	defer close(s.done)

	if s.cfg.InitialRefresh {
		s.refresh(TriggerInitial)
	}

	name := filepath.Base(s.cfg.Path)
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				logger.Debug("stats watcher channel closed")
				return
			}
			if Matches(event, name) {
				s.refresh(TriggerFileChange)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("stats watcher error", "error", err)

		case <-timer.C:
			s.refresh(TriggerTimeout)

		case <-s.stopChan:
			return
		}

		timer.Reset(s.cfg.Interval)
	}
}

// Matches reports whether event is a write to, or creation of, the file
// called name. Removals, renames and attribute changes never match.
func Matches(event fsnotify.Event, name string) bool {
	if filepath.Base(event.Name) != name {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// Watching reports whether a directory subscription is active.
func (s *Service) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

// Done is closed once the refresh loop has exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Close stops the loop and releases the watcher. It waits for an in-flight
// refresh to finish.
func (s *Service) Close() error {
	var err error

	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		started := s.started
		watcher := s.watcher
		s.watching = false
		s.mu.Unlock()

		close(s.stopChan)

		if watcher != nil {
			err = watcher.Close()
		}

		if started {
			<-s.done
		} else {
			close(s.done)
		}
	})

	return err
}
