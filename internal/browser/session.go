// Package browser owns the shared headless Chrome process and the per-request
// page fetch on top of it. The process is process-wide singleton state: it is
// launched lazily behind a single-flight guard, observed for disconnects, and
// relaunched on the next acquire after a crash. Everything else (tabs) is
// request-local.
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"teashelf/internal/models"
)

// State is the lifecycle state of the shared browser process.
type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// SessionConfig carries the launch options for the shared process.
type SessionConfig struct {
	Headless     bool
	NoSandbox    bool
	ChromeBin    string
	WindowWidth  int
	WindowHeight int
}

// launchFunc starts a browser process and returns its handle context, a stop
// function, and a channel that closes when the process disconnects. Replaced
// in tests.
type launchFunc func() (context.Context, context.CancelFunc, <-chan struct{}, error)

// Session is the owner of the shared browser process. Safe for concurrent
// use; at most one underlying process exists at a time.
type Session struct {
	cfg SessionConfig
	log *logrus.Entry

	launch launchFunc
	flight singleflight.Group

	mu     sync.Mutex
	state  State
	handle context.Context
	stop   context.CancelFunc
	gen    uint64 // launch generation, so stale disconnect signals are ignored
}

// NewSession creates a session in the Uninitialized state. No process is
// launched until the first Acquire (or Warm).
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		cfg: cfg,
		log: logrus.WithField("component", "browser"),
	}
	s.launch = s.launchChrome
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire returns the shared browser handle, launching the process first if
// needed. Concurrent callers during a launch all observe the same in-flight
// attempt. A launch failure is returned as *models.BrowserLaunchError and is
// fatal only for the calling request; the next Acquire retries.
func (s *Session) Acquire(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	if s.state == StateReady {
		h := s.handle
		s.mu.Unlock()
		return h, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("launch", func() (interface{}, error) {
		// A previous flight may have completed between the fast path and
		// joining this one.
		s.mu.Lock()
		if s.state == StateReady {
			h := s.handle
			s.mu.Unlock()
			return h, nil
		}
		s.state = StateStarting
		s.mu.Unlock()

		s.log.Info("launching shared browser process")
		handle, stop, done, launchErr := s.launch()
		if launchErr != nil {
			s.mu.Lock()
			s.state = StateUninitialized
			s.mu.Unlock()
			s.log.WithError(launchErr).Error("browser launch failed")
			return nil, &models.BrowserLaunchError{Err: launchErr}
		}

		s.mu.Lock()
		s.handle = handle
		s.stop = stop
		s.state = StateReady
		s.gen++
		gen := s.gen
		s.mu.Unlock()

		go s.watchDisconnect(done, gen)

		s.log.Info("shared browser process ready")
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return v.(context.Context), nil
}

// Warm launches the shared process ahead of the first import as a best
// effort. Failures are logged, never fatal.
func (s *Session) Warm(ctx context.Context) {
	if _, err := s.Acquire(ctx); err != nil {
		s.log.WithError(err).Warn("browser pre-warm failed, first import will retry")
	}
}

// Close tears the shared process down. Used on shutdown only; the state
// machine treats a closed session like a fresh one.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stop
	s.handle = nil
	s.stop = nil
	s.state = StateUninitialized
	s.gen++ // orphan any pending disconnect watcher
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// watchDisconnect moves the session to Disconnected when the process exits
// unexpectedly, discarding the handle so the next Acquire relaunches.
func (s *Session) watchDisconnect(done <-chan struct{}, gen uint64) {
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// A newer launch (or Close) superseded this process.
		return
	}
	s.handle = nil
	s.stop = nil
	s.state = StateDisconnected
	s.log.Warn("shared browser process disconnected, next import relaunches")
}

// launchChrome starts a real Chrome process. The returned context is the
// chromedp browser context used as the process handle; chromedp cancels it
// when the process exits or the connection drops, which is our disconnect
// signal.
func (s *Session) launchChrome() (context.Context, context.CancelFunc, <-chan struct{}, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(s.cfg.WindowWidth, s.cfg.WindowHeight),
	)
	if s.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if s.cfg.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromeBin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the process to start now, so launch
	// failures surface here instead of on the first fetch.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, nil, nil, err
	}

	stop := func() {
		browserCancel()
		allocCancel()
	}
	return browserCtx, stop, browserCtx.Done(), nil
}
