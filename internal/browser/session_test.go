package browser

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teashelf/internal/models"
)

type ctxKey string

// fakeLauncher stands in for the Chrome launch so the state machine can be
// exercised without a browser binary.
type fakeLauncher struct {
	mu      sync.Mutex
	calls   int32
	failing bool
	delay   time.Duration

	// disconnect channel of the most recent launch
	done chan struct{}
}

func (f *fakeLauncher) launch() (context.Context, context.CancelFunc, <-chan struct{}, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return nil, nil, nil, errors.New("chrome executable not found")
	}

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey("launch"), n))
	done := make(chan struct{})

	f.mu.Lock()
	f.done = done
	f.mu.Unlock()

	return ctx, cancel, done, nil
}

func (f *fakeLauncher) setFailing(v bool) {
	f.mu.Lock()
	f.failing = v
	f.mu.Unlock()
}

func (f *fakeLauncher) disconnect() {
	f.mu.Lock()
	close(f.done)
	f.mu.Unlock()
}

func newFakeSession(fl *fakeLauncher) *Session {
	s := NewSession(SessionConfig{})
	s.launch = fl.launch
	return s
}

func TestAcquireLaunchesLazily(t *testing.T) {
	fl := &fakeLauncher{}
	s := newFakeSession(fl)

	assert.Equal(t, StateUninitialized, s.State())

	h1, err := s.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())

	h2, err := s.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "ready session must hand out the existing handle")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fl.calls))
}

func TestAcquireLaunchFailureIsPerRequest(t *testing.T) {
	fl := &fakeLauncher{failing: true}
	s := newFakeSession(fl)

	_, err := s.Acquire(context.Background())
	require.Error(t, err)
	var launchErr *models.BrowserLaunchError
	assert.ErrorAs(t, err, &launchErr)
	assert.Equal(t, StateUninitialized, s.State())

	// A second failure must not wedge the session either.
	_, err = s.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUninitialized, s.State())

	// Once the process becomes launchable the next acquire succeeds.
	fl.setFailing(false)
	_, err = s.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, int32(3), atomic.LoadInt32(&fl.calls))
}

func TestConcurrentAcquiresShareOneLaunch(t *testing.T) {
	fl := &fakeLauncher{delay: 50 * time.Millisecond}
	s := newFakeSession(fl)

	const callers = 10
	handles := make([]context.Context, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := s.Acquire(context.Background())
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fl.calls), "concurrent first callers must share a single launch")
	for i := 1; i < callers; i++ {
		assert.Equal(t, handles[0], handles[i])
	}
}

func TestDisconnectTriggersRelaunchOnNextAcquire(t *testing.T) {
	fl := &fakeLauncher{}
	s := newFakeSession(fl)

	_, err := s.Acquire(context.Background())
	require.NoError(t, err)

	fl.disconnect()
	require.Eventually(t, func() bool {
		return s.State() == StateDisconnected
	}, time.Second, 5*time.Millisecond)

	h, err := s.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, int32(2), atomic.LoadInt32(&fl.calls))
}

func TestWarmFailureIsNonFatal(t *testing.T) {
	fl := &fakeLauncher{failing: true}
	s := newFakeSession(fl)

	s.Warm(context.Background())
	assert.Equal(t, StateUninitialized, s.State())
}

func TestCloseResetsSession(t *testing.T) {
	fl := &fakeLauncher{}
	s := newFakeSession(fl)

	h, err := s.Acquire(context.Background())
	require.NoError(t, err)

	s.Close()
	assert.Equal(t, StateUninitialized, s.State())
	assert.Error(t, h.Err(), "closing must cancel the process handle")

	// Closing must not block a later relaunch.
	_, err = s.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
}

func TestAcquireHonorsCallerCancellation(t *testing.T) {
	fl := &fakeLauncher{}
	s := newFakeSession(fl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
