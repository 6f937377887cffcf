package supervisor

import (
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	pid     int
	killErr error
	waitErr error
	pollErr error
	exited  atomic.Bool

	kills atomic.Int32
	waits atomic.Int32
	polls atomic.Int32
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.kills.Add(1)
	if h.killErr != nil {
		return h.killErr
	}
	h.exited.Store(true)
	return nil
}

func (h *fakeHandle) Wait() error {
	h.waits.Add(1)
	return h.waitErr
}

func (h *fakeHandle) Exited() (bool, error) {
	h.polls.Add(1)
	if h.pollErr != nil {
		return false, h.pollErr
	}
	return h.exited.Load(), nil
}

type fakeLauncher struct {
	mu        sync.Mutex
	launchErr error
	next      func(pid int) *fakeHandle
	handles   []*fakeHandle
	launches  atomic.Int32
}

func (l *fakeLauncher) Command() string { return "fake worker" }

func (l *fakeLauncher) Launch() (Handle, error) {
	n := l.launches.Add(1)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	pid := 1000 + int(n)
	h := &fakeHandle{pid: pid}
	if l.next != nil {
		h = l.next(pid)
	}
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) last() *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[len(l.handles)-1]
}

func newTestSupervisor(l *fakeLauncher) *Supervisor {
	return New(l, zerolog.Nop())
}

func TestStart_ReturnsPid(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	pid, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, 1001, pid)

	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, status)
}

func TestStart_TwiceIsAlreadyRunning(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, int32(1), l.launches.Load(), "second start must not spawn")
}

func TestStart_DoesNotCheckLivenessOfTrackedWorker(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)
	l.last().exited.Store(true)

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, int32(0), l.last().polls.Load())

	// Status heals the slot, after which start works again.
	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)

	_, err = s.Start()
	assert.NoError(t, err)
}

func TestStart_SpawnFailedLeavesSlotEmpty(t *testing.T) {
	l := &fakeLauncher{launchErr: errors.New("exec: \"bun\": executable file not found in $PATH")}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawnFailed)
	assert.Contains(t, err.Error(), "executable file not found")

	err = s.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)

	l.mu.Lock()
	l.launchErr = nil
	l.mu.Unlock()

	_, err = s.Start()
	assert.NoError(t, err, "start must be retryable after a spawn failure")
}

func TestStop_EmptySlotIsNotRunning(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	err := s.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, int32(0), l.launches.Load())
}

func TestStop_KillsWaitsAndEmptiesSlot(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)
	h := l.last()

	require.NoError(t, s.Stop())
	assert.Equal(t, int32(1), h.kills.Load())
	assert.Equal(t, int32(1), h.waits.Load())

	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestStop_TerminateFailedDropsHandle(t *testing.T) {
	l := &fakeLauncher{next: func(pid int) *fakeHandle {
		return &fakeHandle{pid: pid, killErr: errors.New("operation not permitted")}
	}}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)
	h := l.last()

	err = s.Stop()
	assert.ErrorIs(t, err, ErrTerminateFailed)
	assert.Contains(t, err.Error(), "operation not permitted")
	assert.Equal(t, int32(0), h.waits.Load(), "no wait after a failed kill")

	// The handle is gone even though the kill failed.
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
	assert.Equal(t, int32(1), h.kills.Load())

	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
}

func TestStop_WaitFailed(t *testing.T) {
	l := &fakeLauncher{next: func(pid int) *fakeHandle {
		return &fakeHandle{pid: pid, waitErr: errors.New("no child processes")}
	}}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)

	err = s.Stop()
	assert.ErrorIs(t, err, ErrWaitFailed)
	assert.NotErrorIs(t, err, ErrTerminateFailed)
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestStatus_ExitedWorkerClearsSlot(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)
	h := l.last()
	h.exited.Store(true)

	status, err := s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
	assert.Equal(t, int32(1), h.polls.Load())

	status, err = s.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, status)
	assert.Equal(t, int32(1), h.polls.Load(), "empty slot must not poll the OS")

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
	assert.Equal(t, int32(0), h.kills.Load())
}

func TestStatus_CheckFailedKeepsSlot(t *testing.T) {
	l := &fakeLauncher{next: func(pid int) *fakeHandle {
		return &fakeHandle{pid: pid, pollErr: errors.New("permission denied")}
	}}
	s := newTestSupervisor(l)

	_, err := s.Start()
	require.NoError(t, err)

	_, err = s.Status()
	assert.ErrorIs(t, err, ErrCheckFailed)

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning, "slot must stay occupied after a failed poll")

	require.NoError(t, s.Stop())
}

func TestStart_ConcurrentCallersSpawnOnce(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	const callers = 64
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		already   atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.Start()
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrAlreadyRunning):
				already.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(callers-1), already.Load())
	assert.Equal(t, int32(1), l.launches.Load())
}

func TestMixedConcurrentCalls_NeverDoubleKill(t *testing.T) {
	l := &fakeLauncher{}
	s := newTestSupervisor(l)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = s.Start()
			case 1:
				_ = s.Stop()
			default:
				_, _ = s.Status()
			}
		}(i)
	}
	wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range l.handles {
		assert.LessOrEqual(t, h.kills.Load(), int32(1), "pid %d killed more than once", h.pid)
	}
}

func TestErrorKind(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "already running", err: ErrAlreadyRunning, want: "already_running"},
		{name: "not running", err: ErrNotRunning, want: "not_running"},
		{name: "spawn", err: markf(cause, ErrSpawnFailed, "spawn %q", "bun"), want: "spawn_failed"},
		{name: "terminate", err: markf(cause, ErrTerminateFailed, "kill"), want: "terminate_failed"},
		{name: "wait", err: markf(cause, ErrWaitFailed, "wait"), want: "wait_failed"},
		{name: "check", err: markf(cause, ErrCheckFailed, "poll"), want: "check_failed"},
		{name: "wrapped sentinel", err: errors.Wrap(ErrNotRunning, "api"), want: "not_running"},
		{name: "other", err: cause, want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestMarkedErrors_MatchWithStandardErrorsIs(t *testing.T) {
	cause := errors.New("exec: \"bun\": executable file not found in $PATH")
	kinds := []error{ErrSpawnFailed, ErrTerminateFailed, ErrWaitFailed, ErrCheckFailed}

	for _, kind := range kinds {
		t.Run(kind.Error(), func(t *testing.T) {
			err := markf(cause, kind, "spawn %q", "bun")

			assert.True(t, stderrors.Is(err, kind))
			assert.True(t, stderrors.Is(err, cause), "the OS reason stays in the chain")
			assert.True(t, errors.Is(err, kind))
			assert.Equal(t, `spawn "bun": exec: "bun": executable file not found in $PATH`, err.Error())

			for _, other := range kinds {
				if other != kind {
					assert.False(t, stderrors.Is(err, other), "must not match %v", other)
				}
			}
		})
	}
}

func TestStart_SpawnFailedMatchesWithStandardErrorsIs(t *testing.T) {
	s := newTestSupervisor(&fakeLauncher{launchErr: errors.New("no such file or directory")})

	_, err := s.Start()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrSpawnFailed))
	assert.False(t, stderrors.Is(err, ErrAlreadyRunning))
	assert.Equal(t, "spawn_failed", ErrorKind(err))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "stopped", StatusStopped.String())

	text, err := StatusRunning.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "running", string(text))
}
