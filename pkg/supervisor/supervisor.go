// Package supervisor keeps at most one gatekeeper worker process alive and
// serializes start, stop and status requests against it.
package supervisor

import (
	"sync"

	"github.com/enescakir/emoji"
	"github.com/rs/zerolog"
)

// Status is the reported state of the worker.
type Status int

const (
	StatusStopped Status = iota
	StatusRunning
)

func (s Status) String() string {
	if s == StatusRunning {
		return "running"
	}
	return "stopped"
}

// MarshalText renders the status as "running" or "stopped".
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Supervisor owns the single worker slot. Construct one per host process and
// share it by pointer.
//
// Every operation holds mu for its whole duration, OS calls included.
type Supervisor struct {
	mu       sync.Mutex
	handle   Handle // nil when the slot is empty
	launcher Launcher
	logger   zerolog.Logger
}

// New creates a supervisor with an empty slot.
func New(launcher Launcher, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		logger:   logger.With().Str("component", "supervisor").Logger(),
	}
}

// Start spawns the worker and returns its pid. It fails with
// ErrAlreadyRunning if a worker is tracked, whether or not it is still alive.
func (s *Supervisor) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return 0, ErrAlreadyRunning
	}

	cmd := s.launcher.Command()
	s.logger.Info().Str("command", cmd).Msg("Starting worker process")

	h, err := s.launcher.Launch()
	if err != nil {
		s.logger.Error().Err(err).Str("command", cmd).Msg("Failed to start worker process")
		return 0, markf(err, ErrSpawnFailed, "spawn %q", cmd)
	}

	s.handle = h
	s.logger.Info().Int("pid", h.Pid()).Msgf("%v Worker process started", emoji.Rocket)
	return h.Pid(), nil
}

// Stop kills the worker and waits until it has been reaped.
//
// The handle leaves the slot before the kill is attempted. If the kill fails
// the handle is dropped, so a process that survived is no longer tracked.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle
	s.handle = nil
	if h == nil {
		return ErrNotRunning
	}

	pid := h.Pid()
	s.logger.Info().Int("pid", pid).Msg("Stopping worker process")

	if err := h.Kill(); err != nil {
		s.logger.Error().Err(err).Int("pid", pid).Msg("Failed to kill worker process; it is no longer tracked")
		return markf(err, ErrTerminateFailed, "kill worker (pid %d)", pid)
	}
	if err := h.Wait(); err != nil {
		s.logger.Error().Err(err).Int("pid", pid).Msg("Failed to wait for worker process")
		return markf(err, ErrWaitFailed, "wait for worker (pid %d)", pid)
	}

	s.logger.Info().Int("pid", pid).Msgf("%v Worker process stopped", emoji.StopSign)
	return nil
}

// Status polls the worker without blocking. A worker found to have exited is
// removed from the slot. A failed poll leaves the slot as it was.
func (s *Supervisor) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return StatusStopped, nil
	}

	exited, err := s.handle.Exited()
	if err != nil {
		return StatusStopped, markf(err, ErrCheckFailed, "poll worker (pid %d)", s.handle.Pid())
	}
	if exited {
		s.logger.Warn().Int("pid", s.handle.Pid()).Msg("Worker process exited on its own")
		s.handle = nil
		return StatusStopped, nil
	}
	return StatusRunning, nil
}

// pid returns the tracked worker's pid.
func (s *Supervisor) pid() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return 0, false
	}
	return s.handle.Pid(), true
}
