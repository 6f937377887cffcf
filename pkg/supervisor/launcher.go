package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// The worker is always the gatekeeper entry script run by bun.
const WorkerCommand = "bun"

// WorkerArgs is the fixed argument list passed to WorkerCommand.
var WorkerArgs = []string{"run", "gatekeeper/src/index.ts"}

// Handle is a spawned OS process.
type Handle interface {
	Pid() int
	// Kill forcefully terminates the process. A process that is already gone
	// is not an error.
	Kill() error
	// Wait blocks until the process has exited and been reaped.
	Wait() error
	// Exited reports, without blocking, whether the process has exited.
	Exited() (bool, error)
}

// Launcher spawns the worker process.
type Launcher interface {
	Launch() (Handle, error)
	Command() string
}

// CommandLauncher launches a fixed command in a fixed directory.
type CommandLauncher struct {
	Name string
	Args []string
	Dir  string
}

// NewWorkerLauncher returns the launcher for the gatekeeper worker, run from
// the given install root.
func NewWorkerLauncher(root string) *CommandLauncher {
	return &CommandLauncher{
		Name: WorkerCommand,
		Args: append([]string(nil), WorkerArgs...),
		Dir:  root,
	}
}

// InstallRoot returns the directory holding the running executable.
func InstallRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func (l *CommandLauncher) Command() string {
	return strings.TrimSpace(l.Name + " " + strings.Join(l.Args, " "))
}

// Launch starts the command. Its standard streams are not captured.
func (l *CommandLauncher) Launch() (Handle, error) {
	cmd := exec.Command(l.Name, l.Args...)
	cmd.Dir = l.Dir
	setupProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &execHandle{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go h.reap()
	return h, nil
}

// execHandle owns an *exec.Cmd. A reaper goroutine waits on the process and
// closes done once it has been reaped; waitErr is only read after done closes.
type execHandle struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

func (h *execHandle) reap() {
	err := h.cmd.Wait()

	// Exiting with a non-zero status or on a signal is still an exit.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil
	}
	h.waitErr = err
	close(h.done)
}

func (h *execHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *execHandle) Kill() error {
	exited := false
	select {
	case <-h.done:
		exited = true
	default:
	}
	return stopProcess(h.cmd, exited)
}

func (h *execHandle) Wait() error {
	<-h.done
	return h.waitErr
}

func (h *execHandle) Exited() (bool, error) {
	if h.cmd.Process == nil {
		return false, errors.New("process handle is not started")
	}
	select {
	case <-h.done:
		return true, nil
	default:
		return false, nil
	}
}
