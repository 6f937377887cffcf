//go:build !windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/cockroachdb/errors"
)

// setupProcessGroup runs the worker in its own process group so that bun and
// anything it forks can be killed together.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// stopProcess sends SIGKILL to the worker's process group. Setpgid made the
// worker its group leader, so the group id is its pid even after the leader
// has been reaped; children left behind in the group are killed too.
func stopProcess(cmd *exec.Cmd, _ bool) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return ignoreGone(syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL))
}

func ignoreGone(err error) error {
	if err == nil || errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
