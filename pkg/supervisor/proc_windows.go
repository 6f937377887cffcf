//go:build windows

package supervisor

import (
	"os"
	"os/exec"

	"github.com/cockroachdb/errors"
)

// setupProcessGroup is a no-op on Windows
func setupProcessGroup(cmd *exec.Cmd) {}

// stopProcess kills the worker on Windows. There is no process group to
// clean up, so a reaped worker needs nothing.
func stopProcess(cmd *exec.Cmd, exited bool) error {
	if exited || cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
