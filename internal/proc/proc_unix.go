//go:build unix || linux || darwin

package proc

import (
	"os"
	"os/exec"
	"syscall"
	"time"
)

// setSilentSpawn places the child in its own process group so its
// lifetime is controlled by the supervisor, not the terminal.
func setSilentSpawn(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM and escalates to SIGKILL if the process
// is still alive after a short grace period.
func terminateProcess(p *os.Process) error {
	if err := p.Signal(syscall.SIGTERM); err != nil {
		if err == os.ErrProcessDone {
			return err
		}
		// SIGTERM could not be delivered; fall through to SIGKILL.
	} else {
		for i := 0; i < 10; i++ {
			if err := p.Signal(syscall.Signal(0)); err != nil {
				return nil
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	return p.Signal(syscall.SIGKILL)
}

// isProcessRunning checks liveness with the null signal.
func isProcessRunning(pid int) (bool, error) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}
	if err := p.Signal(syscall.Signal(0)); err != nil {
		return false, nil
	}
	return true, nil
}
