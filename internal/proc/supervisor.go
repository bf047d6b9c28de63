// Package proc spawns and terminates the external tunnel agent processes.
// It exposes id-based lifecycle control only; agent output is handed to
// the caller as pipes and never buffered here.
package proc

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
)

// Process is the handle returned by Spawn. Stdout/Stderr are live pipes
// owned by the caller; Wait reaps the child after the pipes are drained.
type Process struct {
	Pid    int
	Stdout io.Reader
	Stderr io.Reader

	cmd *exec.Cmd
}

// Wait blocks until the process exits. Callers must finish reading the
// pipes first; a Process built without a command (tests) returns nil.
func (p *Process) Wait() error {
	if p.cmd == nil {
		return nil
	}
	return p.cmd.Wait()
}

// Supervisor tracks spawned agent processes by pid.
type Supervisor struct {
	mu    sync.Mutex
	procs map[int]*os.Process

	// terminate seam; replaced by tests so no real process is signalled.
	killFn func(*os.Process) error
}

func NewSupervisor() *Supervisor {
	return &Supervisor{
		procs:  make(map[int]*os.Process),
		killFn: terminateProcess,
	}
}

// Spawn starts command with args in workDir and returns its handle.
// The child is started without a visible console window; operator-visible
// terminal flicker is treated as a defect.
func (s *Supervisor) Spawn(command string, args []string, workDir string) (*Process, error) {
	cmd := exec.Command(command, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	setSilentSpawn(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &models.SpawnError{Command: command, Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &models.SpawnError{Command: command, Cause: err}
	}

	if err := cmd.Start(); err != nil {
		logger.Errorf("Failed to spawn '%s': %v", command, err)
		return nil, &models.SpawnError{Command: command, Cause: err}
	}

	pid := cmd.Process.Pid
	s.mu.Lock()
	s.procs[pid] = cmd.Process
	s.mu.Unlock()

	logger.Infof("Spawned agent '%s' (PID: %d)", command, pid)
	return &Process{Pid: pid, Stdout: stdout, Stderr: stderr, cmd: cmd}, nil
}

// Terminate ends the process with the given pid. POSIX gets a graceful
// termination signal; Windows has no graceful path and is force-killed.
// A target that already exited is not an error.
func (s *Supervisor) Terminate(pid int) error {
	s.mu.Lock()
	osp := s.procs[pid]
	delete(s.procs, pid)
	s.mu.Unlock()

	if osp == nil {
		found, err := os.FindProcess(pid)
		if err != nil {
			return nil
		}
		osp = found
	}

	if err := s.killFn(osp); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		logger.Errorf("Failed to terminate PID %d: %v", pid, err)
		return err
	}
	logger.Infof("Terminated agent process (PID: %d)", pid)
	return nil
}

// IsRunning reports whether the process with the given pid is still alive.
func (s *Supervisor) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	running, err := isProcessRunning(pid)
	return err == nil && running
}

// Tracked returns the pids currently known to the supervisor.
func (s *Supervisor) Tracked() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]int, 0, len(s.procs))
	for pid := range s.procs {
		pids = append(pids, pid)
	}
	return pids
}
