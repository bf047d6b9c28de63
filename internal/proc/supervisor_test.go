package proc

import (
	"errors"
	"os"
	"testing"

	"portkeeper/internal/models"
)

func TestSpawnMissingExecutable(t *testing.T) {
	s := NewSupervisor()
	_, err := s.Spawn("definitely-not-a-real-agent-binary", []string{"local", "25565"}, "")
	if err == nil {
		t.Fatal("expected spawn failure for missing executable")
	}
	var spawnErr *models.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %T: %v", err, err)
	}
	if spawnErr.Command != "definitely-not-a-real-agent-binary" {
		t.Errorf("spawn error must name the command, got %q", spawnErr.Command)
	}
}

func TestTerminateTrackedProcess(t *testing.T) {
	s := NewSupervisor()
	var killed []*os.Process
	s.killFn = func(p *os.Process) error {
		killed = append(killed, p)
		return nil
	}

	fake := &os.Process{Pid: 4242}
	s.procs[4242] = fake

	if err := s.Terminate(4242); err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if len(killed) != 1 || killed[0] != fake {
		t.Fatal("killFn must be invoked with the tracked process")
	}
	if len(s.Tracked()) != 0 {
		t.Error("terminated pid must be forgotten")
	}
}

func TestTerminateAlreadyExitedIsIdempotent(t *testing.T) {
	s := NewSupervisor()
	s.killFn = func(p *os.Process) error {
		return os.ErrProcessDone
	}
	s.procs[99] = &os.Process{Pid: 99}

	if err := s.Terminate(99); err != nil {
		t.Fatalf("terminating an exited process must not error, got %v", err)
	}
	// Second call hits the os.FindProcess fallback; still not an error.
	if err := s.Terminate(99); err != nil {
		t.Fatalf("repeated terminate must stay idempotent, got %v", err)
	}
}

func TestTerminatePropagatesRealFailures(t *testing.T) {
	s := NewSupervisor()
	want := errors.New("no permission")
	s.killFn = func(p *os.Process) error {
		return want
	}
	s.procs[7] = &os.Process{Pid: 7}

	if err := s.Terminate(7); !errors.Is(err, want) {
		t.Fatalf("expected kill failure to surface, got %v", err)
	}
}

func TestIsRunningRejectsBadPid(t *testing.T) {
	s := NewSupervisor()
	if s.IsRunning(0) || s.IsRunning(-5) {
		t.Error("non-positive pids are never running")
	}
}

func TestProcessWaitWithoutCommand(t *testing.T) {
	p := &Process{Pid: 1}
	if err := p.Wait(); err != nil {
		t.Fatalf("wait on fake process must be nil, got %v", err)
	}
}
