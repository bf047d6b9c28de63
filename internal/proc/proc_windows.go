//go:build windows

package proc

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"unsafe"
)

const (
	createNoWindow          = 0x08000000
	processQueryInformation = 0x0400
	stillActive             = 259
)

var (
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess        = kernel32.NewProc("OpenProcess")
	procCloseHandle        = kernel32.NewProc("CloseHandle")
	procGetExitCodeProcess = kernel32.NewProc("GetExitCodeProcess")
)

// setSilentSpawn hides the console window the agent would otherwise
// flash, and detaches it into a new process group.
func setSilentSpawn(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | createNoWindow,
	}
}

// terminateProcess force-kills the target. Windows offers no graceful
// termination path for console-less children, so Kill (TerminateProcess)
// is the contract here.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

// isProcessRunning checks the exit code via GetExitCodeProcess; a value
// of STILL_ACTIVE means the process is alive.
func isProcessRunning(pid int) (bool, error) {
	handle, _, err := procOpenProcess.Call(
		uintptr(processQueryInformation),
		uintptr(0),
		uintptr(pid),
	)
	if handle == 0 {
		return false, fmt.Errorf("failed to open process with PID %d: %v", pid, err)
	}
	defer procCloseHandle.Call(handle)

	var exitCode uint32
	ret, _, err := procGetExitCodeProcess.Call(
		handle,
		uintptr(unsafe.Pointer(&exitCode)),
	)
	if ret == 0 {
		return false, fmt.Errorf("failed to get exit code for PID %d: %v", pid, err)
	}
	return exitCode == stillActive, nil
}
