//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

const stillActive = 259

func isAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// Access denied still means the process exists
		return err == windows.ERROR_ACCESS_DENIED
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}

func waitForExit(pid int, timeout time.Duration) error {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		if err == windows.ERROR_ACCESS_DENIED {
			return pollExit(pid, timeout)
		}
		// Lookup failure means the process is already gone
		return nil
	}
	defer windows.CloseHandle(h)

	ev, err := windows.WaitForSingleObject(h, uint32(timeout.Milliseconds()))
	switch {
	case ev == windows.WAIT_OBJECT_0:
		return nil
	case err != nil:
		return fmt.Errorf("pid %d: %w", pid, err)
	default:
		return fmt.Errorf("pid %d: %w", pid, ErrWaitTimeout)
	}
}

// setDetached starts the child without a console in a new process group
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
