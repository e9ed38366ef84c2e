//go:build !windows

package update

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// NeedsElevation reports whether the directory holding binaryPath is not writable.
func NeedsElevation(binaryPath string) bool {
	return unix.Access(filepath.Dir(binaryPath), unix.W_OK) != nil
}

// ReExecWithSudo replaces the current process with the same command under sudo.
func ReExecWithSudo() error {
	sudoPath, err := exec.LookPath("sudo")
	if err != nil {
		return fmt.Errorf("sudo not found in PATH; rerun the command with elevated permissions")
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Installing pilot needs elevated permissions. Requesting sudo...")

	argv := append([]string{"sudo", execPath}, os.Args[1:]...)

	if err := syscall.Exec(sudoPath, argv, os.Environ()); err != nil { //nolint:gosec // G204: re-exec of our own binary
		return fmt.Errorf("exec sudo: %w", err)
	}

	return nil
}
