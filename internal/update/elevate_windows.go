//go:build windows

package update

import "fmt"

// NeedsElevation is always false on Windows; there is no automatic elevation.
func NeedsElevation(string) bool {
	return false
}

// ReExecWithSudo is not supported on Windows.
func ReExecWithSudo() error {
	return fmt.Errorf("automatic elevation is not supported on Windows; run the command as Administrator")
}
