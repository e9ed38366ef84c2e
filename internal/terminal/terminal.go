// Package terminal reports what the attached terminal can do: whether stdout
// is a TTY, whether colour is wanted, and how large the screen is.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Fallback dimensions when the size cannot be read.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Info holds terminal capability information.
type Info struct {
	IsTTY     bool
	NoColor   bool
	Width     int
	Height    int
	ForceFlag bool // Set when --no-color flag is used
}

// Detect returns terminal information for stdout and the process environment.
func Detect() *Info {
	return detect(int(os.Stdout.Fd()), os.LookupEnv)
}

func detect(fd int, lookupEnv func(string) (string, bool)) *Info {
	info := &Info{
		IsTTY:  term.IsTerminal(fd),
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}

	if info.IsTTY {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			info.Width, info.Height = w, h
		}
	}

	// https://no-color.org/
	_, info.NoColor = lookupEnv("NO_COLOR")

	if termName, _ := lookupEnv("TERM"); termName == "dumb" {
		info.NoColor = true
	}

	return info
}

// ColorEnabled returns true if colored output should be used.
func (t *Info) ColorEnabled() bool {
	if t.ForceFlag {
		return false
	}

	return t.IsTTY && !t.NoColor
}

// InteractiveEnabled returns true if prompts and the dashboard are allowed.
func (t *Info) InteractiveEnabled() bool {
	return t.IsTTY
}

// SpinnersEnabled returns true if spinners should be used.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor
}
