// Package prompt asks the user for missing job settings on an interactive terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/leadpilot/pilot/internal/output"
)

// errCanceled is returned when input ends before an answer is given.
var errCanceled = errors.New("prompt canceled")

// IsCanceled reports whether err came from input ending mid-prompt (Ctrl+D).
func IsCanceled(err error) bool {
	return errors.Is(err, errCanceled)
}

// Prompter handles interactive prompts.
type Prompter struct {
	out    *output.Writer
	reader *bufio.Reader
	isTTY  func() bool
}

// New creates a Prompter reading from stdin.
func New(out *output.Writer) *Prompter {
	return NewWithReader(out, os.Stdin, func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	})
}

// NewWithReader creates a Prompter over an arbitrary reader.
func NewWithReader(out *output.Writer, in io.Reader, isTTY func() bool) *Prompter {
	return &Prompter{
		out:    out,
		reader: bufio.NewReader(in),
		isTTY:  isTTY,
	}
}

// CanPrompt returns true if interactive prompts are available.
func (p *Prompter) CanPrompt() bool {
	return p.isTTY() && !p.out.NoInput && !p.out.JSON
}

// Confirm prompts for a yes/no confirmation.
func (p *Prompter) Confirm(message string, defaultValue bool) (bool, error) {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}

	p.out.Print("%s [%s]: ", message, hint)

	input, err := p.readLine()
	if err != nil {
		return defaultValue, err
	}

	switch strings.ToLower(input) {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Text prompts for a line of text. An empty answer returns defaultValue; when
// defaultValue is empty too the question is asked again.
func (p *Prompter) Text(label, defaultValue string) (string, error) {
	for {
		if defaultValue != "" {
			p.out.Print("%s [%s]: ", label, defaultValue)
		} else {
			p.out.Print("%s: ", label)
		}

		input, err := p.readLine()
		if err != nil {
			return "", err
		}

		if input != "" {
			return input, nil
		}

		if defaultValue != "" {
			return defaultValue, nil
		}

		p.out.Warning("A value is required")
	}
}

// PositiveInt prompts for a whole number greater than zero.
func (p *Prompter) PositiveInt(label string, defaultValue int) (int, error) {
	for {
		p.out.Print("%s [%d]: ", label, defaultValue)

		input, err := p.readLine()
		if err != nil {
			return 0, err
		}

		if input == "" {
			return defaultValue, nil
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 {
			p.out.Warning("Please enter a whole number greater than zero")
			continue
		}

		return n, nil
	}
}

func (p *Prompter) readLine() (string, error) {
	input, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) == "" {
			p.out.Println()
			return "", errCanceled
		}

		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
	}

	return strings.TrimSpace(input), nil
}
