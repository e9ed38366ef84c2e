// Package output provides CLI output handling with support for multiple modes.
//
// This package abstracts stdout/stderr writing to enable:
//   - Testable CLI commands via io.Writer injection
//   - JSON output mode for scripting
//   - Quiet mode for CI environments
//   - Coloured status messages and job log lines with TTY detection
//   - Spinner animations while backend requests are outstanding
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/leadpilot/pilot/internal/terminal"
)

// contextKey is the key for storing Writer in context.
type contextKey struct{}

// Status symbols
const (
	CheckMark   = "✓" // ✓
	XMark       = "✗" // ✗
	WarningMark = "⚠" // ⚠
	InfoMark    = "ℹ" // ℹ
)

// Tone selects the colour of a plain output line.
type Tone int

// Line tones.
const (
	ToneNormal Tone = iota
	ToneSuccess
	ToneError
	ToneHeading
	ToneHighlight
	ToneMuted
)

// Writer handles CLI output with multiple modes.
type Writer struct {
	Out      io.Writer
	Err      io.Writer
	JSON     bool
	Quiet    bool
	NoInput  bool
	terminal *terminal.Info

	tones map[Tone]*color.Color
}

// Default returns a Writer configured for stdout/stderr.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter creates a Writer with custom writers and terminal info.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:      out,
		Err:      err,
		terminal: term,
		tones: map[Tone]*color.Color{
			ToneSuccess:   color.New(color.FgGreen),
			ToneError:     color.New(color.FgRed),
			ToneHeading:   color.New(color.FgCyan, color.Bold),
			ToneHighlight: color.New(color.FgMagenta),
			ToneMuted:     color.New(color.FgHiBlack),
		},
	}

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// WithContext stores the Writer in the context.
func (w *Writer) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext retrieves the Writer from context, or returns Default().
func FromContext(ctx context.Context) *Writer {
	if w, ok := ctx.Value(contextKey{}).(*Writer); ok {
		return w
	}

	return Default()
}

// Terminal returns the terminal info.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// SetNoColor disables colored output.
func (w *Writer) SetNoColor(disabled bool) {
	w.terminal.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

// Print writes to stdout (respects quiet mode).
func (w *Writer) Print(format string, args ...any) {
	if !w.Quiet {
		fmt.Fprintf(w.Out, format, args...)
	}
}

// Println writes a line to stdout (respects quiet mode).
func (w *Writer) Println(args ...any) {
	if !w.Quiet {
		fmt.Fprintln(w.Out, args...)
	}
}

// PrintJSON outputs structured data as JSON.
func (w *Writer) PrintJSON(v any) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...any) {
	fmt.Fprintf(w.Err, format, args...)
}

// Write implements io.Writer, writing to Out.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Quiet {
		return len(p), nil
	}

	return w.Out.Write(p)
}

// Line writes one line to stdout in the given tone.
func (w *Writer) Line(tone Tone, text string) {
	if w.Quiet {
		return
	}

	c, ok := w.tones[tone]
	if !ok || !w.terminal.ColorEnabled() {
		fmt.Fprintln(w.Out, text)
		return
	}

	c.Fprintln(w.Out, text)
}

// Field writes an indented "label: value" pair with the label padded to width.
func (w *Writer) Field(label string, width int, value string) {
	if w.Quiet {
		return
	}

	padded := fmt.Sprintf("  %-*s", width+1, label+":")
	if w.terminal.ColorEnabled() {
		w.tones[ToneMuted].Fprint(w.Out, padded)
		fmt.Fprintln(w.Out, " "+value)

		return
	}

	fmt.Fprintln(w.Out, padded+" "+value)
}

func (w *Writer) writeStatus(writer io.Writer, tone Tone, prefix, message string) {
	if w.terminal.ColorEnabled() {
		w.tones[tone].Fprint(writer, prefix+" ")
		fmt.Fprintln(writer, message)

		return
	}

	fmt.Fprintln(writer, prefix+" "+message)
}

// Success writes a success message with a checkmark.
func (w *Writer) Success(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, ToneSuccess, CheckMark, fmt.Sprintf(format, args...))
}

// Failure writes an error message with an X mark to stderr.
func (w *Writer) Failure(format string, args ...any) {
	w.writeStatus(w.Err, ToneError, XMark, fmt.Sprintf(format, args...))
}

// Warning writes a warning message.
func (w *Writer) Warning(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, ToneHighlight, WarningMark, fmt.Sprintf(format, args...))
}

// Info writes an info message.
func (w *Writer) Info(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, ToneHeading, InfoMark, fmt.Sprintf(format, args...))
}

// Muted writes muted/gray text.
func (w *Writer) Muted(format string, args ...any) {
	w.Line(ToneMuted, fmt.Sprintf(format, args...))
}

// Spinner creates a new spinner for long operations. Outside a TTY, or in
// quiet mode, it degrades to a plain "message... done" line. JSON mode prints
// nothing so stdout stays parseable.
func (w *Writer) Spinner(message string) *Spinner {
	if w.JSON {
		return &Spinner{disabled: true, silent: true, message: message, writer: w}
	}

	if w.Quiet || !w.terminal.SpinnersEnabled() {
		return &Spinner{disabled: true, message: message, writer: w}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = w.Out
	s.Suffix = " " + message

	return &Spinner{
		spinner: s,
		message: message,
		writer:  w,
	}
}

// Spinner wraps briandowns/spinner with graceful fallback.
type Spinner struct {
	spinner  *spinner.Spinner
	message  string
	writer   *Writer
	disabled bool
	silent   bool
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if s.silent {
		return
	}

	if s.disabled {
		s.writer.Print("%s... ", s.message)
		return
	}

	s.spinner.Start()
}

// Stop stops the spinner animation.
func (s *Spinner) Stop() {
	if !s.disabled {
		s.spinner.Stop()
	}
}

// StopWithSuccess stops spinner and shows success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.finish("done", message, s.writer.Success)
}

// StopWithFailure stops spinner and shows failure message.
func (s *Spinner) StopWithFailure(message string) {
	s.finish("failed", message, s.writer.Failure)
}

// StopWithWarning stops spinner and shows warning message.
func (s *Spinner) StopWithWarning(message string) {
	s.finish("warning", message, s.writer.Warning)
}

func (s *Spinner) finish(plain, message string, report func(string, ...any)) {
	if s.silent {
		return
	}

	if s.disabled {
		s.writer.Println(plain)
	} else {
		s.spinner.Stop()
	}

	if message != "" {
		report("%s", message)
	}
}

// UpdateMessage changes the spinner message.
func (s *Spinner) UpdateMessage(message string) {
	s.message = message
	if !s.disabled {
		s.spinner.Suffix = " " + message
	}
}
