package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/leadpilot/pilot/internal/output"
	"github.com/leadpilot/pilot/internal/terminal"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	var buf bytes.Buffer

	out := output.NewWriter(&buf, &buf, &terminal.Info{NoColor: true})

	return NewWithReader(out, strings.NewReader(input), func() bool { return true }), &buf
}

func TestIsCanceled(t *testing.T) {
	if !IsCanceled(errCanceled) {
		t.Fatal("IsCanceled(errCanceled) = false, want true")
	}

	if !IsCanceled(errors.Join(errors.New("other"), errCanceled)) {
		t.Fatal("IsCanceled(wrapped errCanceled) = false, want true")
	}

	if IsCanceled(errors.New("not canceled")) {
		t.Fatal("IsCanceled(unrelated error) = true, want false")
	}
}

func TestCanPrompt(t *testing.T) {
	p, _ := newTestPrompter("")
	if !p.CanPrompt() {
		t.Fatal("CanPrompt() = false on a TTY")
	}

	p.out.NoInput = true
	if p.CanPrompt() {
		t.Fatal("CanPrompt() = true with --no-input")
	}

	p.out.NoInput = false
	p.out.JSON = true

	if p.CanPrompt() {
		t.Fatal("CanPrompt() = true in JSON mode")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultValue bool
		want         bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "YES upper", input: "YES\n", want: true},
		{name: "no", input: "n\n", defaultValue: true, want: false},
		{name: "empty takes default", input: "\n", defaultValue: true, want: true},
		{name: "no trailing newline", input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPrompter(tt.input)

			got, err := p.Confirm("Stop the scrape?", tt.defaultValue)
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirm_EOF(t *testing.T) {
	p, _ := newTestPrompter("")

	got, err := p.Confirm("Stop the scrape?", true)
	if !IsCanceled(err) {
		t.Fatalf("Confirm() error = %v, want canceled", err)
	}

	if !got {
		t.Error("Confirm() should return the default on cancel")
	}
}

func TestText(t *testing.T) {
	p, buf := newTestPrompter("\n  dentist, clinic \n")

	got, err := p.Text("Keywords", "")
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	if got != "dentist, clinic" {
		t.Errorf("Text() = %q, want trimmed answer", got)
	}

	if !strings.Contains(buf.String(), "A value is required") {
		t.Errorf("empty answer should warn, output %q", buf.String())
	}
}

func TestText_Default(t *testing.T) {
	p, buf := newTestPrompter("\n")

	got, err := p.Text("Country", "Germany")
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	if got != "Germany" {
		t.Errorf("Text() = %q, want default", got)
	}

	if !strings.HasPrefix(buf.String(), "Country [Germany]: ") {
		t.Errorf("prompt = %q", buf.String())
	}
}

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "explicit", input: "25\n", want: 25},
		{name: "default", input: "\n", want: 50},
		{name: "retries invalid", input: "abc\n0\n10\n", want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPrompter(tt.input)

			got, err := p.PositiveInt("Limit", 50)
			if err != nil {
				t.Fatalf("PositiveInt() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("PositiveInt() = %d, want %d", got, tt.want)
			}
		})
	}
}
