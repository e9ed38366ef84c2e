package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leadpilot/pilot/internal/client"
)

// Scrape form field order.
const (
	fieldKeywords = iota
	fieldRelevance
	fieldCity
	fieldCountry
	fieldScrapeLimit
)

// form collects the parameters of one job kind. Messaging has a multi-line
// template in front of its single-line fields.
type form struct {
	kind         client.JobKind
	defaultLimit int

	labels []string
	inputs []textinput.Model

	hasTemplate bool
	template    textarea.Model

	focus int
	err   string
}

func newInput(placeholder string, charLimit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = charLimit

	return ti
}

func newScrapeForm(defaultLimit int) *form {
	return &form{
		kind:         client.KindScrape,
		defaultLimit: defaultLimit,
		labels:       []string{"Keywords", "Relevance", "City", "Country", "Limit"},
		inputs: []textinput.Model{
			newInput("dentist, dental clinic", 256),
			newInput("implant, orthodontic (optional)", 256),
			newInput("Berlin", 64),
			newInput("Germany", 64),
			newInput(strconv.Itoa(defaultLimit), 6),
		},
	}
}

func newMessagingForm(defaultLimit int) *form {
	ta := textarea.New()
	ta.Placeholder = "Hi {name}, we help clinics like yours..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)

	return &form{
		kind:         client.KindMessaging,
		defaultLimit: defaultLimit,
		labels:       []string{"Daily limit"},
		inputs:       []textinput.Model{newInput(strconv.Itoa(defaultLimit), 6)},
		hasTemplate:  true,
		template:     ta,
	}
}

func (f *form) fieldCount() int {
	if f.hasTemplate {
		return len(f.inputs) + 1
	}

	return len(f.inputs)
}

// inputIndex maps a focus position to an index into inputs, or -1 for the template.
func (f *form) inputIndex(pos int) int {
	if f.hasTemplate {
		return pos - 1
	}

	return pos
}

// focusCurrent focuses the field at f.focus and blurs the rest.
func (f *form) focusCurrent() tea.Cmd {
	var cmd tea.Cmd

	for pos := range f.fieldCount() {
		idx := f.inputIndex(pos)

		switch {
		case pos == f.focus && idx < 0:
			cmd = f.template.Focus()
		case pos == f.focus:
			cmd = f.inputs[idx].Focus()
		case idx < 0:
			f.template.Blur()
		default:
			f.inputs[idx].Blur()
		}
	}

	return cmd
}

func (f *form) blur() {
	if f.hasTemplate {
		f.template.Blur()
	}

	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

func (f *form) next() tea.Cmd {
	f.focus = (f.focus + 1) % f.fieldCount()
	return f.focusCurrent()
}

func (f *form) prev() tea.Cmd {
	f.focus = (f.focus - 1 + f.fieldCount()) % f.fieldCount()
	return f.focusCurrent()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if idx := f.inputIndex(f.focus); idx < 0 {
		f.template, cmd = f.template.Update(msg)
	} else {
		f.inputs[idx], cmd = f.inputs[idx].Update(msg)
	}

	return cmd
}

func (f *form) setWidth(width int) {
	fieldWidth := max(width-16, 10)

	for i := range f.inputs {
		f.inputs[i].Width = fieldWidth
	}

	if f.hasTemplate {
		f.template.SetWidth(fieldWidth)
	}
}

// height is the number of rows view renders, including the error row.
func (f *form) height() int {
	h := len(f.inputs) + 1
	if f.hasTemplate {
		h += f.template.Height()
	}

	return h
}

func (f *form) view(st styles) string {
	var b strings.Builder

	row := func(pos int, label, field string) {
		labelStyle := st.label
		if pos == f.focus {
			labelStyle = st.focusLabel
		}

		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), field)
	}

	pos := 0
	if f.hasTemplate {
		row(pos, "Message", f.template.View())
		pos++
	}

	for i, input := range f.inputs {
		row(pos+i, f.labels[i], input.View())
	}

	if f.err != "" {
		b.WriteString(st.banner.Render("✗ " + f.err))
	}

	return strings.TrimRight(b.String(), "\n")
}

// config builds and validates the job parameters from the current values.
func (f *form) config() (any, error) {
	f.err = ""

	cfg, err := f.build()
	if err != nil {
		f.err = err.Error()
		return nil, err
	}

	return cfg, nil
}

func (f *form) build() (any, error) {
	limitInput := f.inputs[len(f.inputs)-1]

	limit, err := parseLimit(limitInput.Value(), f.defaultLimit)
	if err != nil {
		return nil, err
	}

	if f.kind == client.KindMessaging {
		cfg := client.MessagingConfig{
			MessageTemplate: strings.TrimSpace(f.template.Value()),
			Limit:           limit,
		}

		return cfg, cfg.Validate()
	}

	cfg := client.ScrapeConfig{
		Keywords:          strings.TrimSpace(f.inputs[fieldKeywords].Value()),
		RelevanceKeywords: strings.TrimSpace(f.inputs[fieldRelevance].Value()),
		City:              strings.TrimSpace(f.inputs[fieldCity].Value()),
		Country:           strings.TrimSpace(f.inputs[fieldCountry].Value()),
		Limit:             limit,
	}

	return cfg, cfg.Validate()
}

func parseLimit(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be a whole number, got %q", raw)
	}

	return n, nil
}
