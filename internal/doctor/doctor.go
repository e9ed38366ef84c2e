// Package doctor provides diagnostic checks for pilot.
//
// The default checks validate:
//   - Configuration file and backend URL
//   - Backend reachability and response time
//   - Google Sheets connection
//   - Whether a scrape or messaging job is currently running
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leadpilot/pilot/internal/buildinfo"
	"github.com/leadpilot/pilot/internal/client"
	"github.com/leadpilot/pilot/internal/update"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Backend is the part of the REST client the checks call.
type Backend interface {
	LeadCount(ctx context.Context) (int, error)
	AuthStatus(ctx context.Context) (bool, error)
	JobStatus(ctx context.Context, kind client.JobKind) (*client.JobStatus, error)
}

// Env describes what the default checks inspect.
type Env struct {
	Backend    Backend
	APIURL     string
	ConfigFile string // empty when running on defaults

	// LatestVersion is the newest release from the cached update check, if any.
	LatestVersion string
}

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a runner with the default checks registered against env.
func New(env Env) *Runner {
	r := &Runner{}

	r.AddCheck("Configuration", env.checkConfig)
	r.AddCheck("Backend", env.checkBackend)
	r.AddCheck("Google Sheets", env.checkSheets)
	r.AddCheck("Jobs", env.checkJobs)
	r.AddCheck("CLI Version", env.checkVersion)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

func (e Env) checkConfig(context.Context) Result {
	if !strings.HasPrefix(e.APIURL, "http://") && !strings.HasPrefix(e.APIURL, "https://") {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("invalid api.url %q", e.APIURL),
			Detail:  "Run 'pilot config set api.url http://localhost:8000'",
		}
	}

	if e.ConfigFile == "" {
		return Result{Status: StatusPass, Message: "defaults (no config file)"}
	}

	return Result{Status: StatusPass, Message: e.ConfigFile}
}

func (e Env) checkBackend(ctx context.Context) Result {
	start := time.Now()
	_, err := e.Backend.LeadCount(ctx)
	elapsed := time.Since(start)

	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: e.APIURL,
			Detail:  err.Error(),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%dms)", e.APIURL, elapsed.Milliseconds()),
	}
}

func (e Env) checkSheets(ctx context.Context) Result {
	connected, err := e.Backend.AuthStatus(ctx)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Could not check connection",
			Detail:  err.Error(),
		}
	}

	if !connected {
		return Result{
			Status:  StatusWarn,
			Message: "Not connected",
			Detail:  "Run 'pilot sheets connect' to link a Google account",
		}
	}

	return Result{Status: StatusPass, Message: "Connected"}
}

func (e Env) checkJobs(ctx context.Context) Result {
	var running, failed []string

	for _, kind := range client.Kinds() {
		status, err := e.Backend.JobStatus(ctx, kind)
		if err != nil {
			failed = append(failed, kind.String())
			continue
		}

		if status.Running() {
			running = append(running, kind.String())
		}
	}

	switch {
	case len(failed) > 0:
		return Result{
			Status:  StatusWarn,
			Message: "Status unavailable for " + strings.Join(failed, ", "),
		}
	case len(running) > 0:
		return Result{
			Status:  StatusPass,
			Message: "Running: " + strings.Join(running, ", "),
			Detail:  "Run 'pilot dashboard' to follow progress",
		}
	default:
		return Result{Status: StatusPass, Message: "Idle"}
	}
}

func (e Env) checkVersion(context.Context) Result {
	if buildinfo.Version == "dev" {
		return Result{Status: StatusWarn, Message: "Development build"}
	}

	if update.Newer(e.LatestVersion, buildinfo.Version) {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (v%s available)", buildinfo.Version, e.LatestVersion),
			Detail:  "Run 'pilot update' to install it",
		}
	}

	return Result{Status: StatusPass, Message: "v" + buildinfo.Version}
}

// RenderResults formats diagnostic results to the given output writer.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		maxNameLen = max(maxNameLen, len(r.Name))
	}

	width := maxNameLen + 4

	for _, r := range results {
		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", width, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", width, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", width, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", r.Status.Symbol(), width, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// String returns the lower-case status name used in JSON output.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*s = StatusPass
	case "warn":
		*s = StatusWarn
	case "fail":
		*s = StatusFail
	default:
		return fmt.Errorf("unknown status %q", text)
	}

	return nil
}
