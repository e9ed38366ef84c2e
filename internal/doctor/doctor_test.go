package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leadpilot/pilot/internal/buildinfo"
	"github.com/leadpilot/pilot/internal/client"
)

type stubBackend struct {
	leadErr   error
	connected bool
	authErr   error
	running   map[client.JobKind]bool
	statusErr error
}

func (s *stubBackend) LeadCount(context.Context) (int, error) {
	return 3, s.leadErr
}

func (s *stubBackend) AuthStatus(context.Context) (bool, error) {
	return s.connected, s.authErr
}

func (s *stubBackend) JobStatus(_ context.Context, kind client.JobKind) (*client.JobStatus, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}

	status := client.StatusIdle
	if s.running[kind] {
		status = client.StatusRunning
	}

	return &client.JobStatus{Status: status}, nil
}

func resultByName(t *testing.T, results []Result, name string) Result {
	t.Helper()

	for _, r := range results {
		if r.Name == name {
			return r
		}
	}

	t.Fatalf("no result named %q", name)

	return Result{}
}

func TestRunner_Healthy(t *testing.T) {
	env := Env{
		Backend:    &stubBackend{connected: true, running: map[client.JobKind]bool{client.KindScrape: true}},
		APIURL:     "http://localhost:8000",
		ConfigFile: "/home/u/.config/pilot/config.yaml",
	}

	results := New(env).Run(t.Context())

	if len(results) != 5 {
		t.Fatalf("Run() returned %d results, want 5", len(results))
	}

	for _, name := range []string{"Configuration", "Backend", "Google Sheets", "Jobs"} {
		if r := resultByName(t, results, name); r.Status != StatusPass {
			t.Errorf("%s status = %v (%s), want pass", name, r.Status, r.Message)
		}
	}

	if got := resultByName(t, results, "Jobs").Message; got != "Running: Scrape" {
		t.Errorf("Jobs message = %q", got)
	}

	if got := resultByName(t, results, "Configuration").Message; got != env.ConfigFile {
		t.Errorf("Configuration message = %q", got)
	}
}

func TestRunner_BackendDown(t *testing.T) {
	down := errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
	env := Env{
		Backend: &stubBackend{leadErr: down, authErr: down, statusErr: down},
		APIURL:  "http://localhost:8000",
	}

	results := New(env).Run(t.Context())

	backend := resultByName(t, results, "Backend")
	if backend.Status != StatusFail || backend.Detail != down.Error() {
		t.Errorf("Backend = %+v, want fail with detail", backend)
	}

	if r := resultByName(t, results, "Google Sheets"); r.Status != StatusWarn {
		t.Errorf("Google Sheets status = %v, want warn", r.Status)
	}

	if r := resultByName(t, results, "Jobs"); !strings.Contains(r.Message, "Scrape, Messaging") {
		t.Errorf("Jobs message = %q", r.Message)
	}

	passed, failed, warnings := Summary(results)
	if passed+failed+warnings != len(results) || failed != 1 {
		t.Errorf("Summary() = %d/%d/%d", passed, failed, warnings)
	}
}

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name string
		url  string
		file string
		want Status
		msg  string
	}{
		{name: "defaults", url: "http://localhost:8000", want: StatusPass, msg: "defaults (no config file)"},
		{name: "bad scheme", url: "localhost:8000", want: StatusFail, msg: `invalid api.url "localhost:8000"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Env{APIURL: tt.url, ConfigFile: tt.file}.checkConfig(t.Context())
			if got.Status != tt.want || got.Message != tt.msg {
				t.Errorf("checkConfig() = %+v", got)
			}
		})
	}
}

func TestSheetsNotConnected(t *testing.T) {
	got := Env{Backend: &stubBackend{}}.checkSheets(t.Context())
	if got.Status != StatusWarn || got.Message != "Not connected" {
		t.Errorf("checkSheets() = %+v", got)
	}
}

func TestRenderResults(t *testing.T) {
	results := []Result{
		{Name: "Backend", Status: StatusPass, Message: "http://localhost:8000 (3ms)"},
		{Name: "Google Sheets", Status: StatusWarn, Message: "Not connected", Detail: "Run 'pilot sheets connect'"},
		{Name: "Jobs", Status: StatusFail, Message: "boom"},
	}

	var lines []string

	record := func(prefix string) func(string, ...any) {
		return func(format string, args ...any) {
			lines = append(lines, prefix+fmt.Sprintf(format, args...))
		}
	}

	RenderResults(results, record("print "), record("pass "), record("warn "), record("fail "), record("muted "))

	want := []string{
		"pass Backend          http://localhost:8000 (3ms)",
		"warn Google Sheets    Not connected",
		"muted     Run 'pilot sheets connect'",
		"fail Jobs             boom",
	}

	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("RenderResults() =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestStatus_JSON(t *testing.T) {
	data, err := json.Marshal(Result{Name: "Jobs", Status: StatusWarn, Message: "x"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if want := `{"name":"Jobs","status":"warn","message":"x"}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestCheckVersion(t *testing.T) {
	orig := buildinfo.Version
	t.Cleanup(func() { buildinfo.Version = orig })

	tests := []struct {
		name    string
		version string
		latest  string
		want    Status
		message string
	}{
		{"dev build", "dev", "1.2.0", StatusWarn, "Development build"},
		{"current", "1.2.0", "1.2.0", StatusPass, "v1.2.0"},
		{"never checked", "1.2.0", "", StatusPass, "v1.2.0"},
		{"outdated", "1.1.0", "1.2.0", StatusWarn, "v1.1.0 (v1.2.0 available)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildinfo.Version = tt.version

			got := Env{LatestVersion: tt.latest}.checkVersion(t.Context())
			if got.Status != tt.want || got.Message != tt.message {
				t.Errorf("checkVersion() = %v %q, want %v %q", got.Status, got.Message, tt.want, tt.message)
			}
		})
	}
}
