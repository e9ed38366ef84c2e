package main

import (
	"encoding/json"
	"testing"

	"github.com/leadpilot/pilot/internal/doctor"
	"github.com/leadpilot/pilot/internal/testutil"
)

func TestRenderDoctor_Golden(t *testing.T) {
	results := []doctor.Result{
		{Name: "Configuration", Status: doctor.StatusPass, Message: "Using defaults (http://localhost:8000)"},
		{Name: "Backend", Status: doctor.StatusPass, Message: "Reachable (12ms)"},
		{Name: "Google Sheets", Status: doctor.StatusWarn, Message: "Not connected", Detail: "Run 'pilot sheets connect'"},
		{Name: "Jobs", Status: doctor.StatusFail, Message: "Status check failed", Detail: "fetch scrape status failed with status 500"},
	}

	out, buf := testWriter()
	renderDoctor(out, results)

	testutil.AssertGolden(t, buf.String(), "doctor_output.golden")
}

func TestDoctorCmd_JSON(t *testing.T) {
	backend := newFakeBackend(t)
	backend.connected = true
	backend.leads = 7

	out, buf := testWriter()
	out.JSON = true

	if err := execute(t, newDoctorCmd(), out); err != nil {
		t.Fatalf("doctor: %v", err)
	}

	var report doctorReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}

	if report.Failed != 0 {
		t.Errorf("expected no failures against a healthy backend, got %+v", report.Results)
	}

	if len(report.Results) != report.Passed+report.Failed+report.Warnings {
		t.Errorf("summary does not add up: %+v", report)
	}
}
