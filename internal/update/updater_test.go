package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	selfupdate "github.com/creativeprojects/go-selfupdate"
)

// releaseJSON renders a GitHub release; withAsset adds an archive for this platform.
func releaseJSON(tag string, withAsset bool) string {
	assets := []any{}

	if withAsset {
		name := fmt.Sprintf("pilot_%s_%s_%s.tar.gz", tag, runtime.GOOS, runtime.GOARCH)
		assets = append(assets, map[string]any{
			"id":                   1,
			"name":                 name,
			"browser_download_url": "https://example.com/download/" + name,
		})
	}

	data, _ := json.Marshal(map[string]any{
		"tag_name":   "v" + tag,
		"name":       "pilot v" + tag,
		"prerelease": false,
		"draft":      false,
		"html_url":   "https://github.com/leadpilot/pilot/releases/tag/v" + tag,
		"assets":     assets,
	})

	return string(data)
}

func serveReleases(t *testing.T, status int, body string) *Updater {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{EnterpriseBaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("create source: %v", err)
	}

	u, err := newUpdater(selfupdate.Config{Source: source})
	if err != nil {
		t.Fatalf("create updater: %v", err)
	}

	return u
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		current       string
		wantLatest    string
		wantAvailable bool
		wantAsset     bool
	}{
		{
			name:          "newer release",
			body:          "[" + releaseJSON("2.0.0", true) + "]",
			current:       "1.0.0",
			wantLatest:    "2.0.0",
			wantAvailable: true,
			wantAsset:     true,
		},
		{
			name:       "up to date",
			body:       "[" + releaseJSON("1.0.0", true) + "]",
			current:    "1.0.0",
			wantLatest: "1.0.0",
			wantAsset:  true,
		},
		{
			name:          "dev build is always outdated",
			body:          "[" + releaseJSON("1.0.0", true) + "]",
			current:       "dev",
			wantLatest:    "1.0.0",
			wantAvailable: true,
			wantAsset:     true,
		},
		{
			name:       "no releases",
			body:       "[]",
			current:    "1.0.0",
			wantLatest: "1.0.0",
		},
		{
			name:       "no asset for this platform",
			body:       "[" + releaseJSON("2.0.0", false) + "]",
			current:    "1.0.0",
			wantLatest: "1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := serveReleases(t, http.StatusOK, tt.body)

			rel, err := u.Latest(t.Context(), tt.current)
			if err != nil {
				t.Fatalf("Latest() error = %v", err)
			}

			if rel.Latest != tt.wantLatest {
				t.Errorf("Latest = %q, want %q", rel.Latest, tt.wantLatest)
			}

			if rel.Available != tt.wantAvailable {
				t.Errorf("Available = %v, want %v", rel.Available, tt.wantAvailable)
			}

			if rel.Installable() != tt.wantAsset {
				t.Errorf("Installable() = %v, want %v", rel.Installable(), tt.wantAsset)
			}

			if rel.Current != tt.current {
				t.Errorf("Current = %q, want %q", rel.Current, tt.current)
			}
		})
	}
}

func TestLatest_APIErrors(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			u := serveReleases(t, status, `{"message":"API rate limit exceeded"}`)

			if _, err := u.Latest(t.Context(), "1.0.0"); err == nil {
				t.Fatalf("Latest() should fail on HTTP %d", status)
			}
		})
	}
}

func TestInstall_RequiresAsset(t *testing.T) {
	u := serveReleases(t, http.StatusOK, "[]")

	if err := u.Install(t.Context(), &Release{Latest: "2.0.0"}); err == nil {
		t.Fatal("Install() should refuse a release without a platform asset")
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"2.0.0", "1.0.0", true},
		{"1.0.1", "1.0.0", true},
		{"1.0.0", "1.0.0", false},
		{"0.9.0", "1.0.0", false},
		{"v1.2.0", "1.1.0", true},
		{"2.0.0", "dev", false},
		{"garbage", "1.0.0", false},
	}

	for _, tt := range tests {
		if got := Newer(tt.latest, tt.current); got != tt.want {
			t.Errorf("Newer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestDisabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"0", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Setenv("PILOT_UPDATE_DISABLED", tt.value)

		if got := Disabled(); got != tt.want {
			t.Errorf("Disabled() with %q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
