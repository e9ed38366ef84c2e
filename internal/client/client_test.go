package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNew(t *testing.T) {
	c := New("http://backend.test:9000/")

	if c.BaseURL() != "http://backend.test:9000" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", c.BaseURL())
	}
	if c.httpClient == nil {
		t.Error("httpClient should not be nil")
	}

	if got := New("").BaseURL(); got != DefaultBaseURL {
		t.Errorf("New(\"\").BaseURL() = %q, want %q", got, DefaultBaseURL)
	}
}

func TestClient_StartScrape(t *testing.T) {
	var got ScrapeConfig

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/scrape/start" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/scrape/start")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}

		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}

		w.Write([]byte(`{"status":"started","message":"Scraping process initiated in the background."}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())

	resp, err := c.StartScrape(context.Background(), ScrapeConfig{
		Keywords:          "GDSC College, IEEE Student Branch",
		RelevanceKeywords: "ai, robotics",
		City:              "Pune",
		Country:           "India",
		Limit:             50,
	})
	if err != nil {
		t.Fatalf("StartScrape() error = %v", err)
	}

	if resp.Status != "started" {
		t.Errorf("Status = %q, want started", resp.Status)
	}
	if got.Limit != 50 || got.City != "Pune" || got.RelevanceKeywords != "ai, robotics" {
		t.Errorf("request body = %+v", got)
	}
}

func TestClient_StartMessaging_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/whatsapp/start" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/whatsapp/start")
		}

		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"WhatsApp automation is already running."}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())

	_, err := c.StartMessaging(context.Background(), MessagingConfig{Limit: 10, MessageTemplate: "Hi"})
	if err == nil {
		t.Fatal("StartMessaging() expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}

	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Detail != "WhatsApp automation is already running." {
		t.Errorf("Detail = %q", apiErr.Detail)
	}
	if !strings.Contains(err.Error(), "already running") {
		t.Errorf("Error() = %q, want detail text", err.Error())
	}
}

func TestClient_JobStatus(t *testing.T) {
	tests := []struct {
		name        string
		kind        JobKind
		wantPath    string
		body        string
		wantRunning bool
		wantLogs    int
	}{
		{
			name:        "scrape running",
			kind:        KindScrape,
			wantPath:    "/api/scrape/status",
			body:        `{"status":"running","logs":["Searching..."]}`,
			wantRunning: true,
			wantLogs:    1,
		},
		{
			name:     "messaging idle without logs",
			kind:     KindMessaging,
			wantPath: "/api/whatsapp/status",
			body:     `{"status":"idle","logs":null}`,
			wantLogs: 0,
		},
		{
			name:        "structured phase wins over status",
			kind:        KindScrape,
			wantPath:    "/api/scrape/status",
			body:        `{"status":"idle","phase":"running","logs":[]}`,
			wantRunning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpClient := &http.Client{
				Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					if r.URL.Path != tt.wantPath {
						t.Errorf("path = %q, want %q", r.URL.Path, tt.wantPath)
					}

					return jsonResponse(http.StatusOK, tt.body), nil
				}),
			}

			c := NewWithHTTPClient("http://backend.test", httpClient)

			status, err := c.JobStatus(context.Background(), tt.kind)
			if err != nil {
				t.Fatalf("JobStatus() error = %v", err)
			}

			if status.Running() != tt.wantRunning {
				t.Errorf("Running() = %v, want %v", status.Running(), tt.wantRunning)
			}
			if status.Logs == nil {
				t.Error("Logs should never be nil")
			}
			if len(status.Logs) != tt.wantLogs {
				t.Errorf("len(Logs) = %d, want %d", len(status.Logs), tt.wantLogs)
			}
		})
	}
}

func TestClient_JobStatus_ServerError(t *testing.T) {
	httpClient := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, "boom"), nil
		}),
	}

	c := NewWithHTTPClient("http://backend.test", httpClient)

	_, err := c.JobStatus(context.Background(), KindScrape)
	if err == nil {
		t.Fatal("JobStatus() expected error")
	}

	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Error() = %q, want status code", err.Error())
	}
}

func TestClient_StopJob(t *testing.T) {
	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		if r.URL.Path != "/api/scrape/stop" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/api/scrape/stop")
		}

		w.Write([]byte(`{"status":"stopping","message":"Stop signal sent to scraper."}`))
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())

	resp, err := c.StopJob(context.Background(), KindScrape)
	if err != nil {
		t.Fatalf("StopJob(scrape) error = %v", err)
	}
	if resp.Status != "stopping" {
		t.Errorf("Status = %q, want stopping", resp.Status)
	}

	if _, err := c.StopJob(context.Background(), KindMessaging); !errors.Is(err, ErrStopUnsupported) {
		t.Errorf("StopJob(messaging) error = %v, want ErrStopUnsupported", err)
	}

	if calls != 1 {
		t.Errorf("server calls = %d, want 1", calls)
	}
}

func TestClient_AuthEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/url":
			w.Write([]byte(`{"url":"https://accounts.google.com/o/oauth2/auth?client_id=x"}`))
		case "/api/auth/status":
			w.Write([]byte(`{"authenticated":true}`))
		case "/api/auth/status/leads":
			w.Write([]byte(`{"count":12}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewWithHTTPClient(server.URL, server.Client())
	ctx := context.Background()

	url, err := c.AuthURL(ctx)
	if err != nil {
		t.Fatalf("AuthURL() error = %v", err)
	}
	if !strings.HasPrefix(url, "https://accounts.google.com/") {
		t.Errorf("AuthURL() = %q", url)
	}

	ok, err := c.AuthStatus(ctx)
	if err != nil {
		t.Fatalf("AuthStatus() error = %v", err)
	}
	if !ok {
		t.Error("AuthStatus() = false, want true")
	}

	count, err := c.LeadCount(ctx)
	if err != nil {
		t.Fatalf("LeadCount() error = %v", err)
	}
	if count != 12 {
		t.Errorf("LeadCount() = %d, want 12", count)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    JobKind
		wantErr bool
	}{
		{in: "scrape", want: KindScrape},
		{in: " WhatsApp ", want: KindMessaging},
		{in: "messaging", want: KindMessaging},
		{in: "email", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     interface{ Validate() error }
		wantErr string
	}{
		{name: "scrape ok", cfg: ScrapeConfig{Keywords: "dentist", Limit: 50}},
		{name: "scrape blank keywords", cfg: ScrapeConfig{Keywords: "  ", Limit: 50}, wantErr: "keywords are required"},
		{name: "scrape zero limit", cfg: ScrapeConfig{Keywords: "dentist"}, wantErr: "limit must be a positive number, got 0"},
		{name: "messaging ok", cfg: MessagingConfig{MessageTemplate: "Hi {name}", Limit: 20}},
		{name: "messaging blank template", cfg: MessagingConfig{Limit: 20}, wantErr: "message template is required"},
		{name: "messaging negative limit", cfg: MessagingConfig{MessageTemplate: "Hi", Limit: -1}, wantErr: "daily send limit must be a positive number, got -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}

				return
			}

			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
