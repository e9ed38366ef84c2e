package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// JobKind identifies one of the long-running backend jobs.
type JobKind string

// Supported job kinds.
const (
	KindScrape    JobKind = "scrape"
	KindMessaging JobKind = "messaging"
)

// Backend status values reported by the status endpoints.
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
)

// Structured phase values a backend may report alongside the free-text logs.
const (
	PhaseRunning   = "running"
	PhaseSucceeded = "succeeded"
	PhaseFailed    = "failed"
	PhaseStopped   = "stopped"
)

// ErrStopUnsupported is returned when the backend exposes no stop endpoint for a job kind.
var ErrStopUnsupported = errors.New("backend has no stop endpoint for this job")

// Kinds returns every supported job kind in display order.
func Kinds() []JobKind {
	return []JobKind{KindScrape, KindMessaging}
}

// ParseKind resolves a user-supplied kind name.
func ParseKind(name string) (JobKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scrape", "scraper":
		return KindScrape, nil
	case "messaging", "whatsapp":
		return KindMessaging, nil
	default:
		return "", fmt.Errorf("unknown job kind %q (allowed: scrape, whatsapp)", name)
	}
}

// String returns a human-readable kind label.
func (k JobKind) String() string {
	switch k {
	case KindScrape:
		return "Scrape"
	case KindMessaging:
		return "Messaging"
	default:
		return string(k)
	}
}

// pathSegment is the URL segment under /api for the kind.
func (k JobKind) pathSegment() string {
	if k == KindMessaging {
		return "whatsapp"
	}

	return string(k)
}

// ScrapeConfig is the request body for starting a scrape job.
type ScrapeConfig struct {
	// Keywords is a comma-separated list of search keywords.
	Keywords string `json:"keywords"`
	// RelevanceKeywords is a comma-separated list; leads are kept only if their website matches one.
	RelevanceKeywords string `json:"relevanceKeywords"`
	City              string `json:"city"`
	Country           string `json:"country"`
	Limit             int    `json:"limit"`
}

// MessagingConfig is the request body for starting a messaging job.
type MessagingConfig struct {
	Limit           int    `json:"limit"`
	MessageTemplate string `json:"message_template"`
}

// Validate checks the fields the scraper cannot run without.
func (c ScrapeConfig) Validate() error {
	if strings.TrimSpace(c.Keywords) == "" {
		return errors.New("keywords are required")
	}

	if c.Limit < 1 {
		return fmt.Errorf("limit must be a positive number, got %d", c.Limit)
	}

	return nil
}

// Validate checks the fields the messaging job cannot run without.
func (c MessagingConfig) Validate() error {
	if strings.TrimSpace(c.MessageTemplate) == "" {
		return errors.New("message template is required")
	}

	if c.Limit < 1 {
		return fmt.Errorf("daily send limit must be a positive number, got %d", c.Limit)
	}

	return nil
}

// StartResponse is the acknowledgment returned by the start endpoints.
type StartResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StopResponse is returned by the stop endpoint.
type StopResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatus is a snapshot of a job's status and full log list.
type JobStatus struct {
	Status string `json:"status"`
	// Phase is optional; backends that report it make log-marker scanning unnecessary.
	Phase string   `json:"phase,omitempty"`
	Logs  []string `json:"logs"`
}

// Running reports whether the backend considers the job active.
func (s *JobStatus) Running() bool {
	if s == nil {
		return false
	}

	if s.Phase != "" {
		return s.Phase == PhaseRunning
	}

	return s.Status == StatusRunning
}

// StartJob starts a job of the given kind with an opaque JSON config.
func (c *Client) StartJob(ctx context.Context, kind JobKind, cfg any) (*StartResponse, error) {
	var resp StartResponse
	if err := c.postJSON(ctx, "/api/"+kind.pathSegment()+"/start", "start "+string(kind)+" job", cfg, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// JobStatus fetches the status and log snapshot of a job.
func (c *Client) JobStatus(ctx context.Context, kind JobKind) (*JobStatus, error) {
	var status JobStatus
	if err := c.getJSON(ctx, "/api/"+kind.pathSegment()+"/status", "fetch "+string(kind)+" status", &status); err != nil {
		return nil, err
	}

	if status.Logs == nil {
		status.Logs = []string{}
	}

	return &status, nil
}

// StopJob asks the backend to stop a job. Only the scrape job has a stop endpoint.
func (c *Client) StopJob(ctx context.Context, kind JobKind) (*StopResponse, error) {
	if kind != KindScrape {
		return nil, ErrStopUnsupported
	}

	var resp StopResponse
	if err := c.postJSON(ctx, "/api/"+kind.pathSegment()+"/stop", "stop "+string(kind)+" job", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// StartScrape starts the lead-scraping job.
func (c *Client) StartScrape(ctx context.Context, cfg ScrapeConfig) (*StartResponse, error) {
	return c.StartJob(ctx, KindScrape, cfg)
}

// StartMessaging starts the messaging job.
func (c *Client) StartMessaging(ctx context.Context, cfg MessagingConfig) (*StartResponse, error) {
	return c.StartJob(ctx, KindMessaging, cfg)
}
