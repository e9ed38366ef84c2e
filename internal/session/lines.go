package session

import (
	"fmt"

	"github.com/leadpilot/pilot/internal/client"
)

// Local log lines shown before the first poll and after a manual stop.
const (
	ScrapePlaceholder    = "Starting scraper service..."
	MessagingPlaceholder = "Initializing WhatsApp Web Playwright Session..."
	ScrapeStopLine       = "🛑 Scraping manually stopped by user."
	MessagingStopLine    = "🛑 Automation supervision stopped by user."
)

func startPlaceholder(kind client.JobKind) string {
	if kind == client.KindMessaging {
		return MessagingPlaceholder
	}

	return ScrapePlaceholder
}

func stopLine(kind client.JobKind) string {
	if kind == client.KindMessaging {
		return MessagingStopLine
	}

	return ScrapeStopLine
}

func pollErrorLine(err error) string {
	return fmt.Sprintf("⚠ Status poll failed: %v", err)
}
