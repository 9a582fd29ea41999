package tui

import "fmt"

// StatusKind indicates severity for status line messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading      = "Loading…"
	MsgRefreshing   = "Refreshing sources…"
	MsgCheckingFeed = "Checking feed…"
	MsgOffline      = "Backend unreachable — showing cached articles"
	MsgNoResults    = "No articles match the current filters"
)

func MsgFeedAccepted(title string, items int) string {
	if items == 1 {
		return fmt.Sprintf("Added feed %q (1 item)", title)
	}
	return fmt.Sprintf("Added feed %q (%d items)", title, items)
}

func MsgSearchResults(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}

func MsgThemeChanged(theme string) string {
	return fmt.Sprintf("Theme: %s", theme)
}
