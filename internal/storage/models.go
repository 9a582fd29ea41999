package storage

import (
	"time"
)

// Period selects the time-window filter mode for article queries.
const (
	Period24h    = "24h"
	PeriodCustom = "custom"
	PeriodAll    = "all"
)

// Theme values persisted under the theme key.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings is the durable bag of user filter/source preferences. It is
// loaded once at startup and saved as a whole record; callers merge the
// loaded record with their changes so unrelated fields survive.
type Settings struct {
	Sources     []string `json:"sources,omitempty" toml:"sources,omitempty"`
	Keyword     string   `json:"keyword,omitempty" toml:"keyword,omitempty"`
	RefreshMins int      `json:"refresh,omitempty" toml:"refresh,omitempty"`
	Period      string   `json:"period,omitempty" toml:"period,omitempty"`
	FromDate    string   `json:"from_date,omitempty" toml:"from_date,omitempty"`
	ToDate      string   `json:"to_date,omitempty" toml:"to_date,omitempty"`
}

// Source is an upstream content feed the backend can ingest from.
// Immutable from the client's perspective; selection is tracked separately.
type Source struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// Article mirrors the backend's article payload, plus the time the client
// fetched it (used to age out the offline cache).
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	SourceKey   string     `json:"source_key"`
	SourceTitle string     `json:"source_title"`
	Summary     string     `json:"summary,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at,omitempty"`
}

// Text returns the best available body text for an article.
func (a *Article) Text() string {
	if a.Summary != "" {
		return a.Summary
	}
	return a.Snippet
}
