package api

import (
	"net/url"
	"strconv"
	"strings"
)

// Query carries the parameters of a single articles fetch. It is derived
// from the current settings and pagination cursor on every call and never
// persisted.
type Query struct {
	Sources   []string
	Keyword   string
	TodayOnly bool
	FromDate  string
	ToDate    string
	Limit     int
	Offset    int
}

// Values encodes the query for the articles endpoint. Empty source
// selections and keywords are omitted so the server falls back to its
// defaults; limit and offset are always present.
func (q Query) Values() url.Values {
	v := url.Values{}
	if len(q.Sources) > 0 {
		v.Set("sources", strings.Join(q.Sources, ","))
	}
	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		v.Set("q", keyword)
	}
	v.Set("today_only", strconv.FormatBool(q.TodayOnly))
	// Date bounds are meaningless for a today-only query.
	if !q.TodayOnly {
		if q.FromDate != "" {
			v.Set("from_date", q.FromDate)
		}
		if q.ToDate != "" {
			v.Set("to_date", q.ToDate)
		}
	}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

// RefreshRequest asks the backend to ingest fresh items for the given
// sources, plus any user-provided RSS URLs.
type RefreshRequest struct {
	Sources        []string `json:"sources,omitempty"`
	LimitPerSource int      `json:"limit_per_source"`
	ExtraRSS       []string `json:"extra_rss,omitempty"`
}
