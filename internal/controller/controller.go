// Package controller owns the client-side feed state: which sources are
// selected, where the pagination cursor sits, and whether a load is in
// flight. The TUI drives it and the API client consumes the queries it
// builds; the controller itself does no I/O.
package controller

import (
	"fmt"
	"strings"

	"github.com/jsokolov/newsdeck/internal/api"
	"github.com/jsokolov/newsdeck/internal/storage"
)

type Controller struct {
	pageSize int

	sources  []*storage.Source
	selected map[string]bool

	// offset is the cursor of the page currently on screen. It only moves
	// forward on an explicit load-more and always by exactly one page.
	offset     int
	prevOffset int
	lastPage   int

	inFlight bool
	gen      uint64
}

func New(pageSize int) *Controller {
	return &Controller{
		pageSize: pageSize,
		selected: make(map[string]bool),
		lastPage: -1,
	}
}

// SetSources installs the source list and initializes the selected set:
// from the saved settings when present, otherwise from each source's
// enabled flag. Saved keys that no longer exist are dropped so the
// selection stays a subset of the known sources.
func (c *Controller) SetSources(sources []*storage.Source, saved storage.Settings) {
	c.sources = sources
	c.selected = make(map[string]bool, len(sources))

	if len(saved.Sources) > 0 {
		known := make(map[string]bool, len(sources))
		for _, s := range sources {
			known[s.Key] = true
		}
		for _, key := range saved.Sources {
			if known[key] {
				c.selected[key] = true
			}
		}
		return
	}

	for _, s := range sources {
		if s.Enabled {
			c.selected[s.Key] = true
		}
	}
}

func (c *Controller) Sources() []*storage.Source {
	return c.sources
}

// Toggle flips exactly one source's membership. Unknown keys are no-ops.
func (c *Controller) Toggle(key string) {
	for _, s := range c.sources {
		if s.Key != key {
			continue
		}
		if c.selected[key] {
			delete(c.selected, key)
		} else {
			c.selected[key] = true
		}
		return
	}
}

// ToggleAll clears the selection when every source is selected, and
// selects everything otherwise.
func (c *Controller) ToggleAll() {
	if c.AllSelected() {
		c.selected = make(map[string]bool, len(c.sources))
		return
	}
	for _, s := range c.sources {
		c.selected[s.Key] = true
	}
}

func (c *Controller) AllSelected() bool {
	return len(c.sources) > 0 && len(c.selected) == len(c.sources)
}

func (c *Controller) IsSelected(key string) bool {
	return c.selected[key]
}

// SelectedKeys returns the selected keys in source-list order.
func (c *Controller) SelectedKeys() []string {
	var keys []string
	for _, s := range c.sources {
		if c.selected[s.Key] {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

func (c *Controller) SelectedCount() int {
	return len(c.selected)
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

func (c *Controller) Offset() int {
	return c.offset
}

func (c *Controller) InFlight() bool {
	return c.inFlight
}

// BuildQuery composes the articles query from the given settings, the
// current selection and the pagination cursor.
func (c *Controller) BuildQuery(settings storage.Settings) api.Query {
	q := api.Query{
		Sources: c.SelectedKeys(),
		Keyword: strings.TrimSpace(settings.Keyword),
		Limit:   c.pageSize,
		Offset:  c.offset,
	}

	switch settings.Period {
	case storage.PeriodCustom:
		q.FromDate = settings.FromDate
		q.ToDate = settings.ToDate
	case storage.PeriodAll:
		// Unbounded: today_only false, no date bounds.
	default:
		// Period24h, and the default for unset or unknown values.
		q.TodayOnly = true
	}

	return q
}

// Begin claims the in-flight guard and positions the cursor: back to zero
// for a fresh load, forward one page for load-more. It returns a generation
// token the completion must present, and ok=false while another load is
// still pending (the caller must treat that as a no-op, not queue it).
func (c *Controller) Begin(append bool) (uint64, bool) {
	if c.inFlight {
		return 0, false
	}
	c.inFlight = true
	c.gen++
	c.prevOffset = c.offset
	if append {
		c.offset += c.pageSize
	} else {
		c.offset = 0
	}
	return c.gen, true
}

// Finish applies a successful load: it records the page length that decides
// HasMore and releases the guard. Stale generations are dropped.
func (c *Controller) Finish(gen uint64, pageLen int) bool {
	if gen != c.gen {
		return false
	}
	c.inFlight = false
	c.lastPage = pageLen
	return true
}

// Fail releases the guard and rolls the cursor back to where it was before
// Begin, keeping pagination consistent with the content still on screen.
func (c *Controller) Fail(gen uint64) bool {
	if gen != c.gen {
		return false
	}
	c.inFlight = false
	c.offset = c.prevOffset
	return true
}

// HasMore reports whether a further page may exist: false before the first
// load and whenever the most recent page came back short.
func (c *Controller) HasMore() bool {
	return c.lastPage >= c.pageSize
}

// ResetFilters clears the keyword and date bounds and forces the period
// back to the last 24 hours, leaving the source selection untouched. The
// cursor returns to zero. The merged record is returned for persistence.
func (c *Controller) ResetFilters(settings storage.Settings) storage.Settings {
	settings.Keyword = ""
	settings.Period = storage.Period24h
	settings.FromDate = ""
	settings.ToDate = ""
	c.offset = 0
	c.lastPage = -1
	return settings
}

// Summary renders the active filters and result count as a status phrase.
func (c *Controller) Summary(settings storage.Settings, n int) string {
	parts := []string{resultsPhrase(n)}

	if keyword := strings.TrimSpace(settings.Keyword); keyword != "" {
		parts = append(parts, fmt.Sprintf("matching %q", keyword))
	}

	parts = append(parts, periodPhrase(settings))

	if c.AllSelected() || len(c.selected) == 0 {
		parts = append(parts, "all sources")
	} else {
		parts = append(parts, fmt.Sprintf("%d of %d sources", len(c.selected), len(c.sources)))
	}

	return strings.Join(parts, " · ")
}

func resultsPhrase(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}

func periodPhrase(settings storage.Settings) string {
	switch settings.Period {
	case storage.PeriodCustom:
		from, to := settings.FromDate, settings.ToDate
		switch {
		case from != "" && to != "":
			return fmt.Sprintf("from %s to %s", from, to)
		case from != "":
			return fmt.Sprintf("since %s", from)
		case to != "":
			return fmt.Sprintf("until %s", to)
		default:
			return "all time"
		}
	case storage.PeriodAll:
		return "all time"
	default:
		return "today"
	}
}
