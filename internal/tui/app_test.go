package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsokolov/newsdeck/internal/config"
	"github.com/jsokolov/newsdeck/internal/storage"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testApp() *App {
	return NewApp(&storage.Store{}, config.TestConfig())
}

func testArticleTime() time.Time {
	return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
}

func testSources() []*storage.Source {
	return []*storage.Source{
		{Key: "habr", Title: "Habr", Enabled: true},
		{Key: "tproger", Title: "Tproger", Enabled: true},
		{Key: "opennet", Title: "OpenNet", Enabled: false},
	}
}

func TestFeedLoadSuccessReplacesContent(t *testing.T) {
	app := testApp()
	gen, ok := app.ctrl.Begin(false)
	require.True(t, ok)
	app.loading = true

	articles := []*storage.Article{
		{Title: "First", URL: "https://example.org/1"},
		{Title: "Second", URL: "https://example.org/2"},
	}
	updatedModel, _ := app.Update(feedLoadedMsg{gen: gen, articles: articles})
	updated := updatedModel.(*App)

	assert.False(t, updated.loading)
	assert.Len(t, updated.articles, 2)
	assert.Len(t, updated.feedList.Items(), 2)
	assert.False(t, updated.ctrl.InFlight())
}

func TestFeedLoadAppendAddsAfterExisting(t *testing.T) {
	app := testApp()

	gen, _ := app.ctrl.Begin(false)
	first := make([]*storage.Article, app.cfg.Feed.PageSize)
	for i := range first {
		first[i] = &storage.Article{Title: "a", URL: "https://example.org/a"}
	}
	model, _ := app.Update(feedLoadedMsg{gen: gen, articles: first})
	app = model.(*App)
	require.True(t, app.ctrl.HasMore())

	gen, ok := app.ctrl.Begin(true)
	require.True(t, ok)
	model, _ = app.Update(feedLoadedMsg{gen: gen, append: true, articles: []*storage.Article{
		{Title: "b", URL: "https://example.org/b"},
	}})
	app = model.(*App)

	assert.Len(t, app.articles, app.cfg.Feed.PageSize+1)
	assert.False(t, app.ctrl.HasMore(), "short page ends pagination")
}

func TestFeedLoadFailureKeepsRenderedFeed(t *testing.T) {
	app := testApp()

	gen, _ := app.ctrl.Begin(false)
	model, _ := app.Update(feedLoadedMsg{gen: gen, articles: []*storage.Article{
		{Title: "Kept", URL: "https://example.org/kept"},
	}})
	app = model.(*App)

	gen, _ = app.ctrl.Begin(true)
	model, _ = app.Update(feedLoadedMsg{gen: gen, append: true, err: errors.New("boom")})
	app = model.(*App)

	assert.Len(t, app.articles, 1, "failure must not disturb rendered articles")
	assert.Equal(t, "Kept", app.articles[0].Title)
	assert.Equal(t, StatusError, app.statusKind)
	assert.False(t, app.ctrl.InFlight(), "guard released after failure")
	assert.Equal(t, 0, app.ctrl.Offset(), "offset rolled back after failed load-more")
}

func TestStaleGenerationDropped(t *testing.T) {
	app := testApp()

	gen1, _ := app.ctrl.Begin(false)
	app.ctrl.Fail(gen1)
	gen2, _ := app.ctrl.Begin(false)

	model, _ := app.Update(feedLoadedMsg{gen: gen1, articles: []*storage.Article{{Title: "stale", URL: "u"}}})
	app = model.(*App)
	assert.Empty(t, app.articles, "stale completion must be dropped")
	assert.True(t, app.ctrl.InFlight())

	model, _ = app.Update(feedLoadedMsg{gen: gen2, articles: []*storage.Article{{Title: "fresh", URL: "u"}}})
	app = model.(*App)
	assert.Len(t, app.articles, 1)
	assert.Equal(t, "fresh", app.articles[0].Title)
}

func TestStartupFeedLoadWaitsForSources(t *testing.T) {
	app := testApp()

	model, _ := app.Update(initDoneMsg{settings: storage.Settings{Sources: []string{"habr"}}})
	app = model.(*App)
	assert.False(t, app.ctrl.InFlight(), "feed load must wait for the source list")
	assert.True(t, app.loading, "placeholder shown while waiting")

	model, _ = app.Update(sourcesLoadedMsg{sources: testSources()})
	app = model.(*App)
	assert.Equal(t, []string{"habr"}, app.ctrl.SelectedKeys())
	assert.True(t, app.ctrl.InFlight(), "load begins once the selection is known")
	assert.Equal(t, "habr", app.ctrl.BuildQuery(app.settings).Values().Get("sources"),
		"first query carries the saved selection")
}

func TestStartupFeedLoadDegradesWithoutSources(t *testing.T) {
	app := testApp()

	model, _ := app.Update(sourcesLoadedMsg{err: errors.New("connection refused")})
	app = model.(*App)

	assert.True(t, app.ctrl.InFlight(), "feed still loads when the source list is unavailable")
	assert.False(t, app.ctrl.BuildQuery(app.settings).Values().Has("sources"))
}

func TestSourcesLoadedInitializesSelection(t *testing.T) {
	app := testApp()

	model, _ := app.Update(sourcesLoadedMsg{sources: testSources()})
	app = model.(*App)

	assert.Equal(t, []string{"habr", "tproger"}, app.ctrl.SelectedKeys(),
		"selection defaults to enabled flags")
}

func TestSourcesLoadFailureLeavesSelectorEmpty(t *testing.T) {
	app := testApp()

	model, _ := app.Update(sourcesLoadedMsg{err: errors.New("connection refused")})
	app = model.(*App)

	assert.Empty(t, app.ctrl.Sources())
	assert.Equal(t, StatusWarn, app.statusKind)
}

func TestRefreshDoneTriggersReload(t *testing.T) {
	app := testApp()
	app.refreshing = true
	app.pendingExtra = []string{"https://example.org/feed.xml"}

	model, cmd := app.Update(refreshDoneMsg{})
	app = model.(*App)

	assert.False(t, app.refreshing)
	assert.Nil(t, app.pendingExtra, "extra feeds consumed by a successful refresh")
	assert.True(t, app.ctrl.InFlight(), "reload begins immediately")
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, app.ctrl.Offset(), "reload resets the cursor")
}

func TestRefreshFailureStillReloads(t *testing.T) {
	app := testApp()
	app.refreshing = true
	app.pendingExtra = []string{"https://example.org/feed.xml"}

	model, cmd := app.Update(refreshDoneMsg{err: errors.New("http 502")})
	app = model.(*App)

	assert.Equal(t, StatusWarn, app.statusKind)
	assert.NotNil(t, app.pendingExtra, "extra feeds kept for retry after failure")
	assert.True(t, app.ctrl.InFlight(), "reload happens regardless of outcome")
	assert.NotNil(t, cmd)
}

func TestAutoRefreshStaleTimerGeneration(t *testing.T) {
	app := testApp()
	app.settings.RefreshMins = 5
	app.timerGen = 3

	model, _ := app.Update(autoRefreshMsg{gen: 2})
	app = model.(*App)

	assert.False(t, app.refreshing, "stale tick must not fire a refresh")
	assert.Equal(t, uint64(3), app.timerGen)
}

func TestAutoRefreshSkippedWhileUnfocused(t *testing.T) {
	app := testApp()
	app.settings.RefreshMins = 5
	app.timerGen = 1
	app.focused = false

	model, _ := app.Update(autoRefreshMsg{gen: 1})
	app = model.(*App)

	assert.False(t, app.refreshing, "unfocused client does no background refresh")
	assert.Equal(t, uint64(2), app.timerGen, "timer still re-arms")
}

func TestAutoRefreshFiresWhenFocused(t *testing.T) {
	app := testApp()
	app.settings.RefreshMins = 5
	app.timerGen = 1
	app.focused = true

	model, cmd := app.Update(autoRefreshMsg{gen: 1})
	app = model.(*App)

	assert.True(t, app.refreshing)
	assert.NotNil(t, cmd)
}

func TestFocusMessagesTrackTerminalFocus(t *testing.T) {
	app := testApp()

	model, _ := app.Update(tea.BlurMsg{})
	app = model.(*App)
	assert.False(t, app.focused)

	model, _ = app.Update(tea.FocusMsg{})
	app = model.(*App)
	assert.True(t, app.focused)
}

func TestCachedFallbackOnlyWhenFeedEmpty(t *testing.T) {
	app := testApp()

	cached := []*storage.Article{{Title: "Cached", URL: "https://example.org/c"}}
	model, _ := app.Update(cachedArticlesMsg{articles: cached})
	app = model.(*App)
	assert.Len(t, app.articles, 1)
	assert.Equal(t, MsgOffline, app.status)

	model, _ = app.Update(cachedArticlesMsg{articles: []*storage.Article{
		{Title: "Other", URL: "https://example.org/o"},
	}})
	app = model.(*App)
	assert.Equal(t, "Cached", app.articles[0].Title, "fallback never overwrites a live feed")
}

func TestBuildArticleMarkdownSanitizes(t *testing.T) {
	published := testArticleTime()
	article := &storage.Article{
		Title:       "Hello\x1b[31mWorld",
		URL:         "https://example.org/a",
		SourceTitle: "Habr",
		Summary:     "Some\x07summary",
		PublishedAt: &published,
	}

	md := buildArticleMarkdown(article)
	assert.NotContains(t, md, "\x1b")
	assert.NotContains(t, md, "\x07")
	assert.Contains(t, md, "HelloWorld")
	assert.Contains(t, md, "Somesummary")
	assert.Contains(t, md, "[Read online](https://example.org/a)")
}
