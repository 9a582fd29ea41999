package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsokolov/newsdeck/internal/api"
	"github.com/jsokolov/newsdeck/internal/debuglog"
	"github.com/jsokolov/newsdeck/internal/feedcheck"
	"github.com/jsokolov/newsdeck/internal/search"
	"github.com/jsokolov/newsdeck/internal/storage"
)

type initDoneMsg struct {
	settings storage.Settings
	theme    string
}

type indexOpenedMsg struct {
	index *search.Index
	err   error
}

type sourcesLoadedMsg struct {
	sources []*storage.Source
	err     error
}

type feedLoadedMsg struct {
	gen      uint64
	append   bool
	articles []*storage.Article
	err      error
}

type cachedArticlesMsg struct {
	articles []*storage.Article
}

type refreshDoneMsg struct {
	err error
}

type extraFeedMsg struct {
	preview feedcheck.Preview
	err     error
}

type localSearchMsg struct {
	articles []*storage.Article
	err      error
}

type autoRefreshMsg struct {
	gen uint64
}

type articleRenderedMsg struct {
	content string
}

type openDoneMsg struct {
	err error
}

// loadInitial reads persisted state. Everything else waits for initDoneMsg
// so the store is only touched from command goroutines.
func (a *App) loadInitial() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{
			settings: a.store.LoadSettings(),
			theme:    a.store.LoadTheme(),
		}
	}
}

// openIndex opens the local search index. Failure degrades local search,
// nothing else.
func (a *App) openIndex() tea.Cmd {
	return func() tea.Msg {
		idx, err := search.Open(a.store, a.cfg.Database.SearchIndex)
		return indexOpenedMsg{index: idx, err: err}
	}
}

func (a *App) loadSources() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
		defer cancel()
		sources, err := a.client.Sources(ctx)
		return sourcesLoadedMsg{sources: sources, err: err}
	}
}

// fetchFeed performs the articles request for an already-claimed generation.
// Callers must have called Begin first; the query captures the cursor.
func (a *App) fetchFeed(gen uint64, appendPage bool, query api.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
		defer cancel()
		articles, err := a.client.Articles(ctx, query)
		return feedLoadedMsg{gen: gen, append: appendPage, articles: articles, err: err}
	}
}

// cacheAndIndex persists fetched articles for offline use. Best-effort: a
// cache failure is logged and swallowed.
func (a *App) cacheAndIndex(articles []*storage.Article) tea.Cmd {
	index := a.index
	return func() tea.Msg {
		if err := a.store.CacheArticles(articles); err != nil {
			debuglog.Warnf("article cache write failed: %v", err)
		}
		if index != nil {
			index.IndexArticles(articles)
		}
		return nil
	}
}

// loadCached pulls the newest cached articles, used as the fallback feed
// when the backend is unreachable and nothing is on screen yet.
func (a *App) loadCached() tea.Cmd {
	return func() tea.Msg {
		articles, err := a.store.CachedArticles(a.cfg.Feed.PageSize)
		if err != nil {
			debuglog.Warnf("article cache read failed: %v", err)
			return nil
		}
		if len(articles) == 0 {
			return nil
		}
		return cachedArticlesMsg{articles: articles}
	}
}

// pruneCache ages out cached articles past the configured retention.
func (a *App) pruneCache() tea.Cmd {
	return func() tea.Msg {
		n, err := a.store.PruneCache(a.cfg.Feed.CacheRetention)
		if err != nil {
			debuglog.Warnf("pruning article cache: %v", err)
		} else if n > 0 {
			debuglog.Infof("pruned %d cached articles", n)
		}
		return nil
	}
}

// doRefresh POSTs a server-side ingestion request for the selected sources,
// carrying any pending extra RSS URLs.
func (a *App) doRefresh() tea.Cmd {
	req := api.RefreshRequest{
		Sources:        a.ctrl.SelectedKeys(),
		LimitPerSource: a.cfg.Feed.RefreshPerSource,
		ExtraRSS:       a.pendingExtra,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout)
		defer cancel()
		err := a.client.Refresh(ctx, req)
		if err == nil {
			if storeErr := a.store.SetLastRefresh(time.Now()); storeErr != nil {
				debuglog.Warnf("recording refresh time failed: %v", storeErr)
			}
		}
		return refreshDoneMsg{err: err}
	}
}

func (a *App) checkExtraFeed(rawURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Feed.CheckTimeout)
		defer cancel()
		preview, err := a.checker.Check(ctx, rawURL)
		return extraFeedMsg{preview: preview, err: err}
	}
}

func (a *App) searchLocal(query string) tea.Cmd {
	index := a.index
	return func() tea.Msg {
		if index == nil {
			return localSearchMsg{}
		}
		articles, err := index.Search(query, 50)
		return localSearchMsg{articles: articles, err: err}
	}
}

// armTimer schedules the next auto-refresh tick. The caller bumps timerGen
// first; a tick carrying an older generation is stale and dropped, which
// keeps exactly one timer alive across interval changes.
func (a *App) armTimer() tea.Cmd {
	if a.settings.RefreshMins <= 0 {
		return nil
	}
	gen := a.timerGen
	interval := time.Duration(a.settings.RefreshMins) * time.Minute
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return autoRefreshMsg{gen: gen}
	})
}

func (a *App) renderArticle(article *storage.Article) tea.Cmd {
	return func() tea.Msg {
		content := buildArticleMarkdown(article)

		r, err := a.getRenderer()
		if err != nil {
			return articleRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(content)
		if err != nil {
			return articleRenderedMsg{content: "Failed to render article: " + err.Error()}
		}
		return articleRenderedMsg{content: rendered}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return openDoneMsg{err: a.opener.Open(url)}
	}
}
