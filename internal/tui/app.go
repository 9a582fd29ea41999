package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jsokolov/newsdeck/internal/api"
	"github.com/jsokolov/newsdeck/internal/browser"
	"github.com/jsokolov/newsdeck/internal/config"
	"github.com/jsokolov/newsdeck/internal/controller"
	"github.com/jsokolov/newsdeck/internal/debuglog"
	"github.com/jsokolov/newsdeck/internal/feedcheck"
	"github.com/jsokolov/newsdeck/internal/search"
	"github.com/jsokolov/newsdeck/internal/storage"
)

type App struct {
	cfg     *config.Config
	store   *storage.Store
	client  *api.Client
	ctrl    *controller.Controller
	checker *feedcheck.Checker
	opener  *browser.Opener
	index   *search.Index

	keyHandler *KeyHandler

	settings  storage.Settings
	themeName string

	feedList    list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model

	// Filter form inputs. filterFocus walks keyword, period, from, to,
	// refresh interval; the period slot is not a text input.
	keywordInput textinput.Model
	fromInput    textinput.Model
	toInput      textinput.Model
	refreshInput textinput.Model
	filterFocus  int
	periodChoice string

	rssInput     textinput.Model
	pendingExtra []string
	checkingFeed bool

	view         View
	previousView View

	sourceCursor   int
	articles       []*storage.Article
	currentArticle *storage.Article
	cameFromSearch bool
	loadingArticle bool

	// loading marks a non-append feed load; the feed pane shows a
	// placeholder instead of stale content.
	loading    bool
	refreshing bool

	focused  bool
	timerGen uint64

	status     string
	statusKind StatusKind
	showHelp   bool

	width  int
	height int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(store *storage.Store, cfg *config.Config) *App {
	feedList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	feedList.Title = "› feed"
	feedList.SetShowStatusBar(false)
	feedList.SetFilteringEnabled(false)
	feedList.SetShowHelp(false)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› local search"
	searchList.SetShowStatusBar(false)
	searchList.SetFilteringEnabled(false)
	searchList.SetShowHelp(false)

	keyword := textinput.New()
	keyword.Placeholder = "keyword…"
	keyword.CharLimit = 128

	from := textinput.New()
	from.Placeholder = "YYYY-MM-DD"
	from.CharLimit = 10

	to := textinput.New()
	to.Placeholder = "YYYY-MM-DD"
	to.CharLimit = 10

	refresh := textinput.New()
	refresh.Placeholder = "minutes (0 = off)"
	refresh.CharLimit = 4

	si := textinput.New()
	si.Placeholder = "Search cached articles…"
	si.CharLimit = 256

	rss := textinput.New()
	rss.Placeholder = "https://example.org/feed.xml"
	rss.CharLimit = 2048

	app := &App{
		cfg:          cfg,
		store:        store,
		client:       api.NewClient(cfg.API.BaseURL, cfg.API.UserAgent, cfg.API.Timeout),
		ctrl:         controller.New(cfg.Feed.PageSize),
		checker:      feedcheck.NewChecker(cfg.Feed.CheckTimeout, cfg.API.UserAgent),
		opener:       browser.NewOpener(""),
		feedList:     feedList,
		searchList:   searchList,
		searchInput:  si,
		keywordInput: keyword,
		fromInput:    from,
		toInput:      to,
		refreshInput: refresh,
		rssInput:     rss,
		viewport:     viewport.New(0, 0),
		view:         ViewFeed,
		previousView: ViewFeed,
		themeName:    storage.ThemeDark,
		periodChoice: storage.Period24h,
		focused:      true,
	}

	// A backend running on localhost usually means a development setup
	// where local feed URLs should be accepted too.
	if strings.Contains(cfg.API.BaseURL, "localhost") || strings.Contains(cfg.API.BaseURL, "127.0.0.1") {
		app.checker.SetPermissiveValidation(true)
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadInitial(), tea.EnterAltScreen)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.feedList.SetSize(msg.Width, msg.Height-3)
		searchListHeight := msg.Height - 10
		if searchListHeight < 5 {
			searchListHeight = 5
		}
		a.searchList.SetSize(msg.Width, searchListHeight)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3

	case tea.FocusMsg:
		a.focused = true

	case tea.BlurMsg:
		a.focused = false

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case initDoneMsg:
		a.settings = msg.settings
		a.themeName = msg.theme
		if a.themeName == storage.ThemeLight {
			ApplyPalette(a.cfg.UI.Light)
		} else {
			ApplyPalette(a.cfg.UI.Dark)
		}
		a.timerGen++
		a.loading = true
		cmds = append(cmds,
			a.openIndex(),
			a.loadSources(),
			a.armTimer(),
			a.pruneCache(),
		)

	case indexOpenedMsg:
		if msg.err != nil {
			debuglog.Warnf("search index unavailable: %v", msg.err)
		} else {
			a.index = msg.index
		}

	case sourcesLoadedMsg:
		if msg.err != nil {
			debuglog.Errorf("loading sources: %v", msg.err)
			a.setStatus(fmt.Sprintf("Sources unavailable: %v", msg.err), StatusWarn)
		} else {
			a.ctrl.SetSources(msg.sources, a.settings)
		}
		// The first feed load waits for the source list so its query
		// carries the saved selection. Without sources it degrades to an
		// unrestricted query.
		cmds = append(cmds, a.beginFeedLoad(false))

	case feedLoadedMsg:
		if msg.err != nil {
			if a.ctrl.Fail(msg.gen) {
				a.loading = false
				debuglog.Errorf("loading articles: %v", msg.err)
				a.setStatus(fmt.Sprintf("Load failed: %v", msg.err), StatusError)
				if len(a.articles) == 0 {
					cmds = append(cmds, a.loadCached())
				}
			}
		} else if a.ctrl.Finish(msg.gen, len(msg.articles)) {
			a.loading = false
			if msg.append {
				a.articles = append(a.articles, msg.articles...)
			} else {
				a.articles = msg.articles
			}
			a.rebuildFeedItems()
			a.setStatus(a.ctrl.Summary(a.settings, len(a.articles)), StatusInfo)
			if len(msg.articles) > 0 {
				cmds = append(cmds, a.cacheAndIndex(msg.articles))
			}
		}

	case cachedArticlesMsg:
		if len(a.articles) == 0 {
			a.articles = msg.articles
			a.rebuildFeedItems()
			a.setStatus(MsgOffline, StatusWarn)
		}

	case refreshDoneMsg:
		a.refreshing = false
		if msg.err != nil {
			debuglog.Errorf("refresh request: %v", msg.err)
			a.setStatus(fmt.Sprintf("Refresh failed: %v", msg.err), StatusWarn)
		} else {
			a.pendingExtra = nil
			a.setStatus("Refresh requested", StatusSuccess)
		}
		// The backend may have ingested new articles either way.
		cmds = append(cmds, a.beginFeedLoad(false))

	case extraFeedMsg:
		a.checkingFeed = false
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Feed rejected: %v", msg.err), StatusError)
		} else {
			pending, err := feedcheck.Append(a.pendingExtra, msg.preview.URL)
			if err != nil {
				a.setStatus(err.Error(), StatusWarn)
			} else {
				a.pendingExtra = pending
				a.rssInput.Reset()
				a.setStatus(MsgFeedAccepted(msg.preview.Title, msg.preview.Items), StatusSuccess)
			}
		}

	case localSearchMsg:
		if a.view == ViewSearch {
			if msg.err != nil {
				a.setStatus(fmt.Sprintf("Search failed: %v", msg.err), StatusError)
				break
			}
			items := make([]list.Item, len(msg.articles))
			for i, art := range msg.articles {
				items[i] = articleItem{article: art}
			}
			a.searchList.SetItems(items)
			a.setStatus(MsgSearchResults(len(msg.articles)), StatusInfo)
		}

	case autoRefreshMsg:
		if msg.gen != a.timerGen {
			break
		}
		a.timerGen++
		cmds = append(cmds, a.armTimer())
		// An unfocused client does no background network activity.
		if a.focused && !a.busy() {
			cmds = append(cmds, a.triggerRefresh())
		}

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case openDoneMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Open failed: %v", msg.err), StatusError)
		}
	}

	switch a.view {
	case ViewFeed:
		newList, cmd := a.feedList.Update(msg)
		a.feedList = newList
		cmds = append(cmds, cmd)
	case ViewReader:
		switch msg.(type) {
		case tea.KeyMsg, tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	case ViewSearch:
		newList, cmd := a.searchList.Update(msg)
		a.searchList = newList
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.viewFeed()
	case ViewSources:
		content = a.viewSources()
	case ViewFilters:
		content = a.viewFilters()
	case ViewReader:
		if a.loadingArticle {
			content = renderCentered(a.width, a.height-3, renderMuted(MsgLoading))
		} else {
			content = a.viewport.View()
		}
	case ViewSearch:
		content = a.viewSearch()
	case ViewExtraRSS:
		content = a.viewExtraRSS()
	}

	statusBar := a.statusBar()
	if statusBar == "" {
		return content
	}

	separatorWidth := a.width - 1
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", separatorWidth+1))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, statusBar)
}

func (a *App) viewFeed() string {
	if a.loading {
		return renderCentered(a.width, a.height-3, renderMuted(MsgLoading))
	}
	if len(a.articles) == 0 {
		empty := lipgloss.JoinVertical(
			lipgloss.Center,
			LogoStyle.Render(CompactLogo),
			"",
			renderMuted(MsgNoResults),
			renderHelp("x: reset filters • r: refresh sources"),
		)
		return renderCentered(a.width, a.height-3, empty)
	}
	return a.feedList.View()
}

func (a *App) viewSources() string {
	sources := a.ctrl.Sources()
	if len(sources) == 0 {
		return renderCentered(a.width, a.height-3,
			renderMuted("No sources loaded — is the backend running?"))
	}

	header := renderHeader("› sources",
		fmt.Sprintf("%d of %d selected", a.ctrl.SelectedCount(), len(sources)), a.width)

	rows := []string{header, ""}
	for i, s := range sources {
		marker := "[ ]"
		if a.ctrl.IsSelected(s.Key) {
			marker = "[x]"
		}
		line := fmt.Sprintf(" %s %s", marker, truncateEnd(sanitizeText(s.Title), a.width-8))
		if i == a.sourceCursor {
			line = SelectedItemStyle.Render(line)
		} else {
			line = ItemTitleStyle.Render(line)
		}
		rows = append(rows, line)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 3).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) viewFilters() string {
	inputWidth := a.width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	a.keywordInput.Width = inputWidth
	a.fromInput.Width = inputWidth
	a.toInput.Width = inputWidth
	a.refreshInput.Width = inputWidth

	periodLine := fmt.Sprintf("period: %s (space to cycle)", periodLabel(a.periodChoice))
	if a.filterFocus == filterFieldPeriod {
		periodLine = SelectedItemStyle.Render(periodLine)
	} else {
		periodLine = ItemTitleStyle.Render(periodLine)
	}

	rows := []string{
		renderHeader("› filters", "", a.width),
		"",
		renderMuted("keyword"),
		renderInputFrame(a.keywordInput.View(), a.filterFocus == filterFieldKeyword, inputWidth),
		"",
		periodLine,
	}

	if a.periodChoice == storage.PeriodCustom {
		rows = append(rows,
			"",
			renderMuted("from"),
			renderInputFrame(a.fromInput.View(), a.filterFocus == filterFieldFrom, inputWidth),
			renderMuted("to"),
			renderInputFrame(a.toInput.View(), a.filterFocus == filterFieldTo, inputWidth),
		)
	}

	rows = append(rows,
		"",
		renderMuted("auto-refresh interval"),
		renderInputFrame(a.refreshInput.View(), a.filterFocus == filterFieldRefresh, inputWidth),
		"",
		renderHelp("tab: next field • enter: apply • esc: cancel"),
	)

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 3).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) viewSearch() string {
	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = a.width - 4
	}
	a.searchInput.Width = inputWidth

	helpText := "↑↓: navigate • enter: open • tab: search box • esc: back"
	if a.searchInput.Focused() {
		helpText = "Type to search cached articles • tab/↓: results • esc: back"
	}

	content := lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› local search", "", a.width),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
		renderHelp(helpText),
		"",
		a.searchList.View(),
	)

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 3).
		MaxHeight(a.height - 3).
		Render(content)
}

func (a *App) viewExtraRSS() string {
	inputWidth := a.width - 8
	if inputWidth < 10 {
		inputWidth = a.width - 4
	}
	a.rssInput.Width = inputWidth

	rows := []string{
		renderHeader("› extra feeds",
			fmt.Sprintf("attached to the next refresh (%d/%d)", len(a.pendingExtra), feedcheck.MaxExtraFeeds),
			a.width),
		"",
		renderInputFrame(a.rssInput.View(), a.rssInput.Focused(), inputWidth),
		renderHelp("enter: check and add • esc: back"),
		"",
	}

	if a.checkingFeed {
		rows = append(rows, renderMuted(MsgCheckingFeed))
	}
	for _, url := range a.pendingExtra {
		rows = append(rows, ItemTitleStyle.Render(" • "+truncateMiddle(url, a.width-6)))
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height - 3).
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) statusBar() string {
	if a.status != "" && !a.showHelp {
		var style lipgloss.Style
		switch a.statusKind {
		case StatusSuccess:
			style = StatusSuccessStyle
		case StatusWarn:
			style = StatusWarnStyle
		case StatusError:
			style = StatusErrorStyle
		default:
			style = StatusInfoStyle
		}
		return StatusBarStyle.Width(a.width).Render(style.Render(a.status))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	if len(commands) == 0 {
		return ""
	}
	return StatusBarStyle.Width(a.width).Render(strings.Join(commands, " • "))
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

func (a *App) busy() bool {
	return a.loading || a.refreshing || a.ctrl.InFlight()
}

// beginFeedLoad claims the pagination guard and fires the fetch. Returns
// nil while another load is in flight — a second trigger is a no-op.
func (a *App) beginFeedLoad(appendPage bool) tea.Cmd {
	gen, ok := a.ctrl.Begin(appendPage)
	if !ok {
		return nil
	}
	if !appendPage {
		a.loading = true
	}
	return a.fetchFeed(gen, appendPage, a.ctrl.BuildQuery(a.settings))
}

// triggerRefresh persists the current settings and requests server-side
// ingestion. No-op while anything is in flight.
func (a *App) triggerRefresh() tea.Cmd {
	if a.refreshing {
		return nil
	}
	a.refreshing = true
	a.setStatus(MsgRefreshing, StatusInfo)
	return tea.Batch(a.persistSettings(), a.doRefresh())
}

func (a *App) persistSettings() tea.Cmd {
	settings := a.settings
	return func() tea.Msg {
		if err := a.store.SaveSettings(settings); err != nil {
			debuglog.Errorf("saving settings: %v", err)
		}
		return nil
	}
}

func (a *App) rebuildFeedItems() {
	items := make([]list.Item, len(a.articles))
	for i, art := range a.articles {
		items[i] = articleItem{article: art}
	}
	a.feedList.SetItems(items)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func periodLabel(period string) string {
	switch period {
	case storage.PeriodCustom:
		return "custom range"
	case storage.PeriodAll:
		return "all time"
	default:
		return "last 24 hours"
	}
}

// buildArticleMarkdown assembles the reader document. All API text crosses
// the sanitizer here.
func buildArticleMarkdown(article *storage.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sanitizeText(article.Title))

	meta := sanitizeText(article.SourceTitle)
	if article.PublishedAt != nil {
		if meta != "" {
			meta += " — "
		}
		meta += article.PublishedAt.Format("Jan 2, 2006 15:04")
	}
	if meta != "" {
		fmt.Fprintf(&b, "*%s*\n\n", meta)
	}

	if article.Reason != "" {
		fmt.Fprintf(&b, "> %s\n\n", sanitizeText(article.Reason))
	}

	if article.URL != "" {
		fmt.Fprintf(&b, "[Read online](%s)\n\n", article.URL)
	}

	b.WriteString("---\n\n")

	if text := sanitizeText(article.Text()); text != "" {
		b.WriteString(text)
	} else {
		b.WriteString("No summary available.")
	}

	return b.String()
}

type articleItem struct {
	article *storage.Article
}

func (i articleItem) Title() string {
	return sanitizeText(i.article.Title)
}

func (i articleItem) Description() string {
	parts := []string{}
	if src := sanitizeText(i.article.SourceTitle); src != "" {
		parts = append(parts, src)
	}
	if i.article.PublishedAt != nil {
		parts = append(parts, i.article.PublishedAt.Format("Jan 2, 15:04"))
	}
	if reason := sanitizeText(i.article.Reason); reason != "" {
		parts = append(parts, truncateEnd(reason, 60))
	}
	return renderMuted(strings.Join(parts, " • "))
}

func (i articleItem) FilterValue() string {
	return sanitizeText(i.article.Title)
}
