package tui

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jsokolov/newsdeck/internal/config"
	"github.com/jsokolov/newsdeck/internal/debuglog"
	"github.com/jsokolov/newsdeck/internal/storage"
)

// Filter form slots, in tab order. The period slot cycles with space
// instead of accepting text.
const (
	filterFieldKeyword = iota
	filterFieldPeriod
	filterFieldFrom
	filterFieldTo
	filterFieldRefresh
)

type KeyHandler struct {
	app      *App
	cfg      *config.Config
	modifier string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, cfg: cfg, modifier: cfg.Keys.Modifier + "+"}
}

// is reports whether key matches a configured binding, either bare or with
// the configured modifier.
func (kh *KeyHandler) is(key, binding string) bool {
	return binding != "" && (key == binding || key == kh.modifier+binding)
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	b := kh.cfg.Keys.Bindings
	switch {
	case key == "ctrl+c" || kh.is(key, b.Quit):
		return kh.app, tea.Quit
	case key == "esc" || kh.is(key, b.Back):
		return kh.navigateBack()
	case kh.is(key, b.Theme):
		return kh.toggleTheme()
	case kh.is(key, b.Help):
		kh.app.showHelp = !kh.app.showHelp
		return kh.app, nil
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	a := kh.app
	switch a.view {
	case ViewFilters:
		return a.keywordInput.Focused() || a.fromInput.Focused() ||
			a.toInput.Focused() || a.refreshInput.Focused()
	case ViewSearch:
		return a.searchInput.Focused()
	case ViewExtraRSS:
		return a.rssInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		return kh.navigateBack()
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "down":
		switch a.view {
		case ViewFilters:
			kh.cycleFilterFocus(1)
			return a, nil
		case ViewSearch:
			if len(a.searchList.Items()) > 0 {
				a.searchInput.Blur()
				a.searchList.Select(0)
			}
			return a, nil
		}
		return kh.delegateToTextInput(msg)
	case "shift+tab", "up":
		if a.view == ViewFilters {
			kh.cycleFilterFocus(-1)
			return a, nil
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app

	switch a.view {
	case ViewFilters:
		return a, kh.applyFilters()

	case ViewSearch:
		if items := a.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(articleItem); ok {
				return kh.openReader(i.article, true)
			}
		}
		return a, nil

	case ViewExtraRSS:
		input := strings.TrimSpace(a.rssInput.Value())
		if input == "" || a.checkingFeed {
			return a, nil
		}
		a.checkingFeed = true
		a.setStatus(MsgCheckingFeed, StatusInfo)
		return a, a.checkExtraFeed(input)

	default:
		return a, nil
	}
}

func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch a.view {
	case ViewFilters:
		var cmd tea.Cmd
		switch a.filterFocus {
		case filterFieldKeyword:
			a.keywordInput, cmd = a.keywordInput.Update(msg)
		case filterFieldFrom:
			a.fromInput, cmd = a.fromInput.Update(msg)
		case filterFieldTo:
			a.toInput, cmd = a.toInput.Update(msg)
		case filterFieldRefresh:
			a.refreshInput, cmd = a.refreshInput.Update(msg)
		}
		return a, cmd

	case ViewSearch:
		prev := a.searchInput.Value()
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		query := strings.TrimSpace(a.searchInput.Value())
		if query != prev {
			if len(query) >= 2 {
				return a, tea.Batch(cmd, a.searchLocal(query))
			}
			a.searchList.SetItems(nil)
		}
		return a, cmd

	case ViewExtraRSS:
		var cmd tea.Cmd
		a.rssInput, cmd = a.rssInput.Update(msg)
		return a, cmd

	default:
		return a, nil
	}
}

func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedKeys(key)
	case ViewSources:
		return kh.handleSourcesKeys(key)
	case ViewFilters:
		return kh.handleFiltersKeys(key)
	case ViewReader:
		return kh.handleReaderKeys(key)
	case ViewSearch:
		return kh.handleSearchKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	b := kh.cfg.Keys.Bindings

	switch {
	case kh.is(key, b.Refresh):
		if a.busy() {
			return a, nil, true
		}
		return a, a.triggerRefresh(), true

	case kh.is(key, b.Reload):
		if a.busy() {
			return a, nil, true
		}
		return a, a.beginFeedLoad(false), true

	case kh.is(key, b.LoadMore):
		if a.busy() || !a.ctrl.HasMore() {
			return a, nil, true
		}
		return a, a.beginFeedLoad(true), true

	case kh.is(key, b.Sources):
		a.previousView = a.view
		a.sourceCursor = 0
		a.view = ViewSources
		return a, nil, true

	case kh.is(key, b.Filters):
		kh.openFilters()
		return a, nil, true

	case kh.is(key, b.Search):
		return kh.enterSearch()

	case kh.is(key, b.ExtraFeed):
		a.previousView = a.view
		a.view = ViewExtraRSS
		a.rssInput.Focus()
		return a, nil, true

	case kh.is(key, b.Open):
		if i, ok := a.feedList.SelectedItem().(articleItem); ok && i.article.URL != "" {
			return a, a.openURL(i.article.URL), true
		}
		return a, nil, true

	case key == "enter":
		if i, ok := a.feedList.SelectedItem().(articleItem); ok {
			model, cmd := kh.openReader(i.article, false)
			return model, cmd, true
		}
		return a, nil, true

	case key == "x":
		if len(a.articles) == 0 && !a.busy() {
			a.settings = a.ctrl.ResetFilters(a.settings)
			return a, tea.Batch(a.persistSettings(), a.beginFeedLoad(false)), true
		}
		return a, nil, false
	}

	return a, nil, false
}

func (kh *KeyHandler) handleSourcesKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	sources := a.ctrl.Sources()

	switch key {
	case "up", "k":
		if a.sourceCursor > 0 {
			a.sourceCursor--
		}
		return a, nil, true
	case "down", "j":
		if a.sourceCursor < len(sources)-1 {
			a.sourceCursor++
		}
		return a, nil, true
	case " ", "enter":
		if a.sourceCursor < len(sources) {
			a.ctrl.Toggle(sources[a.sourceCursor].Key)
			return a, kh.persistSelection(), true
		}
		return a, nil, true
	case "a":
		a.ctrl.ToggleAll()
		return a, kh.persistSelection(), true
	}

	return a, nil, false
}

func (kh *KeyHandler) handleFiltersKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	// Only reachable when the period slot holds focus; the text inputs
	// are handled in text input mode.
	switch key {
	case "tab", "down":
		kh.cycleFilterFocus(1)
		return a, nil, true
	case "shift+tab", "up":
		kh.cycleFilterFocus(-1)
		return a, nil, true
	case " ", "right", "l":
		a.periodChoice = nextPeriod(a.periodChoice, 1)
		return a, nil, true
	case "left", "h":
		a.periodChoice = nextPeriod(a.periodChoice, -1)
		return a, nil, true
	case "enter":
		return a, kh.applyFilters(), true
	}

	return a, nil, false
}

func (kh *KeyHandler) handleReaderKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	b := kh.cfg.Keys.Bindings

	switch {
	case kh.is(key, b.Open):
		if a.currentArticle != nil && a.currentArticle.URL != "" {
			return a, a.openURL(a.currentArticle.URL), true
		}
		return a, nil, true
	case kh.is(key, b.Search):
		return kh.enterSearch()
	}

	return a, nil, false
}

func (kh *KeyHandler) handleSearchKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	// Input is blurred here; keys steer the result list.
	switch key {
	case "tab", "/", "i":
		a.searchInput.Focus()
		return a, nil, true
	case "up":
		if len(a.searchList.Items()) > 0 && a.searchList.Index() == 0 {
			a.searchInput.Focus()
			return a, nil, true
		}
	case "enter":
		if i, ok := a.searchList.SelectedItem().(articleItem); ok {
			model, cmd := kh.openReader(i.article, true)
			return model, cmd, true
		}
		return a, nil, true
	}

	return a, nil, false
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd

	switch a.view {
	case ViewFeed:
		a.feedList, cmd = a.feedList.Update(msg)
		return a, cmd
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
		return a, cmd
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	default:
		return a, nil
	}
}

// persistSelection writes the current source selection through to the
// settings record. Every toggle is durable immediately; quitting straight
// from the selector loses nothing.
func (kh *KeyHandler) persistSelection() tea.Cmd {
	a := kh.app
	a.settings.Sources = a.ctrl.SelectedKeys()
	return a.persistSettings()
}

// navigateBack leaves the current view. Leaving the source selector
// reloads the feed from offset zero against the new selection.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app

	switch a.view {
	case ViewSources:
		a.view = ViewFeed
		return a, tea.Batch(kh.persistSelection(), a.beginFeedLoad(false))

	case ViewFilters:
		a.blurFilterInputs()
		a.view = ViewFeed
		return a, nil

	case ViewSearch:
		a.searchInput.Reset()
		a.searchInput.Blur()
		a.searchList.SetItems(nil)
		a.view = ViewFeed
		return a, nil

	case ViewExtraRSS:
		a.rssInput.Blur()
		a.view = ViewFeed
		return a, nil

	case ViewReader:
		if a.cameFromSearch {
			a.cameFromSearch = false
			a.view = ViewSearch
			a.searchInput.Blur()
			return a, nil
		}
		a.view = ViewFeed
		return a, nil

	default:
		return a, tea.Quit
	}
}

func (kh *KeyHandler) enterSearch() (tea.Model, tea.Cmd, bool) {
	a := kh.app
	a.previousView = a.view
	a.view = ViewSearch
	a.searchInput.Reset()
	a.searchInput.Focus()
	a.searchList.SetItems(nil)
	if a.index == nil {
		a.setStatus("Local search index unavailable", StatusWarn)
	}
	return a, nil, true
}

func (kh *KeyHandler) openReader(article *storage.Article, fromSearch bool) (tea.Model, tea.Cmd) {
	a := kh.app
	a.currentArticle = article
	a.cameFromSearch = fromSearch
	a.loadingArticle = true
	a.previousView = a.view
	a.view = ViewReader
	return a, a.renderArticle(article)
}

func (kh *KeyHandler) toggleTheme() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.themeName == storage.ThemeLight {
		a.themeName = storage.ThemeDark
		ApplyPalette(a.cfg.UI.Dark)
	} else {
		a.themeName = storage.ThemeLight
		ApplyPalette(a.cfg.UI.Light)
	}
	a.setStatus(MsgThemeChanged(a.themeName), StatusInfo)

	theme := a.themeName
	return a, func() tea.Msg {
		if err := a.store.SaveTheme(theme); err != nil {
			debuglog.Errorf("saving theme: %v", err)
		}
		return nil
	}
}

func (kh *KeyHandler) openFilters() {
	a := kh.app
	a.keywordInput.SetValue(a.settings.Keyword)
	a.fromInput.SetValue(a.settings.FromDate)
	a.toInput.SetValue(a.settings.ToDate)
	a.refreshInput.SetValue(strconv.Itoa(a.settings.RefreshMins))
	a.periodChoice = a.settings.Period
	if a.periodChoice == "" {
		a.periodChoice = storage.Period24h
	}
	a.filterFocus = filterFieldKeyword
	a.blurFilterInputs()
	a.keywordInput.Focus()
	a.previousView = a.view
	a.view = ViewFilters
}

func (a *App) blurFilterInputs() {
	a.keywordInput.Blur()
	a.fromInput.Blur()
	a.toInput.Blur()
	a.refreshInput.Blur()
}

// filterFields lists the reachable slots; the date inputs only exist for
// the custom period.
func (kh *KeyHandler) filterFields() []int {
	if kh.app.periodChoice == storage.PeriodCustom {
		return []int{filterFieldKeyword, filterFieldPeriod, filterFieldFrom, filterFieldTo, filterFieldRefresh}
	}
	return []int{filterFieldKeyword, filterFieldPeriod, filterFieldRefresh}
}

func (kh *KeyHandler) cycleFilterFocus(dir int) {
	a := kh.app
	fields := kh.filterFields()

	current := 0
	for i, f := range fields {
		if f == a.filterFocus {
			current = i
			break
		}
	}
	next := (current + dir + len(fields)) % len(fields)
	a.filterFocus = fields[next]

	a.blurFilterInputs()
	switch a.filterFocus {
	case filterFieldKeyword:
		a.keywordInput.Focus()
	case filterFieldFrom:
		a.fromInput.Focus()
	case filterFieldTo:
		a.toInput.Focus()
	case filterFieldRefresh:
		a.refreshInput.Focus()
	}
}

func nextPeriod(period string, dir int) string {
	order := []string{storage.Period24h, storage.PeriodCustom, storage.PeriodAll}
	idx := 0
	for i, p := range order {
		if p == period {
			idx = i
			break
		}
	}
	return order[(idx+dir+len(order))%len(order)]
}

// applyFilters validates the form, merges it into settings, persists, and
// reloads the feed from offset zero. Invalid input keeps the form open.
func (kh *KeyHandler) applyFilters() tea.Cmd {
	a := kh.app

	fromDate := strings.TrimSpace(a.fromInput.Value())
	toDate := strings.TrimSpace(a.toInput.Value())
	if a.periodChoice == storage.PeriodCustom {
		for _, d := range []string{fromDate, toDate} {
			if d == "" {
				continue
			}
			if _, err := time.Parse("2006-01-02", d); err != nil {
				a.setStatus("Dates must be YYYY-MM-DD", StatusError)
				return nil
			}
		}
	}

	refreshMins := 0
	if v := strings.TrimSpace(a.refreshInput.Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.setStatus("Refresh interval must be a non-negative number of minutes", StatusError)
			return nil
		}
		refreshMins = n
	}

	a.settings.Keyword = strings.TrimSpace(a.keywordInput.Value())
	a.settings.Period = a.periodChoice
	// Non-custom periods ignore the date bounds; the stored range is kept
	// so switching back to custom restores it.
	if a.periodChoice == storage.PeriodCustom {
		a.settings.FromDate = fromDate
		a.settings.ToDate = toDate
	}
	a.settings.RefreshMins = refreshMins

	a.blurFilterInputs()
	a.view = ViewFeed

	// Interval changes re-arm the timer; the bumped generation orphans
	// any tick already scheduled.
	a.timerGen++

	return tea.Batch(a.persistSettings(), a.beginFeedLoad(false), a.armTimer())
}

// GetHelpForCurrentView returns the key hints for the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.cfg.Keys.Bindings

	switch kh.app.view {
	case ViewFeed:
		help := []string{
			b.Refresh + ": refresh",
			b.Reload + ": reload",
			b.Sources + ": sources",
			b.Filters + ": filters",
			b.Search + ": search",
			b.ExtraFeed + ": extra feeds",
			b.Theme + ": theme",
		}
		if kh.app.ctrl.HasMore() {
			help = append(help, b.LoadMore+": more")
		}
		return help

	case ViewSources:
		return []string{"space: toggle", "a: toggle all", "esc: apply"}

	case ViewFilters:
		return []string{"tab: next field", "enter: apply", "esc: cancel"}

	case ViewReader:
		return []string{b.Open + ": open in browser", "esc: back"}

	case ViewSearch:
		return []string{"enter: open", "esc: back"}

	case ViewExtraRSS:
		return []string{"enter: check and add", "esc: back"}

	default:
		return nil
	}
}
