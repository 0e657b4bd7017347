package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/config"
	"github.com/five82/coindeck/internal/convert"
	"github.com/five82/coindeck/internal/journal"
	"github.com/five82/coindeck/internal/market"
	"github.com/five82/coindeck/internal/prefs"
	"github.com/five82/coindeck/internal/reconcile"
	"github.com/five82/coindeck/internal/state"
	"github.com/five82/coindeck/internal/view"
)

// View represents the current active view.
type View int

const (
	ViewMarket View = iota
	ViewDetail
	ViewAlerts
	ViewLogs
)

// Favorites toggles favorite flags through the reconcile engine.
type Favorites interface {
	ToggleFavorite(ctx context.Context, id string) reconcile.ToggleResult
	Pending(id string) bool
}

// Refresher triggers out-of-band refreshes and reports the polling cadence.
type Refresher interface {
	RefreshNow(ctx context.Context) (reconcile.RefreshResult, error)
	Interval() time.Duration
}

// History reads locally journaled prices.
type History interface {
	History(ctx context.Context, id string, since time.Time) ([]journal.Point, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	API       coinapi.API
	Store     *state.Store
	Favorites Favorites
	Refresher Refresher
	Journal   History // nil when the journal is disabled
	Config    *config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *zap.Logger
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	api       coinapi.API
	store     *state.Store
	favorites Favorites
	refresher Refresher
	journal   History
	config    *config.Config
	prefs     prefs.Prefs
	prefsPath string
	logger    *zap.Logger
	now       func() time.Time
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	list        view.List
	filter      view.Filter
	selectedRow int
	movers      moversState
	// startSort is the saved sort, applied again on the first committed
	// refresh. Cleared once applied or when the user picks a sort.
	startSort view.SortKey

	// Search
	searchActive bool
	searchInput  textinput.Model

	// Refresh indicator
	spinner    spinner.Model
	refreshing bool

	// Status line
	statusMsg   string
	statusError bool

	exportFormat coinapi.ExportFormat

	detail   detailState
	alerts   alertsState
	logState logState

	modal    Modal
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	p := opts.Prefs
	if p.Theme == "" {
		p = prefs.Default()
	}

	si := textinput.New()
	si.Placeholder = "name or symbol"
	si.CharLimit = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		api:         opts.API,
		store:       store,
		favorites:   opts.Favorites,
		refresher:   opts.Refresher,
		journal:     opts.Journal,
		config:      cfg,
		prefs:       p,
		prefsPath:   opts.PrefsPath,
		logger:      logger.With(zap.String("component", "ui")),
		now:         now,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(p.Theme),
		currentView: ViewMarket,
		list:        view.List{Sticky: cfg.StickySort},
		filter: view.Filter{
			Variation:     view.ParseVariation(p.Variation),
			FavoritesOnly: p.FavoritesOnly,
		},
		searchInput:  si,
		spinner:      sp,
		exportFormat: coinapi.ExportFormat(p.ExportFormat),
		detail:       newDetailState(convert.ParseCurrency(p.Currency)),
		logState:     logState{follow: true},
		refreshing:   opts.Refresher != nil,
	}
	m.applySnapshot(store.Snapshot())
	if sk, ok := view.ParseSortKey(p.Sort); ok && sk != view.SortNone {
		m.list.SortBy(sk)
		m.startSort = sk
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(DefaultUIInterval),
		waitForChangeCmd(m.ctx, m.store),
	}
	if m.refresher != nil {
		cmds = append(cmds, m.spinner.Tick, refreshCmd(m.ctx, m.refresher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.syncPanes()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case storeChangedMsg:
		prev := m.snapshot.LastUpdated
		sort := m.list.Sort()
		id := m.selectedID()
		m.applySnapshot(m.store.Snapshot())
		committed := !m.snapshot.Stale && m.snapshot.LastUpdated.After(prev)
		switch {
		case committed && m.startSort != view.SortNone:
			m.list.SortBy(m.startSort)
			m.startSort = view.SortNone
			m.selectID(id)
		case !committed:
			// Toggles, failures and cache warms keep the current order.
			m.list.SortBy(sort)
			m.selectID(id)
		}
		m.syncPanes()
		cmds := []tea.Cmd{waitForChangeCmd(m.ctx, m.store)}
		if committed {
			cmds = append(cmds, moversCmd(m.ctx, m.api))
		}
		return m, tea.Batch(cmds...)

	case refreshDoneMsg:
		m.refreshing = false
		if msg.err != nil {
			m.setStatus("refresh failed: "+msg.err.Error(), true)
		}
		return m, nil

	case toggleDoneMsg:
		m.handleToggleResult(reconcile.ToggleResult(msg))
		return m, nil

	case moversMsg:
		if msg.err != nil {
			m.logger.Debug("top movers unavailable", zap.Error(msg.err))
			return m, nil
		}
		m.movers = moversState{gainers: msg.gainers, losers: msg.losers}
		return m, nil

	case detailMsg:
		m.handleDetail(msg)
		m.syncPanes()
		return m, nil

	case historyMsg:
		m.handleHistory(msg)
		m.syncPanes()
		return m, nil

	case alertsMsg:
		m.handleAlerts(msg)
		return m, nil

	case alertCreatedMsg:
		if msg.err != nil {
			m.setStatus("create alert failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("alert set: "+describeAlert(msg.alert), false)
		if m.currentView == ViewAlerts {
			return m, listAlertsCmd(m.ctx, m.api)
		}
		return m, nil

	case alertDeletedMsg:
		if msg.err != nil {
			m.setStatus("delete alert failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("alert deleted", false)
		return m, listAlertsCmd(m.ctx, m.api)

	case exportDoneMsg:
		if msg.err != nil {
			m.setStatus("export failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("exported to "+msg.path, false)
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case compareMsg:
		m.handleCompare(msg)
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	// Cursor blink and other input-internal messages.
	var cmd tea.Cmd
	switch {
	case m.searchActive:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case m.detail.amountInput.Focused():
		m.detail.amountInput, cmd = m.detail.amountInput.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.searchActive {
		return m.handleSearchKey(msg)
	}

	if m.currentView == ViewDetail && m.detail.amountInput.Focused() {
		return m.handleAmountKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.logState.contentVersion++
		m.syncPanes()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refresher == nil || m.refreshing {
			return m, nil
		}
		m.refreshing = true
		return m, tea.Batch(m.spinner.Tick, refreshCmd(m.ctx, m.refresher))

	case key.Matches(msg, m.keys.ViewAlerts):
		m.currentView = ViewAlerts
		m.alerts.loading = true
		return m, listAlertsCmd(m.ctx, m.api)

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		m.logState.follow = true
		m.syncPanes()
		return m, readLogsCmd(m.config.Log.Path)

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewMarket
		return m, nil

	case key.Matches(msg, m.keys.ExportFavorites):
		return m, m.exportCmd(coinapi.ScopeFavorites)

	case key.Matches(msg, m.keys.ExportAll):
		return m, m.exportCmd(coinapi.ScopeAll)

	case key.Matches(msg, m.keys.ExportFormat):
		m.exportFormat = coinapi.ExportFormat(ternary(m.exportFormat == coinapi.FormatCSV, string(coinapi.FormatJSON), string(coinapi.FormatCSV)))
		m.prefs.ExportFormat = string(m.exportFormat)
		m.savePrefs()
		m.setStatus("export format: "+string(m.exportFormat), false)
		return m, nil
	}

	switch m.currentView {
	case ViewMarket:
		return m.handleMarketKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewAlerts:
		return m.handleAlertsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

// handleMarketKey processes keyboard input for the market table.
func (m Model) handleMarketKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchActive = true
		m.searchInput.SetValue(m.filter.Search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleVariation):
		m.filter.Variation = m.filter.Variation.Next()
		m.prefs.Variation = string(m.filter.Variation)
		m.savePrefs()
		m.reapply()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFavOnly):
		m.filter.FavoritesOnly = !m.filter.FavoritesOnly
		m.prefs.FavoritesOnly = m.filter.FavoritesOnly
		m.savePrefs()
		m.reapply()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		id := m.selectedID()
		next := m.list.Sort().Next()
		m.list.SortBy(next)
		m.startSort = view.SortNone
		m.prefs.Sort = string(next)
		m.savePrefs()
		m.selectID(id)
		return m, nil

	case key.Matches(msg, m.keys.ToggleFavorite):
		return m, m.toggleSelected()

	case key.Matches(msg, m.keys.Compare):
		asset, ok := m.selectedAsset()
		if !ok || m.api == nil {
			return m, nil
		}
		ctx, api, assets, first := m.ctx, m.api, m.snapshot.Assets, asset.ID
		prompt := newPromptModal(
			"Compare "+asset.DisplayName+" with",
			"Ids or symbols, separated by commas",
			"eth, sol",
			func(value string) tea.Cmd {
				return compareCmd(ctx, api, compareIDs(assets, first, value))
			},
		)
		prompt.input.CharLimit = 80
		m.modal = prompt
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Open):
		asset, ok := m.selectedAsset()
		if !ok {
			return m, nil
		}
		return m, m.openDetail(asset.ID)
	}

	count := m.list.Len()
	if count == 0 {
		return m, nil
	}
	page := maxInt(m.tableRows()/2, 1)
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow = min(m.selectedRow+page, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow = max(m.selectedRow-page, 0)
	}
	return m, nil
}

// handleSearchKey edits the search box. The filter only changes on enter.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searchActive = false
		m.searchInput.Blur()
		m.filter.Search = strings.TrimSpace(m.searchInput.Value())
		m.reapply()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue(m.filter.Search)
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleTick processes the redraw tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, readLogsCmd(m.config.Log.Path))
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot re-derives the table from a new snapshot, keeping the
// selection on the same asset when it is still visible.
func (m *Model) applySnapshot(s state.Snapshot) {
	id := m.selectedID()
	m.snapshot = s
	m.list.Apply(s.Assets, m.filter)
	m.selectID(id)
}

// reapply re-runs the filter over the current snapshot. A filter change
// drops a non-sticky sort, the same as a committed refresh.
func (m *Model) reapply() {
	m.applySnapshot(m.snapshot)
}

func (m *Model) selectID(id string) {
	rows := m.list.Rows()
	if len(rows) == 0 {
		m.selectedRow = 0
		return
	}
	if id != "" {
		if idx := market.IndexByID(rows, id); idx >= 0 {
			m.selectedRow = idx
			return
		}
	}
	if m.selectedRow >= len(rows) {
		m.selectedRow = len(rows) - 1
	}
}

func (m Model) selectedAsset() (market.Asset, bool) {
	rows := m.list.Rows()
	if m.selectedRow < 0 || m.selectedRow >= len(rows) {
		return market.Asset{}, false
	}
	return rows[m.selectedRow], true
}

func (m Model) selectedID() string {
	if a, ok := m.selectedAsset(); ok {
		return a.ID
	}
	return ""
}

func (m *Model) toggleSelected() tea.Cmd {
	if m.favorites == nil {
		return nil
	}
	id := m.selectedID()
	if m.currentView == ViewDetail {
		id = m.detail.id
	}
	if id == "" {
		return nil
	}
	return toggleCmd(m.ctx, m.favorites, id)
}

func (m *Model) handleToggleResult(res reconcile.ToggleResult) {
	name := res.AssetID
	if a, ok := m.store.Lookup(res.AssetID); ok && a.DisplayName != "" {
		name = a.DisplayName
	}
	switch res.Outcome {
	case reconcile.ToggleRolledBack:
		m.logger.Warn("favorite toggle rolled back",
			zap.String("asset", res.AssetID),
			zap.String("op", res.OpID),
			zap.Error(res.Err),
		)
		m.setStatus("could not update favorite for "+name+": "+errText(res.Err), true)
	case reconcile.ToggleConfirmed:
		m.setStatus(ternary(res.Favorite, name+" added to favorites", name+" removed from favorites"), false)
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusError = isErr
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

// syncPanes refreshes viewport sizes and content after data or layout changes.
func (m *Model) syncPanes() {
	if !m.ready {
		return
	}
	m.updateDetailViewport()
	m.updateLogViewport()
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// Messages

type tickMsg time.Time

type storeChangedMsg struct{}

type refreshDoneMsg struct {
	result reconcile.RefreshResult
	err    error
}

type toggleDoneMsg reconcile.ToggleResult

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChangeCmd(ctx context.Context, store *state.Store) tea.Cmd {
	changes := store.Changes()
	return func() tea.Msg {
		select {
		case <-changes:
			return storeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func refreshCmd(ctx context.Context, r Refresher) tea.Cmd {
	return func() tea.Msg {
		res, err := r.RefreshNow(ctx)
		return refreshDoneMsg{result: res, err: err}
	}
}

func toggleCmd(ctx context.Context, f Favorites, id string) tea.Cmd {
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return toggleDoneMsg(f.ToggleFavorite(callCtx, id))
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
