// Package tui provides the terminal user interface for sourcecheck.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/summary"
	"github.com/wexinc/sourcecheck/internal/tui/components"
	"github.com/wexinc/sourcecheck/internal/tui/styles"
)

// Phase is the screen being shown.
type Phase int

const (
	PhaseLogin Phase = iota
	PhaseMain
	PhaseDetail
)

// FocusedPane indicates which pane of the main screen has focus.
type FocusedPane int

const (
	FocusSources FocusedPane = iota
	FocusSeries
	FocusFilter
)

// Options configures a Model.
type Options struct {
	Explorer *explorer.Explorer
	Catalog  *source.Catalog
	// Cache, when set, is used to reload the catalog after SourcesChangedMsg.
	Cache        *source.Cache
	BaseURL      string
	GridPageSize int
	// Username and Password pre-fill the login form.
	Username string
	Password string
	Context  context.Context
	// SourcesPath is the catalog file reloaded with "r" and by the watcher
	// when Catalog has no path of its own.
	SourcesPath string
	// CatalogErr is why the catalog could not be loaded at startup. The UI
	// then starts with an empty list and reports it on the message line.
	CatalogErr error
}

// Model is the Bubble Tea model for the sourcecheck TUI.
type Model struct {
	// Components
	header       *components.Header
	login        *components.LoginForm
	sources      *components.SourceList
	summaryPanel *components.SummaryPanel
	table        *components.SeriesTable
	filter       *components.TextInput
	detail       *components.DetailView
	progress     *components.Progress
	spinner      *components.Spinner
	statusBar    *components.StatusBar
	helpOverlay  *components.HelpOverlay
	confirmDlg   *components.ConfirmDialog

	// Services
	explorer    *explorer.Explorer
	catalog     *source.Catalog
	cache       *source.Cache
	sourcesPath string
	catalogErr  string
	ctx         context.Context
	send        func(tea.Msg)

	// State
	phase      Phase
	focus      FocusedPane
	searched   source.Source
	busy       bool
	loading    bool
	cancelled  bool
	cancelLoad context.CancelFunc
	loadGen    uint64
	startTime  time.Time
	lastError  string

	width    int
	height   int
	quitting bool
}

// New creates a TUI model on the login screen.
func New(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Catalog == nil {
		opts.Catalog = source.NewCatalog(nil)
	}

	m := &Model{
		header:       components.NewHeader(),
		login:        components.NewLoginForm(),
		sources:      components.NewSourceList(),
		summaryPanel: components.NewSummaryPanel(),
		table:        components.NewSeriesTable(opts.GridPageSize),
		filter:       components.NewTextInput("filter", "Filter"),
		detail:       components.NewDetailView(),
		progress:     components.NewProgress(),
		spinner:      components.NewSpinner(),
		statusBar:    components.NewStatusBar(),
		helpOverlay:  components.NewHelpOverlay(),
		confirmDlg:   components.NewConfirmDialog(),
		explorer:     opts.Explorer,
		catalog:      opts.Catalog,
		cache:        opts.Cache,
		ctx:          opts.Context,
		phase:        PhaseLogin,
		startTime:    time.Now(),
	}

	m.header.SetData(components.HeaderData{
		User:      "-",
		BaseURL:   opts.BaseURL,
		Source:    "-",
		SessionID: m.explorer.Session().ID(),
	})
	m.login.SetCredentials(opts.Username, opts.Password)
	m.filter.SetPlaceholder("name or series ID")
	m.sources.SetSources(m.catalog.All())
	m.sourcesPath = m.catalog.Path()
	if m.sourcesPath == "" {
		m.sourcesPath = opts.SourcesPath
	}
	if opts.CatalogErr != nil {
		m.catalogErr = catalogErrorLine(opts.CatalogErr)
		m.lastError = m.catalogErr
	}
	m.syncChrome()
	return m
}

// SetSender sets the function used to deliver messages from background
// goroutines, normally tea.Program.Send.
func (m *Model) SetSender(send func(tea.Msg)) {
	m.send = send
}

// Phase returns the screen being shown.
func (m *Model) Phase() Phase {
	return m.phase
}

// Focus returns the focused pane of the main screen.
func (m *Model) Focus() FocusedPane {
	return m.focus
}

// Loading reports whether a full load is running.
func (m *Model) Loading() bool {
	return m.loading
}

// LastError returns the error shown on the message line.
func (m *Model) LastError() string {
	return m.lastError
}

// Init is the Bubble Tea initialization function.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.login.Init())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.syncChrome()
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	// Overlays capture key input while visible; other messages still flow.
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.String() == "ctrl+c" {
			return m.quit()
		}
		if m.confirmDlg.IsVisible() {
			return m.confirmDlg.Update(key)
		}
		if m.helpOverlay.IsVisible() {
			return m.helpOverlay.Update(key)
		}
		return m.handleKeyPress(key)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return nil

	case TickMsg:
		m.statusBar.SetElapsedTime(time.Since(m.startTime))
		return tickCmd()

	case spinner.TickMsg:
		return m.spinner.Update(msg)

	case components.LoginSubmitMsg:
		return m.startLogin(msg.Username, msg.Password)

	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case SearchResultMsg:
		m.handleSearchResult(msg)
		return nil

	case LoadProgressMsg:
		if m.loading && msg.Gen == m.loadGen {
			m.progress.SetProgress(msg.Done, msg.Total)
		}
		return nil

	case LoadDoneMsg:
		m.handleLoadDone(msg)
		return nil

	case SourcesChangedMsg:
		m.reloadCatalog()
		return nil

	case components.ConfirmYesMsg:
		return m.handleConfirmYes(msg.Action)

	case components.ConfirmNoMsg:
		if msg.Action == components.ConfirmActionLoad {
			m.explorer.Session().ClearLoadRequest()
			m.statusBar.SetMessage("Load cancelled")
		}
		return nil

	case ErrorMsg:
		m.lastError = msg.Error
		return nil

	case QuitMsg:
		return m.quit()
	}

	if m.phase == PhaseLogin {
		return m.login.Update(msg)
	}
	return nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch m.phase {
	case PhaseLogin:
		return m.login.Update(msg)
	case PhaseDetail:
		return m.handleDetailKey(msg)
	}

	if m.focus == FocusFilter {
		return m.handleFilterKey(msg)
	}

	switch msg.String() {
	case "q":
		if m.loading {
			m.confirmDlg.ShowQuit()
			return nil
		}
		return m.quit()

	case "?":
		m.helpOverlay.Toggle()

	case "esc":
		if m.loading && m.cancelLoad != nil {
			m.cancelled = true
			m.cancelLoad()
			return nil
		}
		m.lastError = ""

	case "tab":
		m.toggleFocus()

	case "L":
		m.confirmDlg.ShowLogout()

	case "r":
		m.reloadCatalog()

	case "l":
		return m.requestLoad()

	case "/":
		if m.hasDetails() {
			m.focus = FocusFilter
			m.sources.SetFocused(false)
			m.table.SetFocused(false)
			m.filter.SetValue(m.explorer.Session().Filter())
			return m.filter.Focus()
		}
		m.statusBar.SetMessage("Load all series before filtering")

	case "enter":
		if m.focus == FocusSeries {
			m.openDetail()
			return nil
		}
		return m.startSearch()

	default:
		if m.focus == FocusSeries {
			return m.table.Update(msg)
		}
		return m.sources.Update(msg)
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "backspace":
		m.phase = PhaseMain
		return nil
	case "q":
		return m.quit()
	case "?":
		m.helpOverlay.Toggle()
		return nil
	}
	return m.detail.Update(msg)
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.applyFilter(m.filter.Value())
		m.endFilter()
		return nil
	case "esc":
		m.filter.Reset()
		m.applyFilter("")
		m.endFilter()
		return nil
	}
	_, cmd := m.filter.Update(msg)
	return cmd
}

func (m *Model) endFilter() {
	m.filter.Blur()
	m.focus = FocusSeries
	m.table.SetFocused(true)
}

func (m *Model) applyFilter(keyword string) {
	sess := m.explorer.Session()
	sess.SetFilter(strings.TrimSpace(keyword))
	filtered := sess.FilteredDetails()
	m.table.SetRows(summary.Rows(filtered))
	if sess.Filter() == "" {
		m.statusBar.SetMessage(fmt.Sprintf("Showing all %s series", summary.FormatCount(len(filtered))))
		return
	}
	m.statusBar.SetMessage(fmt.Sprintf("%s of %s series match %q",
		summary.FormatCount(len(filtered)),
		summary.FormatCount(len(sess.SeriesDetails())),
		sess.Filter()))
}

func (m *Model) toggleFocus() {
	if m.focus == FocusSources && m.hasDetails() {
		m.focus = FocusSeries
	} else {
		m.focus = FocusSources
	}
	m.sources.SetFocused(m.focus == FocusSources)
	m.table.SetFocused(m.focus == FocusSeries)
}

func (m *Model) hasDetails() bool {
	sess := m.explorer.Session()
	return m.searched.ID != "" && sess.DetailsLoadedFor(m.searched.ID)
}

func (m *Model) startLogin(username, password string) tea.Cmd {
	if m.busy {
		return nil
	}
	if username == "" || password == "" {
		m.login.SetError(apperrors.MissingCredentials().Message)
		return nil
	}
	m.busy = true
	m.login.SetBusy(true)
	m.login.SetError("")
	m.statusBar.SetActivity(components.ActivityLoggingIn)

	exp, ctx := m.explorer, m.ctx
	login := func() tea.Msg {
		err := exp.Authenticate(ctx, username, password)
		return LoginResultMsg{Username: username, Err: err}
	}
	return tea.Batch(m.spinner.Start("Authenticating..."), login)
}

func (m *Model) handleLoginResult(msg LoginResultMsg) tea.Cmd {
	m.busy = false
	m.spinner.Stop()
	m.login.SetBusy(false)
	m.header.SetSessionID(m.explorer.Session().ID())

	if msg.Err != nil {
		m.statusBar.SetActivity(components.ActivityFailed)
		m.login.SetError(errorLine(msg.Err))
		return m.login.ClearPassword()
	}

	m.phase = PhaseMain
	m.focus = FocusSources
	m.sources.SetFocused(true)
	m.lastError = m.catalogErr
	m.statusBar.SetActivity(components.ActivityIdle)
	m.statusBar.SetMessage("Logged in as " + msg.Username)
	m.header.SetUser(msg.Username)
	logging.Info("tui login", "username", msg.Username)
	return nil
}

func (m *Model) startSearch() tea.Cmd {
	if m.busy || m.loading {
		return nil
	}
	item := m.sources.SelectedItem()
	if item == nil {
		m.statusBar.SetMessage("No source selected")
		return nil
	}
	src := item.Source

	m.busy = true
	m.lastError = ""
	m.statusBar.SetActivity(components.ActivitySearching)

	exp, ctx := m.explorer, m.ctx
	search := func() tea.Msg {
		sum, err := exp.SearchSource(ctx, src.ID, src.Name)
		return SearchResultMsg{Source: src, Summary: sum, Err: err}
	}
	return tea.Batch(m.spinner.Start("Searching "+src.Name+"..."), search)
}

func (m *Model) handleSearchResult(msg SearchResultMsg) {
	m.busy = false
	m.spinner.Stop()
	m.summaryPanel.SetReport(nil)
	m.table.SetRows(nil)
	m.filter.Reset()
	m.focus = FocusSources
	m.sources.SetFocused(true)
	m.table.SetFocused(false)

	if msg.Err != nil {
		m.searched = source.Source{}
		m.summaryPanel.SetSummary(nil)
		m.statusBar.SetActivity(components.ActivityFailed)
		m.lastError = errorLine(msg.Err)
		return
	}

	m.searched = msg.Source
	m.header.SetSource(msg.Source.Name)
	m.summaryPanel.SetSummary(m.explorer.Session().Summary())
	m.statusBar.SetActivity(components.ActivityIdle)
	m.statusBar.SetMessage(fmt.Sprintf("%s series found for %s",
		summary.FormatCount(msg.Summary.NumSeries), msg.Source.ID))
}

func (m *Model) requestLoad() tea.Cmd {
	if m.busy || m.loading {
		return nil
	}
	sess := m.explorer.Session()
	rows := sess.Summary()
	if len(rows) == 0 {
		m.statusBar.SetMessage("Search a source first")
		return nil
	}
	row := rows[0]
	if row.NumSeries <= 0 {
		m.statusBar.SetMessage("No series to load for " + row.SourceID)
		return nil
	}

	sess.RequestLoad(row.SourceID, row.NumSeries)
	req, decision := m.explorer.Decide(false)
	switch decision {
	case explorer.AlreadyLoaded:
		m.statusBar.SetMessage("Series already loaded for " + req.SourceID)
	case explorer.NeedsConfirmation:
		m.confirmDlg.ShowLoad(req.SourceID, req.Count, m.explorer.WarnThreshold())
	case explorer.ReadyToLoad:
		return m.startLoad(false)
	}
	return nil
}

func (m *Model) startLoad(confirmed bool) tea.Cmd {
	req, ok := m.explorer.Session().PendingLoad()
	if !ok {
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.loadGen++
	gen := m.loadGen
	m.cancelLoad = cancel
	m.cancelled = false
	m.loading = true
	m.lastError = ""
	m.progress.Start(req.SourceID, req.Count)
	m.statusBar.SetActivity(components.ActivityLoading)

	exp, send := m.explorer, m.send
	progress := func(done, total int) {
		if send != nil {
			send(LoadProgressMsg{Gen: gen, Done: done, Total: total})
		}
	}
	return func() tea.Msg {
		res, err := exp.HandleLoadRequest(ctx, confirmed, progress)
		return LoadDoneMsg{Gen: gen, SourceID: req.SourceID, Result: res, Err: err}
	}
}

func (m *Model) handleLoadDone(msg LoadDoneMsg) {
	if msg.Gen != m.loadGen {
		logging.Debug("ignoring stale load result", "source_id", msg.SourceID, "gen", msg.Gen, "current", m.loadGen)
		return
	}
	m.loading = false
	m.progress.Stop()
	if m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}

	switch {
	case apperrors.Is(msg.Err, explorer.ErrConfirmationRequired):
		if req, ok := m.explorer.Session().PendingLoad(); ok {
			m.confirmDlg.ShowLoad(req.SourceID, req.Count, m.explorer.WarnThreshold())
		}
		m.statusBar.SetActivity(components.ActivityIdle)
		return
	case msg.Err != nil && m.cancelled:
		m.statusBar.SetActivity(components.ActivityIdle)
		m.statusBar.SetMessage("Load cancelled")
		m.cancelled = false
		return
	case msg.Err != nil:
		m.statusBar.SetActivity(components.ActivityFailed)
		m.lastError = errorLine(msg.Err)
		return
	case msg.Result == nil:
		m.statusBar.SetActivity(components.ActivityIdle)
		return
	}

	sess := m.explorer.Session()
	m.summaryPanel.SetSummary(sess.Summary())
	m.summaryPanel.SetReport(msg.Result.Report)
	m.table.SetRows(summary.Rows(sess.FilteredDetails()))
	m.focus = FocusSeries
	m.sources.SetFocused(false)
	m.table.SetFocused(true)
	m.statusBar.SetActivity(components.ActivityIdle)
	m.statusBar.SetMessage(fmt.Sprintf("Loaded %s series for %s",
		summary.FormatCount(msg.Result.Stats.ProcessedSeries), msg.SourceID))
}

func (m *Model) openDetail() {
	row, ok := m.table.SelectedRow()
	if !ok {
		return
	}
	meta, ok := summary.Find(m.explorer.Session().SeriesDetails(), row.SeriesID)
	if !ok {
		m.lastError = apperrors.SeriesNotFound(row.SeriesID, m.searched.ID).Error()
		return
	}
	d, ok := summary.BuildDetail(meta)
	if !ok {
		return
	}
	m.detail.SetDetail(d)
	m.phase = PhaseDetail
}

func (m *Model) handleConfirmYes(action components.ConfirmAction) tea.Cmd {
	switch action {
	case components.ConfirmActionLoad:
		return m.startLoad(true)
	case components.ConfirmActionLogout:
		return m.logout()
	case components.ConfirmActionQuit:
		return m.quit()
	}
	return nil
}

func (m *Model) logout() tea.Cmd {
	if m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}
	m.loadGen++
	m.explorer.Logout(m.ctx)

	m.phase = PhaseLogin
	m.focus = FocusSources
	m.loading = false
	m.busy = false
	m.searched = source.Source{}
	m.lastError = ""
	m.progress.Stop()
	m.spinner.Stop()
	m.summaryPanel.SetSummary(nil)
	m.summaryPanel.SetReport(nil)
	m.table.SetRows(nil)
	m.filter.Reset()
	m.header.SetUser("")
	m.header.SetSource("")
	m.header.SetSessionID(m.explorer.Session().ID())
	m.login.SetError("")
	m.statusBar.SetActivity(components.ActivityIdle)
	m.statusBar.SetMessage("Logged out")
	return m.login.ClearPassword()
}

func (m *Model) reloadCatalog() {
	if m.cache == nil {
		return
	}
	cat, err := m.cache.Get(m.sourcesPath)
	if err != nil {
		m.catalogErr = catalogErrorLine(err)
		m.lastError = m.catalogErr
		return
	}
	if m.lastError == m.catalogErr {
		m.lastError = ""
	}
	m.catalogErr = ""
	m.catalog = cat
	m.sources.SetSources(cat.All())
	m.statusBar.SetMessage(fmt.Sprintf("Loaded %d sources", cat.Len()))
}

func (m *Model) quit() tea.Cmd {
	if m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}
	m.quitting = true
	return tea.Quit
}

// syncChrome updates the parts of the screen derived from state.
func (m *Model) syncChrome() {
	loadedID := ""
	if m.searched.ID != "" && m.explorer.Session().DetailsLoadedFor(m.searched.ID) {
		loadedID = m.searched.ID
	}
	m.sources.MarkStates(m.searched.ID, loadedID)

	switch {
	case m.loading:
		m.statusBar.SetShortcuts(components.LoadingShortcuts)
	case m.phase == PhaseLogin:
		m.statusBar.SetShortcuts(components.LoginShortcuts)
	case m.phase == PhaseDetail:
		m.statusBar.SetShortcuts(components.DetailShortcuts)
	case m.focus == FocusFilter:
		m.statusBar.SetShortcuts(components.FilterShortcuts)
	case m.focus == FocusSeries:
		m.statusBar.SetShortcuts(components.SeriesShortcuts)
	default:
		m.statusBar.SetShortcuts(components.SourcesShortcuts)
	}
}

func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.progress.SetWidth(m.width)
	m.login.SetWidth(min(m.width, 80))
	m.confirmDlg.SetSize(min(max(m.width-4, 30), 60))
	m.helpOverlay.SetSize(min(max(m.width-4, 30), 60), m.height)
	m.filter.SetWidth(min(m.width, 60))

	leftWidth := max(m.width/3, 30)
	listHeight := max(min(m.height/3, 12), 3)
	m.sources.SetSize(leftWidth-4, listHeight)
	m.summaryPanel.SetWidth(m.width - leftWidth)
	m.table.SetSize(m.width, max(m.height-listHeight-9, 5))
	m.detail.SetSize(m.width, max(m.height-3, 3))
}

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var b strings.Builder
	b.WriteString(m.header.View())
	b.WriteString("\n")

	switch m.phase {
	case PhaseLogin:
		body := m.login.View()
		if m.spinner.Active() {
			body += "\n" + m.spinner.View()
		}
		if m.width > 0 && m.height > 3 {
			body = lipgloss.Place(m.width, m.height-3, lipgloss.Center, lipgloss.Center, body)
		}
		b.WriteString(body)
		b.WriteString("\n")
	case PhaseDetail:
		b.WriteString(m.detail.View())
		b.WriteString("\n")
	default:
		b.WriteString(m.mainView())
	}

	if m.lastError != "" {
		b.WriteString(styles.ErrorTextStyle.Render("Error: " + m.lastError))
		b.WriteString("\n")
	}
	b.WriteString(m.statusBar.View())

	view := b.String()
	if m.helpOverlay.IsVisible() {
		view = m.renderOverlay(view, m.helpOverlay.View())
	}
	if m.confirmDlg.IsVisible() {
		view = m.renderOverlay(view, m.confirmDlg.View())
	}
	return view
}

func (m *Model) mainView() string {
	var b strings.Builder

	if m.progress.Active() {
		b.WriteString(m.progress.View())
		b.WriteString("\n")
	}
	if m.spinner.Active() {
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}

	listBox := styles.BoxStyle
	if m.focus == FocusSources {
		listBox = styles.FocusedBoxStyle
	}
	if m.width > 0 {
		listBox = listBox.Width(max(m.width/3, 30) - 2)
	}
	list := listBox.Render(styles.SectionTitleStyle.Render("Sources") + "\n" + m.sources.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, m.summaryPanel.View()))
	b.WriteString("\n")

	if m.hasDetails() {
		if m.focus == FocusFilter {
			b.WriteString(m.filter.View())
			b.WriteString("\n")
		} else if kw := m.explorer.Session().Filter(); kw != "" {
			b.WriteString(styles.MutedTextStyle.Render("Filter: " + kw))
			b.WriteString("\n")
		}
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderOverlay(base, overlay string) string {
	if overlay == "" {
		return base
	}
	if m.width == 0 || m.height == 0 {
		return base + "\n" + overlay
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
}

// errorLine renders err as a single line for the message area.
func catalogErrorLine(err error) string {
	return "Could not load sources: " + errorLine(err)
}

func errorLine(err error) string {
	var ae *apperrors.AppError
	if apperrors.As(err, &ae) && ae.Suggestion != "" {
		first, _, _ := strings.Cut(ae.Suggestion, "\n")
		return ae.Error() + " (" + first + ")"
	}
	return err.Error()
}
