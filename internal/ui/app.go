package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"rwscout/internal/aggregate"
	"rwscout/internal/catalog"
	"rwscout/internal/model"
	"rwscout/internal/session"
	"rwscout/internal/util"
)

// Options wires the TUI to its collaborators.
type Options struct {
	// Load fetches the catalog. It is called at startup and on retry.
	Load func(ctx context.Context) (*catalog.Store, error)
	// Runner probes restaurants. Usually an *aggregate.Orchestrator.
	Runner session.Runner

	Policy    model.FailedPolicy
	Date      string
	PartySize int
	Logger    *zap.Logger
	// PrefsPath is where table layout is remembered. Empty disables it.
	PrefsPath string
}

// runEventMsg carries one event of an availability run.
type runEventMsg struct {
	run   *aggregate.Run
	event aggregate.Event
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *zap.Logger

	screen model.Screen
	mode   model.Mode
	gState GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool
	columnJump  bool
	loading     bool

	vocabulary model.FilterVocabulary
	session    *session.Controller

	// Screen models
	restaurants      *RestaurantsModel
	restaurantDetail *RestaurantDetailModel
	filters          *FiltersModel
	checkForm        *CheckFormModel

	spinner  spinner.Model
	progress progress.Model

	keys       KeyMap
	prefs      UIPreferences
	prefsStore prefsStore
}

// New creates a new root model.
func New(ctx context.Context, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PartySize <= 0 {
		opts.PartySize = session.DefaultPartySize
	}
	if opts.Date == "" {
		opts.Date = util.TodayISO()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = CheckingStyle

	store := prefsStore{path: opts.PrefsPath}
	return Model{
		ctx:        ctx,
		opts:       opts,
		logger:     logger,
		screen:     model.ScreenRestaurants,
		mode:       model.ModeNav,
		gState:     GStateIdle,
		loading:    true,
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		keys:       DefaultKeyMap(),
		prefs:      store.load(),
		prefsStore: store,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadCatalogCmd(m.ctx, m.opts.Load), m.spinner.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/4)
		return m, nil

	case tea.KeyMsg:
		if m.mode == model.ModeNav && m.columnJump {
			switch msg.String() {
			case "esc":
				m.columnJump = false
				m.info = ""
				return m, nil
			}
			if n, err := strconv.Atoi(msg.String()); err == nil {
				m.columnJump = false
				if t := m.activeTable(); t != nil && t.JumpToColumn(n) {
					m.info = fmt.Sprintf("Jumped to column %d", n)
					m.persistTablePrefs()
					return m, nil
				}
				m.info = fmt.Sprintf("Column %d unavailable", n)
				return m, nil
			}
		}

		if msg.String() == "ctrl+c" {
			m.stopCheck()
			return m, tea.Quit
		}

		if key.Matches(msg, m.keys.Help) && m.mode == model.ModeNav {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" || key.Matches(msg, m.keys.Help) {
				m.showingHelp = false
			}
			return m, nil
		}

		if m.mode == model.ModeNav {
			return m.handleNavMode(msg)
		}
		return m.handleInsertMode(msg)

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil

	case model.CatalogLoadedMsg:
		m.loading = false
		m.error = ""
		m.vocabulary = msg.Vocabulary
		m.session = session.New(msg.Restaurants, m.opts.Runner, m.opts.Policy,
			session.WithLogger(m.logger),
			session.WithDate(m.opts.Date),
			session.WithPartySize(m.opts.PartySize),
		)
		m.restaurants = NewRestaurantsModel(m.session.Visible())
		m.restaurants.ApplyPrefs(m.prefs.Restaurants)
		m.info = fmt.Sprintf("Loaded %d restaurants", len(msg.Restaurants))
		return m, nil

	case model.CatalogFailedMsg:
		m.loading = false
		m.error = msg.Err.Error()
		m.logger.Error("catalog load failed", zap.Error(msg.Err))
		return m, nil

	case model.FormCancelledMsg:
		m.mode = model.ModeNav
		m.screen = model.ScreenRestaurants
		m.filters = nil
		m.checkForm = nil
		return m, nil

	case model.CriteriaSubmittedMsg:
		return m.applyCriteria(msg.Criteria)

	case model.CheckSubmittedMsg:
		return m.applyCheckSettings(msg)

	case runEventMsg:
		return m.handleRunEvent(msg)

	case spinner.TickMsg:
		if !m.loading && !m.running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.restaurants != nil {
			m.restaurants.SetSpinner(m.spinner.View())
		}
		return m, cmd

	default:
		if m.mode == model.ModeInsert {
			return m.handleInsertMode(msg)
		}
	}

	return m, nil
}

// activeTable returns the table on screen, if any.
func (m Model) activeTable() tableController {
	if m.screen == model.ScreenRestaurants && m.restaurants != nil {
		return m.restaurants
	}
	return nil
}

func (m Model) running() bool {
	return m.session != nil && m.session.RunState() == model.RunRunning
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height, m.opts.Policy)
	}

	var content string
	var breadcrumbParts []string

	showStrip := m.screen == model.ScreenRestaurants && m.session != nil

	// Header: 1 line, Footer: 1 line, availability strip: 2 lines
	contentHeight := m.height - 4
	if showStrip {
		contentHeight -= 2
	}
	if m.error != "" {
		contentHeight--
	}
	if m.info != "" {
		contentHeight--
	}
	contentHeight = max(0, contentHeight)

	switch m.screen {
	case model.ScreenRestaurants:
		breadcrumbParts = []string{"Restaurants"}
		switch {
		case m.loading:
			content = EmptyStateStyle.Render(m.spinner.View() + " Loading restaurants...")
		case m.session == nil:
			content = EmptyStateStyle.Render("Catalog unavailable.\n\nPress  R  to retry or  q  to quit.")
		case m.restaurants != nil:
			content = m.restaurants.View(m.width, contentHeight, m.listSummary())
		}
	case model.ScreenRestaurantDetail:
		breadcrumbParts = []string{"Restaurants", "Detail"}
		if m.restaurantDetail != nil {
			breadcrumbParts = []string{"Restaurants", m.restaurantDetail.restaurant.Name}
			content = m.restaurantDetail.View(m.width, contentHeight)
		}
	case model.ScreenFilters:
		breadcrumbParts = []string{"Restaurants", "Filters"}
		if m.filters != nil {
			content = m.filters.View(m.width, contentHeight)
		}
	case model.ScreenCheckForm:
		breadcrumbParts = []string{"Restaurants", "Check"}
		if m.checkForm != nil {
			content = m.checkForm.View(m.width, contentHeight)
		}
	}

	header := m.renderHeader(breadcrumbParts)
	footer := RenderHelp(m.screen, m.mode, m.running(), m.width)

	// Ensure content fills the available height to anchor footer at bottom
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	parts := []string{header}
	if showStrip {
		parts = append(parts, m.renderAvailabilityStrip())
	}
	if m.error != "" {
		parts = append(parts, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		parts = append(parts, SuccessStyle.Width(m.width).Render(m.info))
	}
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) listSummary() string {
	base := len(m.session.Base())
	shown := len(m.session.Visible())
	total := len(m.session.Catalog())
	s := fmt.Sprintf("%d shown", shown)
	if shown != base {
		s += fmt.Sprintf(" of %d", base)
	}
	if base != total {
		s += fmt.Sprintf("  ·  %d in catalog", total)
	}
	if n := m.session.Criteria().Active(); n > 0 {
		s += fmt.Sprintf("  ·  %d filters", n)
	}
	return s
}

// renderAvailabilityStrip shows the toggles and the run's progress.
func (m Model) renderAvailabilityStrip() string {
	avail := m.session.Availability()
	toggle := func(label string, on bool) string {
		if on {
			return ToggleOnStyle.Render(label)
		}
		return ToggleOffStyle.Render(label)
	}
	toggles := []string{
		toggle("1 available "+avail.TimeFrom+"–"+avail.TimeTo, avail.Available),
		toggle("2 not available", avail.NotAvailable),
		toggle("3 unchecked", avail.Unchecked),
	}
	if avail.Policy == model.FailedSeparate {
		toggles = append(toggles, toggle("4 errored", avail.Errored))
	}
	toggleLine := lipgloss.JoinHorizontal(lipgloss.Left, toggles...)

	return lipgloss.JoinVertical(lipgloss.Left,
		toggleLine,
		ProgressStyle.Width(m.width).Render(m.progressLine()),
	)
}

func (m Model) progressLine() string {
	p := m.session.Progress()
	switch m.session.RunState() {
	case model.RunRunning:
		return fmt.Sprintf("%s Checking %d/%d  ·  %d with slots  ·  %d failed  %s",
			m.spinner.View(), p.Completed, p.Total, p.WithSlots, p.Failed, m.progress.ViewAs(p.Fraction()))
	case model.RunCompleted:
		return AvailableStyle.Render(fmt.Sprintf("✓ Checked %d  ·  %d with slots  ·  %d failed", p.Total, p.WithSlots, p.Failed))
	case model.RunCancelled:
		return ErroredStyle.Render(fmt.Sprintf("Stopped at %d/%d  ·  %d with slots", p.Completed, p.Total, p.WithSlots))
	default:
		base := m.session.Base()
		eligible := len(aggregate.Eligible(base))
		return HelpDescStyle.Render(fmt.Sprintf("Press r to check %d of %d restaurants with online booking", eligible, len(base)))
	}
}

func (m Model) renderHeader(breadcrumbParts []string) string {
	title := HeaderStyle.Render("rwscout")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	date, party := m.opts.Date, m.opts.PartySize
	if m.session != nil {
		date, party = m.session.Date(), m.session.PartySize()
	}
	right := BreadcrumbStyle.Render(fmt.Sprintf("%s  ·  party of %d", util.FormatDateHuman(date), party)) + "  "

	padding := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	headerContent := left + strings.Repeat(" ", padding) + right
	return TitleStyle.Width(m.width).Render(headerContent)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if t := m.activeTable(); t != nil {
		switch {
		case key.Matches(msg, m.keys.NextColumn):
			t.NextColumn()
			m.persistTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.PrevColumn):
			t.PrevColumn()
			m.persistTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.ColumnJump):
			m.columnJump = true
			m.info = "Jump to column: press 1-8 (esc to cancel)"
			return m, nil
		case key.Matches(msg, m.keys.SortAsc):
			t.SortActiveColumn(false)
			m.info = "Sorted ascending"
			m.persistTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.SortDesc):
			t.SortActiveColumn(true)
			m.info = "Sorted descending"
			m.persistTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.HideColumn):
			if t.HideActiveColumn() {
				m.info = "Column hidden"
				m.persistTablePrefs()
			} else {
				m.info = "Cannot hide last visible column"
			}
			return m, nil
		case key.Matches(msg, m.keys.ShowColumns):
			t.ShowAllColumns()
			m.info = "All columns shown"
			m.persistTablePrefs()
			return m, nil
		case key.Matches(msg, m.keys.FilterValue):
			if t.FilterBySelectedValue() {
				m.info = "Showing rows matching the selected value"
			} else {
				m.info = "No filterable value in selected cell"
			}
			return m, nil
		case key.Matches(msg, m.keys.ClearFilter):
			if t.ClearFilter() {
				m.info = "Value filter cleared"
			}
			return m, nil
		}
	}

	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		if m.screen == model.ScreenRestaurants && m.restaurants != nil {
			m.restaurants.JumpToTop()
		}
		return m, nil
	}
	m.gState = GStateIdle

	switch m.screen {
	case model.ScreenRestaurants:
		return m.handleRestaurantsNav(msg)
	case model.ScreenRestaurantDetail:
		return m.handleRestaurantDetailNav(msg)
	}

	return m, nil
}

// handleInsertMode routes input to the open form.
func (m Model) handleInsertMode(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.screen {
	case model.ScreenFilters:
		if m.filters != nil {
			newForm, cmd := m.filters.Update(keyMsg)
			m.filters = &newForm
			return m, cmd
		}
	case model.ScreenCheckForm:
		if m.checkForm != nil {
			newForm, cmd := m.checkForm.Update(keyMsg)
			m.checkForm = &newForm
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleRestaurantsNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.stopCheck()
		return m, tea.Quit
	}
	if m.session == nil {
		if key.Matches(msg, m.keys.Retry) && !m.loading {
			m.loading = true
			m.error = ""
			return m, tea.Batch(loadCatalogCmd(m.ctx, m.opts.Load), m.spinner.Tick)
		}
		return m, nil
	}

	r := m.restaurants
	switch {
	case key.Matches(msg, m.keys.Down):
		r.MoveDown()
	case key.Matches(msg, m.keys.Up):
		r.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		r.JumpToBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		r.HalfPageDown(m.height / 2)
	case key.Matches(msg, m.keys.HalfPageUp):
		r.HalfPageUp(m.height / 2)
	case key.Matches(msg, m.keys.Open):
		if sel, ok := r.Selected(); ok {
			m.restaurantDetail = NewRestaurantDetailModel(sel)
			m.screen = model.ScreenRestaurantDetail
			m.syncDetail()
		}
	case key.Matches(msg, m.keys.Filters):
		m.filters = NewFiltersModel(m.session.Catalog(), m.vocabulary, m.session.Criteria())
		m.mode = model.ModeInsert
		m.screen = model.ScreenFilters
	case key.Matches(msg, m.keys.ClearFilters):
		return m.applyCriteria(model.NewFilterCriteria())
	case key.Matches(msg, m.keys.CheckOptions):
		avail := m.session.Availability()
		m.checkForm = NewCheckFormModel(m.session.Date(), m.session.PartySize(), avail.TimeFrom, avail.TimeTo)
		m.mode = model.ModeInsert
		m.screen = model.ScreenCheckForm
	case key.Matches(msg, m.keys.RunCheck):
		return m.startCheck()
	case key.Matches(msg, m.keys.CancelCheck), msg.String() == "esc":
		if m.running() {
			m.session.CancelCheck()
			m.info = "Stopping check..."
		}
	case key.Matches(msg, m.keys.ToggleAvailable):
		m.session.ToggleAvailable()
		m.refresh()
	case key.Matches(msg, m.keys.ToggleNotAvailable):
		m.session.ToggleNotAvailable()
		m.refresh()
	case key.Matches(msg, m.keys.ToggleUnchecked):
		m.session.ToggleUnchecked()
		m.refresh()
	case key.Matches(msg, m.keys.ToggleErrored):
		if m.session.ToggleErrored() {
			m.refresh()
		} else {
			m.info = "Failed checks are shown with 'unchecked'"
		}
	case key.Matches(msg, m.keys.ClearToggles):
		m.session.ClearToggles()
		m.refresh()
	}
	if len(m.session.Results()) == 0 && m.session.Availability().AnyActive() && msg.String() >= "1" && msg.String() <= "4" {
		m.info = "Availability filters apply after a check (press r)"
	}
	return m, nil
}

func (m Model) handleRestaurantDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = model.ScreenRestaurants
		m.restaurantDetail = nil
		return m, nil
	case key.Matches(msg, m.keys.RunCheck):
		return m.startCheck()
	case key.Matches(msg, m.keys.CancelCheck):
		if m.running() {
			m.session.CancelCheck()
			m.info = "Stopping check..."
		}
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		m.stopCheck()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) applyCriteria(criteria model.FilterCriteria) (tea.Model, tea.Cmd) {
	hadResults := len(m.session.Results()) > 0 || m.running()
	changed := m.session.SetCriteria(criteria)

	m.mode = model.ModeNav
	m.screen = model.ScreenRestaurants
	m.filters = nil
	m.error = ""
	m.refresh()

	switch {
	case changed && hadResults:
		m.info = "Filters changed, availability results cleared"
	case changed:
		m.info = fmt.Sprintf("%d restaurants match", len(m.session.Base()))
	default:
		m.info = "Filters applied, same restaurants listed"
	}
	m.logger.Debug("criteria applied",
		zap.Int("active", criteria.Active()),
		zap.Int("base", len(m.session.Base())),
		zap.Bool("changed", changed),
	)
	return m, nil
}

func (m Model) applyCheckSettings(msg model.CheckSubmittedMsg) (tea.Model, tea.Cmd) {
	if err := m.session.SetDate(msg.Date); err != nil {
		m.error = err.Error()
		return m, nil
	}
	if err := m.session.SetPartySize(msg.PartySize); err != nil {
		m.error = err.Error()
		return m, nil
	}
	if err := m.session.SetWindow(msg.TimeFrom, msg.TimeTo); err != nil {
		m.error = err.Error()
		return m, nil
	}

	m.mode = model.ModeNav
	m.screen = model.ScreenRestaurants
	m.checkForm = nil
	m.error = ""
	m.refresh()

	if msg.Start {
		return m.startCheck()
	}
	m.info = fmt.Sprintf("Checking %s for %d; press r to start", util.FormatDate(msg.Date), msg.PartySize)
	return m, nil
}

func (m Model) startCheck() (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	run, err := m.session.StartCheck(m.ctx)
	if err != nil {
		m.error = err.Error()
		return m, nil
	}
	m.error = ""
	m.info = fmt.Sprintf("Checking %d restaurants for %s, party of %d",
		run.Total, util.FormatDate(m.session.Date()), m.session.PartySize())
	m.refresh()
	return m, tea.Batch(waitForEvent(run), m.spinner.Tick)
}

func (m Model) handleRunEvent(msg runEventMsg) (tea.Model, tea.Cmd) {
	// A superseded run is not re-subscribed; its remaining events are dropped.
	if m.session == nil || !m.session.Tracks(msg.event.Seq) {
		return m, nil
	}
	m.session.Apply(msg.event)
	m.refresh()

	if !msg.event.State.Terminal() {
		return m, waitForEvent(msg.run)
	}

	p := msg.event.Progress
	switch msg.event.State {
	case model.RunCompleted:
		m.info = fmt.Sprintf("Check complete: %d of %d have open tables", p.WithSlots, p.Total)
	case model.RunCancelled:
		m.info = fmt.Sprintf("Check stopped after %d of %d", p.Completed, p.Total)
	}
	return m, nil
}

// refresh pushes the session's visible list and results into the screen models.
func (m *Model) refresh() {
	if m.session == nil || m.restaurants == nil {
		return
	}
	avail := m.session.Availability()
	m.restaurants.SetResults(m.session.Results(), avail.TimeFrom, avail.TimeTo)
	m.restaurants.SetRows(m.session.Visible())
	m.syncDetail()
}

func (m *Model) syncDetail() {
	if m.restaurantDetail == nil || m.session == nil {
		return
	}
	avail := m.session.Availability()
	o, checked := m.session.Outcome(m.restaurantDetail.restaurant.ID)
	m.restaurantDetail.SetOutcome(o, checked, m.session.Date(), m.session.PartySize(), avail.TimeFrom, avail.TimeTo)
}

func (m *Model) stopCheck() {
	if m.running() {
		m.session.CancelCheck()
	}
}

func (m *Model) persistTablePrefs() {
	if m.restaurants == nil {
		return
	}
	m.prefs.Restaurants = m.restaurants.Prefs()
	if err := m.prefsStore.save(m.prefs); err != nil {
		m.logger.Debug("failed to save ui prefs", zap.Error(err))
	}
}

// Commands

func loadCatalogCmd(ctx context.Context, load func(context.Context) (*catalog.Store, error)) tea.Cmd {
	return func() tea.Msg {
		if load == nil {
			return model.CatalogFailedMsg{Err: model.ErrCatalogUnavailable}
		}
		store, err := load(ctx)
		if err != nil {
			return model.CatalogFailedMsg{Err: err}
		}
		return model.CatalogLoadedMsg{
			Restaurants: store.Restaurants(),
			Vocabulary:  store.Vocabulary(),
		}
	}
}

// waitForEvent reads the next event of run. A closed channel yields no message.
func waitForEvent(run *aggregate.Run) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-run.Events()
		if !ok {
			return nil
		}
		return runEventMsg{run: run, event: ev}
	}
}
