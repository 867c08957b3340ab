// Package tui is the interactive terminal map: a search box, a rasterized
// map with result markers, a detail sheet and route overlay.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/mapview"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/presentation"
)

// Options configures the terminal map.
type Options struct {
	Origin              geo.Coordinate
	BiasRegion          geo.Region
	GuardStaleResponses bool
	CallTimeout         time.Duration
	Styles              presentation.Styles
	// InitialQuery is submitted on start when non-empty.
	InitialQuery string
}

// Model is the bubbletea model. Update is the only place the view state is
// mutated, so it plays the role of the UI thread: provider calls run as
// commands and their results come back as messages in arrival order.
type Model struct {
	state    *mapview.ViewState
	searcher mapview.Searcher
	router   mapview.Router
	logger   *zap.Logger
	opts     Options
	keys     keyMap

	input   textinput.Model
	spinner spinner.Model

	searchGen uint64
	routeGen  uint64
	searching int
	routing   int

	// Camera animation. shown is what is drawn; target is the state's camera.
	shown     orb.Bound
	target    orb.Bound
	animFrom  orb.Bound
	animFrame int
	animID    int

	width  int
	height int
}

// New builds the terminal map model.
func New(searcher mapview.Searcher, router mapview.Router, opts Options, logger *zap.Logger) Model {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = presentation.SearchPlaceholder
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.PromptStyle = opts.Styles.Summary
	ti.PlaceholderStyle = opts.Styles.Placeholder
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Route

	state := mapview.NewViewState(opts.Origin, opts.BiasRegion)
	bound := state.Camera().Bound()
	return Model{
		state:    state,
		searcher: searcher,
		router:   router,
		logger:   logger,
		opts:     opts,
		keys:     defaultKeyMap(),
		input:    ti,
		spinner:  sp,
		shown:    bound,
		target:   bound,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if q := strings.TrimSpace(m.opts.InitialQuery); q != "" {
		return func() tea.Msg { return submitMsg{query: q} }
	}
	return textinput.Blink
}

type submitMsg struct {
	query string
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		return m.updateMap(msg)

	case submitMsg:
		m.input.SetValue(msg.query)
		m.input.Blur()
		return m, m.submitSearch(msg.query)

	case searchResultMsg:
		return m, m.applySearch(msg)

	case routeResultMsg:
		return m, m.applyRoute(msg)

	case animationTickMsg:
		return m, m.stepAnimation(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.input.Blur()
		return m, m.submitSearch(m.input.Value())
	case key.Matches(msg, m.keys.Dismiss):
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateMap(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Focus):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Next):
		m.cycleSelection(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycleSelection(-1)
	case key.Matches(msg, m.keys.Current):
		m.state.SelectCurrentLocation()
	case key.Matches(msg, m.keys.Dismiss):
		m.state.ClearSelection()
	case key.Matches(msg, m.keys.Direction):
		return m, m.requestDirections()
	case key.Matches(msg, m.keys.Reset):
		m.state.ResetCamera()
		return m, m.syncCamera()
	}
	return m, nil
}

// State returns a copy of the current view state.
func (m Model) State() mapview.Snapshot {
	return m.state.Snapshot()
}

func (m Model) busy() bool {
	return m.searching > 0 || m.routing > 0
}

func (m *Model) startSpinner(wasBusy bool) tea.Cmd {
	if wasBusy {
		return nil
	}
	return m.spinner.Tick
}

func (m *Model) submitSearch(text string) tea.Cmd {
	m.state.SetSearchText(text)
	query := m.state.BeginSearch()
	m.searchGen++
	// A new search supersedes any route still in flight.
	m.routeGen++
	if query == "" {
		m.state.ApplySearchResults(nil)
		return m.syncCamera()
	}
	wasBusy := m.busy()
	m.searching++
	return tea.Batch(
		searchCmd(m.searcher, query, m.state.BiasRegion(), m.searchGen, m.opts.CallTimeout),
		m.startSpinner(wasBusy),
	)
}

func (m *Model) applySearch(msg searchResultMsg) tea.Cmd {
	m.searching--
	if m.opts.GuardStaleResponses && msg.gen != m.searchGen {
		m.logger.Debug("dropped stale search response", zap.String("query", msg.query))
		return nil
	}
	results := msg.results
	if msg.err != nil {
		m.logger.Warn("search failed, showing no results",
			zap.String("query", msg.query),
			zap.Error(msg.err),
		)
		results = nil
	}
	m.state.ApplySearchResults(results)
	return m.syncCamera()
}

func (m *Model) requestDirections() tea.Cmd {
	dest, ok := m.state.RequestDirections()
	if !ok {
		return nil
	}
	m.routeGen++
	wasBusy := m.busy()
	m.routing++
	return tea.Batch(
		routeCmd(m.router, m.state.Origin(), dest, m.routeGen, m.opts.CallTimeout),
		m.startSpinner(wasBusy),
	)
}

func (m *Model) applyRoute(msg routeResultMsg) tea.Cmd {
	m.routing--
	if m.opts.GuardStaleResponses && msg.gen != m.routeGen {
		m.logger.Debug("dropped stale route response", zap.String("destination", msg.dest.Label()))
		return nil
	}
	route := msg.route
	switch {
	case msg.err != nil:
		m.logger.Warn("route failed, keeping current view",
			zap.String("destination", msg.dest.Label()),
			zap.Error(msg.err),
		)
		route = nil
	case route != nil:
		route.Destination = msg.dest
	}
	m.state.ApplyRoute(route)
	return m.syncCamera()
}

// cycleSelection moves the selection through the result list, wrapping.
func (m *Model) cycleSelection(delta int) {
	results := m.state.Results()
	if len(results) == 0 {
		return
	}
	current := -1
	if sel := m.state.Selection(); sel != nil {
		for i, r := range results {
			if r == *sel {
				current = i
				break
			}
		}
	}
	next := current + delta
	if current < 0 && delta < 0 {
		next = len(results) - 1
	}
	next = (next + len(results)) % len(results)
	if err := m.state.SelectIndex(next); err != nil {
		m.logger.Debug("selection rejected", zap.Error(err))
	}
}

// syncCamera starts an animation toward the state's camera when it asks for
// one, or jumps to it otherwise.
func (m *Model) syncCamera() tea.Cmd {
	camera := m.state.Camera()
	bound := camera.Bound()
	if bound == m.target {
		return nil
	}
	m.target = bound
	m.animID++
	if !camera.Animated {
		m.shown = bound
		return nil
	}
	m.animFrom = m.shown
	m.animFrame = 0
	return animationTick(m.animID)
}

func (m *Model) stepAnimation(msg animationTickMsg) tea.Cmd {
	if msg.id != m.animID {
		return nil
	}
	m.animFrame++
	if m.animFrame >= animationFrames {
		m.shown = m.target
		return nil
	}
	m.shown = geo.Lerp(m.animFrom, m.target, float64(m.animFrame)/animationFrames)
	return animationTick(m.animID)
}

// Animating reports whether a camera transition is in progress.
func (m Model) Animating() bool {
	return m.shown != m.target
}

// View implements tea.Model.
func (m Model) View() string {
	frame := presentation.Build(m.state.Snapshot())
	frame.Camera.Bounds = presentation.BoundsFrom(m.shown)
	frame.Camera.Center = geo.FromPoint(m.shown.Center())

	screen := presentation.RenderWithSearchLine(frame, m.input.View(), m.width, m.height-1, m.opts.Styles)
	return lipgloss.JoinVertical(lipgloss.Left, screen, m.statusLine())
}

func (m Model) statusLine() string {
	var parts []string
	switch {
	case m.searching > 0:
		parts = append(parts, m.spinner.View()+" searching")
	case m.routing > 0:
		parts = append(parts, m.spinner.View()+" routing")
	}
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.opts.Styles.Muted.Render(strings.Join(parts, " · "))
}
