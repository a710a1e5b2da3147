package ui

import (
	"context"
	"fmt"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/tasks"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackPickView ViewState = iota
	ConfirmView
	BuildView
	ResultView
)

type progressUpdateMsg tasks.ProgressUpdate

type buildCompleteMsg struct {
	result *tasks.BuildResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.BuildEngine
	preview      *tasks.BuildPreview
	opts         tasks.BuildOpts
	width        int
	height       int
	trackList    list.Model
	excluded     map[string]bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.BuildResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model over an already computed preview.
func NewModel(ctx context.Context, engine tasks.BuildEngine, preview *tasks.BuildPreview, opts tasks.BuildOpts) *Model {
	m := &Model{
		ctx:      ctx,
		view:     TrackPickView,
		engine:   engine,
		preview:  preview,
		opts:     opts,
		excluded: make(map[string]bool),
		help:     help.New(),
		keys:     newKeyMap(),
	}

	m.trackList = list.New(m.trackItems(), list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Top %d %s", len(preview.Tracks), preview.Artist.Name)
	m.trackList.SetFilteringEnabled(false)

	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackPickView:
			return m.handlePickKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case buildCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == TrackPickView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.error.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TrackPickView:
		return m.renderPicker()
	case ConfirmView:
		return m.renderConfirm()
	case BuildView:
		return m.renderBuild()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Result returns the completed build, if any, after the program exits.
func (m *Model) Result() (*tasks.BuildResult, error) {
	return m.result, m.err
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			m.excluded[item.track.ID] = !m.excluded[item.track.ID]
			index := m.trackList.Index()
			m.trackList.SetItems(m.trackItems())
			m.trackList.Select(index)
		}
		return m, nil
	case "enter":
		if len(m.pickedTracks()) == 0 {
			return m, nil
		}
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TrackPickView
		return m, nil
	case "y":
		m.view = BuildView
		return m, m.startBuild()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	case "r":
		if m.result != nil && m.result.Playlist != nil {
			// Playlist already exists, nothing to redo.
			return m, tea.Quit
		}
		m.view = TrackPickView
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) trackItems() []list.Item {
	items := make([]list.Item, len(m.preview.Tracks))
	for i, track := range m.preview.Tracks {
		items[i] = trackItem{
			track:    track,
			rank:     i + 1,
			excluded: m.excluded[track.ID],
		}
	}
	return items
}

func (m *Model) pickedTracks() []models.Track {
	picked := make([]models.Track, 0, len(m.preview.Tracks))
	for _, track := range m.preview.Tracks {
		if !m.excluded[track.ID] {
			picked = append(picked, track)
		}
	}
	return picked
}

func (m *Model) startBuild() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	picked := *m.preview
	picked.Tracks = m.pickedTracks()
	progress := m.progressChan

	go func() {
		result, err := m.engine.Publish(m.ctx, &picked, m.opts, progress)
		m.result = result
		m.err = err
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	return func() tea.Msg {
		if progress == nil {
			return buildCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-progress
		if !ok {
			return buildCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPicker() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.enter, m.keys.quit}
	helpView := styles.help.Render(m.help.ShortHelpView(helpKeys))
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	picked := m.pickedTracks()
	name := m.opts.PlaylistName(m.preview.Artist.Name)

	title := styles.title.Render(fmt.Sprintf("Create playlist '%s'?", name))
	info := fmt.Sprintf("\nArtist: %s\nTracks: %d\n", m.preview.Artist.Name, len(picked))
	if dropped := len(m.preview.Tracks) - len(picked); dropped > 0 {
		info += styles.warning.Render(fmt.Sprintf("Excluded: %d", dropped)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := styles.help.Render(m.help.ShortHelpView(helpKeys))

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderBuild() string {
	title := styles.title.Render("Creating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist on Spotify..."
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.error.Render(fmt.Sprintf("Build failed: %v\n\nPress r to go back, q to quit", m.err))
	}

	if m.result == nil || m.result.Playlist == nil {
		return styles.error.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.success.Render("✓ Playlist Created!")
	info := fmt.Sprintf(
		"\nName: %s\nTracks: %d\nURL: %s",
		m.result.Playlist.Name,
		m.result.Playlist.TrackCount,
		m.result.Playlist.URL,
	)

	helpView := styles.help.Render(m.help.ShortHelpView([]key.Binding{m.keys.quit}))

	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
