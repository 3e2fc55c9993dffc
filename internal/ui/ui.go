package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ResultListView ViewState = iota
	JobView
	ResultView
)

// Searcher runs the query shown in the picker. Implemented by services.Searcher.
type Searcher interface {
	Search(ctx context.Context, query string) (models.QueryResult, error)
}

// JobStarter starts the selected job. Implemented by [tasks.Supervisor].
type JobStarter interface {
	Start(ctx context.Context, req tasks.JobRequest) (*tasks.Job, error)
}

// ModelOpts contains the dependencies of a [Model].
type ModelOpts struct {
	Searcher Searcher
	Starter  JobStarter
	Query    string
	Format   string // file extension for streamed output, default "mp3"
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	opts    ModelOpts
	width   int
	height  int
	loading bool
	results list.Model
	request tasks.JobRequest
	job     *tasks.Job
	jobErr  error
	err     error
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Format == "" {
		opts.Format = "mp3"
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = fmt.Sprintf("Results for %q", opts.Query)
	results.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    ResultListView,
		opts:    opts,
		loading: true,
		results: results,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the search and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.search())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && m.view != JobView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case ResultListView:
			return m.handleResultListKeys(msg)
		case JobView:
			return m.handleJobKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch data := msg.data.(type) {
	case resultsFetched:
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.results.SetItems(trackItems(data.result))
		return m, nil

	case jobStarted:
		if data.err != nil {
			m.jobErr = data.err
			m.view = ResultView
			return m, nil
		}
		m.job = data.job
		return m, m.waitForJob(data.job)

	case jobFinished:
		m.jobErr = data.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ResultListView:
		return m.renderResultList()
	case JobView:
		return m.renderJob()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Selected returns the highlighted track.
func (m *Model) Selected() (models.TrackRecord, bool) {
	item, ok := m.results.SelectedItem().(trackItem)
	if !ok {
		return models.TrackRecord{}, false
	}
	return item.track, true
}

// State returns the current view.
func (m *Model) State() ViewState { return m.view }

// Err returns the search error, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) handleResultListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case m.loading || m.err != nil:
		return m, nil
	case key.Matches(msg, m.keys.download):
		return m.startJob(models.ModeDownload)
	case key.Matches(msg, m.keys.stream):
		return m.startJob(models.ModeStream)
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// handleJobKeys only allows quitting. A running job keeps running in the
// supervisor until the program exits.
func (m *Model) handleJobKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ResultListView
		m.job = nil
		m.jobErr = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) startJob(mode models.JobMode) (tea.Model, tea.Cmd) {
	track, ok := m.Selected()
	if !ok {
		return m, nil
	}

	output := OutputName(track)
	if mode == models.ModeStream {
		output += "." + m.opts.Format
	}

	m.request = tasks.JobRequest{Mode: mode, URL: track.URL().String(), Output: output}
	m.view = JobView
	return m, tea.Batch(m.spinner.Tick, m.start(m.request))
}

func (m *Model) search() tea.Cmd {
	return func() tea.Msg {
		result, err := m.opts.Searcher.Search(m.ctx, m.opts.Query)
		return resultsFetchedMsg(result, err)
	}
}

func (m *Model) start(req tasks.JobRequest) tea.Cmd {
	return func() tea.Msg {
		job, err := m.opts.Starter.Start(m.ctx, req)
		return jobStartedMsg(job, err)
	}
}

func (m *Model) waitForJob(job *tasks.Job) tea.Cmd {
	return func() tea.Msg {
		return jobFinishedMsg(job, job.Wait(m.ctx))
	}
}

func (m *Model) renderResultList() string {
	if m.loading {
		return fmt.Sprintf("%s Searching for %q...\n\n%s", m.spinner.View(), m.opts.Query, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}
	if len(m.results.Items()) == 0 {
		return fmt.Sprintf("%s\n\n%s", styles.warn.Render(fmt.Sprintf("No results for %q", m.opts.Query)), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	}
	return fmt.Sprintf("%s\n\n%s", m.results.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *Model) renderJob() string {
	verb := "Downloading"
	if m.request.Mode == models.ModeStream {
		verb = "Streaming"
	}

	title := styles.title.Render(fmt.Sprintf("%s %s", verb, m.request.Output))
	status := fmt.Sprintf("%s starting...", m.spinner.View())
	if m.job != nil {
		status = fmt.Sprintf("%s running (pid %d)", m.spinner.View(), m.job.Pid())
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, status, m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.jobErr != nil {
		title := styles.err.Render(fmt.Sprintf("✗ %s failed", m.request.Mode))
		return fmt.Sprintf("%s\n\n%v\n\n%s", title, m.jobErr, helpView)
	}

	title := styles.ok.Render("✓ Done!")
	output := m.request.Output
	if m.job != nil {
		output = m.job.Request.Output
	}
	info := styles.help.Render(fmt.Sprintf("Saved %s", output))
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, info, helpView)
}
