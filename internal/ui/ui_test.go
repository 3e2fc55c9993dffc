package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytaudio/internal/extract"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/parser"
	"github.com/desertthunder/ytaudio/internal/process"
	"github.com/desertthunder/ytaudio/internal/tasks"
	tu "github.com/desertthunder/ytaudio/internal/testing"
)

type fakeSearcher struct {
	result models.QueryResult
	err    error
	query  string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (models.QueryResult, error) {
	f.query = query
	return f.result, f.err
}

type fakeStarter struct {
	requests []tasks.JobRequest
	err      error
}

func (f *fakeStarter) Start(_ context.Context, req tasks.JobRequest) (*tasks.Job, error) {
	f.requests = append(f.requests, req)
	return nil, f.err
}

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, string) (string, error) {
	return "https://rr1.googlevideo.com/audio", nil
}

func results(t *testing.T, items ...tu.VideoItem) models.QueryResult {
	t.Helper()
	elements := make([]string, len(items))
	for i, item := range items {
		elements[i] = item.JSON()
	}

	v, err := extract.Extract(tu.SearchPage(elements...))
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	result, err := parser.New("").Parse(v)
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return result
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loaded returns a model that has already received its search results.
func loaded(t *testing.T, searcher *fakeSearcher, starter JobStarter) *Model {
	t.Helper()
	m := NewModel(context.Background(), ModelOpts{Searcher: searcher, Starter: starter, Query: "lofi"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.search()())
	return m
}

func TestOutputName(t *testing.T) {
	tc := []struct {
		name, artist, title, want string
	}{
		{"plain", "Artist", "Song", "Artist - Song"},
		{"path separators", "AC/DC", "Back In Black", "ACDC - Back In Black"},
		{"symbols", "Artist", `Song: "Live" <2019>?`, "Artist - Song Live 2019"},
		{"unicode kept", "Sigur Rós", "Hoppípolla", "Sigur Rós - Hoppípolla"},
		{"collapses spaces", "A  B", "  C ", "A B - C"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			item := tu.NewVideoItem("abc123", tt.title)
			item.Artist = tt.artist
			track := results(t, item).At(0)

			if got := OutputName(track); got != tt.want {
				t.Errorf("OutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackItem(t *testing.T) {
	track := results(t, tu.NewVideoItem("abc123", "Song")).At(0)
	item := trackItem{track: track}

	if item.Title() != "Song" {
		t.Errorf("unexpected title %q", item.Title())
	}
	if item.Description() != "Artist abc123 • 3:45" {
		t.Errorf("unexpected description %q", item.Description())
	}
	if !strings.Contains(item.FilterValue(), "Artist abc123") {
		t.Errorf("filter value should include artist, got %q", item.FilterValue())
	}
}

func TestModel(t *testing.T) {
	t.Run("loads results", func(t *testing.T) {
		searcher := &fakeSearcher{result: results(t, tu.NewVideoItem("a", "One"), tu.NewVideoItem("b", "Two"))}
		m := loaded(t, searcher, &fakeStarter{})

		if searcher.query != "lofi" {
			t.Errorf("expected query lofi, got %q", searcher.query)
		}
		if len(m.results.Items()) != 2 {
			t.Fatalf("expected 2 items, got %d", len(m.results.Items()))
		}
		track, ok := m.Selected()
		if !ok || track.ID() != "a" {
			t.Errorf("expected first track selected, got %v", track.ID())
		}
		if !strings.Contains(m.View(), "One") {
			t.Errorf("expected list view to show titles")
		}
	})

	t.Run("shows search error", func(t *testing.T) {
		m := loaded(t, &fakeSearcher{err: errors.New("boom")}, &fakeStarter{})

		if m.Err() == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(m.View(), "boom") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("empty results", func(t *testing.T) {
		m := loaded(t, &fakeSearcher{result: models.NewQueryResult(nil)}, &fakeStarter{})

		if !strings.Contains(m.View(), `No results for "lofi"`) {
			t.Errorf("unexpected view %q", m.View())
		}
		m.Update(keyPress("enter"))
		if m.State() != ResultListView {
			t.Error("enter without a selection should do nothing")
		}
	})

	t.Run("enter downloads selection", func(t *testing.T) {
		starter := &fakeStarter{err: errors.New("spawn failed")}
		m := loaded(t, &fakeSearcher{result: results(t, tu.NewVideoItem("a", "One"))}, starter)

		m.Update(keyPress("enter"))
		if m.State() != JobView {
			t.Fatalf("expected job view, got %v", m.State())
		}
		m.Update(m.start(m.request)())

		if len(starter.requests) != 1 {
			t.Fatalf("expected 1 start, got %d", len(starter.requests))
		}
		req := starter.requests[0]
		if req.Mode != models.ModeDownload || req.Output != "Artist a - One" || req.URL != "https://youtube.com/watch?v=a" {
			t.Errorf("unexpected request %+v", req)
		}
		if m.State() != ResultView || !strings.Contains(m.View(), "spawn failed") {
			t.Errorf("expected failure result view, got %q", m.View())
		}
	})

	t.Run("s streams selection", func(t *testing.T) {
		m := loaded(t, &fakeSearcher{result: results(t, tu.NewVideoItem("a", "One"))}, &fakeStarter{})

		m.Update(keyPress("s"))
		if m.request.Mode != models.ModeStream || m.request.Output != "Artist a - One.mp3" {
			t.Errorf("unexpected request %+v", m.request)
		}
		if !strings.Contains(m.View(), "Streaming") {
			t.Errorf("expected streaming view, got %q", m.View())
		}
	})

	t.Run("job completes", func(t *testing.T) {
		o := process.New(stubResolver{})
		o.Downloader.Path = tu.FakeTool(t, "yt-dlp", "echo done\nexit 0\n")
		supervisor, err := tasks.NewSupervisor(tasks.SupervisorOpts{Spawner: o, OutputDir: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}

		m := loaded(t, &fakeSearcher{result: results(t, tu.NewVideoItem("a", "One"))}, supervisor)
		m.Update(keyPress("enter"))

		_, cmd := m.Update(m.start(m.request)())
		if m.job == nil {
			t.Fatal("expected job to be set")
		}
		if !strings.Contains(m.View(), "running (pid") {
			t.Errorf("expected running view, got %q", m.View())
		}

		m.Update(cmd())
		if m.State() != ResultView {
			t.Fatalf("expected result view, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Done!") {
			t.Errorf("expected success view, got %q", m.View())
		}

		m.Update(keyPress("r"))
		if m.State() != ResultListView || m.job != nil {
			t.Error("r should return to the result list")
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := loaded(t, &fakeSearcher{result: results(t, tu.NewVideoItem("a", "One"))}, &fakeStarter{})

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
