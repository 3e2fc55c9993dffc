package tools

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	tu "github.com/desertthunder/ytaudio/internal/testing"
)

func TestExpand(t *testing.T) {
	t.Run("default downloader", func(t *testing.T) {
		args, err := DefaultDownloader().Expand(map[string]string{
			"url":    "https://youtube.com/watch?v=abc",
			"output": "song.%(ext)s",
			"format": "mp3",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"--extract-audio", "--audio-format", "mp3", "-o", "song.%(ext)s", "--", "https://youtube.com/watch?v=abc"}
		if !slices.Equal(args, want) {
			t.Errorf("expected %v, got %v", want, args)
		}
	})

	t.Run("placeholder inside argument", func(t *testing.T) {
		args, err := DefaultTranscoder().Expand(map[string]string{
			"input":  "https://media.example/a",
			"codec":  "libmp3lame",
			"output": "/tmp/out.mp3",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"-i", "https://media.example/a", "-c:a", "libmp3lame", "file:/tmp/out.mp3", "-y"}
		if !slices.Equal(args, want) {
			t.Errorf("expected %v, got %v", want, args)
		}
	})

	t.Run("values are not re-expanded", func(t *testing.T) {
		args, err := Tool{Path: "echo", Args: []string{"{url}"}}.Expand(map[string]string{"url": "{output}"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if args[0] != "{output}" {
			t.Errorf("expected literal value, got %s", args[0])
		}
	})

	t.Run("missing value", func(t *testing.T) {
		_, err := DefaultResolver().Expand(map[string]string{})
		if !errors.Is(err, ErrUnknownPlaceholder) {
			t.Fatalf("expected ErrUnknownPlaceholder, got %v", err)
		}
		if !strings.Contains(err.Error(), "{url}") {
			t.Errorf("expected placeholder in message, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tc := []struct {
		name  string
		tool  Tool
		names []string
		want  error
	}{
		{"default resolver", DefaultResolver(), []string{"url"}, nil},
		{"no names", Tool{Path: "x", Args: []string{"{anything}"}}, nil, nil},
		{"empty path", Tool{Path: "  "}, nil, ErrNoPath},
		{"unknown placeholder", Tool{Path: "x", Args: []string{"{input}"}}, []string{"url"}, ErrUnknownPlaceholder},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tool.Validate(tt.names...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestName(t *testing.T) {
	if got := (Tool{Path: "/usr/local/bin/yt-dlp"}).Name(); got != "yt-dlp" {
		t.Errorf("expected yt-dlp, got %s", got)
	}
	if got := (Tool{Path: "ffmpeg"}).Name(); got != "ffmpeg" {
		t.Errorf("expected ffmpeg, got %s", got)
	}
}

func TestCommand(t *testing.T) {
	t.Run("runs expanded args", func(t *testing.T) {
		path := tu.FakeTool(t, "echo-args", `echo "$@"`+"\n")
		tool := Tool{Path: path, Args: []string{"-g", "{url}"}}

		cmd, err := tool.CommandContext(context.Background(), map[string]string{"url": "https://youtube.com/watch?v=x"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out, err := cmd.Output()
		if err != nil {
			t.Fatalf("expected command to succeed, got %v", err)
		}
		if got := strings.TrimSpace(string(out)); got != "-g https://youtube.com/watch?v=x" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := (Tool{}).Command(nil); !errors.Is(err, ErrNoPath) {
			t.Errorf("expected ErrNoPath, got %v", err)
		}
	})

	t.Run("missing placeholder", func(t *testing.T) {
		if _, err := DefaultTranscoder().Command(map[string]string{"input": "x"}); !errors.Is(err, ErrUnknownPlaceholder) {
			t.Errorf("expected ErrUnknownPlaceholder, got %v", err)
		}
	})
}
