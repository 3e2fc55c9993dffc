// Package tools describes the external executables the module shells out to.
//
// A [Tool] is an executable path plus an argument template. Arguments may
// contain {name} placeholders which are substituted at call time, so the same
// template can be pointed at yt-dlp, youtube-dl or a fake script in tests.
package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strings"
)

var (
	ErrNoPath             = errors.New("tool path is empty")
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
)

var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// Tool is an external executable and its argument template.
type Tool struct {
	Path string   `toml:"path"`
	Args []string `toml:"args"`
}

// DefaultResolver prints the direct media URL for {url}. The "--" keeps a
// url starting with a dash from being read as an option.
func DefaultResolver() Tool {
	return Tool{Path: "yt-dlp", Args: []string{"-g", "--", "{url}"}}
}

// DefaultDownloader extracts the audio of {url} into {output}.
func DefaultDownloader() Tool {
	return Tool{
		Path: "yt-dlp",
		Args: []string{"--extract-audio", "--audio-format", "{format}", "-o", "{output}", "--", "{url}"},
	}
}

// DefaultTranscoder reads {input} and writes {output}, overwriting it.
func DefaultTranscoder() Tool {
	return Tool{
		Path: "ffmpeg",
		Args: []string{"-i", "{input}", "-c:a", "{codec}", "file:{output}", "-y"},
	}
}

// Name returns the base name of the executable, used in logs and errors.
func (t Tool) Name() string {
	if i := strings.LastIndexAny(t.Path, `/\`); i >= 0 {
		return t.Path[i+1:]
	}
	return t.Path
}

// Validate checks the path is set and, when names are given, that every
// placeholder in the template is one of them.
func (t Tool) Validate(names ...string) error {
	if strings.TrimSpace(t.Path) == "" {
		return ErrNoPath
	}
	if len(names) == 0 {
		return nil
	}

	for _, arg := range t.Args {
		for _, m := range placeholder.FindAllStringSubmatch(arg, -1) {
			if !slices.Contains(names, m[1]) {
				return fmt.Errorf("%w %s in %s arguments", ErrUnknownPlaceholder, m[0], t.Name())
			}
		}
	}
	return nil
}

// Expand substitutes vars into the argument template. Every placeholder must
// have a value; text outside braces is copied untouched.
func (t Tool) Expand(vars map[string]string) ([]string, error) {
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		var missing string
		args[i] = placeholder.ReplaceAllStringFunc(arg, func(m string) string {
			name := m[1 : len(m)-1]
			v, ok := vars[name]
			if !ok && missing == "" {
				missing = m
			}
			return v
		})
		if missing != "" {
			return nil, fmt.Errorf("%w %s in %s argument %q", ErrUnknownPlaceholder, missing, t.Name(), arg)
		}
	}
	return args, nil
}

// Command builds an [exec.Cmd] that is not bound to any context.
func (t Tool) Command(vars map[string]string) (*exec.Cmd, error) {
	if t.Path == "" {
		return nil, ErrNoPath
	}
	args, err := t.Expand(vars)
	if err != nil {
		return nil, err
	}
	return exec.Command(t.Path, args...), nil
}

// CommandContext is like [Tool.Command] but the process is killed when ctx is done.
func (t Tool) CommandContext(ctx context.Context, vars map[string]string) (*exec.Cmd, error) {
	if t.Path == "" {
		return nil, ErrNoPath
	}
	args, err := t.Expand(vars)
	if err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, t.Path, args...), nil
}

// String renders the command line template.
func (t Tool) String() string {
	return strings.TrimSpace(t.Path + " " + strings.Join(t.Args, " "))
}
