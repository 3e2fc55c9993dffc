// package resolver turns a track page URL into a direct media URL by running
// an external resolution tool and reading the URL it prints.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/tools"
)

var (
	ErrToolFailed = errors.New("resolution tool failed")
	ErrNoOutput   = errors.New("resolution tool produced no output")
	ErrNoURL      = errors.New("no media url in resolution output")
)

// mediaLine matches a line consisting of a single https URL.
var mediaLine = regexp.MustCompile(`(?m)^\s*(https://\S+)\s*$`)

type Error struct {
	Kind   error
	Tool   string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Resolver runs Tool once per call. It holds no state between calls.
type Resolver struct {
	Tool   tools.Tool
	Logger *log.Logger
}

// New returns a [Resolver] for tool that logs nowhere.
func New(tool tools.Tool) *Resolver {
	return &Resolver{Tool: tool}
}

// Resolve runs the tool against trackURL and returns the last https URL line
// it printed. Multi-format tools print one URL per stream; the trailing one
// is the audio stream. The URL line need not be the final line: warnings
// printed after it are ignored.
func (r *Resolver) Resolve(ctx context.Context, trackURL string) (string, error) {
	cmd, err := r.Tool.CommandContext(ctx, map[string]string{"url": trackURL})
	if err != nil {
		return "", &Error{Kind: ErrToolFailed, Tool: r.Tool.Name(), Err: err}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if r.Logger != nil {
		r.Logger.Debug("resolving media url", "tool", r.Tool.Path, "url", trackURL)
	}

	if err := cmd.Run(); err != nil {
		return "", &Error{
			Kind:   ErrToolFailed,
			Tool:   r.Tool.Name(),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	return r.pick(stdout.String(), stderr.String())
}

func (r *Resolver) pick(stdout, stderr string) (string, error) {
	if strings.TrimSpace(stdout) == "" {
		return "", &Error{Kind: ErrNoOutput, Tool: r.Tool.Name(), Stderr: strings.TrimSpace(stderr)}
	}

	matches := mediaLine.FindAllStringSubmatch(stdout, -1)
	if len(matches) == 0 {
		return "", &Error{Kind: ErrNoURL, Tool: r.Tool.Name(), Stderr: strings.TrimSpace(stderr)}
	}

	media := matches[len(matches)-1][1]
	if r.Logger != nil {
		r.Logger.Debug("resolved media url", "tool", r.Tool.Name(), "candidates", len(matches))
	}
	return media, nil
}
