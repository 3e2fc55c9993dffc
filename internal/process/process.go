// package process spawns the external programs that turn a track into a local
// audio file.
//
// Both operations return as soon as the program has started. The returned
// [Handle] is the only reference to the process; the caller decides whether to
// wait on it, read its output or kill it.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/tools"
)

const (
	DefaultFormat = "mp3"
	DefaultCodec  = "libmp3lame"

	// OutputTemplate is appended to a download base name; the downloader
	// replaces it with the extension of the file it writes.
	OutputTemplate = ".%(ext)s"
)

var ErrSpawnFailed = errors.New("failed to spawn process")

type Error struct {
	Kind error
	Tool string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v %s: %v", e.Kind, e.Tool, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// URLResolver maps a track page URL to a direct media URL.
type URLResolver interface {
	Resolve(ctx context.Context, trackURL string) (string, error)
}

// Handle is a running process and its standard output.
type Handle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (h *Handle) Pid() int          { return h.cmd.Process.Pid }
func (h *Handle) Stdout() io.Reader { return h.stdout }
func (h *Handle) Args() []string    { return append([]string(nil), h.cmd.Args...) }
func (h *Handle) Kill() error       { return h.cmd.Process.Kill() }

// Wait discards whatever is left on stdout and waits for the process to exit.
// A non-zero exit status is returned as an [*exec.ExitError].
func (h *Handle) Wait() error {
	_, _ = io.Copy(io.Discard, h.stdout)
	return h.cmd.Wait()
}

// Orchestrator builds and starts download and transcode processes.
type Orchestrator struct {
	Downloader tools.Tool
	Transcoder tools.Tool
	Resolver   URLResolver
	Format     string
	Codec      string
	Logger     *log.Logger
}

// New returns an [Orchestrator] with the default tools and audio settings.
func New(resolver URLResolver) *Orchestrator {
	return &Orchestrator{
		Downloader: tools.DefaultDownloader(),
		Transcoder: tools.DefaultTranscoder(),
		Resolver:   resolver,
		Format:     DefaultFormat,
		Codec:      DefaultCodec,
	}
}

// Download starts the downloader for trackURL. The output file is named
// baseName plus the extension chosen by the downloader.
func (o *Orchestrator) Download(trackURL, baseName string) (*Handle, error) {
	return o.spawn(o.Downloader, map[string]string{
		"url":    trackURL,
		"output": baseName + OutputTemplate,
		"format": o.format(),
	})
}

// Stream resolves the media URL of trackURL, blocking until the resolver is
// done, then starts a transcode of it into dest. Resolver errors are returned
// unchanged and no process is started.
func (o *Orchestrator) Stream(ctx context.Context, trackURL, dest string) (*Handle, error) {
	if o.Resolver == nil {
		return nil, &Error{Kind: ErrSpawnFailed, Tool: o.Transcoder.Name(), Err: errors.New("no resolver configured")}
	}

	media, err := o.Resolver.Resolve(ctx, trackURL)
	if err != nil {
		return nil, err
	}

	return o.spawn(o.Transcoder, map[string]string{
		"input":  media,
		"codec":  o.codec(),
		"output": dest,
	})
}

func (o *Orchestrator) spawn(tool tools.Tool, vars map[string]string) (*Handle, error) {
	cmd, err := tool.Command(vars)
	if err != nil {
		return nil, &Error{Kind: ErrSpawnFailed, Tool: tool.Name(), Err: err}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: ErrSpawnFailed, Tool: tool.Name(), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: ErrSpawnFailed, Tool: tool.Name(), Err: err}
	}

	if o.Logger != nil {
		o.Logger.Debug("spawned process", "tool", tool.Name(), "pid", cmd.Process.Pid)
	}
	return &Handle{cmd: cmd, stdout: stdout}, nil
}

func (o *Orchestrator) format() string {
	if o.Format == "" {
		return DefaultFormat
	}
	return o.Format
}

func (o *Orchestrator) codec() string {
	if o.Codec == "" {
		return DefaultCodec
	}
	return o.Codec
}
