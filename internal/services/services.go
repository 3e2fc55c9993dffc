// package services adapts the search and acquisition pipeline to a host.
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/process"
)

// Stage names the pipeline step an [Error] came from.
type Stage string

const (
	StageRequest Stage = "request"
	StageExtract Stage = "extract"
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageSpawn   Stage = "spawn"
)

// Error wraps a component error with the stage it failed in. errors.Is and
// errors.As reach the component error and its kind through Unwrap.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Provider is what a host needs from a content provider: how to build the
// search request, how to read its response, and how to turn a result into a
// local file.
type Provider interface {
	// Name returns the provider name (e.g., "YouTube")
	Name() string

	Method() string
	BaseURL() string

	// BuildRequest returns the search request for query without sending it.
	BuildRequest(ctx context.Context, query string) (*http.Request, error)

	// ParseResponse turns a raw response body into ordered results.
	ParseResponse(body string) (models.QueryResult, error)

	// Download starts a full audio download of trackURL named after baseName.
	Download(trackURL, baseName string) (*process.Handle, error)

	// Stream resolves trackURL and starts a transcode into dest.
	Stream(ctx context.Context, trackURL, dest string) (*process.Handle, error)
}

// Searcher is a [Provider] that can also send its own requests.
type Searcher interface {
	Provider
	Search(ctx context.Context, query string) (models.QueryResult, error)
}
