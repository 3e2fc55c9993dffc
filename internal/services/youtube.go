// YouTube [Provider] implementation
//
// Searches scrape the public results page; no API key is involved. The item
// list is cut out of the embedded page data by the extract package and mapped
// to records by the parser package.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytaudio/internal/extract"
	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/parser"
	"github.com/desertthunder/ytaudio/internal/process"
	"github.com/desertthunder/ytaudio/internal/resolver"
	"github.com/desertthunder/ytaudio/internal/shared"
	"github.com/desertthunder/ytaudio/internal/tools"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://youtube.com/results"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/104.0.5112.102 Safari/537.36"

	// QueryParam carries the raw search text.
	QueryParam = "search_query"
)

// YouTubeOpts configures a [YouTubeService]. Zero values select the defaults.
type YouTubeOpts struct {
	BaseURL           string
	WatchURL          string
	UserAgent         string
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Orchestrator      *process.Orchestrator
	Logger            *log.Logger
}

// YouTubeService implements [Provider] and [Searcher] for YouTube.
type YouTubeService struct {
	baseURL      string
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	extractor    *extract.Extractor
	parser       *parser.Parser
	orchestrator *process.Orchestrator
	logger       *log.Logger
}

// NewYouTubeService creates a new YouTube service instance.
func NewYouTubeService(opts YouTubeOpts) *YouTubeService {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Orchestrator == nil {
		opts.Orchestrator = process.New(resolver.New(tools.DefaultResolver()))
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &YouTubeService{
		baseURL:      opts.BaseURL,
		userAgent:    opts.UserAgent,
		httpClient:   opts.HTTPClient,
		limiter:      rate.NewLimiter(limit, 1),
		extractor:    extract.New(),
		parser:       parser.New(opts.WatchURL),
		orchestrator: opts.Orchestrator,
		logger:       opts.Logger,
	}
}

// NewYouTubeServiceFromConfig wires the service, resolver and orchestrator from c.
func NewYouTubeServiceFromConfig(c *shared.Config, logger *log.Logger) *YouTubeService {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	res := resolver.New(c.Tools.Resolver)
	res.Logger = shared.WithLogger(logger, "component", "resolver")

	return NewYouTubeService(YouTubeOpts{
		BaseURL:           c.Search.BaseURL,
		WatchURL:          c.Search.WatchURL,
		UserAgent:         c.Search.UserAgent,
		RequestsPerSecond: c.Search.RequestsPerSecond,
		HTTPClient:        &http.Client{Timeout: c.Search.Timeout()},
		Orchestrator: &process.Orchestrator{
			Downloader: c.Tools.Downloader,
			Transcoder: c.Tools.Transcoder,
			Resolver:   res,
			Format:     c.Audio.Format,
			Codec:      c.Audio.Codec,
			Logger:     shared.WithLogger(logger, "component", "process"),
		},
		Logger: shared.WithLogger(logger, "service", "youtube"),
	})
}

func (y *YouTubeService) Name() string    { return "YouTube" }
func (y *YouTubeService) Method() string  { return http.MethodGet }
func (y *YouTubeService) BaseURL() string { return y.baseURL }

// BuildRequest returns GET <base>?search_query=<query> with the browser user agent.
// The query is sent as typed; url.Values only percent-encodes it.
func (y *YouTubeService) BuildRequest(ctx context.Context, query string) (*http.Request, error) {
	u, err := url.Parse(y.baseURL)
	if err != nil {
		return nil, &Error{Stage: StageRequest, Err: fmt.Errorf("%w: base url: %v", shared.ErrInvalidInput, err)}
	}

	q := u.Query()
	q.Set(QueryParam, query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, y.Method(), u.String(), nil)
	if err != nil {
		return nil, &Error{Stage: StageRequest, Err: err}
	}
	req.Header.Set("User-Agent", y.userAgent)
	return req, nil
}

// ParseResponse extracts and parses a results page body.
func (y *YouTubeService) ParseResponse(body string) (models.QueryResult, error) {
	v, err := y.extractor.Extract(body)
	if err != nil {
		return models.QueryResult{}, &Error{Stage: StageExtract, Err: err}
	}

	result, err := y.parser.Parse(v)
	if err != nil {
		return models.QueryResult{}, &Error{Stage: StageParse, Err: err}
	}
	return result, nil
}

// Search sends the search request, paced by the service rate limit, and parses the response.
func (y *YouTubeService) Search(ctx context.Context, query string) (models.QueryResult, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return models.QueryResult{}, &Error{Stage: StageRequest, Err: err}
	}

	req, err := y.BuildRequest(ctx, query)
	if err != nil {
		return models.QueryResult{}, err
	}

	start := time.Now()
	y.logger.Debug("searching", "query", query, "url", req.URL.String())

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return models.QueryResult{}, &Error{Stage: StageRequest, Err: fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.QueryResult{}, &Error{
			Stage: StageRequest,
			Err:   fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.QueryResult{}, &Error{Stage: StageRequest, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	result, err := y.ParseResponse(string(body))
	if err != nil {
		y.logger.Warn("search response rejected", "query", query, "error", err)
		return models.QueryResult{}, err
	}

	y.logger.Info("search finished", "query", query, "results", result.Len(), "elapsed", time.Since(start))
	return result, nil
}

// Download starts the downloader for trackURL.
func (y *YouTubeService) Download(trackURL, baseName string) (*process.Handle, error) {
	h, err := y.orchestrator.Download(trackURL, baseName)
	if err != nil {
		return nil, &Error{Stage: StageSpawn, Err: err}
	}
	y.logger.Info("download started", "url", trackURL, "output", baseName, "pid", h.Pid())
	return h, nil
}

// Stream resolves trackURL and starts the transcoder writing to dest.
func (y *YouTubeService) Stream(ctx context.Context, trackURL, dest string) (*process.Handle, error) {
	h, err := y.orchestrator.Stream(ctx, trackURL, dest)
	if err != nil {
		var spawnErr *process.Error
		if errors.As(err, &spawnErr) {
			return nil, &Error{Stage: StageSpawn, Err: err}
		}
		return nil, &Error{Stage: StageResolve, Err: err}
	}
	y.logger.Info("stream started", "url", trackURL, "output", dest, "pid", h.Pid())
	return h, nil
}
