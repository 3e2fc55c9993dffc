// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.response, m.err
}

// NewTextResponse builds an [http.Response] with the given status and body.
func NewTextResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FakeTool writes an executable shell script named name into a temp dir and returns its path.
//
// Tests using it are skipped on Windows.
func FakeTool(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write fake tool %s: %v", name, err)
	}
	return path
}

// VideoItem is the fields of a search result element used to build fixtures.
type VideoItem struct {
	ID              string
	Title           string
	Artist          string
	Length          string
	Thumbnail       string
	ArtistThumbnail string
}

// NewVideoItem returns a [VideoItem] with valid defaults for the given id.
func NewVideoItem(id, title string) VideoItem {
	return VideoItem{
		ID:              id,
		Title:           title,
		Artist:          "Artist " + id,
		Length:          "3:45",
		Thumbnail:       "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
		ArtistThumbnail: "https://yt3.ggpht.com/" + id + "=s68-c-k",
	}
}

// JSON renders the item as a results-array element keyed by videoRenderer.
func (v VideoItem) JSON() string {
	return fmt.Sprintf(`{"videoRenderer":{"videoId":%q,`+
		`"thumbnail":{"thumbnails":[{"url":%q,"width":360,"height":202}]},`+
		`"title":{"runs":[{"text":%q}],"accessibility":{"accessibilityData":{"label":"x"}}},`+
		`"longBylineText":{"runs":[{"text":%q,"navigationEndpoint":{}}]},`+
		`"lengthText":{"accessibility":{},"simpleText":%q},`+
		`"channelThumbnailSupportedRenderers":{"channelThumbnailWithLinkRenderer":{"thumbnail":{"thumbnails":[{"url":%q,"width":68,"height":68}]}}}}}`,
		v.ID, v.Thumbnail, v.Title, v.Artist, v.Length, v.ArtistThumbnail)
}

// SearchPage wraps raw results-array elements in a scraped results page.
func SearchPage(elements ...string) string {
	return `<!DOCTYPE html><html><head><title>results</title></head><body><script nonce="n">var ytInitialData = ` +
		`{"responseContext":{},"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[` +
		`{"itemSectionRenderer":{"contents":[` + strings.Join(elements, ",") + `],"trackingParams":"CAEQuy8YAA=="}},` +
		`{"continuationItemRenderer":{"trigger":"CONTINUATION_TRIGGER_ON_ITEM_SHOWN"}}]}}}}};</script></body></html>`
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
