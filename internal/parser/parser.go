// package parser turns the decoded search-results object into track records.
//
// The results array is heterogeneous: elements without the [ItemKind] member
// (shelves, ads, channel cards) are skipped. Inside an element that has it,
// every field is required and the first missing or malformed one aborts the
// whole parse, since that means the upstream schema changed.
package parser

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/desertthunder/ytaudio/internal/jsonpath"
	"github.com/desertthunder/ytaudio/internal/models"
)

const (
	// ItemKind is the member that marks a results element as a track.
	ItemKind = "videoRenderer"

	DefaultWatchURL = "https://youtube.com/watch"
)

var (
	ErrMissingField    = errors.New("missing field")
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidDuration = errors.New("invalid duration")
)

// Error describes a parse failure. Field is the full path of the offending
// member, starting at the results object (e.g. "contents[2].videoRenderer.lengthText.simpleText").
type Error struct {
	Kind  error
	Field string
	Value string // raw value for ErrInvalidURL and ErrInvalidDuration
	Err   error
}

func (e *Error) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v %s: %q", e.Kind, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Field)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Parser maps results objects to [models.QueryResult].
type Parser struct {
	// WatchURL is the base of canonical track URLs; the id is appended as ?v=<id>.
	WatchURL string
}

// New returns a [Parser] using watchURL, or [DefaultWatchURL] when empty.
func New(watchURL string) *Parser {
	if watchURL == "" {
		watchURL = DefaultWatchURL
	}
	return &Parser{WatchURL: watchURL}
}

// Parse reads the "contents" array of v and returns one record per track element, in array order.
func (p *Parser) Parse(v any) (models.QueryResult, error) {
	elements, err := jsonpath.New(v).Key("contents").Array()
	if err != nil {
		return models.QueryResult{}, missing(err)
	}

	tracks := make([]models.TrackRecord, 0, len(elements))
	for _, el := range elements {
		if !el.Has(ItemKind) {
			continue
		}

		track, err := p.parseItem(el.Key(ItemKind))
		if err != nil {
			return models.QueryResult{}, err
		}
		tracks = append(tracks, track)
	}

	return models.NewQueryResult(tracks), nil
}

// ParseItem parses a single item-kind object (the value under [ItemKind]).
func (p *Parser) ParseItem(v any) (models.TrackRecord, error) {
	return p.parseItem(jsonpath.At(v, ItemKind))
}

func (p *Parser) parseItem(item jsonpath.Node) (models.TrackRecord, error) {
	artistThumbnail, err := absoluteURL(item.Key("channelThumbnailSupportedRenderers").
		Key("channelThumbnailWithLinkRenderer").
		Key("thumbnail").
		Key("thumbnails").Index(0).Key("url"))
	if err != nil {
		return models.TrackRecord{}, err
	}

	artistName, err := text(item.Key("longBylineText").Key("runs").Index(0).Key("text"))
	if err != nil {
		return models.TrackRecord{}, err
	}

	lengthNode := item.Key("lengthText").Key("simpleText")
	length, err := lengthNode.String()
	if err != nil {
		return models.TrackRecord{}, missing(err)
	}
	duration, err := ParseDuration(length)
	if err != nil {
		return models.TrackRecord{}, &Error{Kind: ErrInvalidDuration, Field: lengthNode.Path(), Value: length, Err: err}
	}

	idNode := item.Key("videoId")
	id, err := text(idNode)
	if err != nil {
		return models.TrackRecord{}, err
	}
	trackURL, err := p.canonicalURL(id)
	if err != nil {
		return models.TrackRecord{}, &Error{Kind: ErrInvalidURL, Field: idNode.Path(), Value: id, Err: err}
	}

	title, err := text(item.Key("title").Key("runs").Index(0).Key("text"))
	if err != nil {
		return models.TrackRecord{}, err
	}

	thumbnail, err := absoluteURL(item.Key("thumbnail").Key("thumbnails").Index(0).Key("url"))
	if err != nil {
		return models.TrackRecord{}, err
	}

	return models.NewTrackRecord(models.TrackFields{
		ID:                 id,
		Title:              title,
		ArtistName:         artistName,
		URL:                trackURL,
		ThumbnailURL:       thumbnail,
		ArtistThumbnailURL: artistThumbnail,
		Duration:           duration,
	})
}

func (p *Parser) canonicalURL(id string) (*url.URL, error) {
	u, err := url.Parse(fmt.Sprintf("%s?v=%s", p.WatchURL, url.QueryEscape(id)))
	if err != nil {
		return nil, err
	}
	if !models.IsAbsoluteURL(u) {
		return nil, fmt.Errorf("watch url %q is not absolute", p.WatchURL)
	}
	return u, nil
}

// text reads a non-empty string.
func text(n jsonpath.Node) (string, error) {
	s, err := n.String()
	if err != nil {
		return "", missing(err)
	}
	if s == "" {
		return "", &Error{Kind: ErrMissingField, Field: n.Path()}
	}
	return s, nil
}

func absoluteURL(n jsonpath.Node) (*url.URL, error) {
	s, err := n.String()
	if err != nil {
		return nil, missing(err)
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidURL, Field: n.Path(), Value: s, Err: err}
	}
	if !models.IsAbsoluteURL(u) {
		return nil, &Error{Kind: ErrInvalidURL, Field: n.Path(), Value: s}
	}
	return u, nil
}

// missing converts a lookup failure into ErrMissingField. Type mismatches
// count as missing: the field is not there in the expected shape.
func missing(err error) error {
	var pathErr *jsonpath.Error
	if errors.As(err, &pathErr) {
		return &Error{Kind: ErrMissingField, Field: pathErr.Path, Err: err}
	}
	return &Error{Kind: ErrMissingField, Err: err}
}
