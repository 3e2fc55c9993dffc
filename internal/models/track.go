package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

var ErrInvalidTrack = errors.New("invalid track record")

// TrackFields carries the values used to build a [TrackRecord].
type TrackFields struct {
	ID                 string
	Title              string
	ArtistName         string
	URL                *url.URL
	ThumbnailURL       *url.URL
	ArtistThumbnailURL *url.URL
	Duration           time.Duration
}

// TrackRecord is one search result. It is immutable once built.
type TrackRecord struct {
	id                 string
	title              string
	artistName         string
	url                *url.URL
	thumbnailURL       *url.URL
	artistThumbnailURL *url.URL
	duration           time.Duration
}

// NewTrackRecord validates f and returns the record. Every string must be
// non-empty, every URL absolute, and the duration a non-negative whole number
// of seconds.
func NewTrackRecord(f TrackFields) (TrackRecord, error) {
	switch {
	case f.ID == "":
		return TrackRecord{}, fmt.Errorf("%w: empty id", ErrInvalidTrack)
	case f.Title == "":
		return TrackRecord{}, fmt.Errorf("%w: empty title", ErrInvalidTrack)
	case f.ArtistName == "":
		return TrackRecord{}, fmt.Errorf("%w: empty artist name", ErrInvalidTrack)
	case !IsAbsoluteURL(f.URL):
		return TrackRecord{}, fmt.Errorf("%w: url is not absolute", ErrInvalidTrack)
	case !IsAbsoluteURL(f.ThumbnailURL):
		return TrackRecord{}, fmt.Errorf("%w: thumbnail url is not absolute", ErrInvalidTrack)
	case !IsAbsoluteURL(f.ArtistThumbnailURL):
		return TrackRecord{}, fmt.Errorf("%w: artist thumbnail url is not absolute", ErrInvalidTrack)
	case f.Duration < 0 || f.Duration%time.Second != 0:
		return TrackRecord{}, fmt.Errorf("%w: duration %v", ErrInvalidTrack, f.Duration)
	}

	return TrackRecord{
		id:                 f.ID,
		title:              f.Title,
		artistName:         f.ArtistName,
		url:                cloneURL(f.URL),
		thumbnailURL:       cloneURL(f.ThumbnailURL),
		artistThumbnailURL: cloneURL(f.ArtistThumbnailURL),
		duration:           f.Duration,
	}, nil
}

// IsAbsoluteURL reports whether u has both a scheme and a host.
func IsAbsoluteURL(u *url.URL) bool {
	return u != nil && u.Scheme != "" && u.Host != ""
}

func (t TrackRecord) ID() string                   { return t.id }
func (t TrackRecord) Title() string                { return t.title }
func (t TrackRecord) ArtistName() string           { return t.artistName }
func (t TrackRecord) URL() *url.URL                { return cloneURL(t.url) }
func (t TrackRecord) ThumbnailURL() *url.URL       { return cloneURL(t.thumbnailURL) }
func (t TrackRecord) ArtistThumbnailURL() *url.URL { return cloneURL(t.artistThumbnailURL) }
func (t TrackRecord) Duration() time.Duration      { return t.duration }

// Fields returns a copy of the record's values.
func (t TrackRecord) Fields() TrackFields {
	return TrackFields{
		ID:                 t.id,
		Title:              t.title,
		ArtistName:         t.artistName,
		URL:                t.URL(),
		ThumbnailURL:       t.ThumbnailURL(),
		ArtistThumbnailURL: t.ArtistThumbnailURL(),
		Duration:           t.duration,
	}
}

type trackJSON struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	ArtistName         string `json:"artist_name"`
	URL                string `json:"url"`
	ThumbnailURL       string `json:"thumbnail_url"`
	ArtistThumbnailURL string `json:"artist_thumbnail_url"`
	DurationSeconds    int64  `json:"duration_seconds"`
}

func (t TrackRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackJSON{
		ID:                 t.id,
		Title:              t.title,
		ArtistName:         t.artistName,
		URL:                urlString(t.url),
		ThumbnailURL:       urlString(t.thumbnailURL),
		ArtistThumbnailURL: urlString(t.artistThumbnailURL),
		DurationSeconds:    int64(t.duration / time.Second),
	})
}

// QueryResult is the ordered list of records returned for one query.
type QueryResult struct {
	tracks []TrackRecord
}

// NewQueryResult copies tracks into a new [QueryResult].
func NewQueryResult(tracks []TrackRecord) QueryResult {
	return QueryResult{tracks: append([]TrackRecord(nil), tracks...)}
}

func (q QueryResult) Len() int              { return len(q.tracks) }
func (q QueryResult) At(i int) TrackRecord  { return q.tracks[i] }
func (q QueryResult) Tracks() []TrackRecord { return append([]TrackRecord(nil), q.tracks...) }

// Limit returns the first n records, or all of them when n <= 0.
func (q QueryResult) Limit(n int) QueryResult {
	if n <= 0 || n >= len(q.tracks) {
		return q
	}
	return NewQueryResult(q.tracks[:n])
}

func (q QueryResult) MarshalJSON() ([]byte, error) {
	if len(q.tracks) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(q.tracks)
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
