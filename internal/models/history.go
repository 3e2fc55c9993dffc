package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRecord = errors.New("invalid record")

// JobMode selects how a track is materialized.
type JobMode string

const (
	ModeDownload JobMode = "download"
	ModeStream   JobMode = "stream"
)

// ParseJobMode parses "download" or "stream".
func ParseJobMode(s string) (JobMode, error) {
	switch JobMode(s) {
	case ModeDownload, ModeStream:
		return JobMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidRecord, s)
}

// JobStatus is the lifecycle state of a download or stream job.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// IsFinished reports whether the job has reached a terminal state.
func (s JobStatus) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SearchRecord is a query that was run and the results it produced.
type SearchRecord struct {
	id        string
	sequence  int
	query     string
	results   QueryResult
	createdAt time.Time
}

// NewSearchRecord creates an unsaved [SearchRecord].
func NewSearchRecord(query string, results QueryResult) *SearchRecord {
	return &SearchRecord{query: query, results: results, createdAt: time.Now().UTC()}
}

// RestoreSearchRecord rebuilds a persisted [SearchRecord].
func RestoreSearchRecord(id string, sequence int, query string, results QueryResult, createdAt time.Time) *SearchRecord {
	return &SearchRecord{id: id, sequence: sequence, query: query, results: results, createdAt: createdAt}
}

func (s *SearchRecord) ID() string           { return s.id }
func (s *SearchRecord) Sequence() int        { return s.sequence }
func (s *SearchRecord) Query() string        { return s.query }
func (s *SearchRecord) Results() QueryResult { return s.results }
func (s *SearchRecord) CreatedAt() time.Time { return s.createdAt }

func (s *SearchRecord) SetID(id string)     { s.id = id }
func (s *SearchRecord) SetSequence(seq int) { s.sequence = seq }

func (s *SearchRecord) Validate() error {
	if s.query == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidRecord)
	}
	return nil
}

func (s *SearchRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string      `json:"id"`
		Query     string      `json:"query"`
		Count     int         `json:"result_count"`
		Results   QueryResult `json:"results"`
		CreatedAt time.Time   `json:"created_at"`
	}{s.id, s.query, s.results.Len(), s.results, s.createdAt})
}

// DownloadRecord is a download or stream job and its outcome.
type DownloadRecord struct {
	id         string
	sequence   int
	mode       JobMode
	trackURL   string
	output     string
	status     JobStatus
	errMsg     string
	createdAt  time.Time
	finishedAt *time.Time
}

// NewDownloadRecord creates an unsaved, running [DownloadRecord].
func NewDownloadRecord(mode JobMode, trackURL, output string) *DownloadRecord {
	return &DownloadRecord{
		mode:      mode,
		trackURL:  trackURL,
		output:    output,
		status:    StatusRunning,
		createdAt: time.Now().UTC(),
	}
}

// RestoreDownloadRecord rebuilds a persisted [DownloadRecord].
func RestoreDownloadRecord(id string, sequence int, mode JobMode, trackURL, output string, status JobStatus, errMsg string, createdAt time.Time, finishedAt *time.Time) *DownloadRecord {
	return &DownloadRecord{
		id:         id,
		sequence:   sequence,
		mode:       mode,
		trackURL:   trackURL,
		output:     output,
		status:     status,
		errMsg:     errMsg,
		createdAt:  createdAt,
		finishedAt: finishedAt,
	}
}

func (d *DownloadRecord) ID() string             { return d.id }
func (d *DownloadRecord) Sequence() int          { return d.sequence }
func (d *DownloadRecord) Mode() JobMode          { return d.mode }
func (d *DownloadRecord) TrackURL() string       { return d.trackURL }
func (d *DownloadRecord) Output() string         { return d.output }
func (d *DownloadRecord) Status() JobStatus      { return d.status }
func (d *DownloadRecord) ErrorMessage() string   { return d.errMsg }
func (d *DownloadRecord) CreatedAt() time.Time   { return d.createdAt }
func (d *DownloadRecord) FinishedAt() *time.Time { return d.finishedAt }

func (d *DownloadRecord) SetID(id string)     { d.id = id }
func (d *DownloadRecord) SetSequence(seq int) { d.sequence = seq }

// Finish moves the record to a terminal status.
func (d *DownloadRecord) Finish(status JobStatus, errMsg string, at time.Time) {
	d.status = status
	d.errMsg = errMsg
	d.finishedAt = &at
}

func (d *DownloadRecord) Validate() error {
	if _, err := ParseJobMode(string(d.mode)); err != nil {
		return err
	}
	if d.trackURL == "" {
		return fmt.Errorf("%w: empty track url", ErrInvalidRecord)
	}
	if d.output == "" {
		return fmt.Errorf("%w: empty output", ErrInvalidRecord)
	}
	return nil
}

func (d *DownloadRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string     `json:"id"`
		Mode       JobMode    `json:"mode"`
		TrackURL   string     `json:"track_url"`
		Output     string     `json:"output"`
		Status     JobStatus  `json:"status"`
		Error      string     `json:"error,omitempty"`
		CreatedAt  time.Time  `json:"created_at"`
		FinishedAt *time.Time `json:"finished_at,omitempty"`
	}{d.id, d.mode, d.trackURL, d.output, d.status, d.errMsg, d.createdAt, d.finishedAt})
}
