package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/shared"
)

const downloadColumns = `id, sequence, mode, track_url, output, status, error, created_at, finished_at`

// DownloadRepository implements models.Repository[*models.DownloadRecord] for job history.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a new job with generated ID and sequence
func (r *DownloadRepository) Create(download *models.DownloadRecord) error {
	if err := download.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "downloads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO downloads (id, sequence, mode, track_url, output, status, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(download.Mode()),
		download.TrackURL(),
		download.Output(),
		string(download.Status()),
		download.ErrorMessage(),
		download.CreatedAt(),
		download.FinishedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	download.SetID(id)
	download.SetSequence(sequence)
	return nil
}

// Finish records the terminal status of a running job.
func (r *DownloadRepository) Finish(id string, status models.JobStatus, errMsg string) error {
	if !status.IsFinished() {
		return fmt.Errorf("%w: %s is not a terminal status", shared.ErrInvalidArgument, status)
	}

	query := `
		UPDATE downloads
		SET status = ?, error = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Exec(query, string(status), errMsg, time.Now().UTC(), id, string(models.StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to update download: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: running download %s", shared.ErrNotFound, id)
	}

	return nil
}

// Get retrieves a job by ID
func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE id = ?`

	download, err := scanDownload(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: download %s", shared.ErrNotFound, id)
	}
	return download, err
}

// List retrieves the most recent jobs, newest first. A non-positive limit returns all of them.
func (r *DownloadRepository) List(limit int) ([]*models.DownloadRecord, error) {
	suffix, args := limitClause(limit)
	rows, err := r.db.Query(`SELECT `+downloadColumns+` FROM downloads ORDER BY sequence DESC`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []*models.DownloadRecord{}
	for rows.Next() {
		download, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, download)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return downloads, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDownload scans a single row into a [models.DownloadRecord]. [sql.ErrNoRows] is returned unwrapped.
func scanDownload(row scanner) (*models.DownloadRecord, error) {
	var (
		id         string
		sequence   int
		mode       string
		trackURL   string
		output     string
		status     string
		errMsg     string
		createdAt  time.Time
		finishedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &mode, &trackURL, &output, &status, &errMsg, &createdAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}

	var finished *time.Time
	if finishedAt.Valid {
		finished = &finishedAt.Time
	}

	return models.RestoreDownloadRecord(
		id,
		sequence,
		models.JobMode(mode),
		trackURL,
		output,
		models.JobStatus(status),
		errMsg,
		createdAt,
		finished,
	), nil
}
