package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/ytaudio/internal/models"
	"github.com/desertthunder/ytaudio/internal/shared"
)

// SearchRepository implements models.Repository[*models.SearchRecord].
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new SearchRepository with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Create stores the search and its results in one transaction, assigning an ID and sequence.
func (r *SearchRepository) Create(search *models.SearchRecord) error {
	if err := search.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "searches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	results := search.Results()
	_, err = tx.Exec(
		`INSERT INTO searches (id, sequence, query, result_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sequence, search.Query(), results.Len(), search.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO search_results (search_id, position, track_id, title, artist_name, url, thumbnail_url, artist_thumbnail_url, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, track := range results.Tracks() {
		f := track.Fields()
		_, err := stmt.Exec(
			id,
			i,
			f.ID,
			f.Title,
			f.ArtistName,
			f.URL.String(),
			f.ThumbnailURL.String(),
			f.ArtistThumbnailURL.String(),
			int64(f.Duration/time.Second),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search: %w", err)
	}

	search.SetID(id)
	search.SetSequence(sequence)
	return nil
}

// Get retrieves a search and its results by ID.
func (r *SearchRepository) Get(id string) (*models.SearchRecord, error) {
	var (
		sequence  int
		query     string
		createdAt time.Time
	)

	err := r.db.QueryRow(`SELECT sequence, query, created_at FROM searches WHERE id = ?`, id).
		Scan(&sequence, &query, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: search %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan search: %w", err)
	}

	results, err := r.results(id)
	if err != nil {
		return nil, err
	}

	return models.RestoreSearchRecord(id, sequence, query, results, createdAt), nil
}

// List retrieves the most recent searches, newest first. A non-positive limit returns all of them.
func (r *SearchRepository) List(limit int) ([]*models.SearchRecord, error) {
	suffix, args := limitClause(limit)
	rows, err := r.db.Query(`SELECT id, sequence, query, created_at FROM searches ORDER BY sequence DESC`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}

	type header struct {
		id        string
		sequence  int
		query     string
		createdAt time.Time
	}

	// Rows are collected before loading results; the pool may hold a single connection.
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.sequence, &h.query, &h.createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan search: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	searches := make([]*models.SearchRecord, 0, len(headers))
	for _, h := range headers {
		results, err := r.results(h.id)
		if err != nil {
			return nil, err
		}
		searches = append(searches, models.RestoreSearchRecord(h.id, h.sequence, h.query, results, h.createdAt))
	}

	return searches, nil
}

func (r *SearchRepository) results(searchID string) (models.QueryResult, error) {
	rows, err := r.db.Query(`
		SELECT track_id, title, artist_name, url, thumbnail_url, artist_thumbnail_url, duration_seconds
		FROM search_results
		WHERE search_id = ?
		ORDER BY position ASC
	`, searchID)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var tracks []models.TrackRecord
	for rows.Next() {
		var (
			f                            models.TrackFields
			trackURL, thumb, artistThumb string
			seconds                      int64
		)
		if err := rows.Scan(&f.ID, &f.Title, &f.ArtistName, &trackURL, &thumb, &artistThumb, &seconds); err != nil {
			return models.QueryResult{}, fmt.Errorf("failed to scan result: %w", err)
		}

		if f.URL, err = url.Parse(trackURL); err != nil {
			return models.QueryResult{}, fmt.Errorf("failed to parse stored url: %w", err)
		}
		if f.ThumbnailURL, err = url.Parse(thumb); err != nil {
			return models.QueryResult{}, fmt.Errorf("failed to parse stored thumbnail url: %w", err)
		}
		if f.ArtistThumbnailURL, err = url.Parse(artistThumb); err != nil {
			return models.QueryResult{}, fmt.Errorf("failed to parse stored artist thumbnail url: %w", err)
		}
		f.Duration = time.Duration(seconds) * time.Second

		track, err := models.NewTrackRecord(f)
		if err != nil {
			return models.QueryResult{}, fmt.Errorf("stored result is invalid: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return models.QueryResult{}, fmt.Errorf("row iteration error: %w", err)
	}

	return models.NewQueryResult(tracks), nil
}
