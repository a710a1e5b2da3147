package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
)

// HistoryRepository implements models.Repository[*models.BuildRecord] for the builds table.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new build record with generated ID and sequence
func (r *HistoryRepository) Create(record *models.BuildRecord) error {
	sequence, err := NextSequence(r.db, "builds")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	record.SetSequence(sequence)

	id := shared.GenerateID()
	record.SetID(id)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO builds (id, sequence, artist_id, artist_name, playlist_id, playlist_name, track_count, mode, aggressiveness, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.ArtistID(),
		record.ArtistName(),
		record.PlaylistID(),
		record.PlaylistName(),
		record.TrackCount(),
		record.Mode(),
		record.Aggressiveness(),
		record.URL(),
		record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert build record: %w", err)
	}

	return nil
}

// Get retrieves a build record by ID
func (r *HistoryRepository) Get(id string) (*models.BuildRecord, error) {
	query := `
		SELECT id, sequence, artist_id, artist_name, playlist_id, playlist_name, track_count, mode, aggressiveness, url, created_at
		FROM builds
		WHERE id = ?
	`

	record, err := scanBuild(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan build record: %w", err)
	}

	return record, nil
}

// Delete removes a build record. The playlist itself stays on Spotify.
func (r *HistoryRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM builds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete build record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("build record not found: %s", id)
	}

	return nil
}

// List retrieves build records matching the given criteria, newest first
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.BuildRecord, error) {
	query := `
		SELECT id, sequence, artist_id, artist_name, playlist_id, playlist_name, track_count, mode, aggressiveness, url, created_at
		FROM builds
		WHERE 1 = 1
	`

	args := []any{}

	if artistID, ok := criteria["artist_id"].(string); ok && artistID != "" {
		query += " AND artist_id = ?"
		args = append(args, artistID)
	}

	if mode, ok := criteria["mode"].(string); ok && mode != "" {
		query += " AND mode = ?"
		args = append(args, mode)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query build records: %w", err)
	}
	defer rows.Close()

	var records []*models.BuildRecord
	for rows.Next() {
		record, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*models.BuildRecord, error) {
	var (
		id             string
		sequence       int
		artistID       string
		artistName     string
		playlistID     string
		playlistName   string
		trackCount     int
		mode           string
		aggressiveness int
		url            string
		createdAt      time.Time
	)

	err := row.Scan(&id, &sequence, &artistID, &artistName, &playlistID, &playlistName, &trackCount, &mode, &aggressiveness, &url, &createdAt)
	if err != nil {
		return nil, err
	}

	artist := models.Artist{ID: artistID, Name: artistName}
	playlist := models.Playlist{ID: playlistID, Name: playlistName, TrackCount: trackCount, URL: url}

	record := models.NewBuildRecord(sequence, artist, playlist, mode, aggressiveness)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(createdAt)

	return record, nil
}
