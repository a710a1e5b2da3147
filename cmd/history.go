package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists playlists previously built by this tool, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	artistName := cmd.String("artist")
	mode := cmd.String("mode")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.history == nil {
		return fmt.Errorf("%w: no build history, run 'topn setup' first", shared.ErrServiceUnavailable)
	}

	if mode != "" && mode != "top" && mode != "deep" {
		return fmt.Errorf("%w: mode must be 'top' or 'deep', got %q", shared.ErrInvalidArgument, mode)
	}

	criteria := map[string]any{"mode": mode}
	if artistName == "" && limit > 0 {
		criteria["limit"] = limit
	}

	records, err := r.history.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list build history: %w", err)
	}

	// Artist filtering happens here rather than in SQL so a partial,
	// case-insensitive name works.
	if artistName != "" {
		needle := strings.ToLower(artistName)
		filtered := records[:0]
		for _, record := range records {
			if strings.Contains(strings.ToLower(record.ArtistName()), needle) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
		if limit > 0 && limit < len(records) {
			records = records[:limit]
		}
	}

	if len(records) == 0 {
		return r.writePlain("No builds recorded yet.\n")
	}

	if useJSON {
		return r.writeJSON(historyRows(records), pretty)
	}

	r.writePlain("Found %d builds:\n\n", len(records))
	for _, record := range records {
		r.writePlain("#%d  %s\n", record.Sequence(), record.PlaylistName())
		r.writePlain("    Artist: %s\n", record.ArtistName())
		r.writePlain("    Tracks: %d (%s mode, aggressiveness %d)\n", record.TrackCount(), record.Mode(), record.Aggressiveness())
		r.writePlain("    Created: %s\n", record.CreatedAt().Format(time.RFC1123))
		if record.URL() != "" {
			r.writePlain("    URL: %s\n", record.URL())
		}
		r.writePlain("\n")
	}

	return nil
}

// historyRow is the JSON shape of a build record.
type historyRow struct {
	ID             string    `json:"id"`
	Sequence       int       `json:"sequence"`
	ArtistID       string    `json:"artist_id"`
	ArtistName     string    `json:"artist_name"`
	PlaylistID     string    `json:"playlist_id"`
	PlaylistName   string    `json:"playlist_name"`
	TrackCount     int       `json:"track_count"`
	Mode           string    `json:"mode"`
	Aggressiveness int       `json:"aggressiveness"`
	URL            string    `json:"url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func historyRows(records []*models.BuildRecord) []historyRow {
	rows := make([]historyRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, historyRow{
			ID:             record.ID(),
			Sequence:       record.Sequence(),
			ArtistID:       record.ArtistID(),
			ArtistName:     record.ArtistName(),
			PlaylistID:     record.PlaylistID(),
			PlaylistName:   record.PlaylistName(),
			TrackCount:     record.TrackCount(),
			Mode:           record.Mode(),
			Aggressiveness: record.Aggressiveness(),
			URL:            record.URL(),
			CreatedAt:      record.CreatedAt(),
		})
	}
	return rows
}
