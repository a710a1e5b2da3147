// package tasks implements the playlist build pipeline.
//
// The core abstraction is BuildEngine, which resolves an artist, selects the top N tracks,
// and publishes them as a playlist. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/ranking"
	"github.com/boko-maru/top-n-spotify/internal/services"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"golang.org/x/time/rate"
)

// Spotify batch limits per endpoint.
const (
	releasePageSize = 50  // albums per discography page
	albumChunkSize  = 20  // albums per full-album lookup
	trackChunkSize  = 50  // tracks per full-track lookup
	addChunkSize    = 100 // tracks per playlist addition
)

// BuildOpts are the caller's knobs for a single playlist build.
type BuildOpts struct {
	Artist      string        // artist name to search for
	N           int           // number of tracks to select
	Level       ranking.Level // age-weighting aggressiveness
	Deep        bool          // scan the full discography instead of top tracks
	Name        string        // playlist name override, empty for the default
	Description string        // playlist description override, empty for the default
	Public      bool          // playlist visibility
	DryRun      bool          // stop after preview, create nothing
}

// Mode reports how candidates are gathered: "deep" for a discography scan, "top" otherwise.
func (o BuildOpts) Mode() string {
	if o.Deep {
		return "deep"
	}
	return "top"
}

// PlaylistName returns the override or the "Top {N} {Artist}" default.
func (o BuildOpts) PlaylistName(artist string) string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("Top %d %s", o.N, artist)
}

// PlaylistDescription returns the override or the default description.
func (o BuildOpts) PlaylistDescription(artist string) string {
	if o.Description != "" {
		return o.Description
	}
	return fmt.Sprintf("The %d most popular tracks by %s", o.N, artist)
}

// BuildPreview holds the resolved artist and selected tracks before anything is created.
type BuildPreview struct {
	Artist     *models.Artist `json:"artist"`         // resolved artist
	Tracks     []models.Track `json:"tracks"`         // selected tracks in final playlist order
	Candidates int            `json:"candidates"`     // candidate tracks considered before selection
	Mode       string         `json:"mode"`           // "top" or "deep"
	Level      ranking.Level  `json:"aggressiveness"` // aggressiveness used for ranking
}

// BuildResult contains all data from a completed build.
type BuildResult struct {
	Preview  BuildPreview     `json:"preview"`            // what was selected
	User     *models.User     `json:"user,omitempty"`     // playlist owner, nil for dry runs
	Playlist *models.Playlist `json:"playlist,omitempty"` // created playlist, nil for dry runs
}

// HistoryRecorder persists build records. Implemented by repositories.HistoryRepository.
type HistoryRecorder interface {
	Create(record *models.BuildRecord) error
}

// BuildEngine defines the playlist build pipeline.
type BuildEngine interface {
	// Preview resolves the artist and selects tracks without touching the user's account.
	Preview(ctx context.Context, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildPreview, error)

	// Publish creates a playlist from a preview and adds its tracks in batches.
	Publish(ctx context.Context, preview *BuildPreview, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildResult, error)

	// Build runs Preview then Publish. Dry runs stop after the preview.
	Build(ctx context.Context, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildResult, error)
}

// PlaylistEngine implements BuildEngine against a catalog service.
type PlaylistEngine struct {
	spotify services.Service
	history HistoryRecorder
	limiter *rate.Limiter
	now     func() time.Time
}

// NewPlaylistEngine creates a PlaylistEngine. history and limiter may be nil:
// without a recorder builds are not persisted, without a limiter deep scans
// run unpaced.
func NewPlaylistEngine(spotify services.Service, history HistoryRecorder, limiter *rate.Limiter) *PlaylistEngine {
	return &PlaylistEngine{
		spotify: spotify,
		history: history,
		limiter: limiter,
		now:     time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// wait paces catalog requests during deep scans.
func (e *PlaylistEngine) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// Preview resolves the artist and selects the top N tracks.
func (e *PlaylistEngine) Preview(ctx context.Context, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildPreview, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Artist == "" {
		return nil, fmt.Errorf("%w: artist name required", shared.ErrInvalidArgument)
	}
	if opts.N <= 0 {
		return nil, fmt.Errorf("%w: track count must be positive, got %d", shared.ErrInvalidArgument, opts.N)
	}

	e.sendProgress(progress, resolveArtistUpdate(opts.Artist))

	artist, err := e.spotify.SearchArtist(ctx, opts.Artist)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, artistResolvedUpdate(artist))

	var candidates []models.Track
	if opts.Deep {
		candidates, err = e.scanDiscography(ctx, artist.ID, progress)
	} else {
		e.sendProgress(progress, fetchTopTracksUpdate(artist.Name))
		candidates, err = e.spotify.TopTracks(ctx, artist.ID)
	}
	if err != nil {
		return nil, err
	}

	preview := &BuildPreview{
		Artist:     artist,
		Candidates: len(candidates),
		Mode:       opts.Mode(),
		Level:      opts.Level,
	}

	// The top-tracks endpoint already orders by popularity; without age
	// weighting that order stands as-is.
	if !opts.Deep && opts.Level == ranking.LevelNone {
		preview.Tracks = ranking.Dedupe(candidates, opts.N)
	} else {
		e.sendProgress(progress, rankTracksUpdate(len(candidates)))
		ranked := ranking.Rank(candidates, opts.Level, e.now())
		preview.Tracks = ranking.SelectTop(ranked, opts.N)
	}

	if len(preview.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks found for %s", shared.ErrNoTracks, artist.Name)
	}

	return preview, nil
}

// scanDiscography walks the artist's albums and singles and returns every
// track with full popularity data.
func (e *PlaylistEngine) scanDiscography(ctx context.Context, artistID string, progress chan<- ProgressUpdate) ([]models.Track, error) {
	var albumIDs []string
	offset := 0
	page := 1

	for {
		e.sendProgress(progress, fetchReleasesUpdate(page, len(albumIDs)))
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		ids, hasMore, err := e.spotify.ReleaseIDs(ctx, artistID, releasePageSize, offset)
		if err != nil {
			return nil, err
		}
		albumIDs = append(albumIDs, ids...)

		if !hasMore {
			break
		}
		offset += releasePageSize
		page++
	}

	var trackIDs []string
	albumChunks := chunk(albumIDs, albumChunkSize)
	for i, ids := range albumChunks {
		e.sendProgress(progress, collectTracksUpdate(i+1, len(albumChunks)))
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		chunkTrackIDs, err := e.spotify.AlbumTrackIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		trackIDs = append(trackIDs, chunkTrackIDs...)
	}

	var tracks []models.Track
	trackChunks := chunk(trackIDs, trackChunkSize)
	for i, ids := range trackChunks {
		e.sendProgress(progress, collectTracksUpdate(i+1, len(trackChunks)))
		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		full, err := e.spotify.FullTracks(ctx, ids)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, full...)
	}

	return tracks, nil
}

// Publish creates the playlist and adds the preview's tracks.
func (e *PlaylistEngine) Publish(ctx context.Context, preview *BuildPreview, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if preview == nil || len(preview.Tracks) == 0 {
		return nil, fmt.Errorf("%w: nothing to publish", shared.ErrNoTracks)
	}

	result := &BuildResult{Preview: *preview}

	user, err := e.spotify.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist owner: %w", err)
	}
	result.User = user

	name := opts.PlaylistName(preview.Artist.Name)
	e.sendProgress(progress, createPlaylistUpdate(name))

	created, err := e.spotify.CreatePlaylist(ctx, user.ID, models.Playlist{
		Name:        name,
		Description: opts.PlaylistDescription(preview.Artist.Name),
		Public:      opts.Public,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	uris := make([]string, 0, len(preview.Tracks))
	for _, track := range preview.Tracks {
		uris = append(uris, track.URI)
	}

	uriChunks := chunk(uris, addChunkSize)
	for i, batch := range uriChunks {
		e.sendProgress(progress, addTracksUpdate(i+1, len(uriChunks)))
		if err := e.spotify.AddTracks(ctx, created.ID, batch); err != nil {
			return result, fmt.Errorf("failed to add tracks: %w", err)
		}
	}

	created.TrackCount = len(preview.Tracks)
	result.Playlist = created
	e.sendProgress(progress, playlistCreatedUpdate(created))

	e.recordBuild(preview, created, opts)

	return result, nil
}

// Build runs Preview then Publish. Dry runs return a result with no playlist.
func (e *PlaylistEngine) Build(ctx context.Context, opts BuildOpts, progress chan<- ProgressUpdate) (*BuildResult, error) {
	preview, err := e.Preview(ctx, opts, progress)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return &BuildResult{Preview: *preview}, nil
	}

	return e.Publish(ctx, preview, opts, progress)
}

// recordBuild writes the build to local history. Failures are ignored so a
// cache problem never fails a build that already succeeded on Spotify.
func (e *PlaylistEngine) recordBuild(preview *BuildPreview, playlist *models.Playlist, opts BuildOpts) {
	if e.history == nil {
		return
	}

	record := models.NewBuildRecord(0, *preview.Artist, *playlist, opts.Mode(), int(opts.Level))
	_ = e.history.Create(record)
}

// chunk splits items into slices of at most size elements.
func chunk(items []string, size int) [][]string {
	if size <= 0 || len(items) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
