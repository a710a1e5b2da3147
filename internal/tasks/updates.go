package tasks

import (
	"fmt"

	"github.com/boko-maru/top-n-spotify/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveArtist Phase = iota
	FetchTopTracks
	FetchReleases
	CollectTracks
	RankTracks
	CreatePlaylist
	AddTracks
)

func (p Phase) String() string {
	switch p {
	case ResolveArtist:
		return "resolve_artist"
	case FetchTopTracks:
		return "fetch_top_tracks"
	case FetchReleases:
		return "fetch_releases"
	case CollectTracks:
		return "collect_tracks"
	case RankTracks:
		return "rank_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	default:
		return ""
	}
}

func resolveArtistUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching for artist %q...", query),
	}
}

func artistResolvedUpdate(artist *models.Artist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found artist: %s", artist.Name),
		Data:    artist,
	}
}

func fetchTopTracksUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTopTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching top tracks for %s...", name),
	}
}

func fetchReleasesUpdate(page, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    page,
		Total:   page,
		Message: fmt.Sprintf("Scanning releases (page %d, %d found)...", page, found),
	}
}

func collectTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Collecting tracks...", step, total),
	}
}

func rankTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ranking %d candidate tracks...", count),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func playlistCreatedUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding tracks...", step, total),
	}
}
