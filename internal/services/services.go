// package services defines interface Service for interacting with the music catalog over HTTP
package services

import (
	"context"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the catalog operations needed to build a top-tracks playlist.
type Service interface {
	// Authenticate performs authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated account that will own created playlists.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SearchArtist finds the best match for an artist name.
	// Returns shared.ErrArtistNotFound when nothing matches.
	SearchArtist(ctx context.Context, name string) (*models.Artist, error)

	// TopTracks retrieves the artist's most popular tracks in the catalog's own order.
	TopTracks(ctx context.Context, artistID string) ([]models.Track, error)

	// ReleaseIDs retrieves one page of the artist's album and single IDs.
	// The bool reports whether further pages exist.
	ReleaseIDs(ctx context.Context, artistID string, limit, offset int) ([]string, bool, error)

	// AlbumTrackIDs collects the track IDs on the given albums (at most 20 per call).
	AlbumTrackIDs(ctx context.Context, albumIDs []string) ([]string, error)

	// FullTracks retrieves complete track objects, including popularity, for the
	// given IDs (at most 50 per call).
	FullTracks(ctx context.Context, trackIDs []string) ([]models.Track, error)

	// CreatePlaylist creates an empty playlist owned by userID from the draft's
	// name, description, and visibility.
	CreatePlaylist(ctx context.Context, userID string, draft models.Playlist) (*models.Playlist, error)

	// AddTracks appends tracks to a playlist in order (at most 100 per call).
	AddTracks(ctx context.Context, playlistID string, trackURIs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers using the OAuth2 authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login with the given CSRF state.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the OAuth2 config for the callback handler's code exchange.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers a function invoked whenever the token source
	// produces a new token, so callers can persist it.
	SetTokenRefreshCallback(fn func(*oauth2.Token))
}
