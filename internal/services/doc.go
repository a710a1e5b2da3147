// Package services defines the [Service] interface for the music catalog and implements it for Spotify.
//
// # Service Interface
//
// [Service] covers the catalog operations the playlist builder needs: artist search, top tracks,
// discography paging, playlist creation, and track addition. The tasks package works entirely
// against this interface, so tests can substitute a double.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2] client refreshes expired access tokens using the refresh token; the refresh
// callback lets the caller persist new tokens to the local cache database.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for the authorization-code flow used by the CLI:
// it exposes the authorization URL, the underlying [oauth2.Config] for the callback handler, and
// token-based authentication for sessions restored from the cache.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrArtistNotFound] : no artist matched the search query
//   - [shared.ErrAPIRequest] : HTTP request failed
//
// # API Mappings
//
// Spotify JSON responses convert to domain types at the service boundary:
// [SpotifyArtist] → [models.Artist], [SpotifyTrack] → [models.Track] (release date taken from
// the containing album), [SpotifyPlaylist] → [models.Playlist] with the public web URL from
// external_urls.
package services
