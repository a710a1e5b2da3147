// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Followers    followers      `json:"followers"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Tracks      albumTracks     `json:"tracks"`
	URI         string          `json:"uri"`
}

type albumTracks struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

// SpotifyTrack represents a Spotify track. The album field is absent on
// simplified track objects inside album listings.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	Popularity   int             `json:"popularity"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// SpotifyPaginatedAlbums represents one page of an artist's releases.
type SpotifyPaginatedAlbums struct {
	Items  []SpotifyAlbum `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for artist, track, and
// playlist operations.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	credentials map[string]string
	baseURL     string

	onTokenRefresh func(*oauth2.Token)
}

var _ OAuthService = (*SpotifyService)(nil)

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
		baseURL:     spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to run whenever the token source yields
// a token with a new access token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.OAuthenticate(ctx, &oauth2.Token{AccessToken: accessToken})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate authenticates with a previously obtained token, e.g. one
// restored from the token cache.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrAuthFailed)
	}

	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		last:     token,
		callback: s.notifyRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

func (s *SpotifyService) notifyRefresh(token *oauth2.Token) {
	s.token = token
	if s.onTokenRefresh != nil {
		s.onTokenRefresh(token)
	}
}

// refreshableTokenSource wraps an oauth2.TokenSource and reports refreshed
// tokens so they can be written back to the cache. The callback fires when the
// access token differs from the last one seen; a panicking callback does not
// take the request down with it.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	last     *oauth2.Token
	callback func(*oauth2.Token)
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := r.last == nil || token.AccessToken != r.last.AccessToken
	if changed {
		r.last = token
	}
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}

	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API. A
// non-nil body is JSON-encoded; a non-nil result decodes the response body.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchArtists searches the catalog for artists matching the query.
func (s *SpotifyService) SearchArtists(ctx context.Context, query string, limit int) ([]SpotifyArtist, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Artists struct {
			Items []SpotifyArtist `json:"items"`
		} `json:"artists"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Artists.Items, nil
}

// ArtistTopTracks retrieves the artist's top tracks for the user's market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error) {
	endpoint := fmt.Sprintf("/artists/%s/top-tracks?market=from_token", url.PathEscape(artistID))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Tracks, nil
}

// ArtistAlbums retrieves one page of the artist's albums and singles.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit, offset int) (*SpotifyPaginatedAlbums, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/artists/%s/albums?include_groups=album,single&limit=%d&offset=%d",
		url.PathEscape(artistID), limit, offset)

	var response SpotifyPaginatedAlbums
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SeveralAlbums retrieves multiple full albums by their IDs (up to 20).
func (s *SpotifyService) SeveralAlbums(ctx context.Context, albumIDs []string) ([]SpotifyAlbum, error) {
	if len(albumIDs) == 0 {
		return nil, fmt.Errorf("%w: no album IDs provided", shared.ErrInvalidInput)
	}
	if len(albumIDs) > 20 {
		return nil, fmt.Errorf("%w: maximum 20 album IDs allowed", shared.ErrInvalidInput)
	}

	ids := strings.Join(albumIDs, ",")
	endpoint := fmt.Sprintf("/albums?ids=%s", url.QueryEscape(ids))

	var response struct {
		Albums []SpotifyAlbum `json:"albums"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Albums, nil
}

// SeveralTracks retrieves multiple full tracks by their IDs (up to 50).
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]SpotifyTrack, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(trackIDs) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 track IDs allowed", shared.ErrInvalidInput)
	}

	ids := strings.Join(trackIDs, ",")
	endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(ids))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	return response.Tracks, nil
}

// Service interface implementation

// CurrentUser retrieves the authenticated account.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	profile, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
	}, nil
}

// SearchArtist finds the best match for an artist name. Spotify orders search
// results by relevance, so the first item wins.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	artists, err := s.SearchArtists(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: %q", shared.ErrArtistNotFound, name)
	}

	artist := toArtist(artists[0])
	return &artist, nil
}

// MatchArtists returns up to limit artists matching the query, in Spotify's
// relevance order.
func (s *SpotifyService) MatchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error) {
	spotifyArtists, err := s.SearchArtists(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(spotifyArtists))
	for _, sa := range spotifyArtists {
		artists = append(artists, toArtist(sa))
	}
	return artists, nil
}

// TopTracks retrieves the artist's most popular tracks in Spotify's own order.
func (s *SpotifyService) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	spotifyTracks, err := s.ArtistTopTracks(ctx, artistID)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(spotifyTracks))
	for _, st := range spotifyTracks {
		tracks = append(tracks, toTrack(st))
	}
	return tracks, nil
}

// ReleaseIDs retrieves one page of the artist's album and single IDs.
func (s *SpotifyService) ReleaseIDs(ctx context.Context, artistID string, limit, offset int) ([]string, bool, error) {
	page, err := s.ArtistAlbums(ctx, artistID, limit, offset)
	if err != nil {
		return nil, false, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, album := range page.Items {
		ids = append(ids, album.ID)
	}
	return ids, page.Next != nil, nil
}

// AlbumTrackIDs collects the track IDs on the given albums.
func (s *SpotifyService) AlbumTrackIDs(ctx context.Context, albumIDs []string) ([]string, error) {
	albums, err := s.SeveralAlbums(ctx, albumIDs)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, album := range albums {
		for _, track := range album.Tracks.Items {
			ids = append(ids, track.ID)
		}
	}
	return ids, nil
}

// FullTracks retrieves complete track objects, including popularity.
func (s *SpotifyService) FullTracks(ctx context.Context, trackIDs []string) ([]models.Track, error) {
	spotifyTracks, err := s.SeveralTracks(ctx, trackIDs)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(spotifyTracks))
	for _, st := range spotifyTracks {
		if st.ID == "" {
			continue // null entries for unknown IDs
		}
		tracks = append(tracks, toTrack(st))
	}
	return tracks, nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, draft models.Playlist) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	body := map[string]any{
		"name":        draft.Name,
		"description": draft.Description,
		"public":      draft.Public,
	}

	var created SpotifyPlaylist
	if err := s.doRequest(ctx, "POST", endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		Public:      created.Public,
		TrackCount:  created.Tracks.Total,
		URL:         created.ExternalURLs.Spotify,
	}, nil
}

// AddTracks appends tracks to a playlist in order (up to 100 per call).
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackURIs []string) error {
	if len(trackURIs) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrInvalidInput)
	}
	if len(trackURIs) > 100 {
		return fmt.Errorf("%w: maximum 100 track URIs allowed", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	body := map[string]any{"uris": trackURIs}
	return s.doRequest(ctx, "POST", endpoint, body, nil)
}

func toArtist(sa SpotifyArtist) models.Artist {
	return models.Artist{
		ID:        sa.ID,
		Name:      sa.Name,
		Genres:    sa.Genres,
		Followers: sa.Followers.Total,
		URL:       sa.ExternalURLs.Spotify,
	}
}

func toTrack(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:          st.ID,
		Name:        st.Name,
		Album:       st.Album.Name,
		ReleaseDate: st.Album.ReleaseDate,
		DurationMS:  st.DurationMS,
		Popularity:  st.Popularity,
		URI:         st.URI,
		URL:         st.ExternalURLs.Spotify,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}
