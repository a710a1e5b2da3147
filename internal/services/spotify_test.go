package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	tu "github.com/boko-maru/top-n-spotify/internal/testing"
	"golang.org/x/oauth2"
)

// newTestService points a service at an httptest server with a static token.
func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	credentials := map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}

	srv, err := NewSpotifyService(credentials)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	srv.baseURL = server.URL
	srv.token = &oauth2.Token{AccessToken: "test_access_token"}
	srv.httpClient = server.Client()

	return srv, server
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:3000/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			credentials := map[string]string{
				"client_secret": "test_client_secret",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_id, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			credentials := map[string]string{
				"client_id": "test_client_id",
			}

			_, err := NewSpotifyService(credentials)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for missing client_secret, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://localhost:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "playlist-modify") {
			t.Error("auth URL should request playlist modification scopes")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			authCreds := map[string]string{
				"access_token": "test_access_token",
			}

			err := srv.Authenticate(context.Background(), authCreds)
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Fatal("expected token to be set")
			}

			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			authCreds := map[string]string{}

			err := srv.Authenticate(context.Background(), authCreds)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("OAuthenticate", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Rejects Nil Token", func(t *testing.T) {
			if err := srv.OAuthenticate(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Rejects Empty Token", func(t *testing.T) {
			err := srv.OAuthenticate(context.Background(), &oauth2.Token{})
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Accepts Restored Token", func(t *testing.T) {
			token := &oauth2.Token{AccessToken: "restored", RefreshToken: "refresh"}
			if err := srv.OAuthenticate(context.Background(), token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.token.AccessToken != "restored" {
				t.Errorf("expected restored token, got %s", srv.token.AccessToken)
			}
		})
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, err = srv.CurrentUser(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Service Interface", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Service = srv
		var _ OAuthService = srv
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		credentials := map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		}

		srv, err := NewSpotifyService(credentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {
				// Callback set for testing
			})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil {
				t.Fatal("expected token to be captured")
			}
			if capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %s", capturedToken.AccessToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: nil,
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("handles callback panic gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					panic("callback panic")
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token despite panicking callback")
			}
		})
	})
}

func TestSpotifyEndpoints(t *testing.T) {
	t.Run("SearchArtist", func(t *testing.T) {
		t.Run("Returns Best Match", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("type"); got != "artist" {
					t.Errorf("expected type=artist, got %s", got)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"artists": map[string]any{
						"items": []map[string]any{
							{
								"id":            "artist1",
								"name":          "The Beatles",
								"genres":        []string{"rock"},
								"followers":     map[string]int{"total": 25000000},
								"external_urls": map[string]string{"spotify": "https://open.spotify.com/artist/artist1"},
							},
							{"id": "artist2", "name": "The Beatles Tribute"},
						},
					},
				})
			}))

			artist, err := srv.SearchArtist(context.Background(), "the beatles")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if artist.ID != "artist1" {
				t.Errorf("expected first match artist1, got %s", artist.ID)
			}
			if artist.Name != "The Beatles" {
				t.Errorf("expected name 'The Beatles', got %s", artist.Name)
			}
			if artist.Followers != 25000000 {
				t.Errorf("expected follower count mapped, got %d", artist.Followers)
			}
			if artist.URL != "https://open.spotify.com/artist/artist1" {
				t.Errorf("expected external URL mapped, got %s", artist.URL)
			}
		})

		t.Run("No Match", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"artists": map[string]any{"items": []any{}},
				})
			}))

			_, err := srv.SearchArtist(context.Background(), "zzzzzz")
			if !errors.Is(err, shared.ErrArtistNotFound) {
				t.Errorf("expected ErrArtistNotFound, got %v", err)
			}
		})
	})

	t.Run("TopTracks", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artists/artist1/top-tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("market"); got != "from_token" {
				t.Errorf("expected market=from_token, got %s", got)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": []map[string]any{
					{
						"id":          "t1",
						"name":        "Hey Jude",
						"artists":     []map[string]any{{"name": "The Beatles"}},
						"album":       map[string]any{"name": "Past Masters", "release_date": "1968-08-26"},
						"duration_ms": 431333,
						"popularity":  82,
						"uri":         "spotify:track:t1",
					},
				},
			})
		}))

		tracks, err := srv.TopTracks(context.Background(), "artist1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}

		track := tracks[0]
		if track.Name != "Hey Jude" || track.Artist != "The Beatles" {
			t.Errorf("unexpected track mapping: %+v", track)
		}
		if track.ReleaseDate != "1968-08-26" {
			t.Errorf("expected release date from album, got %s", track.ReleaseDate)
		}
		if track.Popularity != 82 {
			t.Errorf("expected popularity 82, got %d", track.Popularity)
		}
	})

	t.Run("ReleaseIDs", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("include_groups"); got != "album,single" {
				t.Errorf("expected include_groups=album,single, got %s", got)
			}
			next := "https://api.spotify.com/v1/next-page"
			json.NewEncoder(w).Encode(SpotifyPaginatedAlbums{
				Items: []SpotifyAlbum{{ID: "a1"}, {ID: "a2"}},
				Next:  &next,
			})
		}))

		ids, hasMore, err := srv.ReleaseIDs(context.Background(), "artist1", 50, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
			t.Errorf("unexpected release IDs: %v", ids)
		}
		if !hasMore {
			t.Error("expected hasMore when next page exists")
		}
	})

	t.Run("AlbumTrackIDs", func(t *testing.T) {
		t.Run("Collects Across Albums", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"albums": []map[string]any{
						{"id": "a1", "tracks": map[string]any{"items": []map[string]any{{"id": "t1"}, {"id": "t2"}}}},
						{"id": "a2", "tracks": map[string]any{"items": []map[string]any{{"id": "t3"}}}},
					},
				})
			}))

			ids, err := srv.AlbumTrackIDs(context.Background(), []string{"a1", "a2"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(ids) != 3 {
				t.Errorf("expected 3 track IDs, got %d", len(ids))
			}
		})

		t.Run("Rejects Oversized Batch", func(t *testing.T) {
			srv, _ := newTestService(t, http.NotFoundHandler())

			batch := make([]string, 21)
			_, err := srv.AlbumTrackIDs(context.Background(), batch)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for 21 albums, got %v", err)
			}
		})
	})

	t.Run("FullTracks", func(t *testing.T) {
		t.Run("Skips Null Entries", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"tracks": []any{
						map[string]any{"id": "t1", "name": "One", "popularity": 50},
						nil,
					},
				})
			}))

			tracks, err := srv.FullTracks(context.Background(), []string{"t1", "bad"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 1 {
				t.Errorf("expected null entries skipped, got %d tracks", len(tracks))
			}
		})

		t.Run("Rejects Oversized Batch", func(t *testing.T) {
			srv, _ := newTestService(t, http.NotFoundHandler())

			batch := make([]string, 51)
			_, err := srv.FullTracks(context.Background(), batch)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for 51 tracks, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "POST" {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/users/user1/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body["name"] != "Top 10 The Beatles" {
				t.Errorf("unexpected playlist name %v", body["name"])
			}
			if body["public"] != true {
				t.Errorf("expected public playlist, got %v", body["public"])
			}

			json.NewEncoder(w).Encode(map[string]any{
				"id":            "p1",
				"name":          "Top 10 The Beatles",
				"description":   "The 10 most popular tracks by The Beatles",
				"public":        true,
				"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/p1"},
			})
		}))

		created, err := srv.CreatePlaylist(context.Background(), "user1", models.Playlist{
			Name:        "Top 10 The Beatles",
			Description: "The 10 most popular tracks by The Beatles",
			Public:      true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.ID != "p1" {
			t.Errorf("expected playlist ID p1, got %s", created.ID)
		}
		if created.URL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("expected playlist URL mapped, got %s", created.URL)
		}
	})

	t.Run("AddTracks", func(t *testing.T) {
		t.Run("Posts URIs", func(t *testing.T) {
			var gotURIs []any
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/playlists/p1/tracks" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}

				var body map[string][]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request body: %v", err)
				}
				gotURIs = body["uris"]
				w.WriteHeader(http.StatusCreated)
			}))

			err := srv.AddTracks(context.Background(), "p1", []string{"spotify:track:t1", "spotify:track:t2"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(gotURIs) != 2 {
				t.Errorf("expected 2 URIs posted, got %d", len(gotURIs))
			}
		})

		t.Run("Rejects Oversized Batch", func(t *testing.T) {
			srv, _ := newTestService(t, http.NotFoundHandler())

			batch := make([]string, 101)
			err := srv.AddTracks(context.Background(), "p1", batch)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for 101 URIs, got %v", err)
			}
		})
	})

	t.Run("Error Mapping", func(t *testing.T) {
		t.Run("Unauthorized", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired on 401, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			srv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))

			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest on 502, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			srv, _ := newTestService(t, http.NotFoundHandler())
			srv.httpClient = &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset")),
			}

			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest on transport failure, got %v", err)
			}
		})

		t.Run("Unreadable Body", func(t *testing.T) {
			srv, _ := newTestService(t, http.NotFoundHandler())
			srv.httpClient = &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
				}, nil),
			}

			_, err := srv.CurrentUser(context.Background())
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode failure, got %v", err)
			}
		})
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
