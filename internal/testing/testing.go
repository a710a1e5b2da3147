// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/boko-maru/top-n-spotify/internal/models"
)

// MockService is a configurable test double for [services.Service].
// Unset function fields return zero values.
type MockService struct {
	AuthenticateFunc   func(ctx context.Context, credentials map[string]string) error
	CurrentUserFunc    func(ctx context.Context) (*models.User, error)
	SearchArtistFunc   func(ctx context.Context, name string) (*models.Artist, error)
	TopTracksFunc      func(ctx context.Context, artistID string) ([]models.Track, error)
	ReleaseIDsFunc     func(ctx context.Context, artistID string, limit, offset int) ([]string, bool, error)
	AlbumTrackIDsFunc  func(ctx context.Context, albumIDs []string) ([]string, error)
	FullTracksFunc     func(ctx context.Context, trackIDs []string) ([]models.Track, error)
	CreatePlaylistFunc func(ctx context.Context, userID string, draft models.Playlist) (*models.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackURIs []string) error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, credentials)
	}
	return nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &models.User{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockService) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	if m.SearchArtistFunc != nil {
		return m.SearchArtistFunc(ctx, name)
	}
	return &models.Artist{ID: "mock_artist", Name: name}, nil
}

func (m *MockService) TopTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	if m.TopTracksFunc != nil {
		return m.TopTracksFunc(ctx, artistID)
	}
	return nil, nil
}

func (m *MockService) ReleaseIDs(ctx context.Context, artistID string, limit, offset int) ([]string, bool, error) {
	if m.ReleaseIDsFunc != nil {
		return m.ReleaseIDsFunc(ctx, artistID, limit, offset)
	}
	return nil, false, nil
}

func (m *MockService) AlbumTrackIDs(ctx context.Context, albumIDs []string) ([]string, error) {
	if m.AlbumTrackIDsFunc != nil {
		return m.AlbumTrackIDsFunc(ctx, albumIDs)
	}
	return nil, nil
}

func (m *MockService) FullTracks(ctx context.Context, trackIDs []string) ([]models.Track, error) {
	if m.FullTracksFunc != nil {
		return m.FullTracksFunc(ctx, trackIDs)
	}
	return nil, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID string, draft models.Playlist) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, userID, draft)
	}
	created := draft
	created.ID = "mock_playlist"
	return &created, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackURIs []string) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackURIs)
	}
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
