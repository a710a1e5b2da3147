package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tu "github.com/boko-maru/top-n-spotify/internal/testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		config := DefaultConfig()

		if config.Database.Path != "./topn.db" {
			t.Errorf("expected database path ./topn.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if !config.Playlist.Public {
			t.Error("expected playlists to default to public")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(tu.MustReadFile(t, configPath), "[credentials.spotify]") {
			t.Error("created config should contain the credentials section")
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[playlist]
public = false
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Playlist.Public {
			t.Error("expected playlist.public false from file")
		}

		t.Run("missing file", func(t *testing.T) {
			_, err := LoadConfig(filepath.Join(tmpDir, "nope.toml"))
			if !errors.Is(err, ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("malformed TOML", func(t *testing.T) {
			badPath := filepath.Join(tmpDir, "bad.toml")
			if err := os.WriteFile(badPath, []byte("[database\npath ="), 0644); err != nil {
				t.Fatalf("failed to write bad config: %v", err)
			}

			_, err := LoadConfig(badPath)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env_client_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")
		t.Setenv("SPOTIFY_REDIRECT_URI", "http://localhost:9999/callback")

		config := DefaultConfig()

		if config.Credentials.Spotify.ClientID != "env_client_id" {
			t.Errorf("expected client_id from environment, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected client_secret from environment, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "http://localhost:9999/callback" {
			t.Errorf("expected redirect_uri from environment, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		t.Run("round trips values", func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.toml")

			config := DefaultConfig()
			config.Credentials.Spotify.ClientID = "saved_id"
			config.Database.Path = "/saved/path.db"

			if err := SaveConfig(configPath, config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			loaded, err := LoadConfig(configPath)
			if err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}

			if loaded.Credentials.Spotify.ClientID != "saved_id" {
				t.Errorf("expected saved client_id, got %s", loaded.Credentials.Spotify.ClientID)
			}
			if loaded.Database.Path != "/saved/path.db" {
				t.Errorf("expected saved database path, got %s", loaded.Database.Path)
			}
		})

		t.Run("rejects nil config", func(t *testing.T) {
			if err := SaveConfig("/tmp/unused.toml", nil); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig saving nil config, got %v", err)
			}
		})
	})

	t.Run("Map", func(t *testing.T) {
		spotify := SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost:3000/callback",
		}

		m := spotify.Map()

		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "http://localhost:3000/callback" {
			t.Errorf("unexpected credential map: %v", m)
		}
	})
}
