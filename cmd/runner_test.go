package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boko-maru/top-n-spotify/internal/repositories"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	tu "github.com/boko-maru/top-n-spotify/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Spotify: spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writes plain text without formatting", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("simple text")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "simple text" {
				t.Errorf("expected 'simple text', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("saveToken", func(t *testing.T) {
		t.Run("saves token to repository", func(t *testing.T) {
			db, err := shared.NewDatabase(":memory:")
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()
			if err := shared.RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}

			tokens := repositories.NewTokenRepository(db)
			runner := NewRunner(RunnerOpts{Tokens: tokens})

			token := &oauth2.Token{
				AccessToken:  "new_access_token",
				RefreshToken: "new_refresh_token",
			}

			if err := runner.saveToken(token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			loaded, err := tokens.Load(tokenService)
			if err != nil {
				t.Fatalf("failed to reload token: %v", err)
			}

			if loaded.AccessToken != "new_access_token" {
				t.Errorf("expected access token to be saved, got %s", loaded.AccessToken)
			}
			if loaded.RefreshToken != "new_refresh_token" {
				t.Errorf("expected refresh token to be saved, got %s", loaded.RefreshToken)
			}
		})

		t.Run("errors without a token store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			err := runner.saveToken(&oauth2.Token{AccessToken: "test"})

			if err == nil {
				t.Fatal("expected error without token store")
			}
			if !strings.Contains(err.Error(), "token store not initialized") {
				t.Errorf("expected token store error, got %v", err)
			}
		})
	})

	t.Run("ensureDatabase", func(t *testing.T) {
		t.Run("creates database and repositories", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "topn.db")

			runner := NewRunner(RunnerOpts{Config: config})

			if err := runner.ensureDatabase(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer runner.db.Close()

			if runner.tokens == nil {
				t.Error("expected token repository to be created")
			}
			if runner.history == nil {
				t.Error("expected history repository to be created")
			}
			if runner.engine == nil {
				t.Error("expected engine to be rebuilt")
			}
		})

		t.Run("is idempotent with existing repositories", func(t *testing.T) {
			db, err := shared.NewDatabase(":memory:")
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			defer db.Close()
			if err := shared.RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}

			tokens := repositories.NewTokenRepository(db)
			history := repositories.NewHistoryRepository(db)
			runner := NewRunner(RunnerOpts{Tokens: tokens, History: history})

			if err := runner.ensureDatabase(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.tokens != tokens {
				t.Error("expected existing token repository to be kept")
			}
			if runner.history != history {
				t.Error("expected existing history repository to be kept")
			}
		})
	})

	t.Run("loadConfigFlag", func(t *testing.T) {
		runFlag := func(t *testing.T, r *Runner, args []string) error {
			t.Helper()

			cmd := &cli.Command{
				Name: "test",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "config.toml"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.loadConfigFlag(cmd)
				},
			}
			return cmd.Run(context.Background(), args)
		}

		t.Run("replaces config when the flag names another file", func(t *testing.T) {
			t.Setenv("SPOTIFY_CLIENT_ID", "")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "")

			path := filepath.Join(t.TempDir(), "other.toml")
			content := `[credentials.spotify]
client_id = "other_id"
client_secret = "other_secret"

[playlist]
public = false
`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{ConfigPath: "config.toml", Output: &bytes.Buffer{}})

			if err := runFlag(t, runner, []string{"test", "-c", path}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config.Credentials.Spotify.ClientID != "other_id" {
				t.Errorf("expected config reloaded from flag, got client_id %s", runner.config.Credentials.Spotify.ClientID)
			}
			if runner.configPath != path {
				t.Errorf("expected configPath updated, got %s", runner.configPath)
			}
			if runner.config.Playlist.Public {
				t.Error("expected playlist default from the new config")
			}
			if runner.spotify == nil {
				t.Error("expected Spotify client rebuilt from the new credentials")
			}
		})

		t.Run("keeps startup config without the flag", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config, ConfigPath: "config.toml", Output: &bytes.Buffer{}})

			if err := runFlag(t, runner, []string{"test"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config != config {
				t.Error("expected config unchanged without the flag")
			}
		})

		t.Run("fails on a missing file", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runFlag(t, runner, []string{"test", "-c", filepath.Join(t.TempDir(), "nope.toml")})
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})

	t.Run("SetLogger", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		logger := shared.NewLogger(&bytes.Buffer{})

		runner.SetLogger(logger)

		if runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
	})
}
