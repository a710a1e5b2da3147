package main

import (
	"context"
	"os"

	"github.com/boko-maru/top-n-spotify/internal/repositories"
	"github.com/boko-maru/top-n-spotify/internal/services"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	godotenv.Load()
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load config, using defaults %v", err)
		}
	}
	config.ApplyEnv()

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			spotifyService = svc
		} else {
			logger.Warnf("failed to create Spotify service %v", err)
		}
	}

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Logger:     logger,
	}

	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			defer db.Close()
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			opts.DB = db
			opts.Tokens = repositories.NewTokenRepository(db)
			opts.History = repositories.NewHistoryRepository(db)
		} else {
			logger.Warnf("failed to open database %v", err)
		}
	}

	runner := NewRunner(opts)
	runner.restoreSession(context.Background())

	app := &cli.Command{
		Name:     "topn",
		Usage:    "Build a playlist of an artist's top tracks on Spotify",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
