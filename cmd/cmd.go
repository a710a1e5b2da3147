// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// buildCommand is the core operation: rank an artist's tracks and create a playlist.
func buildCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Create a playlist of an artist's top N tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "artist"},
			&cli.StringArg{Name: "count"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "aggressiveness",
				Aliases: []string{"a"},
				Usage:   "Age-weighting aggressiveness (0-3); higher favors older tracks",
				Value:   0,
			},
			&cli.BoolFlag{
				Name:  "deep",
				Usage: "Scan the full discography instead of the top-tracks endpoint",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Playlist name (default: \"Top {N} {Artist}\")",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Make the playlist private",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Rank and print tracks without creating a playlist",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Review and toggle tracks in a TUI before creating",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Build,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Auth,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the cached Spotify token",
				Action: r.AuthLogout,
			},
		},
	}
}

// artistCommand handles artist lookups that create nothing.
func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "Look up artists and their top tracks",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Show artists matching a name",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of artists to return",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ArtistSearch,
			},
			{
				Name:  "top",
				Usage: "List an artist's top tracks without creating anything",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ArtistTop,
			},
		},
	}
}

// historyCommand lists playlists previously created by this tool.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List previously built playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "artist",
				Usage: "Filter by artist name",
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Filter by build mode (top or deep)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to return",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml, initialize the database, and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
