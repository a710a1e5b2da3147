package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/ranking"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/boko-maru/top-n-spotify/internal/tasks"
	"github.com/boko-maru/top-n-spotify/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// Build ranks an artist's tracks and creates the playlist.
func (r *Runner) Build(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfigFlag(cmd); err != nil {
		return err
	}

	opts, err := r.buildOpts(cmd)
	if err != nil {
		return err
	}

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured, run 'topn setup'", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: build engine not initialized", shared.ErrServiceUnavailable)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("starting build", "artist", opts.Artist, "n", opts.N, "mode", opts.Mode(), "aggressiveness", int(opts.Level))

	if cmd.Bool("interactive") {
		return r.buildInteractive(ctx, opts)
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := r.engine.Build(ctx, opts, progressCh)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
			if authErr != nil {
				close(progressCh)
				<-done
				return authErr
			}
			result, err = r.engine.Build(ctx, opts, progressCh)
		}
	}
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(result, pretty)
	}

	if opts.DryRun {
		r.writePlain("\n")
		r.writePlainHeader("Dry Run Complete!")
		r.printPreview(&result.Preview, opts)
		return nil
	}

	r.writePlain("\n")
	r.writePlainHeader("Playlist Created!")
	r.writePlain("Artist: %s\n", result.Preview.Artist.Name)
	r.writePlain("Mode: %s (aggressiveness %d)\n", result.Preview.Mode, int(result.Preview.Level))
	r.writePlain("Playlist: %s\n", result.Playlist.Name)
	r.writePlain("Tracks: %d (from %d candidates)\n", result.Playlist.TrackCount, result.Preview.Candidates)
	if result.Playlist.URL != "" {
		r.writePlain("URL: %s\n", result.Playlist.URL)
	}

	return nil
}

// buildInteractive computes a preview, then hands control to the TUI for
// track picking, confirmation, and publishing.
func (r *Runner) buildInteractive(ctx context.Context, opts tasks.BuildOpts) error {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	preview, err := r.engine.Preview(ctx, opts, progressCh)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
			if authErr != nil {
				close(progressCh)
				<-done
				return authErr
			}
			preview, err = r.engine.Preview(ctx, opts, progressCh)
		}
	}
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/topn-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, preview, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	result, err := model.Result()
	if err != nil {
		return err
	}
	if result == nil || result.Playlist == nil {
		return r.writePlain("No playlist created.\n")
	}

	r.writePlain("✓ Created %s (%d tracks)\n", result.Playlist.Name, result.Playlist.TrackCount)
	if result.Playlist.URL != "" {
		r.writePlain("  %s\n", result.Playlist.URL)
	}

	return nil
}

// buildOpts parses positional arguments and flags into tasks.BuildOpts.
func (r *Runner) buildOpts(cmd *cli.Command) (tasks.BuildOpts, error) {
	var opts tasks.BuildOpts

	artist := cmd.StringArg("artist")
	countArg := cmd.StringArg("count")
	if artist == "" || countArg == "" {
		return opts, fmt.Errorf("%w: usage: topn build \"<artist>\" <n>", shared.ErrMissingArgument)
	}

	n, err := strconv.Atoi(countArg)
	if err != nil || n <= 0 {
		return opts, fmt.Errorf("%w: track count must be a positive integer, got %q", shared.ErrInvalidArgument, countArg)
	}

	level, err := ranking.ParseLevel(cmd.Int("aggressiveness"))
	if err != nil {
		return opts, err
	}

	public := r.config.Playlist.Public
	if cmd.Bool("private") {
		public = false
	}

	return tasks.BuildOpts{
		Artist:      artist,
		N:           n,
		Level:       level,
		Deep:        cmd.Bool("deep"),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      public,
		DryRun:      cmd.Bool("dry-run"),
	}, nil
}

// printProgress renders a single engine update on the terminal.
func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.ResolveArtist:
		r.writePlain("🔎 %s\n", update.Message)
	case tasks.FetchTopTracks:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.FetchReleases:
		r.writePlain("📚 %s\n", update.Message)
	case tasks.CollectTracks:
		r.writePlain("   %s\n", update.Message)
	case tasks.RankTracks:
		r.writePlain("📊 %s\n", update.Message)
	case tasks.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	case tasks.AddTracks:
		r.writePlain("   %s\n", update.Message)
	}
}

// printPreview lists the selected tracks in playlist order.
func (r *Runner) printPreview(preview *tasks.BuildPreview, opts tasks.BuildOpts) {
	r.writePlain("Artist: %s\n", preview.Artist.Name)
	r.writePlain("Mode: %s (aggressiveness %d)\n", preview.Mode, int(preview.Level))
	r.writePlain("Playlist: %s\n", opts.PlaylistName(preview.Artist.Name))
	r.writePlain("Selected %d of %d candidate tracks:\n\n", len(preview.Tracks), preview.Candidates)

	for i, track := range preview.Tracks {
		r.printTrack(i+1, track)
	}
}

func (r *Runner) printTrack(rank int, track models.Track) {
	r.writePlain("%2d. %s", rank, track.Name)
	if track.Album != "" {
		r.writePlain(" (%s)", track.Album)
	}
	if track.DurationMS > 0 {
		r.writePlain(" [%s]", shared.FormatDuration(track.DurationMS))
	}
	r.writePlain(" · popularity %d\n", track.Popularity)
}
