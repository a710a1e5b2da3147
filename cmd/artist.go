package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/urfave/cli/v3"
)

// artistMatcher is the optional multi-result search surface of a catalog service.
type artistMatcher interface {
	MatchArtists(ctx context.Context, query string, limit int) ([]models.Artist, error)
}

// ArtistSearch shows artists matching a name, in relevance order.
func (r *Runner) ArtistSearch(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if name == "" {
		return fmt.Errorf("%w: usage: topn artist search \"<name>\"", shared.ErrMissingArgument)
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("searching for artists matching %q", name)

	var artists []models.Artist
	var err error

	if matcher, ok := r.spotify.(artistMatcher); ok {
		artists, err = matcher.MatchArtists(ctx, name, limit)
	} else {
		var artist *models.Artist
		if artist, err = r.spotify.SearchArtist(ctx, name); err == nil {
			artists = []models.Artist{*artist}
		}
	}

	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			return r.ArtistSearch(ctx, cmd)
		}
		return err
	}

	if len(artists) == 0 {
		return fmt.Errorf("%w: %q", shared.ErrArtistNotFound, name)
	}

	if useJSON {
		return r.writeJSON(artists, pretty)
	}

	r.writePlain("Found %d artists:\n\n", len(artists))
	for i, artist := range artists {
		r.writePlain("%d. %s\n", i+1, artist.Name)
		if len(artist.Genres) > 0 {
			r.writePlain("   Genres: %s\n", strings.Join(artist.Genres, ", "))
		}
		if artist.Followers > 0 {
			r.writePlain("   Followers: %d\n", artist.Followers)
		}
		r.writePlain("   ID: %s\n", artist.ID)
		if artist.URL != "" {
			r.writePlain("   URL: %s\n", artist.URL)
		}
		r.writePlain("\n")
	}

	return nil
}

// ArtistTop lists an artist's top tracks without creating anything.
func (r *Runner) ArtistTop(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if name == "" {
		return fmt.Errorf("%w: usage: topn artist top \"<name>\"", shared.ErrMissingArgument)
	}
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("fetching top tracks for %q", name)

	artist, err := r.spotify.SearchArtist(ctx, name)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			if artist, err = r.spotify.SearchArtist(ctx, name); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	tracks, err := r.spotify.TopTracks(ctx, artist.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if len(tracks) == 0 {
		return fmt.Errorf("%w: no top tracks for %q", shared.ErrNoTracks, artist.Name)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	r.writePlain("Top tracks for %s:\n\n", artist.Name)
	for i, track := range tracks {
		r.printTrack(i+1, track)
	}

	return nil
}
