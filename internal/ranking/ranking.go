// Package ranking scores and orders tracks by popularity weighted against catalog age.
//
// Spotify's popularity metric favors recent releases. The aggressiveness level
// controls how strongly a track's age compensates for that bias: level 0 leaves
// popularity untouched, higher levels multiply it by a growing function of the
// days since release.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
)

// Level controls how aggressively track age boosts popularity.
type Level int

const (
	LevelNone       Level = iota // raw popularity
	LevelSubtle                  // log(log(age) + 1)
	LevelBalanced                // log(age)
	LevelAggressive              // sqrt(age)
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSubtle:
		return "subtle"
	case LevelBalanced:
		return "balanced"
	case LevelAggressive:
		return "aggressive"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel validates an aggressiveness value from the command line.
func ParseLevel(value int) (Level, error) {
	if value < int(LevelNone) || value > int(LevelAggressive) {
		return LevelNone, fmt.Errorf("%w: aggressiveness must be between 0 and 3, got %d", shared.ErrInvalidArgument, value)
	}
	return Level(value), nil
}

// ParseReleaseDate parses a catalog release date. Precision varies by release:
// some report only a year ("1969"), some a month ("1969-09"), most a full
// day ("1969-09-26"). Partial dates resolve to the first day of the period.
func ParseReleaseDate(value string) (time.Time, error) {
	layouts := []string{"2006-01-02", "2006-01", "2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized release date %q", shared.ErrInvalidInput, value)
}

// Scored pairs a track with its computed ranking score.
type Scored struct {
	Track models.Track
	Score float64
}

// Score computes a track's ranking score at the given aggressiveness level.
//
// The age factor is the days since release plus two, which keeps the level 1
// double logarithm defined for brand-new releases. Tracks without a parseable
// release date score on raw popularity alone.
func Score(track models.Track, level Level, now time.Time) float64 {
	popularity := float64(track.Popularity)
	if level == LevelNone {
		return popularity
	}

	released, err := ParseReleaseDate(track.ReleaseDate)
	if err != nil {
		return popularity
	}

	days := now.Sub(released).Hours() / 24
	if days < 0 {
		days = 0
	}
	ageFactor := days + 2

	switch level {
	case LevelSubtle:
		return popularity * math.Log(math.Log(ageFactor)+1)
	case LevelBalanced:
		return popularity * math.Log(ageFactor)
	case LevelAggressive:
		return popularity * math.Sqrt(ageFactor)
	default:
		return popularity
	}
}

// Rank scores the tracks and orders them by score, highest first. Duplicate
// track IDs collapse to their first occurrence. The sort is stable, so tracks
// with equal scores keep their incoming order.
func Rank(tracks []models.Track, level Level, now time.Time) []Scored {
	seen := make(map[string]bool, len(tracks))
	scored := make([]Scored, 0, len(tracks))

	for _, track := range tracks {
		if track.ID == "" || seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		scored = append(scored, Scored{Track: track, Score: Score(track, level, now)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// SelectTop takes the first n tracks from a ranked list, skipping entries
// whose name duplicates an already-selected track. The same song often
// appears on an album, a single, and a compilation with distinct IDs.
func SelectTop(scored []Scored, n int) []models.Track {
	if n <= 0 {
		return nil
	}

	seen := make(map[string]bool, n)
	selected := make([]models.Track, 0, n)

	for _, s := range scored {
		key := strings.ToLower(strings.TrimSpace(s.Track.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, s.Track)
		if len(selected) == n {
			break
		}
	}

	return selected
}

// Dedupe removes duplicate track IDs and caps the list at n, preserving the
// incoming order. Used when the catalog's own ordering should survive.
func Dedupe(tracks []models.Track, n int) []models.Track {
	if n <= 0 {
		return nil
	}

	seen := make(map[string]bool, len(tracks))
	out := make([]models.Track, 0, n)

	for _, track := range tracks {
		if track.ID == "" || seen[track.ID] {
			continue
		}
		seen[track.ID] = true
		out = append(out, track)
		if len(out) == n {
			break
		}
	}

	return out
}
