package ui

import (
	"fmt"

	"github.com/boko-maru/top-n-spotify/internal/models"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item]. Excluded tracks
// stay visible but render unchecked.
type trackItem struct {
	track    models.Track
	rank     int
	excluded bool
}

func (i trackItem) FilterValue() string { return i.track.Name }

func (i trackItem) Title() string {
	mark := "[x]"
	if i.excluded {
		mark = "[ ]"
	}
	return fmt.Sprintf("%s %2d. %s", mark, i.rank, i.track.Name)
}

func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if i.track.DurationMS > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.track.DurationMS))
	}
	return desc
}
