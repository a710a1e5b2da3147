package models

import (
	"fmt"
	"time"
)

var _ Model = (*BuildRecord)(nil)

// BuildRecord is the persisted history entry for a playlist created by the tool.
type BuildRecord struct {
	id             string
	sequence       int
	artistID       string
	artistName     string
	playlistID     string
	playlistName   string
	trackCount     int
	mode           string // "top" or "deep"
	aggressiveness int
	url            string
	createdAt      time.Time
	updatedAt      time.Time
}

// NewBuildRecord creates a BuildRecord from a resolved artist and the playlist that was created for it.
func NewBuildRecord(sequence int, artist Artist, playlist Playlist, mode string, aggressiveness int) *BuildRecord {
	now := time.Now()
	return &BuildRecord{
		sequence:       sequence,
		artistID:       artist.ID,
		artistName:     artist.Name,
		playlistID:     playlist.ID,
		playlistName:   playlist.Name,
		trackCount:     playlist.TrackCount,
		mode:           mode,
		aggressiveness: aggressiveness,
		url:            playlist.URL,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (b *BuildRecord) ID() string           { return b.id }
func (b *BuildRecord) Sequence() int        { return b.sequence }
func (b *BuildRecord) ArtistID() string     { return b.artistID }
func (b *BuildRecord) ArtistName() string   { return b.artistName }
func (b *BuildRecord) PlaylistID() string   { return b.playlistID }
func (b *BuildRecord) PlaylistName() string { return b.playlistName }
func (b *BuildRecord) TrackCount() int      { return b.trackCount }
func (b *BuildRecord) Mode() string         { return b.mode }
func (b *BuildRecord) Aggressiveness() int  { return b.aggressiveness }
func (b *BuildRecord) URL() string          { return b.url }
func (b *BuildRecord) CreatedAt() time.Time { return b.createdAt }
func (b *BuildRecord) UpdatedAt() time.Time { return b.updatedAt }

func (b *BuildRecord) SetID(id string)            { b.id = id }
func (b *BuildRecord) SetSequence(seq int)        { b.sequence = seq }
func (b *BuildRecord) SetCreatedAt(t time.Time)   { b.createdAt = t }
func (b *BuildRecord) SetUpdatedAt(t time.Time)   { b.updatedAt = t }

// Validate checks that the record describes a real build.
func (b *BuildRecord) Validate() error {
	if b.artistID == "" || b.artistName == "" {
		return fmt.Errorf("build record requires an artist")
	}
	if b.playlistID == "" || b.playlistName == "" {
		return fmt.Errorf("build record requires a playlist")
	}
	if b.trackCount <= 0 {
		return fmt.Errorf("build record requires at least one track")
	}
	switch b.mode {
	case "top", "deep":
	default:
		return fmt.Errorf("invalid build mode: %q", b.mode)
	}
	return nil
}
