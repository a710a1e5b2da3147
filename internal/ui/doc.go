// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing a playlist before it is created:
//  1. [TrackPickView] : Review the selected tracks, toggling any out with space
//  2. [ConfirmView] : Confirm playlist creation
//  3. [BuildView] : Monitor real-time progress updates
//  4. [ResultView] : Display the created playlist and its URL
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking
// status reporting while the playlist is created.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
