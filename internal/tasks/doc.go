// Package tasks orchestrates playlist builds with real-time progress reporting.
//
// # Core Operations
//
// The [BuildEngine] interface defines three operations:
//
//  1. [BuildEngine.Preview] : Resolve and select tracks without touching the user's account
//     - Resolves the artist name against catalog search
//     - Fetches candidates (top tracks, or the full discography with --deep)
//     - Ranks and selects the top N
//
//  2. [BuildEngine.Publish] : Turn a preview into a real playlist
//     - Looks up the authenticated user
//     - Creates the playlist and adds tracks in API-sized batches
//     - Records the build in local history
//
//  3. [BuildEngine.Build] : Preview followed by Publish (skipped for dry runs)
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Rate Limiting
//
// Deep scans walk an artist's entire discography, which can mean dozens of catalog requests
// for prolific artists. An optional [rate.Limiter] spaces those requests out; the default
// top-tracks path makes too few calls to need it.
//
// # History
//
// The optional [HistoryRecorder] interface persists one record per created playlist.
// Records are written silently (errors ignored) so a cache problem never fails a build.
//
// # Implementation
//
// [PlaylistEngine] implements [BuildEngine] with dependencies on:
//   - [services.Service] : the Spotify API client
//   - [HistoryRecorder] : optional persistence layer (repositories.HistoryRepository)
//   - [rate.Limiter] : optional request pacing for deep scans
package tasks
