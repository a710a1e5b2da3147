// Package models defines domain entities and persistence interfaces for the playlist builder.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing Spotify catalog data
//   - [Artist] : Artist metadata from catalog search
//   - [Track] : Song metadata with popularity and release date for ranking
//   - [Playlist] : Playlist metadata for created playlists
//   - [User] : The authenticated account that owns created playlists
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [BuildRecord] : One row per playlist created by the tool
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, and validation.
// The [Repository] interface defines standard data access operations.
package models
