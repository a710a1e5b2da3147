package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// User represents the authenticated Spotify account.
type User struct {
	ID          string
	DisplayName string
}

// Artist represents an artist in the catalog.
type Artist struct {
	ID        string
	Name      string
	Genres    []string
	Followers int
	URL       string
}

// Track represents a single song.
//
// IDs and URIs returned by the catalog pass through unmodified.
type Track struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	ReleaseDate string // YYYY, YYYY-MM, or YYYY-MM-DD
	DurationMS  int
	Popularity  int // 0-100 as reported by the catalog
	URI         string
	URL         string
}

// Playlist represents an ordered, named collection of tracks owned by a user.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Public      bool
	TrackCount  int
	URL         string
}
