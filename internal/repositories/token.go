package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository persists OAuth tokens so logins survive between CLI runs.
//
// One row per service, keyed by service name. Saving a token for a service
// that already has one replaces it.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save upserts the token for a service.
func (r *TokenRepository) Save(service string, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: refusing to cache an empty token", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO tokens (service, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	var expiry any
	if !token.Expiry.IsZero() {
		expiry = token.Expiry
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	_, err := r.db.Exec(query, service, token.AccessToken, token.RefreshToken, tokenType, expiry, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Load retrieves the cached token for a service.
//
// Returns shared.ErrNotAuthenticated when no token has been cached yet.
func (r *TokenRepository) Load(service string) (*oauth2.Token, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expiry
		FROM tokens
		WHERE service = ?
	`

	var (
		accessToken  string
		refreshToken string
		tokenType    string
		expiry       sql.NullTime
	)

	err := r.db.QueryRow(query, service).Scan(&accessToken, &refreshToken, &tokenType, &expiry)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no cached token for %s", shared.ErrNotAuthenticated, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
	}
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return token, nil
}

// Delete removes the cached token for a service, logging the user out.
func (r *TokenRepository) Delete(service string) error {
	result, err := r.db.Exec("DELETE FROM tokens WHERE service = ?", service)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: no cached token for %s", shared.ErrNotAuthenticated, service)
	}

	return nil
}
