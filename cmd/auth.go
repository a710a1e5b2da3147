package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/server"
	"github.com/boko-maru/top-n-spotify/internal/services"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Auth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, exchanges
// the auth code for tokens, and caches them in the local database.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfigFlag(cmd); err != nil {
		return err
	}

	config := r.config
	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or the environment", shared.ErrMissingCredentials)
	}

	if r.spotify == nil {
		spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.spotify = spotifyService
		r.rebuildEngine()
	}

	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: Spotify service does not support OAuth", shared.ErrServiceUnavailable)
	}

	if err := r.ensureDatabase(); err != nil {
		return err
	}

	token, err := r.doOAuth(config, oauthSrv, "authorization")
	if err != nil {
		return err
	}

	if err := oauthSrv.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to authenticate with new token: %w", err)
	}

	oauthSrv.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.saveToken(t); err != nil {
			r.logger.Warnf("failed to persist refreshed token %v", err)
		}
	})

	if err := r.saveToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token cached in %s\n\n", config.Database.Path)
	r.writePlain("You can now use: topn build \"Artist Name\" 10\n")

	return nil
}

// AuthStatus reports whether a cached token exists and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return r.writePlain("✗ Not authenticated (no database, run 'topn setup')\n")
	}

	token, err := r.tokens.Load(tokenService)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not authenticated (run 'topn auth')\n")
		}
		return fmt.Errorf("failed to load token: %w", err)
	}

	r.writePlain("✓ Authenticated\n")
	if !token.Expiry.IsZero() {
		if token.Expiry.Before(time.Now()) {
			r.writePlain("Access token expired %s", token.Expiry.Format(time.RFC1123))
			r.writePlain(" (refreshed automatically on next use)\n")
		} else {
			r.writePlain("Access token valid until %s\n", token.Expiry.Format(time.RFC1123))
		}
	}
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: present\n")
	}

	return nil
}

// AuthLogout removes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: no cached token", shared.ErrNotAuthenticated)
	}

	if err := r.tokens.Delete(tokenService); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return fmt.Errorf("%w: no cached token", shared.ErrNotAuthenticated)
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return r.writePlain("✓ Logged out\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// handleSpotifyAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...\n")

	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return true, fmt.Errorf("%w: Spotify service does not support reauthorization", shared.ErrServiceUnavailable)
	}

	token, reauthErr := r.doOAuth(r.config, oauthSrv, "reauthorization")
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	if authErr := oauthSrv.OAuthenticate(ctx, token); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new token: %w", authErr)
	}

	if saveErr := r.saveToken(token); saveErr != nil {
		r.logger.Warnf("failed to persist new token %v", saveErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")

	return true, nil
}
