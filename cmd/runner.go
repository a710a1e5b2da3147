package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/boko-maru/top-n-spotify/internal/repositories"
	"github.com/boko-maru/top-n-spotify/internal/services"
	"github.com/boko-maru/top-n-spotify/internal/shared"
	"github.com/boko-maru/top-n-spotify/internal/tasks"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// tokenService keys the cached OAuth token in the tokens table.
const tokenService = "spotify"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	db         *sql.DB
	tokens     *repositories.TokenRepository
	history    *repositories.HistoryRepository
	engine     tasks.BuildEngine
	ownEngine  bool
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	DB         *sql.DB
	Tokens     *repositories.TokenRepository
	History    *repositories.HistoryRepository
	Engine     tasks.BuildEngine
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		db:         opts.DB,
		tokens:     opts.Tokens,
		history:    opts.History,
		engine:     opts.Engine,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if r.engine == nil {
		r.ownEngine = true
		r.rebuildEngine()
	}

	return r
}

// SetLogger swaps the runner's logger, used to redirect logs away from the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		buildCommand, authCommand, artistCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// rebuildEngine reconstructs the playlist engine after its dependencies change.
// Deep scans are paced at 10 requests per second to stay under Spotify's rate limit.
func (r *Runner) rebuildEngine() {
	if !r.ownEngine {
		return
	}

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	var history tasks.HistoryRecorder
	if r.history != nil {
		history = r.history
	}

	r.engine = tasks.NewPlaylistEngine(r.spotify, history, limiter)
}

// loadConfigFlag honors an explicit -c flag: the named file replaces the
// runner's active config and the Spotify client is rebuilt from its
// credentials. Without the flag the config chosen at startup stands.
func (r *Runner) loadConfigFlag(cmd *cli.Command) error {
	if !cmd.IsSet("config") {
		return nil
	}

	path := cmd.String("config")
	if path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	r.config = config
	r.configPath = path

	r.spotify = nil
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.spotify = spotify
	}
	r.rebuildEngine()

	return nil
}

// ensureDatabase opens the cache database and runs migrations if the runner
// does not already hold repositories. Safe to call from any command action.
func (r *Runner) ensureDatabase() error {
	if r.tokens != nil && r.history != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.tokens = repositories.NewTokenRepository(db)
	r.history = repositories.NewHistoryRepository(db)
	r.rebuildEngine()

	return nil
}

// restoreSession authenticates the Spotify service from the cached token, if
// one exists, and registers a callback so refreshed tokens are persisted.
func (r *Runner) restoreSession(ctx context.Context) {
	if r.tokens == nil || r.spotify == nil {
		return
	}

	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return
	}

	token, err := r.tokens.Load(tokenService)
	if err != nil {
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			r.logger.Warnf("failed to load cached token %v", err)
		}
		return
	}

	if err := oauthSrv.OAuthenticate(ctx, token); err != nil {
		r.logger.Warnf("cached token rejected %v", err)
		return
	}

	oauthSrv.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.saveToken(t); err != nil {
			r.logger.Warnf("failed to persist refreshed token %v", err)
		}
	})

	r.logger.Debug("session restored from cached token")
}

// saveToken persists an OAuth token to the cache database.
func (r *Runner) saveToken(token *oauth2.Token) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: token store not initialized, run 'topn setup' first", shared.ErrServiceUnavailable)
	}

	if err := r.tokens.Save(tokenService, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
